package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/microlearn/payments/internal/domain/course"
	domainErrors "github.com/microlearn/payments/internal/domain/errors"
)

// CourseRepository implements course.Repository using PostgreSQL.
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

func (r *CourseRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// GetByID retrieves a course by ID.
func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*course.Course, error) {
	c := &course.Course{}
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, title, topic, author_id, is_published, is_premium,
		        price_cents, currency, enrolled_count, created_at, updated_at
		 FROM courses WHERE id = $1`, id,
	).Scan(&c.ID, &c.Title, &c.Topic, &c.AuthorID, &c.IsPublished, &c.IsPremium,
		&c.PriceCents, &c.Currency, &c.EnrolledCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("scan course: %w", err)
	}
	return c, nil
}

// IncrementEnrolledCount atomically bumps the enrolled counter.
func (r *CourseRepository) IncrementEnrolledCount(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE courses SET enrolled_count = enrolled_count + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment enrolled count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrCourseNotFound
	}
	return nil
}
