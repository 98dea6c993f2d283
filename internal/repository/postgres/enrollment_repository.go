package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/microlearn/payments/internal/domain/errors"
	"github.com/microlearn/payments/internal/domain/enrollment"
)

// EnrollmentRepository implements enrollment.Repository using PostgreSQL.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

func (r *EnrollmentRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Create inserts the enrollment. The unique index on (user_id, course_id)
// converts a race between two writers into one insert and one no-op.
func (r *EnrollmentRepository) Create(ctx context.Context, e *enrollment.Enrollment) (bool, error) {
	tag, err := r.db(ctx).Exec(ctx,
		`INSERT INTO enrollments (id, user_id, course_id, progress, completed_lessons, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		e.ID, e.UserID, e.CourseID, e.Progress, lessonIDs(e.CompletedLessons), e.StartedAt, e.CompletedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert enrollment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByUserCourse retrieves the enrollment for a (user, course) pair.
func (r *EnrollmentRepository) GetByUserCourse(ctx context.Context, userID, courseID uuid.UUID) (*enrollment.Enrollment, error) {
	e := &enrollment.Enrollment{}
	var lessons []uuid.UUID
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, user_id, course_id, progress, completed_lessons, started_at, completed_at
		 FROM enrollments WHERE user_id = $1 AND course_id = $2`,
		userID, courseID,
	).Scan(&e.ID, &e.UserID, &e.CourseID, &e.Progress, &lessons, &e.StartedAt, &e.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("scan enrollment: %w", err)
	}
	e.CompletedLessons = lessons
	return e, nil
}

func lessonIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
