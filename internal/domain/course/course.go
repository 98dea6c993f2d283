package course

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Course is the slice of the course catalog this pipeline needs: publication
// state, pricing and the enrolled counter. Course content is owned elsewhere.
type Course struct {
	ID            uuid.UUID
	Title         string
	Topic         string
	AuthorID      uuid.UUID
	IsPublished   bool
	IsPremium     bool
	PriceCents    int64
	Currency      string
	EnrolledCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Purchasable reports whether the course requires (and can accept) payment.
func (c *Course) Purchasable() bool {
	return c.IsPremium && c.PriceCents > 0
}

// Repository defines the course storage contract consumed by the pipeline.
type Repository interface {
	// GetByID retrieves a course by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Course, error)

	// IncrementEnrolledCount atomically bumps the enrolled counter
	IncrementEnrolledCount(ctx context.Context, id uuid.UUID) error
}
