package enrollment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for enrollment persistence.
type Repository interface {
	// Create inserts the enrollment. It reports false without error when a
	// row for the (user, course) pair already exists; the uniqueness
	// constraint is the concurrency control for the whole pipeline.
	Create(ctx context.Context, e *Enrollment) (created bool, err error)

	// GetByUserCourse retrieves the enrollment for a (user, course) pair.
	GetByUserCourse(ctx context.Context, userID, courseID uuid.UUID) (*Enrollment, error)
}
