package enrollment

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment records that a user holds access to a course. At most one row
// exists per (user, course); creating a second one is a no-op, not an error.
type Enrollment struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	CourseID         uuid.UUID
	Progress         int // 0-100
	CompletedLessons []uuid.UUID
	StartedAt        time.Time
	CompletedAt      *time.Time
}

// New creates an enrollment at zero progress.
func New(userID, courseID uuid.UUID) *Enrollment {
	return &Enrollment{
		ID:        uuid.New(),
		UserID:    userID,
		CourseID:  courseID,
		Progress:  0,
		StartedAt: time.Now(),
	}
}
