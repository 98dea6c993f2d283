package checkout

import (
	"context"

	"github.com/google/uuid"

	infraredis "github.com/microlearn/payments/internal/infrastructure/redis"
)

// TransactionManager defines the interface for transaction management.
// This is an application-layer port, not a domain concern.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// JobEnqueuer defines the interface for putting work on a durable queue.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, queue string, payload any, opts infraredis.EnqueueOptions) (*infraredis.Job, error)
}

// ValidationJob is the payload of a payments:validation job.
type ValidationJob struct {
	PaymentID    uuid.UUID `json:"payment_id"`
	ValidationID string    `json:"validation_id"`
}

// EnrollmentJob is the payload of an enrollments:creation job.
type EnrollmentJob struct {
	UserID    uuid.UUID `json:"user_id"`
	CourseID  uuid.UUID `json:"course_id"`
	PaymentID uuid.UUID `json:"payment_id"`
}

// Policies carries the per-queue retry configuration.
type Policies struct {
	Validation infraredis.EnqueueOptions
	Enrollment infraredis.EnqueueOptions
}

// CallbackURLs are the gateway-facing URLs handed over on init.
type CallbackURLs struct {
	Success string
	Fail    string
	Cancel  string
	IPN     string
}
