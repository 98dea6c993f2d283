package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for payment persistence
type Repository interface {
	// Create creates a new payment record
	Create(ctx context.Context, payment *Payment) error

	// GetByID retrieves a payment by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// GetCompleted retrieves the completed payment for a (user, course)
	// pair, if any.
	GetCompleted(ctx context.Context, userID, courseID uuid.UUID) (*Payment, error)

	// Update updates an existing payment
	Update(ctx context.Context, payment *Payment) error

	// ListByUser lists a user's payments, newest first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Payment, error)
}
