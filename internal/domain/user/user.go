package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User holds the customer fields the gateway init requires.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// Repository defines the user storage contract consumed by the pipeline.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}
