package enrollment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/microlearn/payments/internal/domain/course"
	"github.com/microlearn/payments/internal/domain/enrollment"
	domainErrors "github.com/microlearn/payments/internal/domain/errors"
)

// TransactionManager defines the interface for transaction management.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EnrollResponse reports the enrollment and whether this call created it.
type EnrollResponse struct {
	Enrollment *enrollment.Enrollment
	Created    bool
}

// EnrollStudentUseCase idempotently creates the enrollment for a paid
// (user, course) pair and bumps the course's enrolled counter. The inline
// fast path and the queued worker both run it; whoever wins the uniqueness
// constraint does the counter increment, the other observes a duplicate and
// stops.
type EnrollStudentUseCase struct {
	enrollmentRepo enrollment.Repository
	courseRepo     course.Repository
	txManager      TransactionManager
}

// NewEnrollStudentUseCase creates a new EnrollStudentUseCase.
func NewEnrollStudentUseCase(
	enrollmentRepo enrollment.Repository,
	courseRepo course.Repository,
	txManager TransactionManager,
) *EnrollStudentUseCase {
	return &EnrollStudentUseCase{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		txManager:      txManager,
	}
}

// Execute creates the enrollment if it does not exist. Duplicate attempts
// are benign no-ops, never errors.
func (uc *EnrollStudentUseCase) Execute(ctx context.Context, userID, courseID uuid.UUID) (*EnrollResponse, error) {
	existing, err := uc.enrollmentRepo.GetByUserCourse(ctx, userID, courseID)
	if err == nil {
		return &EnrollResponse{Enrollment: existing, Created: false}, nil
	}
	if !errors.Is(err, domainErrors.ErrEnrollmentNotFound) {
		return nil, err
	}

	e := enrollment.New(userID, courseID)
	var created bool
	err = uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var txErr error
		created, txErr = uc.enrollmentRepo.Create(txCtx, e)
		if txErr != nil {
			return txErr
		}
		if !created {
			// Lost the race to a concurrent writer; their transaction did
			// the increment.
			return nil
		}
		return uc.courseRepo.IncrementEnrolledCount(txCtx, courseID)
	})
	if err != nil {
		return nil, fmt.Errorf("create enrollment: %w", err)
	}

	if !created {
		existing, err := uc.enrollmentRepo.GetByUserCourse(ctx, userID, courseID)
		if err != nil {
			return nil, err
		}
		return &EnrollResponse{Enrollment: existing, Created: false}, nil
	}

	return &EnrollResponse{Enrollment: e, Created: true}, nil
}
