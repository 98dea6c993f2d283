package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	domainErrors "github.com/microlearn/payments/internal/domain/errors"
	"github.com/microlearn/payments/internal/domain/payment"
	"github.com/microlearn/payments/internal/gateway"
	infraredis "github.com/microlearn/payments/internal/infrastructure/redis"
)

// ConfirmRequest identifies the transaction to confirm.
type ConfirmRequest struct {
	PaymentID    uuid.UUID
	ValidationID string
}

// ConfirmResponse is the outcome of an authoritative confirmation.
type ConfirmResponse struct {
	Payment          *payment.Payment
	AlreadyCompleted bool
}

// ConfirmPaymentUseCase is the authoritative completion path, shared by the
// inline fast path and the validation worker. Every caller may run it
// concurrently with duplicates of itself; the completed-status check makes
// that safe.
type ConfirmPaymentUseCase struct {
	paymentRepo payment.Repository
	gateway     gateway.Client
	enqueuer    JobEnqueuer
	policies    Policies
}

// NewConfirmPaymentUseCase creates a new ConfirmPaymentUseCase.
func NewConfirmPaymentUseCase(
	paymentRepo payment.Repository,
	gw gateway.Client,
	enqueuer JobEnqueuer,
	policies Policies,
) *ConfirmPaymentUseCase {
	return &ConfirmPaymentUseCase{
		paymentRepo: paymentRepo,
		gateway:     gw,
		enqueuer:    enqueuer,
		policies:    policies,
	}
}

// Execute validates the transaction with the gateway and, on confirmation,
// marks the payment completed and hands off enrollment to its own queue.
// The enrollment job is enqueued only after the completed status is durably
// persisted, and is re-enqueued on redelivery so a crash between the two
// steps still converges. Errors are retryable by the caller's queue.
func (uc *ConfirmPaymentUseCase) Execute(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error) {
	p, err := uc.paymentRepo.GetByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}

	if p.Status == payment.StatusCompleted {
		if err := uc.enqueueEnrollment(ctx, p); err != nil {
			return nil, err
		}
		return &ConfirmResponse{Payment: p, AlreadyCompleted: true}, nil
	}
	if p.IsTerminal() {
		// failed/refunded: nothing to confirm, nothing to retry.
		return nil, domainErrors.NewDomainError(
			"terminal_payment",
			fmt.Sprintf("payment %s is %s", p.ID, p.Status),
			domainErrors.ErrInvalidStateTransition,
		)
	}

	v, err := uc.gateway.Validate(ctx, req.ValidationID)
	if err != nil {
		return nil, fmt.Errorf("validate transaction %s: %w", req.ValidationID, err)
	}
	if !v.Confirmed() {
		return nil, fmt.Errorf("%w: status %q", domainErrors.ErrValidationRejected, v.Status)
	}

	if err := p.MarkCompleted(payment.ValidationResult{
		ValidationID:      req.ValidationID,
		BankTransactionID: v.BankTransactionID,
		CardType:          v.CardType,
		CardBrand:         v.CardBrand,
	}); err != nil {
		return nil, err
	}
	if err := uc.paymentRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("persist completed payment: %w", err)
	}

	if err := uc.enqueueEnrollment(ctx, p); err != nil {
		return nil, err
	}

	return &ConfirmResponse{Payment: p}, nil
}

func (uc *ConfirmPaymentUseCase) enqueueEnrollment(ctx context.Context, p *payment.Payment) error {
	_, err := uc.enqueuer.Enqueue(ctx, infraredis.EnrollmentQueue, EnrollmentJob{
		UserID:    p.UserID,
		CourseID:  p.CourseID,
		PaymentID: p.ID,
	}, uc.policies.Enrollment)
	if err != nil {
		return fmt.Errorf("enqueue enrollment job: %w", err)
	}
	return nil
}
