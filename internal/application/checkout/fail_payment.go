package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	domainErrors "github.com/microlearn/payments/internal/domain/errors"
	"github.com/microlearn/payments/internal/domain/payment"
)

// FailPaymentUseCase handles fail and cancel callbacks from the gateway.
type FailPaymentUseCase struct {
	paymentRepo payment.Repository
}

// NewFailPaymentUseCase creates a new FailPaymentUseCase.
func NewFailPaymentUseCase(paymentRepo payment.Repository) *FailPaymentUseCase {
	return &FailPaymentUseCase{paymentRepo: paymentRepo}
}

// Execute transitions a still-pending payment to failed. A payment that
// already completed is left untouched: a late fail/cancel after a successful
// validation is out-of-order delivery, not a real failure. Unknown
// transaction ids are ignored, matching the gateway's fire-and-forget
// callback contract.
func (uc *FailPaymentUseCase) Execute(ctx context.Context, transactionID, reason string) error {
	paymentID, err := uuid.Parse(transactionID)
	if err != nil {
		return nil
	}

	p, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrPaymentNotFound) {
			return nil
		}
		return err
	}

	if p.Status != payment.StatusPending {
		return nil
	}

	if err := p.MarkFailed(reason); err != nil {
		return err
	}
	if err := uc.paymentRepo.Update(ctx, p); err != nil {
		return fmt.Errorf("persist failed payment: %w", err)
	}
	return nil
}
