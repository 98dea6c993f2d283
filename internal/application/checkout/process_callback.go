package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainErrors "github.com/microlearn/payments/internal/domain/errors"
	"github.com/microlearn/payments/internal/domain/payment"
	infraredis "github.com/microlearn/payments/internal/infrastructure/redis"
)

// Outcome says how a success callback was resolved.
type Outcome string

const (
	// OutcomeConfirmed means the inline fast path completed the payment in
	// this request.
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeAlreadyCompleted means a previous delivery already finished the
	// work; this call was a redelivery.
	OutcomeAlreadyCompleted Outcome = "already_completed"
	// OutcomeDeferred means the inline attempt did not finish; the queued
	// validation job will reconcile state.
	OutcomeDeferred Outcome = "deferred"
)

// CallbackData is what the gateway posts to the success/IPN endpoints. None
// of it is trusted without the authoritative validate call.
type CallbackData struct {
	TransactionID string // tran_id: our payment id
	ValidationID  string // val_id
}

// CallbackResult makes the dual-path resolution explicit: the handler
// answers the gateway with success either way, but the type records whether
// that answer was backed by a confirmation or by the queued safety net.
type CallbackResult struct {
	Outcome Outcome
	Payment *payment.Payment
}

// ProcessSuccessUseCase handles the gateway's success and IPN notifications.
// It always enqueues the durable validation job first, then attempts the
// same validation inline as a latency optimization.
type ProcessSuccessUseCase struct {
	paymentRepo   payment.Repository
	enqueuer      JobEnqueuer
	confirm       *ConfirmPaymentUseCase
	policies      Policies
	inlineTimeout time.Duration
	logger        zerolog.Logger
}

// NewProcessSuccessUseCase creates a new ProcessSuccessUseCase.
func NewProcessSuccessUseCase(
	paymentRepo payment.Repository,
	enqueuer JobEnqueuer,
	confirm *ConfirmPaymentUseCase,
	policies Policies,
	inlineTimeout time.Duration,
	logger zerolog.Logger,
) *ProcessSuccessUseCase {
	if inlineTimeout <= 0 {
		inlineTimeout = 5 * time.Second
	}
	return &ProcessSuccessUseCase{
		paymentRepo:   paymentRepo,
		enqueuer:      enqueuer,
		confirm:       confirm,
		policies:      policies,
		inlineTimeout: inlineTimeout,
		logger:        logger,
	}
}

// Execute resolves one success/IPN delivery. A missing payment record is an
// error (forged callback or gateway misconfiguration); everything past the
// lookup converges to the same terminal state no matter how many deliveries
// race.
func (uc *ProcessSuccessUseCase) Execute(ctx context.Context, data CallbackData) (*CallbackResult, error) {
	paymentID, err := uuid.Parse(data.TransactionID)
	if err != nil {
		return nil, domainErrors.NewValidationError("tran_id", "not a valid payment id")
	}

	p, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if p.Status == payment.StatusCompleted {
		return &CallbackResult{Outcome: OutcomeAlreadyCompleted, Payment: p}, nil
	}

	// Durability first: once this lands, a dropped connection or any inline
	// failure below no longer loses the payment.
	_, enqueueErr := uc.enqueuer.Enqueue(ctx, infraredis.ValidationQueue, ValidationJob{
		PaymentID:    paymentID,
		ValidationID: data.ValidationID,
	}, uc.policies.Validation)
	if enqueueErr != nil {
		uc.logger.Error().Err(enqueueErr).
			Str("payment_id", paymentID.String()).
			Msg("failed to enqueue validation job")
	}

	inlineCtx, cancel := context.WithTimeout(ctx, uc.inlineTimeout)
	defer cancel()

	resp, err := uc.confirm.Execute(inlineCtx, ConfirmRequest{
		PaymentID:    paymentID,
		ValidationID: data.ValidationID,
	})
	if err == nil {
		outcome := OutcomeConfirmed
		if resp.AlreadyCompleted {
			outcome = OutcomeAlreadyCompleted
		}
		return &CallbackResult{Outcome: outcome, Payment: resp.Payment}, nil
	}

	if enqueueErr != nil {
		// Neither path took: surface the failure so the gateway's IPN retry
		// gets another chance.
		return nil, fmt.Errorf("inline validation failed (%v) and no job enqueued: %w", err, enqueueErr)
	}

	uc.logger.Warn().Err(err).
		Str("payment_id", paymentID.String()).
		Msg("inline validation failed, deferring to queued job")
	return &CallbackResult{Outcome: OutcomeDeferred, Payment: p}, nil
}
