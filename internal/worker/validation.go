package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/microlearn/payments/internal/application/checkout"
	infraredis "github.com/microlearn/payments/internal/infrastructure/redis"
)

// ValidationHandler consumes payments:validation jobs: it reruns the
// authoritative gateway confirmation until it succeeds or the attempt
// ceiling is hit.
type ValidationHandler struct {
	confirm *checkout.ConfirmPaymentUseCase
	fail    *checkout.FailPaymentUseCase
	logger  zerolog.Logger
}

// NewValidationHandler creates a ValidationHandler.
func NewValidationHandler(
	confirm *checkout.ConfirmPaymentUseCase,
	fail *checkout.FailPaymentUseCase,
	logger zerolog.Logger,
) *ValidationHandler {
	return &ValidationHandler{confirm: confirm, fail: fail, logger: logger}
}

// Handle confirms one payment. A payment already completed by the inline
// fast path (or a duplicate IPN job) resolves as a successful no-op.
func (h *ValidationHandler) Handle(ctx context.Context, job *infraredis.Job) error {
	var payload checkout.ValidationJob
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode validation job: %w", err)
	}

	resp, err := h.confirm.Execute(ctx, checkout.ConfirmRequest{
		PaymentID:    payload.PaymentID,
		ValidationID: payload.ValidationID,
	})
	if err != nil {
		return err
	}

	if resp.AlreadyCompleted {
		h.logger.Debug().Str("payment_id", payload.PaymentID.String()).Msg("Payment already completed, skipping")
	} else {
		h.logger.Info().Str("payment_id", payload.PaymentID.String()).Msg("Payment validated")
	}
	return nil
}

// OnExhausted force-transitions the payment to failed so it does not sit in
// pending forever and block future initiations for the pair.
func (h *ValidationHandler) OnExhausted(ctx context.Context, job *infraredis.Job, cause error) {
	var payload checkout.ValidationJob
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		h.logger.Error().Err(err).Str("job_id", job.ID.String()).Msg("Cannot decode exhausted validation job")
		return
	}

	h.logger.Error().Err(cause).
		Str("payment_id", payload.PaymentID.String()).
		Int("attempts", job.Attempt).
		Msg("Validation retries exhausted, failing payment")

	if err := h.fail.Execute(ctx, payload.PaymentID.String(), "validation retries exhausted"); err != nil {
		h.logger.Error().Err(err).Str("payment_id", payload.PaymentID.String()).Msg("Failed to mark payment failed")
	}
}
