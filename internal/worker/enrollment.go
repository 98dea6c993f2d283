package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/microlearn/payments/internal/application/checkout"
	appenrollment "github.com/microlearn/payments/internal/application/enrollment"
	"github.com/microlearn/payments/internal/infrastructure/observability"
	infraredis "github.com/microlearn/payments/internal/infrastructure/redis"
)

// EnrollmentHandler consumes enrollments:creation jobs.
type EnrollmentHandler struct {
	enroll  *appenrollment.EnrollStudentUseCase
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewEnrollmentHandler creates an EnrollmentHandler.
func NewEnrollmentHandler(
	enroll *appenrollment.EnrollStudentUseCase,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *EnrollmentHandler {
	return &EnrollmentHandler{enroll: enroll, logger: logger, metrics: metrics}
}

// Handle creates the enrollment for a completed payment. Duplicates resolve
// as no-ops.
func (h *EnrollmentHandler) Handle(ctx context.Context, job *infraredis.Job) error {
	var payload checkout.EnrollmentJob
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode enrollment job: %w", err)
	}

	resp, err := h.enroll.Execute(ctx, payload.UserID, payload.CourseID)
	if err != nil {
		return err
	}

	if resp.Created {
		h.metrics.EnrollmentsCreated.Inc()
		h.logger.Info().
			Str("user_id", payload.UserID.String()).
			Str("course_id", payload.CourseID.String()).
			Str("enrollment_id", resp.Enrollment.ID.String()).
			Msg("Enrollment created")
	} else {
		h.metrics.EnrollmentDuplicates.Inc()
		h.logger.Debug().
			Str("user_id", payload.UserID.String()).
			Str("course_id", payload.CourseID.String()).
			Msg("Already enrolled, skipping")
	}
	return nil
}

// OnExhausted only logs: the payment is already completed and stays that
// way; enrollment is eventually consistent with it, and the dead-lettered
// job keeps the evidence.
func (h *EnrollmentHandler) OnExhausted(ctx context.Context, job *infraredis.Job, cause error) {
	h.logger.Error().Err(cause).
		Str("job_id", job.ID.String()).
		Int("attempts", job.Attempt).
		Msg("Enrollment retries exhausted, job dead-lettered")
}
