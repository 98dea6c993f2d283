package worker_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/microlearn/payments/internal/application/checkout"
	appEnrollment "github.com/microlearn/payments/internal/application/enrollment"
	"github.com/microlearn/payments/internal/infrastructure/observability"
	infraredis "github.com/microlearn/payments/internal/infrastructure/redis"
	"github.com/microlearn/payments/internal/testutil"
	"github.com/microlearn/payments/internal/worker"
)

func enrollmentJob(t *testing.T, userID, courseID uuid.UUID) *infraredis.Job {
	t.Helper()
	payload, err := json.Marshal(checkout.EnrollmentJob{
		UserID:    userID,
		CourseID:  courseID,
		PaymentID: uuid.New(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return &infraredis.Job{
		ID:          uuid.New(),
		Queue:       infraredis.EnrollmentQueue,
		Payload:     payload,
		Attempt:     1,
		MaxAttempts: 5,
	}
}

func TestEnrollmentHandler_CreatesOnce(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestCourse(1000)
	u := testutil.NewTestUser()

	enrollmentRepo := testutil.NewMockEnrollmentRepository()
	courseRepo := testutil.NewMockCourseRepository(c)
	uc := appEnrollment.NewEnrollStudentUseCase(enrollmentRepo, courseRepo, testutil.NewMockTransactionManager())
	metrics := observability.NewMetrics("test_enroll_once", prometheus.NewRegistry())

	h := worker.NewEnrollmentHandler(uc, zerolog.Nop(), metrics)

	// Same (user, course) delivered twice: one enrollment, one counter bump.
	if err := h.Handle(ctx, enrollmentJob(t, u.ID, c.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.Handle(ctx, enrollmentJob(t, u.ID, c.ID)); err != nil {
		t.Fatalf("duplicate delivery must succeed: %v", err)
	}

	if enrollmentRepo.Count() != 1 {
		t.Fatalf("expected 1 enrollment, got %d", enrollmentRepo.Count())
	}
	if courseRepo.EnrolledCount(c.ID) != 1 {
		t.Errorf("expected enrolled count 1, got %d", courseRepo.EnrolledCount(c.ID))
	}
}

func TestEnrollmentHandler_MalformedPayload(t *testing.T) {
	uc := appEnrollment.NewEnrollStudentUseCase(
		testutil.NewMockEnrollmentRepository(),
		testutil.NewMockCourseRepository(),
		testutil.NewMockTransactionManager(),
	)
	metrics := observability.NewMetrics("test_enroll_bad", prometheus.NewRegistry())
	h := worker.NewEnrollmentHandler(uc, zerolog.Nop(), metrics)

	job := &infraredis.Job{
		ID:          uuid.New(),
		Queue:       infraredis.EnrollmentQueue,
		Payload:     json.RawMessage(`not json`),
		Attempt:     1,
		MaxAttempts: 5,
	}
	if err := h.Handle(context.Background(), job); err == nil {
		t.Fatal("expected a decode error")
	}
}
