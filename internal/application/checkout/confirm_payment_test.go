package checkout_test

import (
	"context"
	"errors"
	"testing"

	"github.com/microlearn/payments/internal/application/checkout"
	domainErrors "github.com/microlearn/payments/internal/domain/errors"
	"github.com/microlearn/payments/internal/domain/payment"
	"github.com/microlearn/payments/internal/gateway"
	infraredis "github.com/microlearn/payments/internal/infrastructure/redis"
	"github.com/microlearn/payments/internal/testutil"
)

func testPolicies() checkout.Policies {
	opts := infraredis.EnqueueOptions{
		MaxAttempts: 5,
		Backoff:     infraredis.BackoffPolicy{Initial: 0, Max: 0, Multiplier: 2},
	}
	return checkout.Policies{Validation: opts, Enrollment: opts}
}

func TestConfirmPayment_Confirms(t *testing.T) {
	ctx := context.Background()
	paymentRepo := testutil.NewMockPaymentRepository()
	enqueuer := testutil.NewMockEnqueuer()
	gw := gateway.NewMockClient()

	p := testutil.NewTestPayment(testutil.NewTestUser().ID, testutil.NewTestCourse(1000).ID, 1000)
	if err := paymentRepo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	uc := checkout.NewConfirmPaymentUseCase(paymentRepo, gw, enqueuer, testPolicies())

	resp, err := uc.Execute(ctx, checkout.ConfirmRequest{PaymentID: p.ID, ValidationID: "VAL-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AlreadyCompleted {
		t.Error("expected a fresh confirmation")
	}

	stored := paymentRepo.Stored(p.ID)
	if stored.Status != payment.StatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}
	if stored.GatewayTransactionID == nil || *stored.GatewayTransactionID != "VAL-1" {
		t.Error("validation id not recorded")
	}
	if stored.BankTransactionID == nil || stored.CardBrand == nil {
		t.Error("gateway metadata not recorded")
	}

	jobs := enqueuer.JobsFor(infraredis.EnrollmentQueue)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 enrollment job, got %d", len(jobs))
	}
	ej, ok := jobs[0].Payload.(checkout.EnrollmentJob)
	if !ok {
		t.Fatalf("unexpected payload type %T", jobs[0].Payload)
	}
	if ej.UserID != p.UserID || ej.CourseID != p.CourseID || ej.PaymentID != p.ID {
		t.Error("enrollment job carries wrong identities")
	}
}

func TestConfirmPayment_AlreadyCompleted(t *testing.T) {
	ctx := context.Background()
	paymentRepo := testutil.NewMockPaymentRepository()
	enqueuer := testutil.NewMockEnqueuer()
	gw := gateway.NewMockClient()

	p := testutil.NewCompletedPayment(testutil.NewTestUser().ID, testutil.NewTestCourse(1000).ID, 1000)
	if err := paymentRepo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	uc := checkout.NewConfirmPaymentUseCase(paymentRepo, gw, enqueuer, testPolicies())

	resp, err := uc.Execute(ctx, checkout.ConfirmRequest{PaymentID: p.ID, ValidationID: "VAL-dup"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.AlreadyCompleted {
		t.Error("expected AlreadyCompleted")
	}
	if gw.ValidateCalls() != 0 {
		t.Errorf("a completed payment must not hit the gateway, got %d calls", gw.ValidateCalls())
	}
	// Completion metadata from the first confirmation survives.
	stored := paymentRepo.Stored(p.ID)
	if *stored.GatewayTransactionID != *p.GatewayTransactionID {
		t.Error("redelivery overwrote the original validation id")
	}
	// The enrollment handoff is replayed so a crash after completion but
	// before the first enqueue still converges.
	if len(enqueuer.JobsFor(infraredis.EnrollmentQueue)) != 1 {
		t.Error("expected the enrollment job to be re-enqueued")
	}
}

func TestConfirmPayment_FailedPaymentIsNotRetryable(t *testing.T) {
	ctx := context.Background()
	paymentRepo := testutil.NewMockPaymentRepository()
	enqueuer := testutil.NewMockEnqueuer()

	p := testutil.NewTestPayment(testutil.NewTestUser().ID, testutil.NewTestCourse(1000).ID, 1000)
	if err := p.MarkFailed("cancelled"); err != nil {
		t.Fatal(err)
	}
	if err := paymentRepo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	uc := checkout.NewConfirmPaymentUseCase(paymentRepo, gateway.NewMockClient(), enqueuer, testPolicies())

	_, err := uc.Execute(ctx, checkout.ConfirmRequest{PaymentID: p.ID, ValidationID: "VAL-1"})
	if !errors.Is(err, domainErrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid state transition, got %v", err)
	}
	if len(enqueuer.Jobs()) != 0 {
		t.Error("no job may be enqueued for a terminal payment")
	}
}

func TestConfirmPayment_ValidationRejected(t *testing.T) {
	ctx := context.Background()
	paymentRepo := testutil.NewMockPaymentRepository()
	enqueuer := testutil.NewMockEnqueuer()
	gw := gateway.NewMockClient(gateway.WithValidationStatus("FAILED"))

	p := testutil.NewTestPayment(testutil.NewTestUser().ID, testutil.NewTestCourse(1000).ID, 1000)
	if err := paymentRepo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	uc := checkout.NewConfirmPaymentUseCase(paymentRepo, gw, enqueuer, testPolicies())

	_, err := uc.Execute(ctx, checkout.ConfirmRequest{PaymentID: p.ID, ValidationID: "VAL-1"})
	if !errors.Is(err, domainErrors.ErrValidationRejected) {
		t.Fatalf("expected ErrValidationRejected, got %v", err)
	}
	if paymentRepo.Stored(p.ID).Status != payment.StatusPending {
		t.Error("a rejected validation must leave the payment pending")
	}
	if len(enqueuer.Jobs()) != 0 {
		t.Error("no enrollment job on rejection")
	}
}

func TestConfirmPayment_ValidatedStatusCounts(t *testing.T) {
	ctx := context.Background()
	paymentRepo := testutil.NewMockPaymentRepository()
	gw := gateway.NewMockClient(gateway.WithValidationStatus(gateway.StatusValidated))

	p := testutil.NewTestPayment(testutil.NewTestUser().ID, testutil.NewTestCourse(1000).ID, 1000)
	if err := paymentRepo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	uc := checkout.NewConfirmPaymentUseCase(paymentRepo, gw, testutil.NewMockEnqueuer(), testPolicies())

	if _, err := uc.Execute(ctx, checkout.ConfirmRequest{PaymentID: p.ID, ValidationID: "VAL-1"}); err != nil {
		t.Fatalf("VALIDATED must confirm like VALID: %v", err)
	}
	if paymentRepo.Stored(p.ID).Status != payment.StatusCompleted {
		t.Error("expected completed")
	}
}

func TestConfirmPayment_GatewayDown(t *testing.T) {
	ctx := context.Background()
	paymentRepo := testutil.NewMockPaymentRepository()
	gw := gateway.NewMockClient(gateway.WithFailingValidations(100))

	p := testutil.NewTestPayment(testutil.NewTestUser().ID, testutil.NewTestCourse(1000).ID, 1000)
	if err := paymentRepo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	uc := checkout.NewConfirmPaymentUseCase(paymentRepo, gw, testutil.NewMockEnqueuer(), testPolicies())

	_, err := uc.Execute(ctx, checkout.ConfirmRequest{PaymentID: p.ID, ValidationID: "VAL-1"})
	if !errors.Is(err, domainErrors.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
	if paymentRepo.Stored(p.ID).Status != payment.StatusPending {
		t.Error("a transient gateway failure must leave the payment pending for retry")
	}
}
