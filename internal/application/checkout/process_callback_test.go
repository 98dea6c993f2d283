package checkout_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/microlearn/payments/internal/application/checkout"
	domainErrors "github.com/microlearn/payments/internal/domain/errors"
	"github.com/microlearn/payments/internal/domain/payment"
	"github.com/microlearn/payments/internal/gateway"
	infraredis "github.com/microlearn/payments/internal/infrastructure/redis"
	"github.com/microlearn/payments/internal/testutil"
)

func newSuccessUC(
	paymentRepo *testutil.MockPaymentRepository,
	enqueuer *testutil.MockEnqueuer,
	gw gateway.Client,
) *checkout.ProcessSuccessUseCase {
	policies := testPolicies()
	confirm := checkout.NewConfirmPaymentUseCase(paymentRepo, gw, enqueuer, policies)
	return checkout.NewProcessSuccessUseCase(paymentRepo, enqueuer, confirm, policies, time.Second, zerolog.Nop())
}

func TestProcessSuccess_InlineConfirms(t *testing.T) {
	ctx := context.Background()
	paymentRepo := testutil.NewMockPaymentRepository()
	enqueuer := testutil.NewMockEnqueuer()
	uc := newSuccessUC(paymentRepo, enqueuer, gateway.NewMockClient())

	p := testutil.NewTestPayment(testutil.NewTestUser().ID, testutil.NewTestCourse(1000).ID, 1000)
	if err := paymentRepo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	result, err := uc.Execute(ctx, checkout.CallbackData{TransactionID: p.ID.String(), ValidationID: "VAL-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != checkout.OutcomeConfirmed {
		t.Fatalf("expected confirmed, got %s", result.Outcome)
	}
	if paymentRepo.Stored(p.ID).Status != payment.StatusCompleted {
		t.Error("payment not completed")
	}

	// Durable job lands before the inline attempt, always.
	if len(enqueuer.JobsFor(infraredis.ValidationQueue)) != 1 {
		t.Error("expected the validation job to be enqueued even on inline success")
	}
	if len(enqueuer.JobsFor(infraredis.EnrollmentQueue)) != 1 {
		t.Error("expected the inline confirmation to hand off enrollment")
	}
}

func TestProcessSuccess_InlineFailureDefers(t *testing.T) {
	ctx := context.Background()
	paymentRepo := testutil.NewMockPaymentRepository()
	enqueuer := testutil.NewMockEnqueuer()
	uc := newSuccessUC(paymentRepo, enqueuer, gateway.NewMockClient(gateway.WithFailingValidations(100)))

	p := testutil.NewTestPayment(testutil.NewTestUser().ID, testutil.NewTestCourse(1000).ID, 1000)
	if err := paymentRepo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	result, err := uc.Execute(ctx, checkout.CallbackData{TransactionID: p.ID.String(), ValidationID: "VAL-1"})
	if err != nil {
		t.Fatalf("an inline failure with the job enqueued is not an error: %v", err)
	}
	if result.Outcome != checkout.OutcomeDeferred {
		t.Fatalf("expected deferred, got %s", result.Outcome)
	}
	if paymentRepo.Stored(p.ID).Status != payment.StatusPending {
		t.Error("payment must stay pending until the worker confirms")
	}
	if len(enqueuer.JobsFor(infraredis.ValidationQueue)) != 1 {
		t.Error("the queued validation job is the safety net; it must exist")
	}
}

func TestProcessSuccess_Redelivery(t *testing.T) {
	ctx := context.Background()
	paymentRepo := testutil.NewMockPaymentRepository()
	enqueuer := testutil.NewMockEnqueuer()
	uc := newSuccessUC(paymentRepo, enqueuer, gateway.NewMockClient())

	p := testutil.NewCompletedPayment(testutil.NewTestUser().ID, testutil.NewTestCourse(1000).ID, 1000)
	if err := paymentRepo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	result, err := uc.Execute(ctx, checkout.CallbackData{TransactionID: p.ID.String(), ValidationID: "VAL-dup"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != checkout.OutcomeAlreadyCompleted {
		t.Fatalf("expected already_completed, got %s", result.Outcome)
	}
	// The fast path out: no new validation job for a finished payment.
	if len(enqueuer.JobsFor(infraredis.ValidationQueue)) != 0 {
		t.Error("no validation job should be enqueued for a completed payment")
	}
}

func TestProcessSuccess_DoubleDelivery(t *testing.T) {
	ctx := context.Background()
	paymentRepo := testutil.NewMockPaymentRepository()
	enqueuer := testutil.NewMockEnqueuer()
	gw := gateway.NewMockClient()
	uc := newSuccessUC(paymentRepo, enqueuer, gw)

	p := testutil.NewTestPayment(testutil.NewTestUser().ID, testutil.NewTestCourse(1000).ID, 1000)
	if err := paymentRepo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	data := checkout.CallbackData{TransactionID: p.ID.String(), ValidationID: "VAL-1"}

	first, err := uc.Execute(ctx, data)
	if err != nil {
		t.Fatal(err)
	}
	second, err := uc.Execute(ctx, data)
	if err != nil {
		t.Fatal(err)
	}

	if first.Outcome != checkout.OutcomeConfirmed {
		t.Errorf("first delivery: expected confirmed, got %s", first.Outcome)
	}
	if second.Outcome != checkout.OutcomeAlreadyCompleted {
		t.Errorf("second delivery: expected already_completed, got %s", second.Outcome)
	}
	if gw.ValidateCalls() != 1 {
		t.Errorf("expected exactly one gateway validation, got %d", gw.ValidateCalls())
	}
	if paymentRepo.Stored(p.ID).Status != payment.StatusCompleted {
		t.Error("payment not completed")
	}
}

func TestProcessSuccess_MalformedTransactionID(t *testing.T) {
	uc := newSuccessUC(testutil.NewMockPaymentRepository(), testutil.NewMockEnqueuer(), gateway.NewMockClient())

	_, err := uc.Execute(context.Background(), checkout.CallbackData{TransactionID: "not-a-uuid", ValidationID: "VAL-1"})
	var validationErr *domainErrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestProcessSuccess_UnknownPayment(t *testing.T) {
	uc := newSuccessUC(testutil.NewMockPaymentRepository(), testutil.NewMockEnqueuer(), gateway.NewMockClient())

	_, err := uc.Execute(context.Background(), checkout.CallbackData{
		TransactionID: testutil.NewTestUser().ID.String(),
		ValidationID:  "VAL-1",
	})
	if !errors.Is(err, domainErrors.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestProcessSuccess_BothPathsDown(t *testing.T) {
	ctx := context.Background()
	paymentRepo := testutil.NewMockPaymentRepository()
	enqueuer := testutil.NewMockEnqueuer()
	enqueuer.EnqueueFunc = func(ctx context.Context, queue string, payload any, opts infraredis.EnqueueOptions) (*infraredis.Job, error) {
		return nil, fmt.Errorf("redis down")
	}
	uc := newSuccessUC(paymentRepo, enqueuer, gateway.NewMockClient(gateway.WithFailingValidations(100)))

	p := testutil.NewTestPayment(testutil.NewTestUser().ID, testutil.NewTestCourse(1000).ID, 1000)
	if err := paymentRepo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	_, err := uc.Execute(ctx, checkout.CallbackData{TransactionID: p.ID.String(), ValidationID: "VAL-1"})
	if err == nil {
		t.Fatal("when neither the inline path nor the enqueue took, the caller must see an error")
	}
}
