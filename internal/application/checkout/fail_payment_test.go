package checkout_test

import (
	"context"
	"testing"

	"github.com/microlearn/payments/internal/application/checkout"
	"github.com/microlearn/payments/internal/domain/payment"
	"github.com/microlearn/payments/internal/testutil"
)

func TestFailPayment_MarksPendingFailed(t *testing.T) {
	ctx := context.Background()
	paymentRepo := testutil.NewMockPaymentRepository()

	p := testutil.NewTestPayment(testutil.NewTestUser().ID, testutil.NewTestCourse(1000).ID, 1000)
	if err := paymentRepo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	uc := checkout.NewFailPaymentUseCase(paymentRepo)
	if err := uc.Execute(ctx, p.ID.String(), "cancelled"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := paymentRepo.Stored(p.ID)
	if stored.Status != payment.StatusFailed {
		t.Fatalf("expected failed, got %s", stored.Status)
	}
	if stored.FailureReason == nil || *stored.FailureReason != "cancelled" {
		t.Error("failure reason not recorded")
	}
}

func TestFailPayment_LateFailAfterCompletion(t *testing.T) {
	ctx := context.Background()
	paymentRepo := testutil.NewMockPaymentRepository()

	p := testutil.NewCompletedPayment(testutil.NewTestUser().ID, testutil.NewTestCourse(1000).ID, 1000)
	if err := paymentRepo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	uc := checkout.NewFailPaymentUseCase(paymentRepo)
	if err := uc.Execute(ctx, p.ID.String(), "failed"); err != nil {
		t.Fatalf("a late fail callback must be a no-op, got %v", err)
	}
	if paymentRepo.Stored(p.ID).Status != payment.StatusCompleted {
		t.Error("a completed payment must never regress to failed")
	}
}

func TestFailPayment_UnknownAndMalformedIDs(t *testing.T) {
	ctx := context.Background()
	uc := checkout.NewFailPaymentUseCase(testutil.NewMockPaymentRepository())

	if err := uc.Execute(ctx, "garbage", "failed"); err != nil {
		t.Errorf("malformed tran_id must be ignored, got %v", err)
	}
	if err := uc.Execute(ctx, testutil.NewTestUser().ID.String(), "failed"); err != nil {
		t.Errorf("unknown payment must be ignored, got %v", err)
	}
}
