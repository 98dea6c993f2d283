package payment_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microlearn/payments/internal/domain/errors"
	"github.com/microlearn/payments/internal/domain/payment"
)

func TestNew_Valid(t *testing.T) {
	p, err := payment.New(uuid.New(), uuid.New(), payment.Amount{ValueCents: 49900, Currency: "BDT"})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, p.Status)
	assert.Equal(t, payment.MethodSSLCommerz, p.Method)
	assert.Equal(t, int64(49900), p.Amount.ValueCents)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Nil(t, p.CompletedAt)
}

func TestNew_InvalidAmount(t *testing.T) {
	_, err := payment.New(uuid.New(), uuid.New(), payment.Amount{ValueCents: 0, Currency: "BDT"})
	assert.Error(t, err)

	_, err = payment.New(uuid.New(), uuid.New(), payment.Amount{ValueCents: -100, Currency: "BDT"})
	assert.Error(t, err)

	_, err = payment.New(uuid.New(), uuid.New(), payment.Amount{ValueCents: 100, Currency: "TAKA"})
	assert.Error(t, err)
}

func TestTransitions_Monotonic(t *testing.T) {
	tests := []struct {
		name    string
		from    payment.Status
		to      payment.Status
		allowed bool
	}{
		{"pending to completed", payment.StatusPending, payment.StatusCompleted, true},
		{"pending to failed", payment.StatusPending, payment.StatusFailed, true},
		{"pending to refunded", payment.StatusPending, payment.StatusRefunded, false},
		{"completed to refunded", payment.StatusCompleted, payment.StatusRefunded, true},
		{"completed to pending", payment.StatusCompleted, payment.StatusPending, false},
		{"completed to failed", payment.StatusCompleted, payment.StatusFailed, false},
		{"completed to completed", payment.StatusCompleted, payment.StatusCompleted, false},
		{"failed to completed", payment.StatusFailed, payment.StatusCompleted, false},
		{"failed to pending", payment.StatusFailed, payment.StatusPending, false},
		{"refunded to completed", payment.StatusRefunded, payment.StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &payment.Payment{Status: tt.from}
			assert.Equal(t, tt.allowed, p.CanTransitionTo(tt.to))

			err := p.TransitionTo(tt.to)
			if tt.allowed {
				assert.NoError(t, err)
				assert.Equal(t, tt.to, p.Status)
			} else {
				assert.ErrorIs(t, err, errors.ErrInvalidStateTransition)
				assert.Equal(t, tt.from, p.Status)
			}
		})
	}
}

func TestMarkCompleted_RecordsValidationMetadata(t *testing.T) {
	p, err := payment.New(uuid.New(), uuid.New(), payment.Amount{ValueCents: 1000, Currency: "BDT"})
	require.NoError(t, err)

	err = p.MarkCompleted(payment.ValidationResult{
		ValidationID:      "VAL-123",
		BankTransactionID: "BANK-456",
		CardType:          "VISA-Dutch Bangla",
		CardBrand:         "VISA",
	})
	require.NoError(t, err)

	assert.Equal(t, payment.StatusCompleted, p.Status)
	require.NotNil(t, p.CompletedAt)
	require.NotNil(t, p.GatewayTransactionID)
	assert.Equal(t, "VAL-123", *p.GatewayTransactionID)
	require.NotNil(t, p.BankTransactionID)
	assert.Equal(t, "BANK-456", *p.BankTransactionID)
	assert.True(t, p.IsTerminal())
}

func TestMarkCompleted_Twice(t *testing.T) {
	p, err := payment.New(uuid.New(), uuid.New(), payment.Amount{ValueCents: 1000, Currency: "BDT"})
	require.NoError(t, err)

	require.NoError(t, p.MarkCompleted(payment.ValidationResult{ValidationID: "VAL-1"}))
	err = p.MarkCompleted(payment.ValidationResult{ValidationID: "VAL-2"})
	assert.ErrorIs(t, err, errors.ErrInvalidStateTransition)
	assert.Equal(t, "VAL-1", *p.GatewayTransactionID)
}

func TestMarkFailed(t *testing.T) {
	p, err := payment.New(uuid.New(), uuid.New(), payment.Amount{ValueCents: 1000, Currency: "BDT"})
	require.NoError(t, err)

	require.NoError(t, p.MarkFailed("cancelled"))
	assert.Equal(t, payment.StatusFailed, p.Status)
	require.NotNil(t, p.FailureReason)
	assert.Equal(t, "cancelled", *p.FailureReason)

	// A failed payment never becomes completed.
	err = p.MarkCompleted(payment.ValidationResult{ValidationID: "VAL-1"})
	assert.ErrorIs(t, err, errors.ErrInvalidStateTransition)
}

func TestMarkFailed_AfterCompleted(t *testing.T) {
	p, err := payment.New(uuid.New(), uuid.New(), payment.Amount{ValueCents: 1000, Currency: "BDT"})
	require.NoError(t, err)

	require.NoError(t, p.MarkCompleted(payment.ValidationResult{ValidationID: "VAL-1"}))
	err = p.MarkFailed("late fail callback")
	assert.ErrorIs(t, err, errors.ErrInvalidStateTransition)
	assert.Equal(t, payment.StatusCompleted, p.Status)
}

func TestMarkRefunded(t *testing.T) {
	p, err := payment.New(uuid.New(), uuid.New(), payment.Amount{ValueCents: 1000, Currency: "BDT"})
	require.NoError(t, err)

	// Only a completed payment can be refunded.
	assert.Error(t, p.MarkRefunded("goodwill"))

	require.NoError(t, p.MarkCompleted(payment.ValidationResult{ValidationID: "VAL-1"}))
	require.NoError(t, p.MarkRefunded("goodwill"))
	assert.Equal(t, payment.StatusRefunded, p.Status)
	require.NotNil(t, p.RefundedAt)
	require.NotNil(t, p.RefundReason)
}

func TestAmountString(t *testing.T) {
	a := payment.Amount{ValueCents: 49950, Currency: "BDT"}
	assert.Equal(t, "499.50 BDT", a.String())
}
