package gateway

import (
	"context"

	"github.com/google/uuid"
)

// Validation statuses accepted as authoritative confirmation. Anything else
// is a rejection.
const (
	StatusValid     = "VALID"
	StatusValidated = "VALIDATED"
)

// Client wraps the external payment gateway's checkout init and transaction
// validation operations.
type Client interface {
	// Init starts a hosted checkout session and returns the URL the user is
	// redirected to.
	Init(ctx context.Context, req InitRequest) (*InitResult, error)
	// Validate authoritatively confirms a transaction by its validation id.
	Validate(ctx context.Context, validationID string) (*ValidateResult, error)
}

// InitRequest carries everything the gateway needs to host a checkout. The
// payment id is used as the gateway transaction id, and the passthrough
// fields make later callbacks self-describing even if the gateway echoes
// nothing else back.
type InitRequest struct {
	PaymentID   uuid.UUID
	AmountCents int64
	Currency    string

	SuccessURL string
	FailURL    string
	CancelURL  string
	IPNURL     string

	ProductName     string
	ProductCategory string

	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	// Passthrough fields (value_a/b/c on the wire).
	UserID   uuid.UUID
	CourseID uuid.UUID
}

// InitResult is the outcome of starting a checkout session.
type InitResult struct {
	SessionKey    string
	CheckoutURL   string
	FailureReason string
}

// ValidateResult is the gateway's verdict on a transaction.
type ValidateResult struct {
	Status            string
	TransactionID     string
	BankTransactionID string
	CardType          string
	CardBrand         string
	AmountCents       int64
	Currency          string
}

// Confirmed reports whether the gateway accepted the transaction.
func (r *ValidateResult) Confirmed() bool {
	return r.Status == StatusValid || r.Status == StatusValidated
}
