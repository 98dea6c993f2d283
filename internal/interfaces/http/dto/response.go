package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/microlearn/payments/internal/domain/enrollment"
	"github.com/microlearn/payments/internal/domain/payment"
)

// InitiateResponse is the HTTP response for a started checkout. The client
// redirects the browser to PaymentURL.
type InitiateResponse struct {
	PaymentURL string    `json:"payment_url"`
	PaymentID  uuid.UUID `json:"payment_id"`
	SessionID  string    `json:"session_id"`
}

// PaymentResponse is the HTTP response for a payment record.
type PaymentResponse struct {
	ID                   uuid.UUID  `json:"id"`
	UserID               uuid.UUID  `json:"user_id"`
	CourseID             uuid.UUID  `json:"course_id"`
	Amount               float64    `json:"amount"`
	Currency             string     `json:"currency"`
	Status               string     `json:"status"`
	Method               string     `json:"method"`
	GatewayTransactionID *string    `json:"gateway_transaction_id,omitempty"`
	BankTransactionID    *string    `json:"bank_transaction_id,omitempty"`
	CardType             *string    `json:"card_type,omitempty"`
	CardBrand            *string    `json:"card_brand,omitempty"`
	FailureReason        *string    `json:"failure_reason,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	RefundedAt           *time.Time `json:"refunded_at,omitempty"`
}

// FromPayment maps a domain Payment to a PaymentResponse.
func FromPayment(p *payment.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:                   p.ID,
		UserID:               p.UserID,
		CourseID:             p.CourseID,
		Amount:               centsToFloat(p.Amount.ValueCents),
		Currency:             p.Amount.Currency,
		Status:               string(p.Status),
		Method:               string(p.Method),
		GatewayTransactionID: p.GatewayTransactionID,
		BankTransactionID:    p.BankTransactionID,
		CardType:             p.CardType,
		CardBrand:            p.CardBrand,
		FailureReason:        p.FailureReason,
		CreatedAt:            p.CreatedAt,
		CompletedAt:          p.CompletedAt,
		RefundedAt:           p.RefundedAt,
	}
}

// EnrollmentResponse is the HTTP response for an enrollment.
type EnrollmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	CourseID    uuid.UUID  `json:"course_id"`
	Progress    int        `json:"progress"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// FromEnrollment maps a domain Enrollment to an EnrollmentResponse.
func FromEnrollment(e *enrollment.Enrollment) *EnrollmentResponse {
	return &EnrollmentResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		CourseID:    e.CourseID,
		Progress:    e.Progress,
		StartedAt:   e.StartedAt,
		CompletedAt: e.CompletedAt,
	}
}

// PurchasedResponse answers the "has this user bought this course" check.
type PurchasedResponse struct {
	CourseID  uuid.UUID `json:"course_id"`
	Purchased bool      `json:"purchased"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// centsToFloat converts int64 cents to float64 for JSON output.
func centsToFloat(cents int64) float64 {
	return float64(cents) / 100.0
}
