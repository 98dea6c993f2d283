package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/microlearn/payments/internal/domain/errors"
)

// Status represents the payment status in the state machine
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Method identifies how the payment was taken.
type Method string

const MethodSSLCommerz Method = "sslcommerz"

// Payment represents a payment attempt for a course. Its ID doubles as the
// transaction id handed to the gateway, so callbacks are self-describing.
type Payment struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	CourseID             uuid.UUID
	Amount               Amount
	Status               Status
	Method               Method
	GatewaySessionID     *string
	GatewayTransactionID *string
	BankTransactionID    *string
	CardType             *string
	CardBrand            *string
	FailureReason        *string
	RefundReason         *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	CompletedAt          *time.Time
	RefundedAt           *time.Time
}

// Amount represents a monetary amount in the smallest currency unit.
type Amount struct {
	ValueCents int64
	Currency   string
}

// String returns a human-readable representation of the amount.
func (a Amount) String() string {
	whole := a.ValueCents / 100
	frac := a.ValueCents % 100
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%02d %s", whole, frac, a.Currency)
}

// Validate checks that the amount is valid.
func (a Amount) Validate() error {
	if a.ValueCents <= 0 {
		return errors.NewValidationError("amount", "must be greater than 0")
	}
	if len(a.Currency) != 3 {
		return errors.NewValidationError("currency", "must be a 3-letter ISO code")
	}
	return nil
}

// ValidationResult carries the gateway metadata recorded when a payment is
// authoritatively confirmed.
type ValidationResult struct {
	ValidationID      string
	BankTransactionID string
	CardType          string
	CardBrand         string
}

// New creates a pending payment for a (user, course) pair.
func New(userID, courseID uuid.UUID, amount Amount) (*Payment, error) {
	if err := amount.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Payment{
		ID:        uuid.New(),
		UserID:    userID,
		CourseID:  courseID,
		Amount:    amount,
		Status:    StatusPending,
		Method:    MethodSSLCommerz,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanTransitionTo checks if the payment can transition to the given status.
// The machine is monotonic: completed never regresses to pending or failed,
// and failed is terminal.
func (p *Payment) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusCompleted, StatusFailed},
		StatusCompleted: {StatusRefunded},
		StatusFailed:    {},
		StatusRefunded:  {},
	}

	allowed, exists := transitions[p.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo transitions the payment to a new status.
func (p *Payment) TransitionTo(newStatus Status) error {
	if !p.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(p.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}

	p.Status = newStatus
	p.UpdatedAt = time.Now()
	return nil
}

// MarkCompleted records a confirmed validation and transitions to completed.
func (p *Payment) MarkCompleted(result ValidationResult) error {
	if err := p.TransitionTo(StatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	p.CompletedAt = &now
	p.GatewayTransactionID = strPtr(result.ValidationID)
	p.BankTransactionID = strPtr(result.BankTransactionID)
	p.CardType = strPtr(result.CardType)
	p.CardBrand = strPtr(result.CardBrand)
	return nil
}

// MarkFailed transitions the payment to failed.
func (p *Payment) MarkFailed(reason string) error {
	if err := p.TransitionTo(StatusFailed); err != nil {
		return err
	}
	p.FailureReason = &reason
	return nil
}

// MarkRefunded transitions a completed payment to refunded. There is no
// automated trigger for this edge; it exists for admin tooling.
func (p *Payment) MarkRefunded(reason string) error {
	if err := p.TransitionTo(StatusRefunded); err != nil {
		return err
	}
	now := time.Now()
	p.RefundedAt = &now
	p.RefundReason = &reason
	return nil
}

// SetGatewaySession records the checkout session returned by the gateway init.
func (p *Payment) SetGatewaySession(sessionID string) {
	p.GatewaySessionID = &sessionID
	p.UpdatedAt = time.Now()
}

// IsTerminal checks if the payment is in a terminal state.
func (p *Payment) IsTerminal() bool {
	return p.Status != StatusPending
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
