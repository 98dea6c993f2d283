package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/microlearn/payments/internal/domain/course"
	domainErrors "github.com/microlearn/payments/internal/domain/errors"
	"github.com/microlearn/payments/internal/domain/enrollment"
	"github.com/microlearn/payments/internal/domain/payment"
	"github.com/microlearn/payments/internal/domain/user"
	"github.com/microlearn/payments/internal/gateway"
)

// InitiateResponse holds the result of starting a checkout.
type InitiateResponse struct {
	PaymentURL string
	PaymentID  uuid.UUID
	SessionID  string
}

// InitiatePaymentUseCase creates a pending payment record and obtains a
// hosted checkout URL from the gateway.
type InitiatePaymentUseCase struct {
	courseRepo     course.Repository
	userRepo       user.Repository
	paymentRepo    payment.Repository
	enrollmentRepo enrollment.Repository
	gateway        gateway.Client
	urls           CallbackURLs
}

// NewInitiatePaymentUseCase creates a new InitiatePaymentUseCase.
func NewInitiatePaymentUseCase(
	courseRepo course.Repository,
	userRepo user.Repository,
	paymentRepo payment.Repository,
	enrollmentRepo enrollment.Repository,
	gw gateway.Client,
	urls CallbackURLs,
) *InitiatePaymentUseCase {
	return &InitiatePaymentUseCase{
		courseRepo:     courseRepo,
		userRepo:       userRepo,
		paymentRepo:    paymentRepo,
		enrollmentRepo: enrollmentRepo,
		gateway:        gw,
		urls:           urls,
	}
}

// Execute runs the precondition checks in order, creates the pending record
// and calls the gateway init. A failed init leaves the record pending: a
// stale pending row never blocks a later initiation, only a completed one
// does.
func (uc *InitiatePaymentUseCase) Execute(ctx context.Context, userID, courseID uuid.UUID) (*InitiateResponse, error) {
	c, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !c.IsPublished {
		return nil, domainErrors.ErrCourseNotPublished
	}
	if !c.Purchasable() {
		return nil, domainErrors.ErrCourseNotPremium
	}

	if _, err := uc.enrollmentRepo.GetByUserCourse(ctx, userID, courseID); err == nil {
		return nil, domainErrors.ErrAlreadyEnrolled
	} else if !errors.Is(err, domainErrors.ErrEnrollmentNotFound) {
		return nil, err
	}

	if _, err := uc.paymentRepo.GetCompleted(ctx, userID, courseID); err == nil {
		return nil, domainErrors.ErrAlreadyPurchased
	} else if !errors.Is(err, domainErrors.ErrPaymentNotFound) {
		return nil, err
	}

	u, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	p, err := payment.New(userID, courseID, payment.Amount{
		ValueCents: c.PriceCents,
		Currency:   c.Currency,
	})
	if err != nil {
		return nil, err
	}
	if err := uc.paymentRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment record: %w", err)
	}

	res, err := uc.gateway.Init(ctx, gateway.InitRequest{
		PaymentID:       p.ID,
		AmountCents:     p.Amount.ValueCents,
		Currency:        p.Amount.Currency,
		SuccessURL:      uc.urls.Success,
		FailURL:         uc.urls.Fail,
		CancelURL:       uc.urls.Cancel,
		IPNURL:          uc.urls.IPN,
		ProductName:     c.Title,
		ProductCategory: c.Topic,
		CustomerName:    u.Name,
		CustomerEmail:   u.Email,
		CustomerPhone:   u.Phone,
		UserID:          userID,
		CourseID:        courseID,
	})
	if err != nil {
		return nil, err
	}

	p.SetGatewaySession(res.SessionKey)
	if err := uc.paymentRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("save gateway session: %w", err)
	}

	return &InitiateResponse{
		PaymentURL: res.CheckoutURL,
		PaymentID:  p.ID,
		SessionID:  res.SessionKey,
	}, nil
}
