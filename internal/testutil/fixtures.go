package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/microlearn/payments/internal/domain/course"
	"github.com/microlearn/payments/internal/domain/payment"
	"github.com/microlearn/payments/internal/domain/user"
)

func NewTestCourse(priceCents int64) *course.Course {
	now := time.Now()
	return &course.Course{
		ID:          uuid.New(),
		Title:       "Distributed Systems in Practice",
		Topic:       "engineering",
		AuthorID:    uuid.New(),
		IsPublished: true,
		IsPremium:   true,
		PriceCents:  priceCents,
		Currency:    "BDT",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func NewTestUser() *user.User {
	return &user.User{
		ID:        uuid.New(),
		Name:      "Test Student",
		Email:     "student@example.com",
		Phone:     "01700000000",
		CreatedAt: time.Now(),
	}
}

func NewTestPayment(userID, courseID uuid.UUID, amountCents int64) *payment.Payment {
	now := time.Now()
	return &payment.Payment{
		ID:        uuid.New(),
		UserID:    userID,
		CourseID:  courseID,
		Amount:    payment.Amount{ValueCents: amountCents, Currency: "BDT"},
		Status:    payment.StatusPending,
		Method:    payment.MethodSSLCommerz,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewCompletedPayment(userID, courseID uuid.UUID, amountCents int64) *payment.Payment {
	p := NewTestPayment(userID, courseID, amountCents)
	p.Status = payment.StatusCompleted
	completedAt := time.Now()
	p.CompletedAt = &completedAt
	valID := "VAL-" + uuid.NewString()[:8]
	p.GatewayTransactionID = &valID
	return p
}
