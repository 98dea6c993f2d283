package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/microlearn/payments/internal/domain/errors"
	"github.com/microlearn/payments/internal/domain/payment"
)

const paymentColumns = `id, user_id, course_id, amount_cents, currency, status, method,
	gateway_session_id, gateway_transaction_id, bank_transaction_id,
	card_type, card_brand, failure_reason, refund_reason,
	created_at, updated_at, completed_at, refunded_at`

// PaymentRepository implements payment.Repository using PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Create inserts a new payment record.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO payments
		 (id, user_id, course_id, amount_cents, currency, status, method,
		  gateway_session_id, gateway_transaction_id, bank_transaction_id,
		  card_type, card_brand, failure_reason, refund_reason,
		  created_at, updated_at, completed_at, refunded_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		p.ID, p.UserID, p.CourseID, p.Amount.ValueCents, p.Amount.Currency,
		string(p.Status), string(p.Method),
		p.GatewaySessionID, p.GatewayTransactionID, p.BankTransactionID,
		p.CardType, p.CardBrand, p.FailureReason, p.RefundReason,
		p.CreatedAt, p.UpdatedAt, p.CompletedAt, p.RefundedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by its ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return scanPayment(r.db(ctx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

// GetCompleted retrieves the completed payment for a (user, course) pair.
func (r *PaymentRepository) GetCompleted(ctx context.Context, userID, courseID uuid.UUID) (*payment.Payment, error) {
	return scanPayment(r.db(ctx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE user_id = $1 AND course_id = $2 AND status = $3
		 LIMIT 1`, userID, courseID, string(payment.StatusCompleted)))
}

// Update updates an existing payment.
func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE payments SET
		  status=$1, gateway_session_id=$2, gateway_transaction_id=$3,
		  bank_transaction_id=$4, card_type=$5, card_brand=$6,
		  failure_reason=$7, refund_reason=$8,
		  updated_at=$9, completed_at=$10, refunded_at=$11
		 WHERE id=$12`,
		string(p.Status), p.GatewaySessionID, p.GatewayTransactionID,
		p.BankTransactionID, p.CardType, p.CardBrand,
		p.FailureReason, p.RefundReason,
		p.UpdatedAt, p.CompletedAt, p.RefundedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrPaymentNotFound
	}
	return nil
}

// ListByUser lists a user's payments, newest first.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*payment.Payment, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(s scanner) (*payment.Payment, error) {
	p := &payment.Payment{}
	var status, method string
	err := s.Scan(
		&p.ID, &p.UserID, &p.CourseID, &p.Amount.ValueCents, &p.Amount.Currency,
		&status, &method,
		&p.GatewaySessionID, &p.GatewayTransactionID, &p.BankTransactionID,
		&p.CardType, &p.CardBrand, &p.FailureReason, &p.RefundReason,
		&p.CreatedAt, &p.UpdatedAt, &p.CompletedAt, &p.RefundedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	p.Status = payment.Status(status)
	p.Method = payment.Method(method)
	return p, nil
}
