package payment_models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/joy095/spaces/config/db"
	"github.com/joy095/spaces/logger"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusCaptured   = "captured"
	PaymentStatusAuthorized = "authorized"
)

var ErrPaymentAlreadyRecorded = errors.New("payment already recorded")

// Payment is the audit row for a gateway payment that produced a booking
// batch. It references the first booking of the batch.
type Payment struct {
	ID          uuid.UUID       `json:"id"`
	BookingID   uuid.UUID       `json:"booking_id"`
	OrderID     string          `json:"order_id"`
	PaymentID   string          `json:"payment_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	RawResponse json.RawMessage `json:"raw_response,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// IsSettledStatus reports whether a gateway payment status counts as paid.
func IsSettledStatus(status string) bool {
	return status == PaymentStatusCaptured || status == PaymentStatusAuthorized
}

// CreatePayment inserts p. A second row for the same gateway payment id is
// rejected with ErrPaymentAlreadyRecorded.
func CreatePayment(ctx context.Context, q db.DBTX, p *Payment) error {
	if p.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate UUID for payment: %w", err)
		}
		p.ID = id
	}
	raw := p.RawResponse
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}

	err := q.QueryRow(ctx, `
		INSERT INTO payments (id, booking_id, order_id, payment_id, amount, currency, status, raw_response)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		p.ID, p.BookingID, p.OrderID, p.PaymentID, p.Amount, p.Currency, p.Status, []byte(raw),
	).Scan(&p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrPaymentAlreadyRecorded
		}
		logger.ErrorLogger.Errorf("Failed to record payment %s: %v", p.PaymentID, err)
		return fmt.Errorf("failed to record payment: %w", err)
	}
	return nil
}
