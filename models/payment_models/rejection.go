package payment_models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/spaces/config/db"
	"github.com/shopspring/decimal"
)

// Rejection records a gateway payment that was rejected after capture, so
// support can refund or reconcile it by payment id.
type Rejection struct {
	ID             uuid.UUID       `json:"id"`
	OrderID        string          `json:"order_id"`
	PaymentID      string          `json:"payment_id"`
	UserID         uuid.UUID       `json:"user_id"`
	SpaceID        *uuid.UUID      `json:"space_id,omitempty"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	PaidPaise      int64           `json:"paid_paise"`
	GatewayStatus  string          `json:"gateway_status"`
	Reason         string          `json:"reason"`
	RawResponse    json.RawMessage `json:"raw_response,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CreateRejection inserts r. Several rejections may exist per payment id.
func CreateRejection(ctx context.Context, q db.DBTX, r *Rejection) error {
	if r.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate UUID for rejection: %w", err)
		}
		r.ID = id
	}
	raw := r.RawResponse
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}

	err := q.QueryRow(ctx, `
		INSERT INTO payment_rejections
			(id, order_id, payment_id, user_id, space_id, expected_amount, paid_paise, gateway_status, reason, raw_response)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		r.ID, r.OrderID, r.PaymentID, r.UserID, r.SpaceID, r.ExpectedAmount, r.PaidPaise,
		r.GatewayStatus, r.Reason, []byte(raw),
	).Scan(&r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record rejected payment %s: %w", r.PaymentID, err)
	}
	return nil
}
