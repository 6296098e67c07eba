package subscription_models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/config/db"
	"github.com/joy095/spaces/logger"
	"github.com/shopspring/decimal"
)

const (
	StatusActive = "active"

	HistorySuccess = "success"
	HistoryFailed  = "failed"
)

// PlanBasic is the free tier; every other plan enables premium payments.
const PlanBasic = "basic"

var ErrSubscriptionNotFound = errors.New("subscription not found")

// Subscription is an owner's current plan.
type Subscription struct {
	ID           uuid.UUID            `json:"id"`
	OwnerID      uuid.UUID            `json:"owner_id"`
	Plan         string               `json:"plan"`
	BillingCycle billing.BillingCycle `json:"billing_cycle"`
	Status       string               `json:"status"`
	StartDate    time.Time            `json:"start_date"`
	ExpiryDate   time.Time            `json:"expiry_date"`
	OrderID      string               `json:"order_id"`
	PaymentID    string               `json:"payment_id"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// PremiumPayments reports whether the plan carries the reduced platform fee.
func (s *Subscription) PremiumPayments() bool {
	return PlanEnablesPremium(s.Plan)
}

// PlanEnablesPremium reports whether plan carries the reduced platform fee.
func PlanEnablesPremium(plan string) bool {
	return plan != "" && plan != PlanBasic
}

// History is one immutable subscription payment attempt.
type History struct {
	ID             uuid.UUID            `json:"id"`
	OwnerID        uuid.UUID            `json:"owner_id"`
	SubscriptionID *uuid.UUID           `json:"subscription_id,omitempty"`
	Plan           string               `json:"plan"`
	BillingCycle   billing.BillingCycle `json:"billing_cycle"`
	Amount         decimal.Decimal      `json:"amount"`
	Currency       string               `json:"currency"`
	OrderID        string               `json:"order_id"`
	PaymentID      string               `json:"payment_id"`
	Status         string               `json:"status"`
	FailureReason  *string              `json:"failure_reason,omitempty"`
	ExpiryDate     *time.Time           `json:"expiry_date,omitempty"`
	RawResponse    json.RawMessage      `json:"raw_response,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

const subscriptionColumns = `id, owner_id, plan, billing_cycle, status, start_date, expiry_date,
	order_id, payment_id, created_at, updated_at`

func scanSubscription(row pgx.Row) (*Subscription, error) {
	s := &Subscription{}
	err := row.Scan(&s.ID, &s.OwnerID, &s.Plan, &s.BillingCycle, &s.Status, &s.StartDate,
		&s.ExpiryDate, &s.OrderID, &s.PaymentID, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// UpsertSubscription activates s for its owner, replacing any previous plan.
// s.ID is set to the stored row's id.
func UpsertSubscription(ctx context.Context, q db.DBTX, s *Subscription) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate UUID for subscription: %w", err)
	}
	stored, err := scanSubscription(q.QueryRow(ctx, `
		INSERT INTO subscriptions (id, owner_id, plan, billing_cycle, status, start_date, expiry_date, order_id, payment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (owner_id) DO UPDATE SET
			plan          = EXCLUDED.plan,
			billing_cycle = EXCLUDED.billing_cycle,
			status        = EXCLUDED.status,
			start_date    = EXCLUDED.start_date,
			expiry_date   = EXCLUDED.expiry_date,
			order_id      = EXCLUDED.order_id,
			payment_id    = EXCLUDED.payment_id,
			updated_at    = NOW()
		RETURNING `+subscriptionColumns,
		id, s.OwnerID, s.Plan, s.BillingCycle, s.Status, s.StartDate, s.ExpiryDate, s.OrderID, s.PaymentID))
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to upsert subscription for owner %s: %v", s.OwnerID, err)
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	*s = *stored
	return nil
}

// GetSubscriptionByOwner fetches the owner's current subscription.
func GetSubscriptionByOwner(ctx context.Context, q db.DBTX, ownerID uuid.UUID) (*Subscription, error) {
	s, err := scanSubscription(q.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE owner_id = $1`, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("database error fetching subscription: %w", err)
	}
	return s, nil
}

// InsertHistory appends a payment attempt.
func InsertHistory(ctx context.Context, q db.DBTX, h *History) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate UUID for subscription history: %w", err)
	}
	h.ID = id
	raw := h.RawResponse
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	err = q.QueryRow(ctx, `
		INSERT INTO subscription_payment_history (
			id, owner_id, subscription_id, plan, billing_cycle, amount, currency,
			order_id, payment_id, status, failure_reason, expiry_date, raw_response
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`,
		h.ID, h.OwnerID, h.SubscriptionID, h.Plan, h.BillingCycle, h.Amount, h.Currency,
		h.OrderID, h.PaymentID, h.Status, h.FailureReason, h.ExpiryDate, []byte(raw),
	).Scan(&h.CreatedAt)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to insert subscription history for payment %s: %v", h.PaymentID, err)
		return fmt.Errorf("failed to insert subscription history: %w", err)
	}
	return nil
}

// GetSuccessfulHistory returns the successful attempt recorded for a gateway
// payment, or nil when the payment has not been applied.
func GetSuccessfulHistory(ctx context.Context, q db.DBTX, paymentID string) (*History, error) {
	h := &History{}
	var raw []byte
	err := q.QueryRow(ctx, `
		SELECT id, owner_id, subscription_id, plan, billing_cycle, amount, currency,
		       order_id, payment_id, status, failure_reason, expiry_date, raw_response, created_at
		FROM subscription_payment_history
		WHERE payment_id = $1 AND status = $2`, paymentID, HistorySuccess).Scan(
		&h.ID, &h.OwnerID, &h.SubscriptionID, &h.Plan, &h.BillingCycle, &h.Amount, &h.Currency,
		&h.OrderID, &h.PaymentID, &h.Status, &h.FailureReason, &h.ExpiryDate, &raw, &h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("database error fetching subscription history: %w", err)
	}
	h.RawResponse = raw
	return h, nil
}
