package balance_models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joy095/spaces/config/db"
	"github.com/joy095/spaces/logger"
	"github.com/shopspring/decimal"
)

var ErrBalanceNotFound = errors.New("balance not found")

// Balance is a business's running earnings ledger.
type Balance struct {
	BusinessID         uuid.UUID       `json:"business_id"`
	CurrentBalance     decimal.Decimal `json:"current_balance"`
	TotalEarned        decimal.Decimal `json:"total_earned"`
	TotalWithdrawn     decimal.Decimal `json:"total_withdrawn"`
	PendingAmount      decimal.Decimal `json:"pending_amount"`
	CommissionDeducted decimal.Decimal `json:"commission_deducted"`
	TaxDeducted        decimal.Decimal `json:"tax_deducted"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Credit is one confirmed batch's contribution to a balance.
type Credit struct {
	OwnerPayout        decimal.Decimal
	PlatformCommission decimal.Decimal
	TotalTax           decimal.Decimal
}

// ApplyCredit adds credit to the business balance, creating the row on first
// use. Each field is incremented atomically by the upsert.
func ApplyCredit(ctx context.Context, q db.DBTX, businessID uuid.UUID, credit Credit) error {
	_, err := q.Exec(ctx, `
		INSERT INTO business_balances (
			business_id, current_balance, total_earned, total_withdrawn,
			pending_amount, commission_deducted, tax_deducted
		) VALUES ($1, $2, $2, 0, $2, $3, $4)
		ON CONFLICT (business_id) DO UPDATE SET
			current_balance     = business_balances.current_balance + EXCLUDED.current_balance,
			total_earned        = business_balances.total_earned + EXCLUDED.total_earned,
			pending_amount      = business_balances.pending_amount + EXCLUDED.pending_amount,
			commission_deducted = business_balances.commission_deducted + EXCLUDED.commission_deducted,
			tax_deducted        = business_balances.tax_deducted + EXCLUDED.tax_deducted,
			updated_at          = NOW()`,
		businessID, credit.OwnerPayout, credit.PlatformCommission, credit.TotalTax,
	)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to credit balance for business %s: %v", businessID, err)
		return fmt.Errorf("failed to update business balance: %w", err)
	}
	return nil
}

// GetBalance fetches a business's balance.
func GetBalance(ctx context.Context, q db.DBTX, businessID uuid.UUID) (*Balance, error) {
	b := &Balance{}
	err := q.QueryRow(ctx, `
		SELECT business_id, current_balance, total_earned, total_withdrawn,
		       pending_amount, commission_deducted, tax_deducted, updated_at
		FROM business_balances WHERE business_id = $1`, businessID).Scan(
		&b.BusinessID, &b.CurrentBalance, &b.TotalEarned, &b.TotalWithdrawn,
		&b.PendingAmount, &b.CommissionDeducted, &b.TaxDeducted, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBalanceNotFound
		}
		return nil, fmt.Errorf("database error fetching balance: %w", err)
	}
	return b, nil
}
