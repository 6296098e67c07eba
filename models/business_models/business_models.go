package business_models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joy095/spaces/config/db"
	"github.com/joy095/spaces/logger"
)

var ErrBusinessNotFound = errors.New("business not found")

// Business is a space owner's account.
type Business struct {
	ID                     uuid.UUID `json:"id"`
	OwnerID                uuid.UUID `json:"owner_id"`
	Name                   string    `json:"name"`
	PremiumPaymentsEnabled bool      `json:"premium_payments_enabled"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

const businessColumns = `id, owner_id, name, premium_payments_enabled, created_at, updated_at`

func scanBusiness(row pgx.Row) (*Business, error) {
	b := &Business{}
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.PremiumPaymentsEnabled, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	return b, nil
}

// GetBusinessByID fetches a business by its id.
func GetBusinessByID(ctx context.Context, q db.DBTX, id uuid.UUID) (*Business, error) {
	b, err := scanBusiness(q.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrBusinessNotFound) {
		logger.ErrorLogger.Errorf("Failed to fetch business %s: %v", id, err)
		return nil, fmt.Errorf("database error fetching business: %w", err)
	}
	return b, err
}

// GetBusinessByOwner fetches the business owned by ownerID.
func GetBusinessByOwner(ctx context.Context, q db.DBTX, ownerID uuid.UUID) (*Business, error) {
	b, err := scanBusiness(q.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE owner_id = $1`, ownerID))
	if err != nil && !errors.Is(err, ErrBusinessNotFound) {
		logger.ErrorLogger.Errorf("Failed to fetch business for owner %s: %v", ownerID, err)
		return nil, fmt.Errorf("database error fetching business: %w", err)
	}
	return b, err
}

// SetPremiumPayments updates the owner's premium payments flag. It reports
// whether a business row was updated; an owner without a business is not an
// error.
func SetPremiumPayments(ctx context.Context, q db.DBTX, ownerID uuid.UUID, enabled bool) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE businesses
		SET premium_payments_enabled = $2, updated_at = NOW()
		WHERE owner_id = $1`, ownerID, enabled)
	if err != nil {
		return false, fmt.Errorf("failed to update premium payments flag: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
