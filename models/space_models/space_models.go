package space_models

import (
	"context"
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

var (
	ErrSpaceNotFound      = errors.New("space not found")
	ErrInsufficientSeats  = errors.New("not enough seats available")
	ErrInvalidSeatRequest = errors.New("seat count must be positive")
)

// Space is a bookable workspace together with the owning business fields the
// payment flow needs.
type Space struct {
	ID             uuid.UUID       `json:"id"`
	BusinessID     uuid.UUID       `json:"business_id"`
	Name           string          `json:"name"`
	TotalSeats     int             `json:"total_seats"`
	AvailableSeats int             `json:"available_seats"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	DailyRate      decimal.Decimal `json:"daily_rate"`
	UpdatedAt      time.Time       `json:"updated_at"`

	OwnerID                uuid.UUID `json:"owner_id"`
	PremiumPaymentsEnabled bool      `json:"premium_payments_enabled"`
}

// Rates returns the space's prices for the pricing functions.
func (s *Space) Rates() billing.Rates {
	return billing.Rates{Hourly: s.HourlyRate, Daily: s.DailyRate}
}

// GetSpaceWithOwner loads a space joined with its business. A space whose
// business row is missing is reported as not found.
func GetSpaceWithOwner(ctx context.Context, q db.DBTX, id uuid.UUID) (*Space, error) {
	s := &Space{}
	err := q.QueryRow(ctx, `
		SELECT s.id, s.business_id, s.name, s.total_seats, s.available_seats,
		       s.hourly_rate, s.daily_rate, s.updated_at,
		       b.owner_id, b.premium_payments_enabled
		FROM spaces s
		JOIN businesses b ON b.id = s.business_id
		WHERE s.id = $1`, id).Scan(
		&s.ID, &s.BusinessID, &s.Name, &s.TotalSeats, &s.AvailableSeats,
		&s.HourlyRate, &s.DailyRate, &s.UpdatedAt,
		&s.OwnerID, &s.PremiumPaymentsEnabled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.WarnLogger.Warnf("Space %s not found", id)
			return nil, ErrSpaceNotFound
		}
		logger.ErrorLogger.Errorf("Failed to fetch space %s: %v", id, err)
		return nil, fmt.Errorf("database error fetching space: %w", err)
	}
	return s, nil
}

// ReserveSeats decrements available seats by n only when at least n remain.
// Zero affected rows means the space is gone or short of seats.
func ReserveSeats(ctx context.Context, q db.DBTX, spaceID uuid.UUID, n int) error {
	if n <= 0 {
		return ErrInvalidSeatRequest
	}
	tag, err := q.Exec(ctx, `
		UPDATE spaces
		SET available_seats = available_seats - $2, updated_at = NOW()
		WHERE id = $1 AND available_seats >= $2`, spaceID, n)
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientSeats
	}
	return nil
}

// ReleaseSeats returns n seats to the space, capped at its total.
func ReleaseSeats(ctx context.Context, q db.DBTX, spaceID uuid.UUID, n int) error {
	if n <= 0 {
		return ErrInvalidSeatRequest
	}
	tag, err := q.Exec(ctx, `
		UPDATE spaces
		SET available_seats = LEAST(total_seats, available_seats + $2), updated_at = NOW()
		WHERE id = $1`, spaceID, n)
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSpaceNotFound
	}
	return nil
}
