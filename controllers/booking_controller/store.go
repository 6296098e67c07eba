package booking_controller

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/logger"
	"github.com/joy095/spaces/models/booking_models"
	"github.com/joy095/spaces/models/business_models"
	"github.com/joy095/spaces/models/space_models"
	"github.com/joy095/spaces/models/tax_models"
)

// Store is the persistence the booking endpoints depend on.
type Store interface {
	Space(ctx context.Context, spaceID uuid.UUID) (*space_models.Space, error)
	TaxSnapshot(ctx context.Context) (billing.TaxSnapshot, error)
	Booking(ctx context.Context, bookingID uuid.UUID) (*booking_models.Booking, error)
	Business(ctx context.Context, businessID uuid.UUID) (*business_models.Business, error)
	BusinessByOwner(ctx context.Context, ownerID uuid.UUID) (*business_models.Business, error)
	Redeem(ctx context.Context, businessID uuid.UUID, code string) (*booking_models.Booking, error)
	Cancel(ctx context.Context, bookingID uuid.UUID) (*booking_models.Booking, error)
}

type PgStore struct {
	DB    *pgxpool.Pool
	Taxes *tax_models.SnapshotCache
}

func NewPgStore(pool *pgxpool.Pool, taxes *tax_models.SnapshotCache) *PgStore {
	return &PgStore{DB: pool, Taxes: taxes}
}

func (s *PgStore) Space(ctx context.Context, spaceID uuid.UUID) (*space_models.Space, error) {
	return space_models.GetSpaceWithOwner(ctx, s.DB, spaceID)
}

func (s *PgStore) TaxSnapshot(ctx context.Context) (billing.TaxSnapshot, error) {
	if s.Taxes != nil {
		return s.Taxes.Snapshot(ctx)
	}
	return tax_models.LoadSnapshot(ctx, s.DB)
}

func (s *PgStore) Booking(ctx context.Context, bookingID uuid.UUID) (*booking_models.Booking, error) {
	return booking_models.GetBookingByID(ctx, s.DB, bookingID)
}

func (s *PgStore) Business(ctx context.Context, businessID uuid.UUID) (*business_models.Business, error) {
	return business_models.GetBusinessByID(ctx, s.DB, businessID)
}

func (s *PgStore) BusinessByOwner(ctx context.Context, ownerID uuid.UUID) (*business_models.Business, error) {
	return business_models.GetBusinessByOwner(ctx, s.DB, ownerID)
}

func (s *PgStore) Redeem(ctx context.Context, businessID uuid.UUID, code string) (*booking_models.Booking, error) {
	return booking_models.RedeemByCode(ctx, s.DB, businessID, code)
}

// Cancel moves the booking to cancelled and returns its seats in one
// transaction. The owner balance credited at confirmation is left as is.
func (s *PgStore) Cancel(ctx context.Context, bookingID uuid.UUID) (*booking_models.Booking, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		logger.ErrorLogger.Errorf("[TX_BEGIN_FAIL] cancel booking %s: %v", bookingID, err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	b, err := booking_models.CancelBooking(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := space_models.ReleaseSeats(ctx, tx, b.SpaceID, b.SeatsBooked); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		logger.ErrorLogger.Errorf("[TX_COMMIT_FAIL] cancel booking %s: %v", bookingID, err)
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return b, nil
}
