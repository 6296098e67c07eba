package payment_verification_controller

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/logger"
	"github.com/joy095/spaces/models/balance_models"
	"github.com/joy095/spaces/models/booking_models"
	"github.com/joy095/spaces/models/business_models"
	"github.com/joy095/spaces/models/payment_models"
	"github.com/joy095/spaces/models/space_models"
	"github.com/joy095/spaces/models/subscription_models"
	"github.com/joy095/spaces/models/tax_models"
	"github.com/joy095/spaces/models/user_models"
)

const lockPaymentSQL = `SELECT pg_advisory_xact_lock(hashtext($1))`

// PgStore implements Store on Postgres.
type PgStore struct {
	DB    *pgxpool.Pool
	Taxes *tax_models.SnapshotCache
}

func NewPgStore(pool *pgxpool.Pool, taxes *tax_models.SnapshotCache) *PgStore {
	return &PgStore{DB: pool, Taxes: taxes}
}

func (s *PgStore) BookingsByPayment(ctx context.Context, paymentID string) ([]booking_models.Booking, error) {
	return booking_models.GetBookingsByPaymentID(ctx, s.DB, paymentID)
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

func (s *PgStore) UserContact(ctx context.Context, userID uuid.UUID) (*user_models.User, error) {
	return user_models.GetUserByID(ctx, s.DB, userID)
}

// CommitBookings writes the batch in one transaction serialized per payment
// id. The balance credit runs in a savepoint so its failure leaves the
// bookings intact.
func (s *PgStore) CommitBookings(ctx context.Context, batch *BookingBatch) (*CommitResult, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		logger.ErrorLogger.Errorf("[TX_BEGIN_FAIL] payment %s: %v", batch.PaymentID, err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, lockPaymentSQL, batch.PaymentID); err != nil {
		return nil, fmt.Errorf("failed to lock payment %s: %w", batch.PaymentID, err)
	}

	existing, err := booking_models.GetBookingsByPaymentID(ctx, tx, batch.PaymentID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &CommitResult{Existing: existing}, nil
	}

	for _, b := range batch.Bookings {
		if err := booking_models.CreateBooking(ctx, tx, b); err != nil {
			return nil, err
		}
	}

	if err := space_models.ReserveSeats(ctx, tx, batch.SpaceID, batch.Seats); err != nil {
		return nil, err
	}

	if err := payment_models.CreatePayment(ctx, tx, batch.Payment); err != nil {
		return nil, err
	}

	result := &CommitResult{Balance: s.creditBalance(ctx, tx, batch)}

	if err := tx.Commit(ctx); err != nil {
		logger.ErrorLogger.Errorf("[TX_COMMIT_FAIL] payment %s: %v", batch.PaymentID, err)
		return nil, fmt.Errorf("failed to commit booking transaction: %w", err)
	}
	return result, nil
}

func (s *PgStore) RecordRejectedPayment(ctx context.Context, r *payment_models.Rejection) error {
	return payment_models.CreateRejection(ctx, s.DB, r)
}

func (s *PgStore) creditBalance(ctx context.Context, tx pgx.Tx, batch *BookingBatch) billing.Outcome {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return billing.Failed(StepBalance, err)
	}
	if err := balance_models.ApplyCredit(ctx, sp, batch.BusinessID, batch.Credit); err != nil {
		_ = sp.Rollback(ctx)
		return billing.Failed(StepBalance, err)
	}
	if err := sp.Commit(ctx); err != nil {
		return billing.Failed(StepBalance, err)
	}
	return billing.Applied(StepBalance)
}

func (s *PgStore) SuccessfulSubscriptionPayment(ctx context.Context, paymentID string) (*subscription_models.History, error) {
	return subscription_models.GetSuccessfulHistory(ctx, s.DB, paymentID)
}

func (s *PgStore) Subscription(ctx context.Context, ownerID uuid.UUID) (*subscription_models.Subscription, error) {
	return subscription_models.GetSubscriptionByOwner(ctx, s.DB, ownerID)
}

// ActivateSubscription upserts the subscription, appends the history row and
// syncs the owner's premium flag in one transaction.
func (s *PgStore) ActivateSubscription(ctx context.Context, act *Activation) (bool, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		logger.ErrorLogger.Errorf("[TX_BEGIN_FAIL] subscription payment %s: %v", act.History.PaymentID, err)
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, lockPaymentSQL, act.History.PaymentID); err != nil {
		return false, fmt.Errorf("failed to lock payment %s: %w", act.History.PaymentID, err)
	}
	done, err := subscription_models.GetSuccessfulHistory(ctx, tx, act.History.PaymentID)
	if err != nil {
		return false, err
	}
	if done != nil {
		*act.History = *done
		return true, nil
	}

	if err := subscription_models.UpsertSubscription(ctx, tx, act.Subscription); err != nil {
		return false, err
	}
	act.History.SubscriptionID = &act.Subscription.ID
	if err := subscription_models.InsertHistory(ctx, tx, act.History); err != nil {
		return false, err
	}
	updated, err := business_models.SetPremiumPayments(ctx, tx, act.Subscription.OwnerID, act.Premium)
	if err != nil {
		return false, err
	}
	if !updated {
		logger.WarnLogger.Warnf("Owner %s has no business; premium flag not set", act.Subscription.OwnerID)
	}

	if err := tx.Commit(ctx); err != nil {
		logger.ErrorLogger.Errorf("[TX_COMMIT_FAIL] subscription payment %s: %v", act.History.PaymentID, err)
		return false, fmt.Errorf("failed to commit subscription transaction: %w", err)
	}
	return false, nil
}

func (s *PgStore) RecordFailedSubscriptionPayment(ctx context.Context, h *subscription_models.History) error {
	return subscription_models.InsertHistory(ctx, s.DB, h)
}
