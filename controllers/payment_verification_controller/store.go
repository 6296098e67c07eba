package payment_verification_controller

import (
	"context"

	"github.com/google/uuid"
	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/models/balance_models"
	"github.com/joy095/spaces/models/booking_models"
	"github.com/joy095/spaces/models/payment_models"
	"github.com/joy095/spaces/models/space_models"
	"github.com/joy095/spaces/models/subscription_models"
	"github.com/joy095/spaces/models/user_models"
)

// BookingBatch is everything the booking transaction writes for one payment.
type BookingBatch struct {
	PaymentID  string
	SpaceID    uuid.UUID
	BusinessID uuid.UUID
	Seats      int
	Bookings   []*booking_models.Booking
	Payment    *payment_models.Payment
	Credit     balance_models.Credit
}

// CommitResult reports what the booking transaction did. When Existing is
// non-empty another request already processed the payment and nothing was
// written.
type CommitResult struct {
	Existing []booking_models.Booking
	Balance  billing.Outcome
}

// Activation is the subscription transaction's input.
type Activation struct {
	Subscription *subscription_models.Subscription
	History      *subscription_models.History
	Premium      bool
}

// Store is the persistence the verification flows depend on.
type Store interface {
	BookingsByPayment(ctx context.Context, paymentID string) ([]booking_models.Booking, error)
	Space(ctx context.Context, spaceID uuid.UUID) (*space_models.Space, error)
	TaxSnapshot(ctx context.Context) (billing.TaxSnapshot, error)
	CommitBookings(ctx context.Context, batch *BookingBatch) (*CommitResult, error)
	RecordRejectedPayment(ctx context.Context, r *payment_models.Rejection) error
	UserContact(ctx context.Context, userID uuid.UUID) (*user_models.User, error)

	SuccessfulSubscriptionPayment(ctx context.Context, paymentID string) (*subscription_models.History, error)
	Subscription(ctx context.Context, ownerID uuid.UUID) (*subscription_models.Subscription, error)
	ActivateSubscription(ctx context.Context, act *Activation) (alreadyProcessed bool, err error)
	RecordFailedSubscriptionPayment(ctx context.Context, h *subscription_models.History) error
}
