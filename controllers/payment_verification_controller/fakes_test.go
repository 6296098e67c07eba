package payment_verification_controller

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/clients"
	"github.com/joy095/spaces/models/balance_models"
	"github.com/joy095/spaces/models/booking_models"
	"github.com/joy095/spaces/models/payment_models"
	"github.com/joy095/spaces/models/space_models"
	"github.com/joy095/spaces/models/subscription_models"
	"github.com/joy095/spaces/models/user_models"
	"github.com/joy095/spaces/utils/mail"
)

// memStore is an in-memory Store mirroring the Postgres semantics the flows
// rely on.
type memStore struct {
	mu sync.Mutex

	spaces   map[uuid.UUID]space_models.Space
	users    map[uuid.UUID]user_models.User
	snapshot billing.TaxSnapshot
	taxErr   error
	spaceErr error

	bookings   map[string][]booking_models.Booking
	payments   []payment_models.Payment
	rejections []payment_models.Rejection
	balances   map[uuid.UUID]balance_models.Credit
	commits    int

	failBalance bool

	// beforeCommit runs once, ahead of the next CommitBookings, to let a
	// competing request land between the early read and the transaction.
	beforeCommit func()

	subscriptions map[uuid.UUID]subscription_models.Subscription
	history       []subscription_models.History
	premium       map[uuid.UUID]bool
}

func newMemStore() *memStore {
	return &memStore{
		spaces:        map[uuid.UUID]space_models.Space{},
		users:         map[uuid.UUID]user_models.User{},
		bookings:      map[string][]booking_models.Booking{},
		balances:      map[uuid.UUID]balance_models.Credit{},
		subscriptions: map[uuid.UUID]subscription_models.Subscription{},
		premium:       map[uuid.UUID]bool{},
	}
}

func (m *memStore) BookingsByPayment(_ context.Context, paymentID string) ([]booking_models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]booking_models.Booking(nil), m.bookings[paymentID]...), nil
}

func (m *memStore) Space(_ context.Context, id uuid.UUID) (*space_models.Space, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.spaceErr != nil {
		return nil, m.spaceErr
	}
	s, ok := m.spaces[id]
	if !ok {
		return nil, space_models.ErrSpaceNotFound
	}
	return &s, nil
}

func (m *memStore) TaxSnapshot(context.Context) (billing.TaxSnapshot, error) {
	return m.snapshot, m.taxErr
}

func (m *memStore) CommitBookings(_ context.Context, batch *BookingBatch) (*CommitResult, error) {
	m.mu.Lock()
	hook := m.beforeCommit
	m.beforeCommit = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing := m.bookings[batch.PaymentID]; len(existing) > 0 {
		return &CommitResult{Existing: append([]booking_models.Booking(nil), existing...)}, nil
	}
	space, ok := m.spaces[batch.SpaceID]
	if !ok {
		return nil, space_models.ErrSpaceNotFound
	}
	if space.AvailableSeats < batch.Seats {
		return nil, space_models.ErrInsufficientSeats
	}

	m.commits++
	space.AvailableSeats -= batch.Seats
	m.spaces[batch.SpaceID] = space
	for _, b := range batch.Bookings {
		m.bookings[batch.PaymentID] = append(m.bookings[batch.PaymentID], *b)
	}
	m.payments = append(m.payments, *batch.Payment)

	if m.failBalance {
		return &CommitResult{Balance: billing.Failed(StepBalance, errors.New("balance table locked"))}, nil
	}
	prev := m.balances[batch.BusinessID]
	m.balances[batch.BusinessID] = balance_models.Credit{
		OwnerPayout:        prev.OwnerPayout.Add(batch.Credit.OwnerPayout),
		PlatformCommission: prev.PlatformCommission.Add(batch.Credit.PlatformCommission),
		TotalTax:           prev.TotalTax.Add(batch.Credit.TotalTax),
	}
	return &CommitResult{Balance: billing.Applied(StepBalance)}, nil
}

func (m *memStore) RecordRejectedPayment(_ context.Context, r *payment_models.Rejection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	m.rejections = append(m.rejections, *r)
	return nil
}

func (m *memStore) UserContact(_ context.Context, id uuid.UUID) (*user_models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, user_models.ErrUserNotFound
	}
	return &u, nil
}

func (m *memStore) SuccessfulSubscriptionPayment(_ context.Context, paymentID string) (*subscription_models.History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.history {
		if h.PaymentID == paymentID && h.Status == subscription_models.HistorySuccess {
			h := h
			return &h, nil
		}
	}
	return nil, nil
}

func (m *memStore) Subscription(_ context.Context, ownerID uuid.UUID) (*subscription_models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subscriptions[ownerID]
	if !ok {
		return nil, subscription_models.ErrSubscriptionNotFound
	}
	return &s, nil
}

func (m *memStore) ActivateSubscription(_ context.Context, act *Activation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.history {
		if h.PaymentID == act.History.PaymentID && h.Status == subscription_models.HistorySuccess {
			*act.History = h
			return true, nil
		}
	}
	act.Subscription.ID = uuid.New()
	m.subscriptions[act.Subscription.OwnerID] = *act.Subscription
	act.History.ID = uuid.New()
	act.History.SubscriptionID = &act.Subscription.ID
	m.history = append(m.history, *act.History)
	m.premium[act.Subscription.OwnerID] = act.Premium
	return false, nil
}

func (m *memStore) RecordFailedSubscriptionPayment(_ context.Context, h *subscription_models.History) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = uuid.New()
	m.history = append(m.history, *h)
	return nil
}

func (m *memStore) bookingCount(paymentID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings[paymentID])
}

func (m *memStore) availableSeats(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spaces[id].AvailableSeats
}

type fakeGateway struct {
	payments map[string]*clients.GatewayPayment
	err      error
	fetches  int
}

func (g *fakeGateway) CreateOrder(amountPaise int64, currency, receipt string, _ map[string]string) (*clients.GatewayOrder, error) {
	return &clients.GatewayOrder{ID: "order_fake", AmountPaise: amountPaise, Currency: currency, Receipt: receipt}, nil
}

func (g *fakeGateway) FetchPayment(paymentID string) (*clients.GatewayPayment, error) {
	g.fetches++
	if g.err != nil {
		return nil, g.err
	}
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, errors.New("payment not found")
	}
	return p, nil
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

type fakeMailer struct {
	mu            sync.Mutex
	err           error
	confirmations []mail.BookingConfirmation
	receipts      []mail.SubscriptionReceipt
	recipients    []string
}

func (f *fakeMailer) SendBookingConfirmation(to string, data mail.BookingConfirmation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.recipients = append(f.recipients, to)
	f.confirmations = append(f.confirmations, data)
	return nil
}

func (f *fakeMailer) SendSubscriptionReceipt(to string, data mail.SubscriptionReceipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.recipients = append(f.recipients, to)
	f.receipts = append(f.receipts, data)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	keys   []string
	events []any
}

func (f *fakePublisher) Publish(_ context.Context, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.events = append(f.events, event)
	return nil
}
