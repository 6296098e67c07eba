package booking_models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/config/db"
	"github.com/joy095/spaces/logger"
	"github.com/shopspring/decimal"
)

// Booking lifecycle: pending -> confirmed -> completed | cancelled.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

var (
	ErrBookingNotFound      = errors.New("booking not found")
	ErrBookingNotConfirmed  = errors.New("booking is not in confirmed state")
	ErrDuplicateRedemption  = errors.New("redemption code already in use")
	ErrInvalidRedeemRequest = errors.New("invalid redemption code")
)

// Booking is one confirmed line of a paid booking batch.
type Booking struct {
	ID                 uuid.UUID           `json:"id"`
	UserID             uuid.UUID           `json:"user_id"`
	SpaceID            uuid.UUID           `json:"space_id"`
	BusinessID         uuid.UUID           `json:"business_id"`
	BookingDate        time.Time           `json:"booking_date"`
	StartTime          string              `json:"start_time,omitempty"`
	EndTime            string              `json:"end_time,omitempty"`
	BookingType        billing.BookingType `json:"booking_type"`
	SeatsBooked        int                 `json:"seats_booked"`
	BaseAmount         decimal.Decimal     `json:"base_amount"`
	TaxAmount          decimal.Decimal     `json:"tax_amount"`
	TotalAmount        decimal.Decimal     `json:"total_amount"`
	OwnerPayout        decimal.Decimal     `json:"owner_payout"`
	PlatformCommission decimal.Decimal     `json:"platform_commission"`
	Status             string              `json:"status"`
	OrderID            string              `json:"order_id"`
	PaymentID          string              `json:"payment_id"`
	RedemptionCode     string              `json:"redemption_code"`
	RedeemedAt         *time.Time          `json:"redeemed_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// NewConfirmedBooking builds a confirmed booking for one priced line and its
// share of the batch split.
func NewConfirmedBooking(userID, spaceID, businessID uuid.UUID, line billing.PricedLine,
	share billing.LineShare, orderID, paymentID, code string) (*Booking, error) {

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID for booking: %w", err)
	}
	day, err := line.Item.Day()
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", billing.ErrInvalidLineItem, line.Item.Date)
	}
	now := time.Now()
	return &Booking{
		ID:                 id,
		UserID:             userID,
		SpaceID:            spaceID,
		BusinessID:         businessID,
		BookingDate:        day,
		StartTime:          line.Item.StartTime,
		EndTime:            line.Item.EndTime,
		BookingType:        line.Kind,
		SeatsBooked:        line.Item.Seats,
		BaseAmount:         share.Amount,
		TaxAmount:          share.Tax,
		TotalAmount:        share.Amount,
		OwnerPayout:        share.Payout,
		PlatformCommission: share.Commission,
		Status:             StatusConfirmed,
		OrderID:            orderID,
		PaymentID:          paymentID,
		RedemptionCode:     code,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

const bookingColumns = `
	id, user_id, space_id, business_id, booking_date, start_time, end_time,
	booking_type, seats_booked, base_amount, tax_amount, total_amount,
	owner_payout, platform_commission, status, order_id, payment_id,
	redemption_code, redeemed_at, cancelled_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	b := &Booking{}
	err := row.Scan(
		&b.ID, &b.UserID, &b.SpaceID, &b.BusinessID, &b.BookingDate, &b.StartTime, &b.EndTime,
		&b.BookingType, &b.SeatsBooked, &b.BaseAmount, &b.TaxAmount, &b.TotalAmount,
		&b.OwnerPayout, &b.PlatformCommission, &b.Status, &b.OrderID, &b.PaymentID,
		&b.RedemptionCode, &b.RedeemedAt, &b.CancelledAt, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// CreateBooking inserts a booking. A redemption code collision with an
// existing row is reported as ErrDuplicateRedemption.
func CreateBooking(ctx context.Context, q db.DBTX, b *Booking) error {
	_, err := q.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22)`,
		b.ID, b.UserID, b.SpaceID, b.BusinessID, b.BookingDate, b.StartTime, b.EndTime,
		b.BookingType, b.SeatsBooked, b.BaseAmount, b.TaxAmount, b.TotalAmount,
		b.OwnerPayout, b.PlatformCommission, b.Status, b.OrderID, b.PaymentID,
		b.RedemptionCode, b.RedeemedAt, b.CancelledAt, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "bookings_redemption_code_key" {
			return ErrDuplicateRedemption
		}
		logger.ErrorLogger.Errorf("Failed to insert booking %s: %v", b.ID, err)
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

// GetBookingsByPaymentID returns the bookings created for a gateway payment in
// creation order. An empty result means the payment has not been processed.
func GetBookingsByPaymentID(ctx context.Context, q db.DBTX, paymentID string) ([]Booking, error) {
	rows, err := q.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE payment_id = $1 ORDER BY created_at, id`, paymentID)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to look up bookings for payment %s: %v", paymentID, err)
		return nil, fmt.Errorf("database error fetching bookings: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error reading bookings: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading bookings: %w", err)
	}
	return out, nil
}

// GetBookingByID fetches a booking record by its ID.
func GetBookingByID(ctx context.Context, q db.DBTX, bookingID uuid.UUID) (*Booking, error) {
	b, err := scanBooking(q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.WarnLogger.Warnf("Booking with ID %s not found", bookingID)
			return nil, ErrBookingNotFound
		}
		logger.ErrorLogger.Errorf("Failed to fetch booking %s: %v", bookingID, err)
		return nil, fmt.Errorf("database error fetching booking: %w", err)
	}
	return b, nil
}

// RedeemByCode moves the confirmed booking with code, belonging to
// businessID, to completed.
func RedeemByCode(ctx context.Context, q db.DBTX, businessID uuid.UUID, code string) (*Booking, error) {
	if !billing.IsRedemptionCode(code) {
		return nil, ErrInvalidRedeemRequest
	}
	b, err := scanBooking(q.QueryRow(ctx, `
		UPDATE bookings
		SET status = $3, redeemed_at = NOW(), updated_at = NOW()
		WHERE redemption_code = $1 AND business_id = $2 AND status = $4
		RETURNING `+bookingColumns, code, businessID, StatusCompleted, StatusConfirmed))
	if err == nil {
		logger.InfoLogger.Infof("Booking %s redeemed", b.ID)
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to redeem booking: %w", err)
	}

	var status string
	err = q.QueryRow(ctx, `SELECT status FROM bookings WHERE redemption_code = $1 AND business_id = $2`,
		code, businessID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to redeem booking: %w", err)
	}
	return nil, ErrBookingNotConfirmed
}

// CancelBooking moves a confirmed booking to cancelled and returns the
// updated row. The caller releases the seats in the same transaction.
func CancelBooking(ctx context.Context, q db.DBTX, bookingID uuid.UUID) (*Booking, error) {
	b, err := scanBooking(q.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2, cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING `+bookingColumns, bookingID, StatusCancelled, StatusConfirmed))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotConfirmed
		}
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	logger.InfoLogger.Infof("Booking %s cancelled", b.ID)
	return b, nil
}
