package payment_verification_controller

import (
	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/models/booking_models"
	"github.com/joy095/spaces/models/subscription_models"
	"github.com/shopspring/decimal"
)

// VerifyPaymentRequest is the checkout callback body. Exactly one of
// BookingData or Plan selects the flow.
type VerifyPaymentRequest struct {
	RazorpayOrderID   string           `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string           `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string           `json:"razorpay_signature" binding:"required"`
	Amount            *decimal.Decimal `json:"amount,omitempty"`
	Currency          string           `json:"currency,omitempty"`

	BookingData *BookingData `json:"booking_data,omitempty"`

	Plan         string               `json:"plan,omitempty"`
	BillingCycle billing.BillingCycle `json:"billing_cycle,omitempty"`
	UserID       string               `json:"user_id,omitempty"`
}

// BookingData describes the booking the payment pays for.
type BookingData struct {
	SpaceID string             `json:"space_id"`
	UserID  string             `json:"user_id"`
	Items   []billing.LineItem `json:"items"`
}

// BookingResult is returned by the booking flow, for both fresh and
// already-processed payments.
type BookingResult struct {
	Success            bool                     `json:"success"`
	AlreadyProcessed   bool                     `json:"already_processed"`
	BookingID          string                   `json:"booking_id"`
	Bookings           []booking_models.Booking `json:"bookings"`
	RedemptionCodes    []string                 `json:"redemption_codes"`
	TotalAmount        decimal.Decimal          `json:"total_amount"`
	TotalTax           decimal.Decimal          `json:"total_tax"`
	PlatformCommission decimal.Decimal          `json:"platform_commission"`
	OwnerPayout        decimal.Decimal          `json:"owner_payout"`
	SideEffects        []billing.Outcome        `json:"side_effects,omitempty"`
}

// SubscriptionResult is returned by the subscription flow.
type SubscriptionResult struct {
	Success          bool                              `json:"success"`
	AlreadyProcessed bool                              `json:"already_processed"`
	Subscription     *subscription_models.Subscription `json:"subscription,omitempty"`
	History          *subscription_models.History      `json:"history,omitempty"`
	SideEffects      []billing.Outcome                 `json:"side_effects,omitempty"`
}

func newBookingResult(bookings []booking_models.Booking, alreadyProcessed bool) *BookingResult {
	res := &BookingResult{
		Success:            true,
		AlreadyProcessed:   alreadyProcessed,
		Bookings:           bookings,
		TotalAmount:        decimal.Zero,
		TotalTax:           decimal.Zero,
		PlatformCommission: decimal.Zero,
		OwnerPayout:        decimal.Zero,
	}
	for i, b := range bookings {
		if i == 0 {
			res.BookingID = b.ID.String()
		}
		res.RedemptionCodes = append(res.RedemptionCodes, b.RedemptionCode)
		res.TotalAmount = res.TotalAmount.Add(b.TotalAmount)
		res.TotalTax = res.TotalTax.Add(b.TaxAmount)
		res.PlatformCommission = res.PlatformCommission.Add(b.PlatformCommission)
	}
	// Batch payout follows the split: total minus all tax lines, the platform
	// fee included.
	res.OwnerPayout = res.TotalAmount.Sub(res.TotalTax)
	return res
}
