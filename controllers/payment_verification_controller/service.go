package payment_verification_controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/clients"
	"github.com/joy095/spaces/logger"
	"github.com/joy095/spaces/models/balance_models"
	"github.com/joy095/spaces/models/booking_models"
	"github.com/joy095/spaces/models/payment_models"
	"github.com/joy095/spaces/models/space_models"
	"github.com/joy095/spaces/utils/mail"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Side-effect step names reported in outcomes and logs.
const (
	StepBalance      = "balance"
	StepEmail        = "email"
	StepNotification = "notification"
)

const (
	paymentStatusVerified = "verified"
	sideEffectTimeout     = 5 * time.Second
)

// Service runs the payment verification flows. Gateway, Mailer and Events
// are optional; a nil dependency turns its step into a skipped outcome.
type Service struct {
	Store      Store
	Gateway    clients.RazorpayClientWrapper
	Mailer     mail.Sender
	Events     clients.EventPublisher
	Secret     string
	Currency   string
	PlanPrices billing.PlanPrices
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func paymentLog(paymentID string) *logrus.Entry {
	return logger.InfoLogger.WithField("payment_id", paymentID)
}

// resolveUser checks the body user id against the authenticated caller.
func resolveUser(bodyUserID string, caller uuid.UUID) (uuid.UUID, error) {
	bodyUserID = strings.TrimSpace(bodyUserID)
	if bodyUserID == "" {
		return uuid.Nil, ErrMissingUserID
	}
	id, err := uuid.Parse(bodyUserID)
	if err != nil {
		return uuid.Nil, ErrInvalidUserID
	}
	if id != caller {
		return uuid.Nil, ErrUserMismatch
	}
	return id, nil
}

// VerifyBooking turns a signed checkout callback into confirmed bookings.
// Every rejection happens before the first write; once the transaction
// commits, later failures only show up as side-effect outcomes.
func (s *Service) VerifyBooking(ctx context.Context, req *VerifyPaymentRequest, caller uuid.UUID) (*BookingResult, error) {
	if err := billing.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, s.Secret); err != nil {
		logger.WarnLogger.WithField("payment_id", req.RazorpayPaymentID).Warn("Rejected payment with invalid signature")
		return nil, err
	}
	data := req.BookingData
	if data == nil {
		return nil, ErrUnknownPaymentType
	}

	userID, err := resolveUser(data.UserID, caller)
	if err != nil {
		return nil, err
	}

	existing, err := s.Store.BookingsByPayment(ctx, req.RazorpayPaymentID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		paymentLog(req.RazorpayPaymentID).Info("Payment already processed; returning existing bookings")
		return newBookingResult(existing, true), nil
	}

	spaceID, err := uuid.Parse(strings.TrimSpace(data.SpaceID))
	if err != nil {
		return nil, ErrInvalidSpaceID
	}
	space, err := s.Store.Space(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if space.OwnerID == uuid.Nil {
		return nil, ErrBusinessNotOwned
	}

	snapshot, err := s.Store.TaxSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	quote, err := billing.QuoteBatch(data.Items, space.Rates(), snapshot, space.PremiumPaymentsEnabled)
	if err != nil {
		return nil, err
	}
	if quote.Seats > space.AvailableSeats {
		return nil, fmt.Errorf("%w: requested %d, available %d", space_models.ErrInsufficientSeats, quote.Seats, space.AvailableSeats)
	}

	payment, err := s.paymentRecord(ctx, req, userID, space.ID, quote)
	if err != nil {
		return nil, err
	}

	batch, err := s.buildBatch(req, userID, space, quote, payment)
	if err != nil {
		return nil, err
	}

	committed, err := s.Store.CommitBookings(ctx, batch)
	if err != nil {
		logger.ErrorLogger.WithField("payment_id", req.RazorpayPaymentID).Errorf("Booking transaction failed: %v", err)
		return nil, err
	}
	if len(committed.Existing) > 0 {
		paymentLog(req.RazorpayPaymentID).Info("Payment processed concurrently; returning existing bookings")
		return newBookingResult(committed.Existing, true), nil
	}

	bookings := make([]booking_models.Booking, len(batch.Bookings))
	for i, b := range batch.Bookings {
		bookings[i] = *b
	}
	result := newBookingResult(bookings, false)
	result.TotalTax = quote.Split.TotalTax
	result.PlatformCommission = quote.Split.PlatformCommission
	result.OwnerPayout = quote.Split.OwnerPayout

	outcomes := []billing.Outcome{committed.Balance}
	outcomes = append(outcomes, s.sendBookingEmail(ctx, userID, space, req, result))
	outcomes = append(outcomes, s.publishBookingConfirmed(ctx, userID, space, req, result))
	result.SideEffects = outcomes
	logOutcomes(req.RazorpayPaymentID, outcomes)

	paymentLog(req.RazorpayPaymentID).Infof("Confirmed %d booking(s) for space %s", len(bookings), space.ID)
	return result, nil
}

// paymentRecord builds the payment audit row. When a gateway is configured
// the payment is fetched and cross-checked against the quoted total; its
// payload becomes the audit record. A payment failing the cross-check is
// stored as a rejection before the error is returned.
func (s *Service) paymentRecord(ctx context.Context, req *VerifyPaymentRequest, userID, spaceID uuid.UUID,
	quote billing.Quote) (*payment_models.Payment, error) {

	currency := s.currency(req.Currency)
	p := &payment_models.Payment{
		OrderID:   req.RazorpayOrderID,
		PaymentID: req.RazorpayPaymentID,
		Amount:    quote.Total(),
		Currency:  currency,
		Status:    paymentStatusVerified,
	}

	if s.Gateway == nil {
		p.RawResponse = requestPayload(req)
		return p, nil
	}

	gp, err := s.Gateway.FetchPayment(req.RazorpayPaymentID)
	if err != nil {
		logger.WarnLogger.WithField("payment_id", req.RazorpayPaymentID).
			Warnf("Gateway fetch failed, relying on signature: %v", err)
		p.RawResponse = requestPayload(req)
		return p, nil
	}
	if err := checkBookingPayment(req, gp, quote.Total()); err != nil {
		s.recordRejection(ctx, req, userID, spaceID, gp, quote.Total(), err)
		return nil, err
	}
	p.Status = gp.Status
	if gp.Currency != "" {
		p.Currency = gp.Currency
	}
	p.RawResponse = gp.Raw
	return p, nil
}

func checkBookingPayment(req *VerifyPaymentRequest, gp *clients.GatewayPayment, expected decimal.Decimal) error {
	if gp.OrderID != "" && gp.OrderID != req.RazorpayOrderID {
		return ErrInconsistentPayment
	}
	if !payment_models.IsSettledStatus(gp.Status) {
		return fmt.Errorf("%w: status %q", ErrPaymentNotSettled, gp.Status)
	}
	if gp.AmountPaise != billing.ToPaise(expected) {
		return fmt.Errorf("%w: paid %d paise, expected %d", ErrAmountMismatch, gp.AmountPaise, billing.ToPaise(expected))
	}
	return nil
}

func (s *Service) recordRejection(ctx context.Context, req *VerifyPaymentRequest, userID, spaceID uuid.UUID,
	gp *clients.GatewayPayment, expected decimal.Decimal, reason error) {

	r := &payment_models.Rejection{
		OrderID:        req.RazorpayOrderID,
		PaymentID:      req.RazorpayPaymentID,
		UserID:         userID,
		SpaceID:        &spaceID,
		ExpectedAmount: expected,
		PaidPaise:      gp.AmountPaise,
		GatewayStatus:  gp.Status,
		Reason:         reason.Error(),
		RawResponse:    gp.Raw,
	}
	entry := logger.WarnLogger.WithField("payment_id", req.RazorpayPaymentID)
	if err := s.Store.RecordRejectedPayment(context.WithoutCancel(ctx), r); err != nil {
		logger.ErrorLogger.WithField("payment_id", req.RazorpayPaymentID).
			Errorf("Failed to record rejected payment (%v): %v", reason, err)
		return
	}
	entry.Warnf("Rejected captured payment: %v", reason)
}

func (s *Service) buildBatch(req *VerifyPaymentRequest, userID uuid.UUID, space *space_models.Space,
	quote billing.Quote, payment *payment_models.Payment) (*BookingBatch, error) {

	codes, err := billing.NewRedemptionCodes(len(quote.Lines), s.now)
	if err != nil {
		return nil, err
	}

	batch := &BookingBatch{
		PaymentID:  req.RazorpayPaymentID,
		SpaceID:    space.ID,
		BusinessID: space.BusinessID,
		Seats:      quote.Seats,
		Payment:    payment,
		Credit: balance_models.Credit{
			OwnerPayout:        quote.Split.OwnerPayout,
			PlatformCommission: quote.Split.PlatformCommission,
			TotalTax:           quote.Split.TotalTax,
		},
	}
	for i, line := range quote.Lines {
		b, err := booking_models.NewConfirmedBooking(userID, space.ID, space.BusinessID, line,
			quote.Shares[i], req.RazorpayOrderID, req.RazorpayPaymentID, codes[i])
		if err != nil {
			return nil, err
		}
		batch.Bookings = append(batch.Bookings, b)
	}
	payment.BookingID = batch.Bookings[0].ID
	return batch, nil
}

func (s *Service) currency(requested string) string {
	if requested != "" {
		return strings.ToUpper(requested)
	}
	if s.Currency != "" {
		return s.Currency
	}
	return "INR"
}

func requestPayload(req *VerifyPaymentRequest) json.RawMessage {
	raw, _ := json.Marshal(map[string]string{
		"razorpay_order_id":   req.RazorpayOrderID,
		"razorpay_payment_id": req.RazorpayPaymentID,
		"source":              "checkout_callback",
	})
	return raw
}

func (s *Service) sendBookingEmail(ctx context.Context, userID uuid.UUID, space *space_models.Space,
	req *VerifyPaymentRequest, result *BookingResult) billing.Outcome {

	if s.Mailer == nil {
		return billing.Skipped(StepEmail, "mailer not configured")
	}
	contact, err := s.Store.UserContact(ctx, userID)
	if err != nil {
		return billing.Failed(StepEmail, err)
	}
	if contact.Email == "" {
		return billing.Skipped(StepEmail, "user has no email")
	}

	data := mail.BookingConfirmation{
		Name:      contact.FullName,
		SpaceName: space.Name,
		PaymentID: req.RazorpayPaymentID,
		Currency:  s.currency(req.Currency),
		Total:     result.TotalAmount.StringFixed(2),
	}
	for _, b := range result.Bookings {
		data.Lines = append(data.Lines, mail.BookingLine{
			Date:           b.BookingDate.Format(time.DateOnly),
			StartTime:      b.StartTime,
			EndTime:        b.EndTime,
			Seats:          b.SeatsBooked,
			RedemptionCode: b.RedemptionCode,
		})
	}
	if err := s.Mailer.SendBookingConfirmation(contact.Email, data); err != nil {
		if errors.Is(err, mail.ErrMailerNotConfigured) {
			return billing.Skipped(StepEmail, err.Error())
		}
		return billing.Failed(StepEmail, err)
	}
	return billing.Applied(StepEmail)
}

func (s *Service) publishBookingConfirmed(ctx context.Context, userID uuid.UUID, space *space_models.Space,
	req *VerifyPaymentRequest, result *BookingResult) billing.Outcome {

	if s.Events == nil {
		return billing.Skipped(StepNotification, "event publisher not configured")
	}
	event := clients.BookingConfirmedEvent{
		PaymentID:       req.RazorpayPaymentID,
		UserID:          userID.String(),
		SpaceID:         space.ID.String(),
		BusinessID:      space.BusinessID.String(),
		RedemptionCodes: result.RedemptionCodes,
		TotalAmount:     result.TotalAmount.StringFixed(2),
		Currency:        s.currency(req.Currency),
		ConfirmedAt:     s.now().UTC(),
	}
	for _, b := range result.Bookings {
		event.BookingIDs = append(event.BookingIDs, b.ID.String())
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := s.Events.Publish(pubCtx, clients.RoutingBookingConfirmed, event); err != nil {
		return billing.Failed(StepNotification, err)
	}
	return billing.Applied(StepNotification)
}

func logOutcomes(paymentID string, outcomes []billing.Outcome) {
	for _, o := range outcomes {
		entry := logger.InfoLogger.WithFields(logrus.Fields{
			"payment_id": paymentID,
			"step":       o.Step,
			"status":     o.Status,
		})
		switch o.Status {
		case billing.OutcomeFailed:
			logger.ErrorLogger.WithFields(entry.Data).Errorf("Side effect failed: %s", o.Reason)
		case billing.OutcomeSkipped:
			entry.Infof("Side effect skipped: %s", o.Reason)
		default:
			entry.Info("Side effect applied")
		}
	}
}
