package payment_verification_controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/clients"
	"github.com/joy095/spaces/logger"
	"github.com/joy095/spaces/models/payment_models"
	"github.com/joy095/spaces/models/subscription_models"
	"github.com/joy095/spaces/utils/mail"
	"github.com/shopspring/decimal"
)

// PaymentCheckError is returned when the gateway's view of a subscription
// payment fails a cross-check. A failed history row has been recorded.
type PaymentCheckError struct {
	History *subscription_models.History
	Err     error
}

func (e *PaymentCheckError) Error() string { return e.Err.Error() }
func (e *PaymentCheckError) Unwrap() error { return e.Err }

// VerifySubscription activates an owner's plan from a signed checkout
// callback after cross-checking the payment with the gateway.
func (s *Service) VerifySubscription(ctx context.Context, req *VerifyPaymentRequest, caller uuid.UUID) (*SubscriptionResult, error) {
	if err := billing.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, s.Secret); err != nil {
		logger.WarnLogger.WithField("payment_id", req.RazorpayPaymentID).Warn("Rejected subscription payment with invalid signature")
		return nil, err
	}

	plan := strings.ToLower(strings.TrimSpace(req.Plan))
	if plan == "" {
		return nil, ErrMissingPlan
	}
	start := s.now()
	expiry, err := billing.ExpiryDate(start, req.BillingCycle)
	if err != nil {
		return nil, err
	}

	ownerID := caller
	if req.UserID != "" {
		if ownerID, err = resolveUser(req.UserID, caller); err != nil {
			return nil, err
		}
	}

	if done, err := s.Store.SuccessfulSubscriptionPayment(ctx, req.RazorpayPaymentID); err != nil {
		return nil, err
	} else if done != nil {
		return s.alreadyActivated(ctx, done, ownerID)
	}

	if s.Gateway == nil {
		return nil, fmt.Errorf("%w: gateway client not configured", ErrGatewayUnavailable)
	}
	gp, err := s.Gateway.FetchPayment(req.RazorpayPaymentID)
	if err != nil {
		logger.ErrorLogger.WithField("payment_id", req.RazorpayPaymentID).Errorf("Gateway fetch failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	paid := decimal.New(gp.AmountPaise, -2)
	history := &subscription_models.History{
		OwnerID:      ownerID,
		Plan:         plan,
		BillingCycle: req.BillingCycle,
		Amount:       paid,
		Currency:     s.currency(gp.Currency),
		OrderID:      req.RazorpayOrderID,
		PaymentID:    req.RazorpayPaymentID,
		RawResponse:  gp.Raw,
	}

	if checkErr := checkSubscriptionPayment(req, gp, s.expectedAmount(plan, req)); checkErr != nil {
		reason := checkErr.Error()
		history.Status = subscription_models.HistoryFailed
		history.FailureReason = &reason
		if err := s.Store.RecordFailedSubscriptionPayment(ctx, history); err != nil {
			logger.ErrorLogger.WithField("payment_id", req.RazorpayPaymentID).
				Errorf("Failed to record failed subscription payment: %v", err)
		}
		return nil, &PaymentCheckError{History: history, Err: checkErr}
	}

	history.Status = subscription_models.HistorySuccess
	history.ExpiryDate = &expiry
	sub := &subscription_models.Subscription{
		OwnerID:      ownerID,
		Plan:         plan,
		BillingCycle: req.BillingCycle,
		Status:       subscription_models.StatusActive,
		StartDate:    start,
		ExpiryDate:   expiry,
		OrderID:      req.RazorpayOrderID,
		PaymentID:    req.RazorpayPaymentID,
	}

	already, err := s.Store.ActivateSubscription(ctx, &Activation{
		Subscription: sub,
		History:      history,
		Premium:      subscription_models.PlanEnablesPremium(plan),
	})
	if err != nil {
		logger.ErrorLogger.WithField("payment_id", req.RazorpayPaymentID).Errorf("Subscription transaction failed: %v", err)
		return nil, err
	}
	if already {
		return s.alreadyActivated(ctx, history, ownerID)
	}

	result := &SubscriptionResult{Success: true, Subscription: sub, History: history}
	result.SideEffects = []billing.Outcome{
		s.sendSubscriptionEmail(ctx, history),
		s.publishSubscriptionActivated(ctx, sub),
	}
	logOutcomes(req.RazorpayPaymentID, result.SideEffects)
	paymentLog(req.RazorpayPaymentID).Infof("Activated %s plan for owner %s until %s", plan, ownerID, expiry.Format(time.DateOnly))
	return result, nil
}

func (s *Service) alreadyActivated(ctx context.Context, done *subscription_models.History, ownerID uuid.UUID) (*SubscriptionResult, error) {
	if done.OwnerID != ownerID {
		return nil, ErrUserMismatch
	}
	paymentLog(done.PaymentID).Info("Subscription payment already processed")
	res := &SubscriptionResult{Success: true, AlreadyProcessed: true, History: done}
	sub, err := s.Store.Subscription(ctx, ownerID)
	if err != nil && !errors.Is(err, subscription_models.ErrSubscriptionNotFound) {
		return nil, err
	}
	res.Subscription = sub
	return res, nil
}

// expectedAmount is the catalogue price of the plan, falling back to the
// amount the checkout reported. Nil means no amount check is possible.
func (s *Service) expectedAmount(plan string, req *VerifyPaymentRequest) *decimal.Decimal {
	if price, err := s.PlanPrices.Price(plan, req.BillingCycle); err == nil {
		return &price
	}
	return req.Amount
}

func checkSubscriptionPayment(req *VerifyPaymentRequest, gp *clients.GatewayPayment, expected *decimal.Decimal) error {
	if gp.OrderID != "" && gp.OrderID != req.RazorpayOrderID {
		return ErrInconsistentPayment
	}
	if !payment_models.IsSettledStatus(gp.Status) {
		return fmt.Errorf("%w: status %q", ErrPaymentNotSettled, gp.Status)
	}
	if expected != nil && billing.ToPaise(*expected) != gp.AmountPaise {
		return fmt.Errorf("%w: paid %d paise, expected %d", ErrAmountMismatch, gp.AmountPaise, billing.ToPaise(*expected))
	}
	return nil
}

func (s *Service) sendSubscriptionEmail(ctx context.Context, h *subscription_models.History) billing.Outcome {
	if s.Mailer == nil {
		return billing.Skipped(StepEmail, "mailer not configured")
	}
	contact, err := s.Store.UserContact(ctx, h.OwnerID)
	if err != nil {
		return billing.Failed(StepEmail, err)
	}
	if contact.Email == "" {
		return billing.Skipped(StepEmail, "owner has no email")
	}

	data := mail.SubscriptionReceipt{
		Name:         contact.FullName,
		Plan:         h.Plan,
		BillingCycle: string(h.BillingCycle),
		PaymentID:    h.PaymentID,
		Currency:     h.Currency,
		Amount:       h.Amount.StringFixed(2),
	}
	if h.ExpiryDate != nil {
		data.ExpiryDate = h.ExpiryDate.Format(time.DateOnly)
	}
	if err := s.Mailer.SendSubscriptionReceipt(contact.Email, data); err != nil {
		if errors.Is(err, mail.ErrMailerNotConfigured) {
			return billing.Skipped(StepEmail, err.Error())
		}
		return billing.Failed(StepEmail, err)
	}
	return billing.Applied(StepEmail)
}

func (s *Service) publishSubscriptionActivated(ctx context.Context, sub *subscription_models.Subscription) billing.Outcome {
	if s.Events == nil {
		return billing.Skipped(StepNotification, "event publisher not configured")
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	err := s.Events.Publish(pubCtx, clients.RoutingSubscriptionActivated, clients.SubscriptionActivatedEvent{
		PaymentID:    sub.PaymentID,
		OwnerID:      sub.OwnerID.String(),
		Plan:         sub.Plan,
		BillingCycle: string(sub.BillingCycle),
		ExpiryDate:   sub.ExpiryDate,
	})
	if err != nil {
		return billing.Failed(StepNotification, err)
	}
	return billing.Applied(StepNotification)
}
