package payment_verification_controller

import (
	"context"
	"testing"

	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/clients"
	"github.com/joy095/spaces/models/subscription_models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) subscriptionRequest(paymentID, plan string, cycle billing.BillingCycle, amount string) *VerifyPaymentRequest {
	orderID := "order_" + paymentID
	amt := d(amount)
	return &VerifyPaymentRequest{
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: billing.SignPayment(orderID, paymentID, testSecret),
		Amount:            &amt,
		Plan:              plan,
		BillingCycle:      cycle,
	}
}

func (f *fixture) capture(paymentID string, paise int64, status string) {
	f.gateway.payments[paymentID] = &clients.GatewayPayment{
		ID: paymentID, OrderID: "order_" + paymentID, Status: status, AmountPaise: paise, Currency: "INR",
		Raw: []byte(`{"id":"` + paymentID + `"}`),
	}
}

func TestVerifySubscriptionActivatesPlan(t *testing.T) {
	f := newFixture(t)
	f.svc.Gateway = f.gateway
	f.capture("pay_sub", 99900, "captured")

	res, err := f.svc.VerifySubscription(context.Background(),
		f.subscriptionRequest("pay_sub", "Pro", billing.CycleMonthly, "999"), f.ownerID)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.False(t, res.AlreadyProcessed)
	require.NotNil(t, res.Subscription)
	assert.Equal(t, "pro", res.Subscription.Plan)
	assert.Equal(t, subscription_models.StatusActive, res.Subscription.Status)
	assert.Equal(t, fixedNow.AddDate(0, 1, 0), res.Subscription.ExpiryDate)

	require.Len(t, f.store.history, 1)
	h := f.store.history[0]
	assert.Equal(t, subscription_models.HistorySuccess, h.Status)
	assert.True(t, h.Amount.Equal(d("999")))
	require.NotNil(t, h.SubscriptionID)
	assert.Equal(t, res.Subscription.ID, *h.SubscriptionID)
	assert.True(t, f.store.premium[f.ownerID])

	assert.Equal(t, []string{"owner@example.com"}, f.mailer.recipients)
	assert.Equal(t, []string{clients.RoutingSubscriptionActivated}, f.events.keys)
}

func TestVerifySubscriptionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.svc.Gateway = f.gateway
	f.capture("pay_sub2", 999900, "captured")
	req := f.subscriptionRequest("pay_sub2", "pro", billing.CycleYearly, "9999")

	_, err := f.svc.VerifySubscription(context.Background(), req, f.ownerID)
	require.NoError(t, err)
	second, err := f.svc.VerifySubscription(context.Background(), req, f.ownerID)
	require.NoError(t, err)

	assert.True(t, second.AlreadyProcessed)
	assert.Len(t, f.store.history, 1)
	assert.Equal(t, 1, f.gateway.fetches)
	require.NotNil(t, second.Subscription)
	assert.Equal(t, fixedNow.AddDate(1, 0, 0), second.Subscription.ExpiryDate)
}

func TestVerifySubscriptionBasicPlanClearsPremium(t *testing.T) {
	f := newFixture(t)
	f.svc.Gateway = f.gateway
	f.store.premium[f.ownerID] = true
	f.capture("pay_basic", 0, "authorized")

	_, err := f.svc.VerifySubscription(context.Background(),
		f.subscriptionRequest("pay_basic", "basic", billing.CycleMonthly, "0"), f.ownerID)
	require.NoError(t, err)
	assert.False(t, f.store.premium[f.ownerID])
}

func TestVerifySubscriptionRecordsFailedPayment(t *testing.T) {
	f := newFixture(t)
	f.svc.Gateway = f.gateway
	f.capture("pay_fail", 99900, "failed")

	_, err := f.svc.VerifySubscription(context.Background(),
		f.subscriptionRequest("pay_fail", "pro", billing.CycleMonthly, "999"), f.ownerID)
	require.Error(t, err)

	var checkErr *PaymentCheckError
	require.ErrorAs(t, err, &checkErr)
	assert.ErrorIs(t, err, ErrPaymentNotSettled)

	require.Len(t, f.store.history, 1)
	assert.Equal(t, subscription_models.HistoryFailed, f.store.history[0].Status)
	require.NotNil(t, f.store.history[0].FailureReason)
	assert.Empty(t, f.store.subscriptions)
	assert.Empty(t, f.mailer.recipients)

	status, _ := StatusFor(err)
	assert.Equal(t, 400, status)
}

func TestVerifySubscriptionAmountMismatch(t *testing.T) {
	f := newFixture(t)
	f.svc.Gateway = f.gateway
	f.capture("pay_less", 100, "captured")

	_, err := f.svc.VerifySubscription(context.Background(),
		f.subscriptionRequest("pay_less", "pro", billing.CycleMonthly, "999"), f.ownerID)
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Empty(t, f.store.subscriptions)
}

func TestVerifySubscriptionRejectsBeforeGateway(t *testing.T) {
	f := newFixture(t)
	f.svc.Gateway = f.gateway

	req := f.subscriptionRequest("pay_x", "pro", "weekly", "999")
	_, err := f.svc.VerifySubscription(context.Background(), req, f.ownerID)
	assert.ErrorIs(t, err, billing.ErrInvalidBillingCycle)

	req = f.subscriptionRequest("pay_x", "pro", billing.CycleMonthly, "999")
	req.RazorpaySignature = "deadbeef"
	_, err = f.svc.VerifySubscription(context.Background(), req, f.ownerID)
	assert.ErrorIs(t, err, billing.ErrInvalidSignature)

	req = f.subscriptionRequest("pay_x", "pro", billing.CycleMonthly, "999")
	req.UserID = f.userID.String()
	_, err = f.svc.VerifySubscription(context.Background(), req, f.ownerID)
	assert.ErrorIs(t, err, ErrUserMismatch)

	assert.Zero(t, f.gateway.fetches)
	assert.Empty(t, f.store.history)
}

func TestVerifySubscriptionWithoutGateway(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.VerifySubscription(context.Background(),
		f.subscriptionRequest("pay_ng", "pro", billing.CycleMonthly, "999"), f.ownerID)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	status, _ := StatusFor(err)
	assert.Equal(t, 500, status)
}

func TestVerifySubscriptionUsesPlanCatalogue(t *testing.T) {
	f := newFixture(t)
	f.svc.Gateway = f.gateway
	prices, err := billing.ParsePlanPrices("pro:monthly=999")
	require.NoError(t, err)
	f.svc.PlanPrices = prices

	// The checkout claims 1 rupee and the gateway agrees, but the plan costs 999.
	f.capture("pay_cheap", 100, "captured")
	_, err = f.svc.VerifySubscription(context.Background(),
		f.subscriptionRequest("pay_cheap", "pro", billing.CycleMonthly, "1"), f.ownerID)
	assert.ErrorIs(t, err, ErrAmountMismatch)
}
