package clients

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/razorpay/razorpay-go"
)

var ErrGatewayResponse = errors.New("unexpected payment gateway response")

// GatewayPayment is the subset of a Razorpay payment entity the service
// cross-checks, along with the raw payload kept for audit.
type GatewayPayment struct {
	ID          string
	OrderID     string
	Status      string
	AmountPaise int64
	Currency    string
	Raw         json.RawMessage
}

// GatewayOrder is a created Razorpay order.
type GatewayOrder struct {
	ID          string
	AmountPaise int64
	Currency    string
	Receipt     string
}

// RazorpayClientWrapper provides an interface for Razorpay operations.
// This interface allows for easier testing by mocking Razorpay interactions.
type RazorpayClientWrapper interface {
	CreateOrder(amountPaise int64, currency, receipt string, notes map[string]string) (*GatewayOrder, error)
	FetchPayment(paymentID string) (*GatewayPayment, error)
	KeyID() string
}

// RazorpayClient implements RazorpayClientWrapper using the actual Razorpay SDK.
type RazorpayClient struct {
	Client *razorpay.Client
	keyID  string
}

// NewRazorpayClient creates and returns a new instance of RazorpayClient.
func NewRazorpayClient(keyID, keySecret string) *RazorpayClient {
	return &RazorpayClient{
		Client: razorpay.NewClient(keyID, keySecret),
		keyID:  keyID,
	}
}

// KeyID is the public key the checkout page needs alongside an order id.
func (r *RazorpayClient) KeyID() string {
	return r.keyID
}

// CreateOrder creates a new order in Razorpay.
func (r *RazorpayClient) CreateOrder(amountPaise int64, currency, receipt string, notes map[string]string) (*GatewayOrder, error) {
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}
	body, err := r.Client.Order.Create(data, nil)
	if err != nil {
		return nil, err
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: order without id", ErrGatewayResponse)
	}
	amount, _ := asInt64(body["amount"])
	cur, _ := body["currency"].(string)
	return &GatewayOrder{ID: id, AmountPaise: amount, Currency: cur, Receipt: receipt}, nil
}

// FetchPayment loads a payment entity by id.
func (r *RazorpayClient) FetchPayment(paymentID string) (*GatewayPayment, error) {
	body, err := r.Client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, err
	}
	return ParsePayment(body)
}

// ParsePayment converts a decoded Razorpay payment entity.
func ParsePayment(body map[string]interface{}) (*GatewayPayment, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayResponse, err)
	}
	p := &GatewayPayment{Raw: raw}
	p.ID, _ = body["id"].(string)
	p.OrderID, _ = body["order_id"].(string)
	p.Status, _ = body["status"].(string)
	p.Currency, _ = body["currency"].(string)

	amount, ok := asInt64(body["amount"])
	if !ok || p.ID == "" {
		return nil, fmt.Errorf("%w: payment missing id or amount", ErrGatewayResponse)
	}
	p.AmountPaise = amount
	return p, nil
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
