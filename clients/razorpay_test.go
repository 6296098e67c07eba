package clients

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayment(t *testing.T) {
	p, err := ParsePayment(map[string]interface{}{
		"id":       "pay_123",
		"order_id": "order_9",
		"status":   "captured",
		"amount":   float64(120000),
		"currency": "INR",
	})
	require.NoError(t, err)
	assert.Equal(t, "pay_123", p.ID)
	assert.Equal(t, "order_9", p.OrderID)
	assert.Equal(t, int64(120000), p.AmountPaise)
	assert.Contains(t, string(p.Raw), `"pay_123"`)
}

func TestParsePaymentRejectsMissingAmount(t *testing.T) {
	_, err := ParsePayment(map[string]interface{}{"id": "pay_1"})
	assert.ErrorIs(t, err, ErrGatewayResponse)
}
