package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyPaymentSignature(t *testing.T) {
	const secret = "rzp_test_secret"

	cases := []struct{ orderID, paymentID string }{
		{"order_NfZ1", "pay_NfZ2"},
		{"order_9A8B7C6D5E4F3G", "pay_29QQoUBi66xm2f"},
		{"o", "p"},
	}
	for _, tc := range cases {
		sig := SignPayment(tc.orderID, tc.paymentID, secret)
		assert.NoError(t, VerifyPaymentSignature(tc.orderID, tc.paymentID, sig, secret))

		for i := range sig {
			mutated := []byte(sig)
			if mutated[i] == 'a' {
				mutated[i] = 'b'
			} else {
				mutated[i] = 'a'
			}
			assert.ErrorIs(t, VerifyPaymentSignature(tc.orderID, tc.paymentID, string(mutated), secret), ErrInvalidSignature)
		}
	}
}

func TestVerifyPaymentSignatureRejectsWrongInputs(t *testing.T) {
	sig := SignPayment("order_1", "pay_1", "secret")

	assert.ErrorIs(t, VerifyPaymentSignature("order_1", "pay_2", sig, "secret"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyPaymentSignature("order_1", "pay_1", sig, "other"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyPaymentSignature("", "pay_1", sig, "secret"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyPaymentSignature("order_1", "pay_1", "", "secret"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyPaymentSignature("order_1", "pay_1", sig, ""), ErrInvalidSignature)
}
