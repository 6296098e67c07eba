package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	rzputils "github.com/razorpay/razorpay-go/utils"
)

// ErrInvalidSignature marks a payment confirmation that was not produced by
// the gateway holding the shared secret.
var ErrInvalidSignature = errors.New("payment signature verification failed")

// SignPayment returns the hex HMAC-SHA256 of "orderID|paymentID" keyed by secret.
func SignPayment(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signaturePayload(orderID, paymentID)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature checks a checkout callback signature. Empty inputs
// are rejected before any hashing.
func VerifyPaymentSignature(orderID, paymentID, signature, secret string) error {
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return ErrInvalidSignature
	}
	if !rzputils.VerifyWebhookSignature(signaturePayload(orderID, paymentID), signature, secret) {
		return ErrInvalidSignature
	}
	return nil
}

func signaturePayload(orderID, paymentID string) string {
	return orderID + "|" + paymentID
}
