package payment_verification_controller

import "errors"

var (
	ErrMissingUserID       = errors.New("user id is required")
	ErrUserMismatch        = errors.New("user id does not match the authenticated user")
	ErrInvalidUserID       = errors.New("invalid user id")
	ErrInvalidSpaceID      = errors.New("invalid space id")
	ErrUnknownPaymentType  = errors.New("request carries neither booking data nor a subscription plan")
	ErrMissingPlan         = errors.New("subscription plan is required")
	ErrAmountMismatch      = errors.New("paid amount does not match the expected amount")
	ErrPaymentNotSettled   = errors.New("payment is not captured or authorized")
	ErrGatewayUnavailable  = errors.New("could not confirm the payment with the gateway")
	ErrBusinessNotOwned    = errors.New("space owner business is missing")
	ErrInconsistentPayment = errors.New("payment does not belong to this order")
)
