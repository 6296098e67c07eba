package payment_verification_controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/logger"
	"github.com/joy095/spaces/models/business_models"
	"github.com/joy095/spaces/models/space_models"
	"github.com/joy095/spaces/utils"
)

// PaymentVerificationController exposes the verification flows over HTTP.
type PaymentVerificationController struct {
	Service      *Service
	SupportEmail string
}

func NewPaymentVerificationController(service *Service, supportEmail string) *PaymentVerificationController {
	return &PaymentVerificationController{Service: service, SupportEmail: supportEmail}
}

// VerifyPayment handles POST /payments/verify.
func (pc *PaymentVerificationController) VerifyPayment(c *gin.Context) {
	callerID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnLogger.Warnf("Invalid verify payment body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	switch {
	case req.BookingData != nil:
		res, err := pc.Service.VerifyBooking(ctx, &req, callerID)
		if err != nil {
			pc.writeError(c, &req, err)
			return
		}
		c.JSON(http.StatusOK, res)

	case req.Plan != "":
		res, err := pc.Service.VerifySubscription(ctx, &req, callerID)
		if err != nil {
			pc.writeError(c, &req, err)
			return
		}
		c.JSON(http.StatusOK, res)

	default:
		pc.writeError(c, &req, ErrUnknownPaymentType)
	}
}

func (pc *PaymentVerificationController) writeError(c *gin.Context, req *VerifyPaymentRequest, err error) {
	status, message := StatusFor(err)
	body := gin.H{"success": false, "error": message, "payment_id": req.RazorpayPaymentID}

	switch status {
	case http.StatusInternalServerError:
		logger.ErrorLogger.WithField("payment_id", req.RazorpayPaymentID).Errorf("Payment verification failed: %v", err)
	case http.StatusBadRequest:
		body["details"] = err.Error()
	}

	// Past the signature check the gateway may already hold the money.
	if !errors.Is(err, billing.ErrInvalidSignature) {
		body["message"] = pc.supportMessage(status, req.RazorpayPaymentID)
	}
	c.JSON(status, body)
}

func (pc *PaymentVerificationController) supportMessage(status int, paymentID string) string {
	if status == http.StatusInternalServerError {
		return fmt.Sprintf("We could not confirm your payment. If money was deducted, contact %s with payment id %s.",
			pc.SupportEmail, paymentID)
	}
	return fmt.Sprintf("Your payment could not be applied. If money was deducted, contact %s with payment id %s.",
		pc.SupportEmail, paymentID)
}

// StatusFor maps a verification error to its HTTP status and client message.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, billing.ErrInvalidSignature):
		return http.StatusBadRequest, "Payment verification failed"
	case errors.Is(err, ErrUserMismatch):
		return http.StatusForbidden, "You cannot confirm a payment for another user"
	case errors.Is(err, space_models.ErrSpaceNotFound),
		errors.Is(err, business_models.ErrBusinessNotFound),
		errors.Is(err, ErrBusinessNotOwned):
		return http.StatusNotFound, "Space or owner not found"
	case errors.Is(err, space_models.ErrInsufficientSeats):
		return http.StatusBadRequest, "Not enough seats available"
	case errors.Is(err, billing.ErrInvalidRate):
		return http.StatusBadRequest, "Space pricing is not configured"
	case errors.Is(err, ErrMissingUserID),
		errors.Is(err, ErrInvalidUserID),
		errors.Is(err, ErrInvalidSpaceID),
		errors.Is(err, ErrUnknownPaymentType),
		errors.Is(err, ErrMissingPlan),
		errors.Is(err, billing.ErrNoLineItems),
		errors.Is(err, billing.ErrInvalidLineItem),
		errors.Is(err, billing.ErrInvalidBillingCycle):
		return http.StatusBadRequest, "Invalid payment request"
	case errors.Is(err, ErrAmountMismatch),
		errors.Is(err, ErrPaymentNotSettled),
		errors.Is(err, ErrInconsistentPayment):
		return http.StatusBadRequest, "Payment does not match the order"
	default:
		return http.StatusInternalServerError, "Something went wrong while confirming your payment"
	}
}
