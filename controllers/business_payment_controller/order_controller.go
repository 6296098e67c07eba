package business_payment_controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/clients"
	"github.com/joy095/spaces/controllers/booking_controller"
	"github.com/joy095/spaces/logger"
	"github.com/joy095/spaces/models/space_models"
	"github.com/joy095/spaces/utils"
)

var ErrFreePlan = errors.New("plan does not require payment")

// OrderController creates gateway orders the checkout page pays against.
type OrderController struct {
	Bookings   booking_controller.Store
	Gateway    clients.RazorpayClientWrapper
	PlanPrices billing.PlanPrices
	Currency   string
}

func NewOrderController(bookings booking_controller.Store, gateway clients.RazorpayClientWrapper,
	prices billing.PlanPrices, currency string) *OrderController {
	return &OrderController{Bookings: bookings, Gateway: gateway, PlanPrices: prices, Currency: currency}
}

// CreateOrderRequest carries either a booking (space_id + items) or a
// subscription plan.
type CreateOrderRequest struct {
	SpaceID      string               `json:"space_id" binding:"omitempty,uuid"`
	Items        []billing.LineItem   `json:"items"`
	Plan         string               `json:"plan"`
	BillingCycle billing.BillingCycle `json:"billing_cycle"`
}

// OrderResponse is what the checkout widget needs to open.
type OrderResponse struct {
	OrderID     string          `json:"order_id"`
	Amount      decimal.Decimal `json:"amount"`
	AmountPaise int64           `json:"amount_paise"`
	Currency    string          `json:"currency"`
	KeyID       string          `json:"key_id"`
	Receipt     string          `json:"receipt"`

	Quote *booking_controller.QuoteResponse `json:"quote,omitempty"`
}

// CreateOrder handles POST /payments/orders.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if oc.Gateway == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payment gateway is not configured"})
		return
	}

	var (
		amount  decimal.Decimal
		notes   = map[string]string{"user_id": userID.String()}
		prefix  string
		quote   *booking_controller.QuoteResponse
		spaceID uuid.UUID
	)
	switch {
	case req.SpaceID != "":
		spaceID, _ = uuid.Parse(req.SpaceID)
		quote, err = booking_controller.PriceBooking(c.Request.Context(), oc.Bookings, spaceID, req.Items)
		if err != nil {
			writeError(c, err)
			return
		}
		amount = quote.Total
		prefix = "bk_"
		notes["space_id"] = spaceID.String()

	case req.Plan != "":
		plan := strings.ToLower(strings.TrimSpace(req.Plan))
		amount, err = oc.PlanPrices.Price(plan, req.BillingCycle)
		if err == nil && !amount.IsPositive() {
			err = ErrFreePlan
		}
		if err != nil {
			writeError(c, err)
			return
		}
		prefix = "sub_"
		notes["plan"] = plan
		notes["billing_cycle"] = string(req.BillingCycle)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either space_id with items or plan is required"})
		return
	}

	receiptID, err := uuid.NewV7()
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to generate receipt id: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	receipt := prefix + strings.ReplaceAll(receiptID.String(), "-", "")

	paise := billing.ToPaise(amount)
	order, err := oc.Gateway.CreateOrder(paise, oc.Currency, receipt, notes)
	if err != nil {
		logger.ErrorLogger.WithField("receipt", receipt).Errorf("Razorpay order creation failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not create payment order"})
		return
	}

	logger.InfoLogger.WithFields(map[string]interface{}{
		"order_id": order.ID,
		"receipt":  receipt,
		"paise":    paise,
	}).Info("Payment order created")

	c.JSON(http.StatusOK, OrderResponse{
		OrderID:     order.ID,
		Amount:      amount,
		AmountPaise: paise,
		Currency:    oc.Currency,
		KeyID:       oc.Gateway.KeyID(),
		Receipt:     receipt,
		Quote:       quote,
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, billing.ErrUnknownPlan),
		errors.Is(err, ErrFreePlan),
		errors.Is(err, billing.ErrNoLineItems),
		errors.Is(err, billing.ErrInvalidLineItem):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, billing.ErrInvalidRate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Space pricing is not configured"})
	case errors.Is(err, space_models.ErrInsufficientSeats):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough seats available"})
	case errors.Is(err, space_models.ErrSpaceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Space not found"})
	default:
		logger.ErrorLogger.Errorf("Order request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
