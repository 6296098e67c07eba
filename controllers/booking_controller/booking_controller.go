package booking_controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/logger"
	"github.com/joy095/spaces/models/booking_models"
	"github.com/joy095/spaces/models/business_models"
	"github.com/joy095/spaces/models/space_models"
	"github.com/joy095/spaces/utils"
)

var (
	ErrInvalidBookingID = errors.New("invalid booking id")
	ErrNotBookingParty  = errors.New("booking belongs to another user")
	ErrNoBusiness       = errors.New("no business registered for this account")
)

// BookingController serves quoting and the post-payment booking lifecycle.
type BookingController struct {
	Store Store
}

// NewBookingController creates a new instance of BookingController.
func NewBookingController(store Store) *BookingController {
	return &BookingController{Store: store}
}

// QuoteRequest is the body of POST /bookings/quote.
type QuoteRequest struct {
	SpaceID string             `json:"space_id" binding:"required,uuid"`
	Items   []billing.LineItem `json:"items" binding:"required,min=1"`
}

// QuoteResponse is a priced booking batch the client can pay for.
type QuoteResponse struct {
	billing.Quote
	SpaceID        uuid.UUID       `json:"space_id"`
	Total          decimal.Decimal `json:"total"`
	AmountPaise    int64           `json:"amount_paise"`
	AvailableSeats int             `json:"available_seats"`
}

// PriceBooking quotes items for a space with the current tax snapshot. A
// request for more seats than are available fails with ErrInsufficientSeats.
func PriceBooking(ctx context.Context, store Store, spaceID uuid.UUID, items []billing.LineItem) (*QuoteResponse, error) {
	space, err := store.Space(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	snapshot, err := store.TaxSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	quote, err := billing.QuoteBatch(items, space.Rates(), snapshot, space.PremiumPaymentsEnabled)
	if err != nil {
		return nil, err
	}
	if quote.Seats > space.AvailableSeats {
		return nil, fmt.Errorf("%w: requested %d, available %d", space_models.ErrInsufficientSeats, quote.Seats, space.AvailableSeats)
	}
	return &QuoteResponse{
		Quote:          quote,
		SpaceID:        space.ID,
		Total:          quote.Total(),
		AmountPaise:    billing.ToPaise(quote.Total()),
		AvailableSeats: space.AvailableSeats,
	}, nil
}

// Quote handles POST /bookings/quote.
func (bc *BookingController) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	spaceID, err := uuid.Parse(req.SpaceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid space id"})
		return
	}

	quote, err := PriceBooking(c.Request.Context(), bc.Store, spaceID, req.Items)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// GetBooking handles GET /bookings/:booking_id. The booking's user and the
// space owner may read it.
func (bc *BookingController) GetBooking(c *gin.Context) {
	callerID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		writeError(c, ErrInvalidBookingID)
		return
	}

	ctx := c.Request.Context()
	booking, err := bc.Store.Booking(ctx, bookingID)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := bc.authorize(ctx, booking, callerID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

type RedeemRequest struct {
	Code string `json:"code" binding:"required"`
}

// Redeem handles POST /bookings/redeem. Only the owner of the booked space
// can check a guest in.
func (bc *BookingController) Redeem(c *gin.Context) {
	callerID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	business, err := bc.Store.BusinessByOwner(ctx, callerID)
	if err != nil {
		if errors.Is(err, business_models.ErrBusinessNotFound) {
			err = ErrNoBusiness
		}
		writeError(c, err)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	booking, err := bc.Store.Redeem(ctx, business.ID, code)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.InfoLogger.WithField("booking_id", booking.ID).Info("Booking redeemed")
	c.JSON(http.StatusOK, gin.H{"message": "Booking redeemed", "booking": booking})
}

// CancelBooking handles PATCH /bookings/:booking_id/cancel.
func (bc *BookingController) CancelBooking(c *gin.Context) {
	callerID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		writeError(c, ErrInvalidBookingID)
		return
	}

	ctx := c.Request.Context()
	booking, err := bc.Store.Booking(ctx, bookingID)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := bc.authorize(ctx, booking, callerID); err != nil {
		writeError(c, err)
		return
	}

	cancelled, err := bc.Store.Cancel(ctx, bookingID)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.InfoLogger.WithFields(map[string]interface{}{
		"booking_id": cancelled.ID,
		"seats":      cancelled.SeatsBooked,
	}).Info("Booking cancelled, seats released")
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled", "booking": cancelled})
}

func (bc *BookingController) authorize(ctx context.Context, booking *booking_models.Booking, callerID uuid.UUID) error {
	if booking.UserID == callerID {
		return nil
	}
	business, err := bc.Store.Business(ctx, booking.BusinessID)
	if err != nil {
		if errors.Is(err, business_models.ErrBusinessNotFound) {
			return ErrNotBookingParty
		}
		return err
	}
	if business.OwnerID != callerID {
		return ErrNotBookingParty
	}
	return nil
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidBookingID),
		errors.Is(err, booking_models.ErrInvalidRedeemRequest),
		errors.Is(err, billing.ErrNoLineItems),
		errors.Is(err, billing.ErrInvalidLineItem):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, billing.ErrInvalidRate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Space pricing is not configured"})
	case errors.Is(err, space_models.ErrInsufficientSeats):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough seats available"})
	case errors.Is(err, ErrNotBookingParty), errors.Is(err, ErrNoBusiness):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, booking_models.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, space_models.ErrSpaceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Space not found"})
	case errors.Is(err, booking_models.ErrBookingNotConfirmed):
		c.JSON(http.StatusConflict, gin.H{"error": "Booking is not in confirmed state"})
	default:
		logger.ErrorLogger.Errorf("Booking request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
