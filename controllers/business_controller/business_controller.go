package business_controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/joy095/spaces/logger"
	"github.com/joy095/spaces/models/balance_models"
	"github.com/joy095/spaces/models/business_models"
	"github.com/joy095/spaces/models/subscription_models"
	"github.com/joy095/spaces/utils"
)

// Store is what the owner dashboard endpoints read.
type Store interface {
	BusinessByOwner(ctx context.Context, ownerID uuid.UUID) (*business_models.Business, error)
	Balance(ctx context.Context, businessID uuid.UUID) (*balance_models.Balance, error)
	Subscription(ctx context.Context, ownerID uuid.UUID) (*subscription_models.Subscription, error)
}

type PgStore struct {
	DB *pgxpool.Pool
}

func (s *PgStore) BusinessByOwner(ctx context.Context, ownerID uuid.UUID) (*business_models.Business, error) {
	return business_models.GetBusinessByOwner(ctx, s.DB, ownerID)
}

func (s *PgStore) Balance(ctx context.Context, businessID uuid.UUID) (*balance_models.Balance, error) {
	return balance_models.GetBalance(ctx, s.DB, businessID)
}

func (s *PgStore) Subscription(ctx context.Context, ownerID uuid.UUID) (*subscription_models.Subscription, error) {
	return subscription_models.GetSubscriptionByOwner(ctx, s.DB, ownerID)
}

// BusinessController holds dependencies for business-related operations.
type BusinessController struct {
	Store Store
	Now   func() time.Time
}

// NewBusinessController creates a new instance of BusinessController.
func NewBusinessController(pool *pgxpool.Pool) *BusinessController {
	return &BusinessController{Store: &PgStore{DB: pool}, Now: time.Now}
}

// GetBalance handles GET /business/balance. An owner with no confirmed
// bookings yet gets a zero balance.
func (bc *BusinessController) GetBalance(c *gin.Context) {
	ownerID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	ctx := c.Request.Context()
	business, err := bc.Store.BusinessByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, business_models.ErrBusinessNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No business registered for this account"})
			return
		}
		logger.ErrorLogger.Errorf("Failed to load business for owner %s: %v", ownerID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	balance, err := bc.Store.Balance(ctx, business.ID)
	if errors.Is(err, balance_models.ErrBalanceNotFound) {
		balance = &balance_models.Balance{
			BusinessID:         business.ID,
			CurrentBalance:     decimal.Zero,
			TotalEarned:        decimal.Zero,
			TotalWithdrawn:     decimal.Zero,
			PendingAmount:      decimal.Zero,
			CommissionDeducted: decimal.Zero,
			TaxDeducted:        decimal.Zero,
		}
		err = nil
	}
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to load balance for business %s: %v", business.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance":                  balance,
		"premium_payments_enabled": business.PremiumPaymentsEnabled,
	})
}

// GetSubscription handles GET /subscriptions/me.
func (bc *BusinessController) GetSubscription(c *gin.Context) {
	ownerID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	sub, err := bc.Store.Subscription(c.Request.Context(), ownerID)
	if err != nil {
		if errors.Is(err, subscription_models.ErrSubscriptionNotFound) {
			c.JSON(http.StatusOK, gin.H{"subscription": nil, "active": false, "plan": subscription_models.PlanBasic})
			return
		}
		logger.ErrorLogger.Errorf("Failed to load subscription for owner %s: %v", ownerID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	active := sub.Status == subscription_models.StatusActive && bc.Now().Before(sub.ExpiryDate)
	c.JSON(http.StatusOK, gin.H{"subscription": sub, "active": active, "plan": sub.Plan})
}
