package tax_config_controller

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/logger"
	"github.com/joy095/spaces/models/tax_models"
)

// Store persists tax configurations.
type Store interface {
	List(ctx context.Context, enabledOnly bool) ([]tax_models.TaxConfiguration, error)
	Create(ctx context.Context, t *tax_models.TaxConfiguration) error
	Update(ctx context.Context, t *tax_models.TaxConfiguration) error
}

// Invalidator drops cached tax snapshots.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type PgStore struct {
	DB *pgxpool.Pool
}

func (s *PgStore) List(ctx context.Context, enabledOnly bool) ([]tax_models.TaxConfiguration, error) {
	return tax_models.ListTaxConfigurations(ctx, s.DB, enabledOnly)
}

func (s *PgStore) Create(ctx context.Context, t *tax_models.TaxConfiguration) error {
	return tax_models.CreateTaxConfiguration(ctx, s.DB, t)
}

func (s *PgStore) Update(ctx context.Context, t *tax_models.TaxConfiguration) error {
	return tax_models.UpdateTaxConfiguration(ctx, s.DB, t)
}

// TaxConfigRequest is the body of the create and update endpoints. Role
// defaults to "other" and Enabled to true.
type TaxConfigRequest struct {
	Name        string            `json:"name" validate:"required,min=2,max=100"`
	Percentage  decimal.Decimal   `json:"percentage" validate:"gte=0,lte=100"`
	Enabled     *bool             `json:"enabled"`
	AppliesTo   billing.AppliesTo `json:"applies_to" validate:"required,oneof=booking owner_payout both"`
	Role        billing.TaxRole   `json:"role" validate:"omitempty,oneof=platform_fee other"`
	Description *string           `json:"description" validate:"omitempty,max=500"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// TaxConfigController is the admin surface over the tax table.
type TaxConfigController struct {
	Store    Store
	Cache    Invalidator
	validate *validator.Validate
}

func NewTaxConfigController(store Store, cache Invalidator) *TaxConfigController {
	return &TaxConfigController{Store: store, Cache: cache, validate: newValidator()}
}

// List handles GET /admin/tax-configurations[?enabled=true].
func (tc *TaxConfigController) List(c *gin.Context) {
	enabledOnly := c.Query("enabled") == "true"
	configs, err := tc.Store.List(c.Request.Context(), enabledOnly)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to list tax configurations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if configs == nil {
		configs = []tax_models.TaxConfiguration{}
	}
	c.JSON(http.StatusOK, gin.H{"tax_configurations": configs})
}

// Create handles POST /admin/tax-configurations.
func (tc *TaxConfigController) Create(c *gin.Context) {
	t, ok := tc.bind(c)
	if !ok {
		return
	}
	if err := tc.Store.Create(c.Request.Context(), t); err != nil {
		tc.writeError(c, err)
		return
	}
	tc.invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"tax_configuration": t})
}

// Update handles PUT /admin/tax-configurations/:id.
func (tc *TaxConfigController) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tax configuration id"})
		return
	}
	t, ok := tc.bind(c)
	if !ok {
		return
	}
	t.ID = id
	if err := tc.Store.Update(c.Request.Context(), t); err != nil {
		tc.writeError(c, err)
		return
	}
	tc.invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"tax_configuration": t})
}

func (tc *TaxConfigController) bind(c *gin.Context) (*tax_models.TaxConfiguration, bool) {
	var req TaxConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return nil, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := tc.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": validationDetails(err)})
		return nil, false
	}

	t := &tax_models.TaxConfiguration{
		Name:        req.Name,
		Percentage:  req.Percentage,
		Enabled:     true,
		AppliesTo:   req.AppliesTo,
		Role:        req.Role,
		Description: req.Description,
	}
	if req.Enabled != nil {
		t.Enabled = *req.Enabled
	}
	if t.Role == "" {
		t.Role = billing.RoleOther
	}
	return t, true
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return out
}

func (tc *TaxConfigController) invalidate(ctx context.Context) {
	if tc.Cache != nil {
		tc.Cache.Invalidate(ctx)
	}
}

func (tc *TaxConfigController) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tax_models.ErrTaxConfigNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, tax_models.ErrPlatformFeeEnabled),
		errors.Is(err, tax_models.ErrDuplicateTaxName):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.ErrorLogger.Errorf("Tax configuration write failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
