package tax_config_controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/models/tax_models"
)

// memStore mirrors the table's unique name and single-enabled-fee indexes.
type memStore struct {
	rows []*tax_models.TaxConfiguration
}

func (m *memStore) List(_ context.Context, enabledOnly bool) ([]tax_models.TaxConfiguration, error) {
	var out []tax_models.TaxConfiguration
	for _, r := range m.rows {
		if !enabledOnly || r.Enabled {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) conflict(t *tax_models.TaxConfiguration) error {
	for _, r := range m.rows {
		if r.ID == t.ID {
			continue
		}
		if r.Name == t.Name {
			return tax_models.ErrDuplicateTaxName
		}
		if t.Enabled && t.Role == billing.RolePlatformFee && r.Enabled && r.Role == billing.RolePlatformFee {
			return tax_models.ErrPlatformFeeEnabled
		}
	}
	return nil
}

func (m *memStore) Create(_ context.Context, t *tax_models.TaxConfiguration) error {
	if err := m.conflict(t); err != nil {
		return err
	}
	t.ID = uuid.New()
	cp := *t
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memStore) Update(_ context.Context, t *tax_models.TaxConfiguration) error {
	for i, r := range m.rows {
		if r.ID == t.ID {
			if err := m.conflict(t); err != nil {
				return err
			}
			cp := *t
			m.rows[i] = &cp
			return nil
		}
	}
	return tax_models.ErrTaxConfigNotFound
}

type countingCache struct{ n int }

func (c *countingCache) Invalidate(context.Context) { c.n++ }

func setup() (*gin.Engine, *memStore, *countingCache) {
	gin.SetMode(gin.TestMode)
	store := &memStore{}
	cache := &countingCache{}
	tc := NewTaxConfigController(store, cache)
	r := gin.New()
	r.GET("/admin/tax-configurations", tc.List)
	r.POST("/admin/tax-configurations", tc.Create)
	r.PUT("/admin/tax-configurations/:id", tc.Update)
	return r, store, cache
}

func send(t *testing.T, r *gin.Engine, method, path string, body any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w.Code, out
}

func TestCreateTaxConfiguration(t *testing.T) {
	r, store, cache := setup()

	code, out := send(t, r, http.MethodPost, "/admin/tax-configurations", gin.H{
		"name": " GST ", "percentage": 18, "applies_to": "booking",
	})
	require.Equal(t, http.StatusCreated, code)
	created := out["tax_configuration"].(map[string]any)
	assert.Equal(t, "GST", created["name"])
	assert.Equal(t, "other", created["role"])
	assert.Equal(t, true, created["enabled"])
	assert.Len(t, store.rows, 1)
	assert.Equal(t, 1, cache.n)

	code, _ = send(t, r, http.MethodPost, "/admin/tax-configurations", gin.H{
		"name": "GST", "percentage": 5, "applies_to": "booking",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, 1, cache.n)
}

func TestCreateTaxConfigurationValidation(t *testing.T) {
	r, store, _ := setup()

	cases := []gin.H{
		{"name": "GST", "percentage": 101, "applies_to": "booking"},
		{"name": "GST", "percentage": -1, "applies_to": "booking"},
		{"name": "GST", "percentage": 5, "applies_to": "everyone"},
		{"name": "", "percentage": 5, "applies_to": "booking"},
		{"name": "GST", "percentage": 5, "applies_to": "booking", "role": "surcharge"},
	}
	for _, body := range cases {
		code, out := send(t, r, http.MethodPost, "/admin/tax-configurations", body)
		assert.Equal(t, http.StatusBadRequest, code, "body %v", body)
		assert.NotEmpty(t, out["details"])
	}
	assert.Empty(t, store.rows)
}

func TestSinglePlatformFee(t *testing.T) {
	r, _, _ := setup()

	code, out := send(t, r, http.MethodPost, "/admin/tax-configurations", gin.H{
		"name": "Platform Fee", "percentage": "10", "applies_to": "owner_payout", "role": "platform_fee",
	})
	require.Equal(t, http.StatusCreated, code)
	firstID := out["tax_configuration"].(map[string]any)["id"].(string)

	code, _ = send(t, r, http.MethodPost, "/admin/tax-configurations", gin.H{
		"name": "Convenience Fee", "percentage": 2, "applies_to": "owner_payout", "role": "platform_fee",
	})
	assert.Equal(t, http.StatusConflict, code)

	// A disabled second fee is allowed, and can be enabled once the first is off.
	code, out = send(t, r, http.MethodPost, "/admin/tax-configurations", gin.H{
		"name": "Convenience Fee", "percentage": 2, "applies_to": "owner_payout", "role": "platform_fee", "enabled": false,
	})
	require.Equal(t, http.StatusCreated, code)
	secondID := out["tax_configuration"].(map[string]any)["id"].(string)

	code, _ = send(t, r, http.MethodPut, "/admin/tax-configurations/"+firstID, gin.H{
		"name": "Platform Fee", "percentage": "10", "applies_to": "owner_payout", "role": "platform_fee", "enabled": false,
	})
	require.Equal(t, http.StatusOK, code)
	code, _ = send(t, r, http.MethodPut, "/admin/tax-configurations/"+secondID, gin.H{
		"name": "Convenience Fee", "percentage": 2, "applies_to": "owner_payout", "role": "platform_fee",
	})
	assert.Equal(t, http.StatusOK, code)

	code, out = send(t, r, http.MethodGet, "/admin/tax-configurations?enabled=true", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["tax_configurations"], 1)
}

func TestUpdateUnknownTaxConfiguration(t *testing.T) {
	r, _, cache := setup()
	code, _ := send(t, r, http.MethodPut, "/admin/tax-configurations/"+uuid.NewString(), gin.H{
		"name": "GST", "percentage": 18, "applies_to": "both",
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Zero(t, cache.n)

	code, _ = send(t, r, http.MethodPut, "/admin/tax-configurations/abc", gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)
}
