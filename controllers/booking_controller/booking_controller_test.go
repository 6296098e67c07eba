package booking_controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/models/booking_models"
	"github.com/joy095/spaces/models/business_models"
	"github.com/joy095/spaces/models/space_models"
)

type memStore struct {
	spaces     map[uuid.UUID]*space_models.Space
	businesses map[uuid.UUID]*business_models.Business
	bookings   map[uuid.UUID]*booking_models.Booking
	snapshot   billing.TaxSnapshot
}

func (m *memStore) Space(_ context.Context, id uuid.UUID) (*space_models.Space, error) {
	s, ok := m.spaces[id]
	if !ok {
		return nil, space_models.ErrSpaceNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) TaxSnapshot(context.Context) (billing.TaxSnapshot, error) {
	return m.snapshot, nil
}

func (m *memStore) Booking(_ context.Context, id uuid.UUID) (*booking_models.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, booking_models.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) Business(_ context.Context, id uuid.UUID) (*business_models.Business, error) {
	b, ok := m.businesses[id]
	if !ok {
		return nil, business_models.ErrBusinessNotFound
	}
	return b, nil
}

func (m *memStore) BusinessByOwner(_ context.Context, ownerID uuid.UUID) (*business_models.Business, error) {
	for _, b := range m.businesses {
		if b.OwnerID == ownerID {
			return b, nil
		}
	}
	return nil, business_models.ErrBusinessNotFound
}

func (m *memStore) Redeem(_ context.Context, businessID uuid.UUID, code string) (*booking_models.Booking, error) {
	if !billing.IsRedemptionCode(code) {
		return nil, booking_models.ErrInvalidRedeemRequest
	}
	for _, b := range m.bookings {
		if b.RedemptionCode != code || b.BusinessID != businessID {
			continue
		}
		if b.Status != booking_models.StatusConfirmed {
			return nil, booking_models.ErrBookingNotConfirmed
		}
		b.Status = booking_models.StatusCompleted
		cp := *b
		return &cp, nil
	}
	return nil, booking_models.ErrBookingNotFound
}

func (m *memStore) Cancel(_ context.Context, id uuid.UUID) (*booking_models.Booking, error) {
	b, ok := m.bookings[id]
	if !ok || b.Status != booking_models.StatusConfirmed {
		return nil, booking_models.ErrBookingNotConfirmed
	}
	b.Status = booking_models.StatusCancelled
	s := m.spaces[b.SpaceID]
	s.AvailableSeats = min(s.TotalSeats, s.AvailableSeats+b.SeatsBooked)
	cp := *b
	return &cp, nil
}

type fixture struct {
	store     *memStore
	router    *gin.Engine
	caller    uuid.UUID
	userID    uuid.UUID
	ownerID   uuid.UUID
	spaceID   uuid.UUID
	bookingID uuid.UUID
	code      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	snapshot, err := billing.NewTaxSnapshot([]billing.TaxRule{
		{Name: "GST", Percentage: decimal.NewFromInt(18), AppliesTo: billing.AppliesToBooking, Role: billing.RoleOther},
		{Name: "Platform Fee", Percentage: decimal.NewFromInt(10), AppliesTo: billing.AppliesToOwnerPayout, Role: billing.RolePlatformFee},
	})
	require.NoError(t, err)

	code, err := billing.NewRedemptionCode(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	f := &fixture{
		userID:    uuid.New(),
		ownerID:   uuid.New(),
		spaceID:   uuid.New(),
		bookingID: uuid.New(),
		code:      code,
	}
	businessID := uuid.New()
	f.store = &memStore{
		snapshot: snapshot,
		spaces: map[uuid.UUID]*space_models.Space{
			f.spaceID: {
				ID: f.spaceID, BusinessID: businessID, Name: "Loft", TotalSeats: 10, AvailableSeats: 6,
				HourlyRate: decimal.NewFromInt(250), DailyRate: decimal.NewFromInt(1500), OwnerID: f.ownerID,
			},
		},
		businesses: map[uuid.UUID]*business_models.Business{
			businessID: {ID: businessID, OwnerID: f.ownerID, Name: "Loft Co"},
		},
		bookings: map[uuid.UUID]*booking_models.Booking{
			f.bookingID: {
				ID: f.bookingID, UserID: f.userID, SpaceID: f.spaceID, BusinessID: businessID,
				SeatsBooked: 2, Status: booking_models.StatusConfirmed, RedemptionCode: code,
			},
		},
	}

	bc := NewBookingController(f.store)
	r := gin.New()
	auth := func(c *gin.Context) {
		if f.caller != uuid.Nil {
			c.Set("sub", f.caller.String())
		}
		c.Next()
	}
	r.POST("/bookings/quote", bc.Quote)
	r.GET("/bookings/:booking_id", auth, bc.GetBooking)
	r.POST("/bookings/redeem", auth, bc.Redeem)
	r.PATCH("/bookings/:booking_id/cancel", auth, bc.CancelBooking)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w, out
}

func TestQuotePricesAndSplits(t *testing.T) {
	f := newFixture(t)
	w, out := f.do(t, http.MethodPost, "/bookings/quote", gin.H{
		"space_id": f.spaceID.String(),
		"items": []gin.H{
			{"date": "2026-03-02", "start_time": "09:00", "end_time": "12:00", "seats": 2},
			{"date": "2026-03-03", "seats": 1},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	// 250 * 2 * 3 + 1500 * 1 = 3000
	assert.Equal(t, "3000", out["total"])
	assert.Equal(t, float64(300000), out["amount_paise"])
	assert.Equal(t, float64(3), out["seats"])

	split := out["split"].(map[string]any)
	assert.Equal(t, "840", split["total_tax"])
	assert.Equal(t, "300", split["platform_commission"])
	assert.Equal(t, "2160", split["owner_payout"])
	assert.Len(t, out["shares"], 2)
}

func TestQuoteRejections(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodPost, "/bookings/quote", gin.H{"space_id": f.spaceID.String(), "items": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPost, "/bookings/quote", gin.H{
		"space_id": uuid.NewString(),
		"items":    []gin.H{{"date": "2026-03-02", "seats": 1}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, out := f.do(t, http.MethodPost, "/bookings/quote", gin.H{
		"space_id": f.spaceID.String(),
		"items":    []gin.H{{"date": "2026-03-02", "seats": 7}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Not enough seats available", out["error"])

	w, _ = f.do(t, http.MethodPost, "/bookings/quote", gin.H{
		"space_id": f.spaceID.String(),
		"items":    []gin.H{{"date": "02/03/2026", "seats": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBookingAccess(t *testing.T) {
	f := newFixture(t)
	path := "/bookings/" + f.bookingID.String()

	f.caller = uuid.Nil
	w, _ := f.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	f.caller = f.userID
	w, _ = f.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	f.caller = f.ownerID
	w, _ = f.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	f.caller = uuid.New()
	w, _ = f.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	f.caller = f.userID
	w, _ = f.do(t, http.MethodGet, "/bookings/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = f.do(t, http.MethodGet, "/bookings/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRedeemByOwnerOnce(t *testing.T) {
	f := newFixture(t)

	f.caller = f.userID
	w, _ := f.do(t, http.MethodPost, "/bookings/redeem", gin.H{"code": f.code})
	assert.Equal(t, http.StatusForbidden, w.Code, "guests have no business to redeem against")

	f.caller = f.ownerID
	w, out := f.do(t, http.MethodPost, "/bookings/redeem", gin.H{"code": " " + f.code + " "})
	require.Equal(t, http.StatusOK, w.Code)
	booking := out["booking"].(map[string]any)
	assert.Equal(t, booking_models.StatusCompleted, booking["status"])

	w, _ = f.do(t, http.MethodPost, "/bookings/redeem", gin.H{"code": f.code})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = f.do(t, http.MethodPost, "/bookings/redeem", gin.H{"code": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelReleasesSeats(t *testing.T) {
	f := newFixture(t)
	path := "/bookings/" + f.bookingID.String() + "/cancel"

	f.caller = uuid.New()
	w, _ := f.do(t, http.MethodPatch, path, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	f.caller = f.userID
	w, out := f.do(t, http.MethodPatch, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, booking_models.StatusCancelled, out["booking"].(map[string]any)["status"])
	assert.Equal(t, 8, f.store.spaces[f.spaceID].AvailableSeats)

	w, _ = f.do(t, http.MethodPatch, path, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 8, f.store.spaces[f.spaceID].AvailableSeats)
}
