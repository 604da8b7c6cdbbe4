package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/handler"
	"github.com/pkordes/tripproposal/internal/pricing"
	"github.com/pkordes/tripproposal/internal/service"
)

// ---- GET /trips/{tripID} ---------------------------------------------------

func TestGetTrip_200(t *testing.T) {
	fixture := tripFixture()
	svc := &mockTripServicer{
		get: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
			assert.Equal(t, fixture.ID, id)
			return fixture, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/trips/"+fixture.ID.String(), nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "2024-01-01", raw["start_date"])
	assert.EqualValues(t, 4, raw["nights"])

	var resp handler.Trip
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, fixture.ID, resp.Id)
	require.Len(t, resp.Days, 5)
	require.NotNil(t, resp.Days[0].Stay)
	assert.Equal(t, "Harbour View", resp.Days[0].Stay.Room.Hotel.Name)
	assert.Nil(t, resp.Days[1].Stay)
}

func TestGetTrip_404(t *testing.T) {
	svc := &mockTripServicer{
		get: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("service.TripService.Get: %w", domain.ErrNotFound)
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec.Body).Error.Code)
}

func TestGetTrip_400_InvalidID(t *testing.T) {
	rec := httptest.NewRecorder()
	newHTTPHandler(&mockTripServicer{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec.Body).Error.Message, "tripID")
}

func TestGetTrip_502_TripStoreDown(t *testing.T) {
	svc := &mockTripServicer{
		get: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("reconcile.Reconciler.Snapshot: %w: dial tcp: refused", domain.ErrTransient)
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "trip_store_unavailable", decodeError(t, rec.Body).Error.Code)
}

func TestGetTrip_500_HidesInternalError(t *testing.T) {
	svc := &mockTripServicer{
		get: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("boom: secret detail")
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

// ---- POST /trips/{tripID}/refresh ------------------------------------------

func TestRefreshTrip_200(t *testing.T) {
	fixture := tripFixture()
	called := false
	svc := &mockTripServicer{
		refresh: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
			called = true
			return fixture, nil
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trips/"+fixture.ID.String()+"/refresh", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

// ---- GET /trips/{tripID}/price ---------------------------------------------

func TestGetTripPrice_200(t *testing.T) {
	svc := &mockTripServicer{
		price: func(_ context.Context, _ uuid.UUID) (domain.PriceBreakdown, error) {
			return pricing.Calculate(pricing.Proposal{
				Hotels: []pricing.HotelLine{{PricePerNight: 100, Nights: 2}},
				Adults: 2,
			}), nil
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/"+uuid.NewString()+"/price", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.PriceBreakdown
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 220.0, resp.Total)
	assert.Equal(t, "$220.00", resp.Formatted["total"])
}

// ---- POST /trips/{tripID}/days/{dayID}/stay --------------------------------

func TestCreateStay_201(t *testing.T) {
	fixture := tripFixture()
	roomID := uuid.New()
	var got service.StayInput
	svc := &mockTripServicer{
		createStay: func(_ context.Context, tripID, dayID uuid.UUID, in service.StayInput) (domain.Trip, error) {
			assert.Equal(t, fixture.ID, tripID)
			assert.Equal(t, fixture.Days[2].ID, dayID)
			got = in
			return fixture, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"room_id":   roomID.String(),
		"check_in":  "2024-01-03",
		"check_out": "2024-01-05",
		"meal_plan": "HB",
	})
	url := fmt.Sprintf("/trips/%s/days/%s/stay", fixture.ID, fixture.Days[2].ID)
	req := httptest.NewRequest(http.MethodPost, url, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, roomID, got.RoomID)
	assert.True(t, got.CheckIn.Equal(tripStart.AddDate(0, 0, 2)))
	assert.True(t, got.CheckOut.Equal(tripStart.AddDate(0, 0, 4)))
	assert.Equal(t, "HB", got.MealPlan)
}

func TestCreateStay_422_ValidationError(t *testing.T) {
	svc := &mockTripServicer{
		createStay: func(_ context.Context, _, _ uuid.UUID, _ service.StayInput) (domain.Trip, error) {
			return domain.Trip{}, domain.NewValidationError(domain.RuleSelection, "room_id is required")
		},
	}

	url := fmt.Sprintf("/trips/%s/days/%s/stay", uuid.New(), uuid.New())
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{}`)))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec.Body)
	assert.Equal(t, "validation_error", resp.Error.Code)
	assert.Equal(t, "selection", resp.Error.Rule)
	assert.Equal(t, "room_id is required", resp.Error.Message)
}

func TestCreateStay_400_MissingBody(t *testing.T) {
	url := fmt.Sprintf("/trips/%s/days/%s/stay", uuid.New(), uuid.New())
	rec := httptest.NewRecorder()
	newHTTPHandler(&mockTripServicer{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body is required", decodeError(t, rec.Body).Error.Message)
}

func TestCreateStay_400_UnknownField(t *testing.T) {
	url := fmt.Sprintf("/trips/%s/days/%s/stay", uuid.New(), uuid.New())
	rec := httptest.NewRecorder()
	newHTTPHandler(&mockTripServicer{}, nil).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{"hotel_id":"x"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---- DELETE /trips/{tripID}/stays/{stayID} ---------------------------------

func TestDeleteStay_200(t *testing.T) {
	fixture := tripFixture()
	stayID := fixture.Days[0].Stay.ID
	fixture.Days[0].Stay = nil
	svc := &mockTripServicer{
		deleteStay: func(_ context.Context, _, id uuid.UUID) (domain.Trip, error) {
			assert.Equal(t, stayID, id)
			return fixture, nil
		},
	}

	url := fmt.Sprintf("/trips/%s/stays/%s", fixture.ID, stayID)
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, url, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.Trip
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Nil(t, resp.Days[0].Stay)
}

func TestDeleteStay_404(t *testing.T) {
	svc := &mockTripServicer{
		deleteStay: func(_ context.Context, _, _ uuid.UUID) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrNotFound
		},
	}

	url := fmt.Sprintf("/trips/%s/stays/%s", uuid.New(), uuid.New())
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, url, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- POST /pricing/breakdown -----------------------------------------------

func TestPriceProposal_200(t *testing.T) {
	svc := &mockTripServicer{
		priceProposal: func(p pricing.Proposal) (domain.PriceBreakdown, error) {
			return pricing.Calculate(p), nil
		},
	}

	body := jsonBody(t, map[string]any{
		"hotels":              []map[string]any{{"price_per_night": 100, "nights": 2}},
		"adults":              2,
		"land_markup_percent": 10,
	})
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pricing/breakdown", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.PriceBreakdown
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 200.0, resp.Subtotal)
	assert.Equal(t, 20.0, resp.Taxes)
	assert.Equal(t, 20.0, resp.Markup)
	assert.Equal(t, 240.0, resp.Total)
	assert.Equal(t, 120.0, resp.PricePerAdult)
	assert.Equal(t, 84.0, resp.PricePerChild)
}

func TestPriceProposal_422_Negative(t *testing.T) {
	svc := &mockTripServicer{
		priceProposal: func(p pricing.Proposal) (domain.PriceBreakdown, error) {
			return domain.PriceBreakdown{}, fmt.Errorf("%w: hotel 0: nights and price must not be negative", domain.ErrValidation)
		},
	}

	body := jsonBody(t, map[string]any{"hotels": []map[string]any{{"price_per_night": -1, "nights": 2}}})
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pricing/breakdown", body))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "hotel 0: nights and price must not be negative", decodeError(t, rec.Body).Error.Message)
}
