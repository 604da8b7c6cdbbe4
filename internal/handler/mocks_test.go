package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/handler"
	"github.com/pkordes/tripproposal/internal/pricing"
	"github.com/pkordes/tripproposal/internal/service"
)

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs.
type mockTripServicer struct {
	get           func(ctx context.Context, tripID uuid.UUID) (domain.Trip, error)
	refresh       func(ctx context.Context, tripID uuid.UUID) (domain.Trip, error)
	price         func(ctx context.Context, tripID uuid.UUID) (domain.PriceBreakdown, error)
	priceProposal func(p pricing.Proposal) (domain.PriceBreakdown, error)
	createStay    func(ctx context.Context, tripID, dayID uuid.UUID, in service.StayInput) (domain.Trip, error)
	deleteStay    func(ctx context.Context, tripID, stayID uuid.UUID) (domain.Trip, error)
}

func (m *mockTripServicer) Get(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.get(ctx, id)
}
func (m *mockTripServicer) Refresh(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.refresh(ctx, id)
}
func (m *mockTripServicer) Price(ctx context.Context, id uuid.UUID) (domain.PriceBreakdown, error) {
	return m.price(ctx, id)
}
func (m *mockTripServicer) PriceProposal(p pricing.Proposal) (domain.PriceBreakdown, error) {
	return m.priceProposal(p)
}
func (m *mockTripServicer) CreateStay(ctx context.Context, tripID, dayID uuid.UUID, in service.StayInput) (domain.Trip, error) {
	return m.createStay(ctx, tripID, dayID, in)
}
func (m *mockTripServicer) DeleteStay(ctx context.Context, tripID, stayID uuid.UUID) (domain.Trip, error) {
	return m.deleteStay(ctx, tripID, stayID)
}

// compile-time check: mockTripServicer must satisfy handler.TripServicer.
var _ handler.TripServicer = (*mockTripServicer)(nil)

// mockSplitStayServicer is a test double for handler.SplitStayServicer.
type mockSplitStayServicer struct {
	get           func(ctx context.Context, tripID uuid.UUID) (domain.SplitStay, error)
	presets       func(ctx context.Context, tripID uuid.UUID) ([]string, error)
	enable        func(ctx context.Context, tripID uuid.UUID, in service.EnableInput) (domain.SplitStay, error)
	disable       func(ctx context.Context, tripID uuid.UUID) (domain.SplitStay, error)
	addSegment    func(ctx context.Context, tripID uuid.UUID) (domain.SplitStay, error)
	removeSegment func(ctx context.Context, tripID uuid.UUID, index int) (domain.SplitStay, error)
	resizeSegment func(ctx context.Context, tripID uuid.UUID, index, nights int) (domain.SplitStay, error)
	selectSegment func(ctx context.Context, tripID uuid.UUID, index int, sel service.Selection) (domain.SplitStay, error)
	apply         func(ctx context.Context, tripID uuid.UUID) (service.ApplyResult, error)
}

func (m *mockSplitStayServicer) Get(ctx context.Context, id uuid.UUID) (domain.SplitStay, error) {
	return m.get(ctx, id)
}
func (m *mockSplitStayServicer) Presets(ctx context.Context, id uuid.UUID) ([]string, error) {
	return m.presets(ctx, id)
}
func (m *mockSplitStayServicer) Enable(ctx context.Context, id uuid.UUID, in service.EnableInput) (domain.SplitStay, error) {
	return m.enable(ctx, id, in)
}
func (m *mockSplitStayServicer) Disable(ctx context.Context, id uuid.UUID) (domain.SplitStay, error) {
	return m.disable(ctx, id)
}
func (m *mockSplitStayServicer) AddSegment(ctx context.Context, id uuid.UUID) (domain.SplitStay, error) {
	return m.addSegment(ctx, id)
}
func (m *mockSplitStayServicer) RemoveSegment(ctx context.Context, id uuid.UUID, index int) (domain.SplitStay, error) {
	return m.removeSegment(ctx, id, index)
}
func (m *mockSplitStayServicer) ResizeSegment(ctx context.Context, id uuid.UUID, index, nights int) (domain.SplitStay, error) {
	return m.resizeSegment(ctx, id, index, nights)
}
func (m *mockSplitStayServicer) Select(ctx context.Context, id uuid.UUID, index int, sel service.Selection) (domain.SplitStay, error) {
	return m.selectSegment(ctx, id, index, sel)
}
func (m *mockSplitStayServicer) Apply(ctx context.Context, id uuid.UUID) (service.ApplyResult, error) {
	return m.apply(ctx, id)
}

// compile-time check: mockSplitStayServicer must satisfy handler.SplitStayServicer.
var _ handler.SplitStayServicer = (*mockSplitStayServicer)(nil)

// ---- helpers ---------------------------------------------------------------

var tripStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// newHTTPHandler wires a Server with the given mocks into the chi router.
// This mirrors how main.go wires it in production.
func newHTTPHandler(trips handler.TripServicer, splits handler.SplitStayServicer) http.Handler {
	return handler.NewServer(trips, splits, []byte("openapi: 3.0.3\n"), nil).Routes()
}

func tripFixture() domain.Trip {
	days := make([]domain.TripDay, 5)
	for i := range days {
		n := i + 1
		days[i] = domain.TripDay{ID: uuid.New(), DayNumber: &n, Date: tripStart.AddDate(0, 0, i)}
	}
	hotel := &domain.Hotel{ID: uuid.New(), Name: "Harbour View"}
	days[0].Stay = &domain.Stay{
		ID:                 uuid.New(),
		Room:               &domain.Room{ID: uuid.New(), Name: "Double", Hotel: hotel},
		CheckIn:            tripStart,
		CheckOut:           tripStart.AddDate(0, 0, 1),
		Nights:             1,
		MealPlan:           "BB",
		PriceTotalCents:    10000,
		ConfirmationStatus: domain.ConfirmationConfirmed,
	}
	return domain.Trip{
		ID:        uuid.New(),
		Name:      "Algarve",
		StartDate: tripStart,
		EndDate:   tripStart.AddDate(0, 0, 4),
		Adults:    2,
		Currency:  "EUR",
		Days:      days,
	}
}

// planFixture is an enabled 2+2 plan from 2024-01-01.
func planFixture(tripID uuid.UUID) domain.SplitStay {
	return domain.SplitStay{
		TripID:    tripID,
		Enabled:   true,
		Durations: []int{2, 2},
		Segments: []domain.Segment{
			{Index: 0, Duration: 2, StartDate: tripStart, EndDate: tripStart.AddDate(0, 0, 2)},
			{Index: 1, Duration: 2, StartDate: tripStart.AddDate(0, 0, 2), EndDate: tripStart.AddDate(0, 0, 4)},
		},
		UpdatedAt: tripStart,
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, body *bytes.Buffer) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}
