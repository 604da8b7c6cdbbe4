package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/reconcile"
	"github.com/pkordes/tripproposal/internal/service"
)

// mockReconciler is a hand-written test double for service.TripReconciler.
// Each method is a function field; set only the ones your test needs.
type mockReconciler struct {
	snapshot   func(ctx context.Context, tripID uuid.UUID) (domain.Trip, error)
	refresh    func(ctx context.Context, tripID uuid.UUID) (domain.Trip, error)
	apply      func(ctx context.Context, tripID uuid.UUID, segments []domain.Segment) (reconcile.Outcome, error)
	createStay func(ctx context.Context, tripID uuid.UUID, cmd domain.StayCommand) (domain.Trip, error)
	deleteStay func(ctx context.Context, tripID, stayID uuid.UUID) (domain.Trip, error)
}

func (m *mockReconciler) Snapshot(ctx context.Context, tripID uuid.UUID) (domain.Trip, error) {
	return m.snapshot(ctx, tripID)
}
func (m *mockReconciler) Refresh(ctx context.Context, tripID uuid.UUID) (domain.Trip, error) {
	return m.refresh(ctx, tripID)
}
func (m *mockReconciler) Apply(ctx context.Context, tripID uuid.UUID, segments []domain.Segment) (reconcile.Outcome, error) {
	return m.apply(ctx, tripID, segments)
}
func (m *mockReconciler) CreateStay(ctx context.Context, tripID uuid.UUID, cmd domain.StayCommand) (domain.Trip, error) {
	return m.createStay(ctx, tripID, cmd)
}
func (m *mockReconciler) DeleteStay(ctx context.Context, tripID, stayID uuid.UUID) (domain.Trip, error) {
	return m.deleteStay(ctx, tripID, stayID)
}

// compile-time check: mockReconciler must satisfy service.TripReconciler.
var _ service.TripReconciler = (*mockReconciler)(nil)

// ---- helpers ---------------------------------------------------------------

var tripStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// fourNights is a 4-night trip from 2024-01-01 with five numbered days
// (the last one is the departure day).
func fourNights() domain.Trip {
	days := make([]domain.TripDay, 5)
	for i := range days {
		n := i + 1
		days[i] = domain.TripDay{ID: uuid.New(), DayNumber: &n, Date: tripStart.AddDate(0, 0, i)}
	}
	return domain.Trip{
		ID:        uuid.New(),
		Name:      "Algarve",
		StartDate: tripStart,
		EndDate:   tripStart.AddDate(0, 0, 4),
		Adults:    2,
		Currency:  "USD",
		Days:      days,
	}
}

// bookHotel attaches one-night stays at 100.00 in hotel h to the days at
// the given indexes.
func bookHotel(trip *domain.Trip, h *domain.Hotel, idx ...int) {
	room := &domain.Room{ID: uuid.New(), Hotel: h}
	for _, i := range idx {
		trip.Days[i].Stay = &domain.Stay{ID: uuid.New(), Room: room, Nights: 1, PriceTotalCents: 10000}
	}
}

func snapshotOf(trip domain.Trip) *mockReconciler {
	return &mockReconciler{
		snapshot: func(context.Context, uuid.UUID) (domain.Trip, error) { return trip, nil },
	}
}
