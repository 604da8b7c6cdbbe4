// Package repotest holds behaviour suites every TripStore and PlanCache
// adapter must pass. Adapter tests call RunTripStore / RunPlanCache with a
// factory that returns a store seeded with the standard Fixture.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/repo"
)

// Fixture is a four-night trip starting 2024-01-01 with numbered days,
// one booked stay on day 1, an activity on day 2, and a flight.
type Fixture struct {
	Trip domain.Trip
	// Hotel and Room are a complete catalog entry.
	Hotel domain.Hotel
	Room  domain.Room
	// OrphanRoom has no hotel; stays booked into it come back incomplete.
	OrphanRoom domain.Room
}

// Start is the fixture trip's first night.
var Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewFixture builds a fixture with fresh IDs.
func NewFixture() Fixture {
	minPrice := 90.0
	cents := int64(10000)
	markup := 10.0

	hotel := domain.Hotel{ID: uuid.New(), Name: "Harbour View", MinPrice: &minPrice}
	room := domain.Room{
		ID: uuid.New(), Name: "Double", PriceCents: &cents,
		BaseMealPlan: "HB", Hotel: &hotel,
	}
	orphan := domain.Room{ID: uuid.New(), Name: "Unassigned twin", BoardBasis: "RO"}

	days := make([]domain.TripDay, 4)
	for i := range days {
		n := i + 1
		days[i] = domain.TripDay{ID: uuid.New(), DayNumber: &n, Date: Start.AddDate(0, 0, i)}
	}
	days[0].Stay = &domain.Stay{
		ID:                 uuid.New(),
		Room:               &room,
		CheckIn:            Start,
		CheckOut:           Start.AddDate(0, 0, 4),
		Nights:             4,
		MealPlan:           "HB",
		PriceTotalCents:    40000,
		ConfirmationStatus: domain.ConfirmationConfirmed,
	}
	days[1].Activities = []domain.Activity{
		{ID: uuid.New(), Name: "Harbour cruise", Kind: domain.ActivityKindActivity, Price: 50},
	}

	return Fixture{
		Trip: domain.Trip{
			ID:                uuid.New(),
			Name:              "Lisbon & Porto",
			StartDate:         Start,
			EndDate:           Start.AddDate(0, 0, 4),
			Adults:            2,
			Children:          1,
			LandMarkupPercent: &markup,
			Currency:          "EUR",
			Days:              days,
			Flights:           []domain.Flight{{ID: uuid.New(), Description: "LIS-OPO", Price: 300}},
		},
		Hotel:      hotel,
		Room:       room,
		OrphanRoom: orphan,
	}
}

// TripStoreFactory returns a store seeded with fx.
type TripStoreFactory func(t *testing.T, fx Fixture) repo.TripStore

// RunTripStore runs the TripStore behaviour suite.
func RunTripStore(t *testing.T, newStore TripStoreFactory) {
	t.Helper()

	t.Run("FetchTrip", func(t *testing.T) {
		fx := NewFixture()
		store := newStore(t, fx)

		got, err := store.FetchTrip(context.Background(), fx.Trip.ID)

		require.NoError(t, err)
		assert.Equal(t, fx.Trip.Name, got.Name)
		assert.Equal(t, 4, got.Nights())
		assert.Equal(t, 2, got.Adults)
		require.NotNil(t, got.LandMarkupPercent)
		assert.InDelta(t, 10.0, *got.LandMarkupPercent, 1e-9)
		require.Len(t, got.Days, 4)
		for i, d := range got.Days {
			assert.Equal(t, fx.Trip.Days[i].ID, d.ID, "days are ordered by day number")
		}

		first := got.Days[0].Stay
		require.NotNil(t, first)
		assert.Equal(t, fx.Trip.Days[0].Stay.ID, first.ID)
		assert.Equal(t, fx.Hotel.ID, first.HotelID())
		assert.Equal(t, domain.ConfirmationConfirmed, first.ConfirmationStatus)
		assert.Nil(t, got.Days[1].Stay)
		require.Len(t, got.Days[1].Activities, 1)
		assert.InDelta(t, 50.0, got.Days[1].Activities[0].Price, 1e-9)
		require.Len(t, got.Flights, 1)
		assert.InDelta(t, 300.0, got.Flights[0].Price, 1e-9)
	})

	t.Run("FetchTrip_NotFound", func(t *testing.T) {
		store := newStore(t, NewFixture())

		_, err := store.FetchTrip(context.Background(), uuid.New())

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ApplyStays_CreateAndUpdate", func(t *testing.T) {
		fx := NewFixture()
		store := newStore(t, fx)
		ctx := context.Background()
		days := fx.Trip.Days

		cmds := []domain.StayCommand{
			command(days[0], fx.Room, days[0].Stay.ID, domain.ConfirmationConfirmed),
			command(days[1], fx.Room, uuid.Nil, domain.ConfirmationPending),
		}
		records, err := store.ApplyStays(ctx, fx.Trip.ID, cmds)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, days[0].ID, records[0].DayID)
		assert.Equal(t, days[0].Stay.ID, records[0].Stay.ID, "update keeps the stay identity")
		assert.Equal(t, days[1].ID, records[1].DayID)
		assert.NotEqual(t, uuid.Nil, records[1].Stay.ID)
		for _, rec := range records {
			assert.True(t, rec.Complete(), "room with a hotel comes back complete")
			assert.Equal(t, int64(20000), rec.Stay.PriceTotalCents)
			assert.Equal(t, 2, rec.Stay.Nights)
		}

		trip, err := store.FetchTrip(ctx, fx.Trip.ID)
		require.NoError(t, err)
		require.NotNil(t, trip.Days[1].Stay)
		assert.Equal(t, records[1].Stay.ID, trip.Days[1].Stay.ID)
		assert.True(t, trip.Days[1].Stay.CheckIn.Equal(Start))
	})

	t.Run("ApplyStays_OrphanRoomIsIncomplete", func(t *testing.T) {
		fx := NewFixture()
		store := newStore(t, fx)

		records, err := store.ApplyStays(context.Background(), fx.Trip.ID, []domain.StayCommand{
			command(fx.Trip.Days[2], fx.OrphanRoom, uuid.Nil, domain.ConfirmationPending),
		})

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.False(t, records[0].Complete())
		require.NotNil(t, records[0].Stay.Room)
		assert.Equal(t, fx.OrphanRoom.ID, records[0].Stay.Room.ID)
	})

	t.Run("ApplyStays_AllOrNothing", func(t *testing.T) {
		fx := NewFixture()
		store := newStore(t, fx)
		ctx := context.Background()
		stranger := domain.TripDay{ID: uuid.New(), Date: Start}

		_, err := store.ApplyStays(ctx, fx.Trip.ID, []domain.StayCommand{
			command(fx.Trip.Days[1], fx.Room, uuid.Nil, domain.ConfirmationPending),
			command(stranger, fx.Room, uuid.Nil, domain.ConfirmationPending),
		})
		require.ErrorIs(t, err, domain.ErrNotFound)

		trip, err := store.FetchTrip(ctx, fx.Trip.ID)
		require.NoError(t, err)
		assert.Nil(t, trip.Days[1].Stay, "first command must be rolled back")
	})

	t.Run("ApplyStays_UnknownRoom", func(t *testing.T) {
		fx := NewFixture()
		store := newStore(t, fx)

		_, err := store.ApplyStays(context.Background(), fx.Trip.ID, []domain.StayCommand{
			command(fx.Trip.Days[1], domain.Room{ID: uuid.New()}, uuid.Nil, domain.ConfirmationPending),
		})

		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("CreateAndDeleteStay", func(t *testing.T) {
		fx := NewFixture()
		store := newStore(t, fx)
		ctx := context.Background()

		rec, err := store.CreateStay(ctx, fx.Trip.ID, command(fx.Trip.Days[3], fx.Room, uuid.Nil, ""))
		require.NoError(t, err)
		assert.Equal(t, domain.ConfirmationPending, rec.Stay.ConfirmationStatus)

		require.NoError(t, store.DeleteStay(ctx, fx.Trip.ID, rec.Stay.ID))
		trip, err := store.FetchTrip(ctx, fx.Trip.ID)
		require.NoError(t, err)
		assert.Nil(t, trip.Days[3].Stay)

		err = store.DeleteStay(ctx, fx.Trip.ID, rec.Stay.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func command(day domain.TripDay, room domain.Room, stayID uuid.UUID, status string) domain.StayCommand {
	return domain.StayCommand{
		DayID:              day.ID,
		StayID:             stayID,
		RoomID:             room.ID,
		CheckIn:            Start,
		CheckOut:           Start.AddDate(0, 0, 2),
		Nights:             2,
		MealPlan:           "HB",
		PriceTotalCents:    20000,
		ConfirmationStatus: status,
	}
}

// PlanCacheFactory returns an empty cache.
type PlanCacheFactory func(t *testing.T) repo.PlanCache

// RunPlanCache runs the PlanCache behaviour suite.
func RunPlanCache(t *testing.T, newCache PlanCacheFactory) {
	t.Helper()

	t.Run("LoadMissing", func(t *testing.T) {
		cache := newCache(t)

		_, err := cache.Load(context.Background(), uuid.New())

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("SaveLoadDelete", func(t *testing.T) {
		cache := newCache(t)
		ctx := context.Background()
		hotel := &domain.Hotel{ID: uuid.New(), Name: "Harbour View"}
		plan := domain.SplitStay{
			TripID:    uuid.New(),
			Enabled:   true,
			Durations: []int{2, 2},
			Segments: []domain.Segment{
				{Index: 0, Duration: 2, StartDate: Start, EndDate: Start.AddDate(0, 0, 2), Hotel: hotel},
				{Index: 1, Duration: 2, StartDate: Start.AddDate(0, 0, 2), EndDate: Start.AddDate(0, 0, 4)},
			},
			UpdatedAt: Start,
		}

		require.NoError(t, cache.Save(ctx, plan))
		got, err := cache.Load(ctx, plan.TripID)
		require.NoError(t, err)
		assert.True(t, got.Enabled)
		assert.Equal(t, []int{2, 2}, got.Durations)
		require.Len(t, got.Segments, 2)
		assert.True(t, got.Segments[1].StartDate.Equal(plan.Segments[1].StartDate))
		require.NotNil(t, got.Segments[0].Hotel)
		assert.Equal(t, hotel.ID, got.Segments[0].Hotel.ID)
		assert.Nil(t, got.Segments[1].Hotel)

		require.NoError(t, cache.Delete(ctx, plan.TripID))
		_, err = cache.Load(ctx, plan.TripID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		cache := newCache(t)
		ctx := context.Background()
		id := uuid.New()

		require.NoError(t, cache.Save(ctx, domain.SplitStay{TripID: id, Enabled: true, Durations: []int{1, 3}}))
		require.NoError(t, cache.Save(ctx, domain.SplitStay{TripID: id, Enabled: true, Durations: []int{3, 1}}))

		got, err := cache.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []int{3, 1}, got.Durations)
	})

	t.Run("DeleteMissingIsNoop", func(t *testing.T) {
		assert.NoError(t, newCache(t).Delete(context.Background(), uuid.New()))
	})
}
