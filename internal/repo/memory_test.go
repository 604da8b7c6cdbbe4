package repo_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/repo"
	"github.com/pkordes/tripproposal/internal/repo/repotest"
)

func seedMemory(t *testing.T, fx repotest.Fixture) repo.TripStore {
	t.Helper()
	store := repo.NewMemoryTripStore()
	store.PutRoom(fx.Room)
	store.PutRoom(fx.OrphanRoom)
	store.PutTrip(fx.Trip)
	return store
}

func TestMemoryTripStore_Contract(t *testing.T) {
	repotest.RunTripStore(t, seedMemory)
}

func TestMemoryPlanCache_Contract(t *testing.T) {
	repotest.RunPlanCache(t, func(t *testing.T) repo.PlanCache {
		return repo.NewMemoryPlanCache()
	})
}

func TestMemoryTripStore_FetchReturnsCopy(t *testing.T) {
	fx := repotest.NewFixture()
	store := seedMemory(t, fx)
	ctx := context.Background()

	first, err := store.FetchTrip(ctx, fx.Trip.ID)
	require.NoError(t, err)
	first.Days[0].Stay.MealPlan = "AI"
	first.Days[1].Stay = &domain.Stay{ID: uuid.New()}

	second, err := store.FetchTrip(ctx, fx.Trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "HB", second.Days[0].Stay.MealPlan)
	assert.Nil(t, second.Days[1].Stay)
}

func TestMemoryTripStore_CreateOnBookedDayKeepsStayID(t *testing.T) {
	fx := repotest.NewFixture()
	store := seedMemory(t, fx)
	day := fx.Trip.Days[0]

	rec, err := store.CreateStay(context.Background(), fx.Trip.ID, domain.StayCommand{
		DayID:  day.ID,
		RoomID: fx.Room.ID,
		Nights: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, day.Stay.ID, rec.Stay.ID)
	assert.Equal(t, domain.DefaultMealPlan, rec.Stay.MealPlan)
}

func TestMemoryTripStore_UpdateWithWrongStayID(t *testing.T) {
	fx := repotest.NewFixture()
	store := seedMemory(t, fx)

	_, err := store.ApplyStays(context.Background(), fx.Trip.ID, []domain.StayCommand{{
		DayID:  fx.Trip.Days[0].ID,
		StayID: uuid.New(),
		RoomID: fx.Room.ID,
		Nights: 1,
	}})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryTripStore_Seed(t *testing.T) {
	f, err := os.Open("testdata/seed.json")
	require.NoError(t, err)
	defer f.Close()

	store := repo.NewMemoryTripStore()
	require.NoError(t, store.Seed(f))

	tripID := uuid.MustParse("1f6a2b3c-4d5e-4f60-8a71-92b3c4d5e601")
	trip, err := store.FetchTrip(context.Background(), tripID)
	require.NoError(t, err)
	assert.Equal(t, 4, trip.Nights())
	require.Len(t, trip.Days, 5)
	require.NotNil(t, trip.Days[0].Stay)
	assert.Equal(t, "Hotel Baixa", trip.Days[0].Stay.Room.Hotel.Name)

	// Catalog rooms are bookable.
	rec, err := store.CreateStay(context.Background(), tripID, domain.StayCommand{
		DayID:  trip.Days[3].ID,
		RoomID: uuid.MustParse("5d0c3a8e-8f55-4c44-9a3b-0c6e1f1d2a02"),
		Nights: 1,
	})
	require.NoError(t, err)
	assert.True(t, rec.Complete())
}

func TestMemoryTripStore_Seed_RejectsUnknownFields(t *testing.T) {
	store := repo.NewMemoryTripStore()

	err := store.Seed(strings.NewReader(`{"hotels": []}`))

	assert.Error(t, err)
}
