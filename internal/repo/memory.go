package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/tripproposal/internal/domain"
)

// MemoryTripStore is an in-process TripStore used by the memory
// STORE_BACKEND and tests. It mirrors the Postgres adapter: a room
// without a hotel yields a record without nested hotel data.
type MemoryTripStore struct {
	mu    sync.RWMutex
	trips map[uuid.UUID]domain.Trip
	rooms map[uuid.UUID]domain.Room
}

var _ TripStore = (*MemoryTripStore)(nil)

// NewMemoryTripStore returns an empty store.
func NewMemoryTripStore() *MemoryTripStore {
	return &MemoryTripStore{
		trips: make(map[uuid.UUID]domain.Trip),
		rooms: make(map[uuid.UUID]domain.Room),
	}
}

// PutTrip seeds or replaces a trip.
func (m *MemoryTripStore) PutTrip(trip domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = cloneTrip(trip)
}

// PutRoom adds a room to the catalog that stay commands reference.
func (m *MemoryTripStore) PutRoom(room domain.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
}

// MemorySeed is the JSON document Seed reads.
type MemorySeed struct {
	Rooms []domain.Room `json:"rooms"`
	Trips []domain.Trip `json:"trips"`
}

// Seed loads rooms and trips from a JSON MemorySeed document. Rooms nested in
// the trips' stays are added to the catalog too.
func (m *MemoryTripStore) Seed(r io.Reader) error {
	var seed MemorySeed
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&seed); err != nil {
		return fmt.Errorf("repo.MemoryTripStore.Seed: %w", err)
	}
	for _, room := range seed.Rooms {
		m.PutRoom(room)
	}
	for _, trip := range seed.Trips {
		if trip.ID == uuid.Nil {
			return fmt.Errorf("repo.MemoryTripStore.Seed: trip %q has no id", trip.Name)
		}
		for _, d := range trip.Days {
			if d.Stay != nil && d.Stay.Room != nil {
				m.PutRoom(*d.Stay.Room)
			}
		}
		m.PutTrip(trip)
	}
	return nil
}

// FetchTrip returns a deep copy of the stored trip.
func (m *MemoryTripStore) FetchTrip(_ context.Context, tripID uuid.UUID) (domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return domain.Trip{}, fmt.Errorf("repo.MemoryTripStore.FetchTrip: %w", domain.ErrNotFound)
	}
	return cloneTrip(trip), nil
}

// ApplyStays validates every command before writing any of them.
func (m *MemoryTripStore) ApplyStays(_ context.Context, tripID uuid.UUID, cmds []domain.StayCommand) ([]domain.StayRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	trip, ok := m.trips[tripID]
	if !ok {
		return nil, fmt.Errorf("repo.MemoryTripStore.ApplyStays: %w", domain.ErrNotFound)
	}
	trip = cloneTrip(trip)

	records := make([]domain.StayRecord, 0, len(cmds))
	for _, cmd := range cmds {
		rec, err := m.write(&trip, cmd)
		if err != nil {
			return nil, fmt.Errorf("repo.MemoryTripStore.ApplyStays: day %s: %w", cmd.DayID, err)
		}
		records = append(records, rec)
	}
	m.trips[tripID] = trip
	return records, nil
}

// CreateStay books a single day, replacing any stay already on it.
func (m *MemoryTripStore) CreateStay(ctx context.Context, tripID uuid.UUID, cmd domain.StayCommand) (domain.StayRecord, error) {
	cmd.StayID = uuid.Nil
	records, err := m.ApplyStays(ctx, tripID, []domain.StayCommand{cmd})
	if err != nil {
		return domain.StayRecord{}, fmt.Errorf("repo.MemoryTripStore.CreateStay: %w", err)
	}
	return records[0], nil
}

// DeleteStay clears the stay from whichever day of the trip holds it.
func (m *MemoryTripStore) DeleteStay(_ context.Context, tripID, stayID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	trip, ok := m.trips[tripID]
	if !ok {
		return fmt.Errorf("repo.MemoryTripStore.DeleteStay: %w", domain.ErrNotFound)
	}
	trip = cloneTrip(trip)
	for i := range trip.Days {
		if st := trip.Days[i].Stay; st != nil && st.ID == stayID {
			trip.Days[i].Stay = nil
			m.trips[tripID] = trip
			return nil
		}
	}
	return fmt.Errorf("repo.MemoryTripStore.DeleteStay: %w", domain.ErrNotFound)
}

// write applies one command to trip. Callers hold m.mu.
func (m *MemoryTripStore) write(trip *domain.Trip, cmd domain.StayCommand) (domain.StayRecord, error) {
	idx := -1
	for i := range trip.Days {
		if trip.Days[i].ID == cmd.DayID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.StayRecord{}, domain.ErrNotFound
	}
	day := &trip.Days[idx]

	var room *domain.Room
	if cmd.RoomID != uuid.Nil {
		r, ok := m.rooms[cmd.RoomID]
		if !ok {
			return domain.StayRecord{}, domain.NewValidationError(domain.RuleSelection, "unknown room: %s", cmd.RoomID)
		}
		room = &r
	}

	id := cmd.StayID
	switch {
	case cmd.IsCreate() && day.Stay != nil:
		id = day.Stay.ID
	case cmd.IsCreate():
		id = uuid.New()
	case day.Stay == nil || day.Stay.ID != cmd.StayID:
		return domain.StayRecord{}, domain.ErrNotFound
	}

	status := cmd.ConfirmationStatus
	if status == "" {
		status = domain.ConfirmationPending
	}
	mealPlan := cmd.MealPlan
	if mealPlan == "" {
		mealPlan = domain.DefaultMealPlan
	}
	day.Stay = &domain.Stay{
		ID:                 id,
		Room:               room,
		CheckIn:            domain.NormalizeDate(cmd.CheckIn),
		CheckOut:           domain.NormalizeDate(cmd.CheckOut),
		Nights:             cmd.Nights,
		MealPlan:           mealPlan,
		PriceTotalCents:    cmd.PriceTotalCents,
		ConfirmationStatus: status,
	}
	return domain.StayRecord{DayID: day.ID, Stay: *day.Stay}, nil
}
