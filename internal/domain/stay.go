package domain

import (
	"time"

	"github.com/google/uuid"
)

// Confirmation statuses reported by the trip store.
const (
	ConfirmationPending   = "pending"
	ConfirmationConfirmed = "confirmed"
	ConfirmationCancelled = "cancelled"
)

// DefaultMealPlan is the board basis used when neither the room nor its
// board basis names one (bed & breakfast).
const DefaultMealPlan = "BB"

// Hotel is a property in the inventory catalog.
// MinPrice is the cheapest advertised nightly rate in currency units.
type Hotel struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	MinPrice *float64  `json:"min_price,omitempty"`
}

// Room is a bookable room type. Prices are optional; the reconciler falls
// back from PriceCents to PricePerNight to the hotel's MinPrice.
type Room struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	PriceCents    *int64    `json:"price_cents,omitempty"`
	PricePerNight *float64  `json:"price_per_night,omitempty"`
	BaseMealPlan  string    `json:"base_meal_plan,omitempty"`
	BoardBasis    string    `json:"board_basis,omitempty"`
	Hotel         *Hotel    `json:"hotel,omitempty"`
}

// Stay is hotel inventory attached to a single TripDay.
type Stay struct {
	ID                 uuid.UUID `json:"id"`
	Room               *Room     `json:"room,omitempty"`
	CheckIn            time.Time `json:"check_in"`
	CheckOut           time.Time `json:"check_out"`
	Nights             int       `json:"nights"`
	MealPlan           string    `json:"meal_plan"`
	PriceTotalCents    int64     `json:"price_total_cents"`
	ConfirmationStatus string    `json:"confirmation_status"`
}

// HotelID returns the ID of the stay's hotel, or uuid.Nil when the nested
// room or hotel is missing.
func (s *Stay) HotelID() uuid.UUID {
	if s == nil || s.Room == nil || s.Room.Hotel == nil {
		return uuid.Nil
	}
	return s.Room.Hotel.ID
}

// StayCommand is one day-level inventory change sent to the trip store.
// A nil StayID creates a new stay on DayID; otherwise the stay is updated.
type StayCommand struct {
	DayID              uuid.UUID `json:"day_id"`
	StayID             uuid.UUID `json:"stay_id"`
	RoomID             uuid.UUID `json:"room_id"`
	CheckIn            time.Time `json:"check_in"`
	CheckOut           time.Time `json:"check_out"`
	Nights             int       `json:"nights"`
	MealPlan           string    `json:"meal_plan"`
	PriceTotalCents    int64     `json:"price_total_cents"`
	ConfirmationStatus string    `json:"confirmation_status"`
}

// IsCreate reports whether the command creates a new stay.
func (c StayCommand) IsCreate() bool {
	return c.StayID == uuid.Nil
}

// StayRecord is a stay as returned by the trip store after a write.
type StayRecord struct {
	DayID uuid.UUID `json:"day_id"`
	Stay  Stay      `json:"stay"`
}

// Complete reports whether the record carries the nested room and hotel
// data needed to patch a local snapshot without re-fetching.
func (r StayRecord) Complete() bool {
	return r.Stay.ID != uuid.Nil &&
		r.Stay.Room != nil &&
		r.Stay.Room.Hotel != nil &&
		r.Stay.Room.Hotel.ID != uuid.Nil
}
