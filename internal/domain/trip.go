// Package domain contains the core data types for the proposal engine.
// This package only depends on uuid and is imported by every other
// internal package (planner, matcher, reconcile, pricing, repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCurrency is used when the trip store does not report a currency.
const DefaultCurrency = "USD"

// Trip is the authoritative snapshot of an itinerary as returned by the
// external trip store. Days are ordered by day number (or date when the
// store does not number them).
type Trip struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	Adults   int `json:"adults"`
	Children int `json:"children"`

	// LandMarkupPercent is the agency markup on land costs. nil means 0.
	LandMarkupPercent *float64 `json:"land_markup_percent,omitempty"`
	Currency          string   `json:"currency"`

	Days    []TripDay `json:"days"`
	Flights []Flight  `json:"flights,omitempty"`
}

// Nights returns the number of nights between StartDate and EndDate.
// When either date is missing it falls back to the number of days.
func (t Trip) Nights() int {
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return len(t.Days)
	}
	return DaysBetween(t.StartDate, t.EndDate)
}

// Day returns the day with the given ID and whether it was found.
func (t Trip) Day(id uuid.UUID) (TripDay, bool) {
	for _, d := range t.Days {
		if d.ID == id {
			return d, true
		}
	}
	return TripDay{}, false
}

// TripDay is one calendar day of a trip, the unit inventory attaches to.
// DayNumber is 1-based and nil when the store did not number the day.
type TripDay struct {
	ID         uuid.UUID  `json:"id"`
	DayNumber  *int       `json:"day_number,omitempty"`
	Date       time.Time  `json:"date"`
	Stay       *Stay      `json:"stay,omitempty"`
	Activities []Activity `json:"activities,omitempty"`
}

// ClaimKey identifies the inventory a day represents during one
// reconciliation pass: the stay ID when the day has a stay, the day ID otherwise.
func (d TripDay) ClaimKey() uuid.UUID {
	if d.Stay != nil && d.Stay.ID != uuid.Nil {
		return d.Stay.ID
	}
	return d.ID
}

// ActivityKind distinguishes sightseeing bookings from transfers.
type ActivityKind string

const (
	ActivityKindActivity ActivityKind = "activity"
	ActivityKindTransfer ActivityKind = "transfer"
)

// Activity is a priced booking attached to a day (activity or transfer).
type Activity struct {
	ID    uuid.UUID    `json:"id"`
	Name  string       `json:"name"`
	Kind  ActivityKind `json:"kind"`
	Price float64      `json:"price"`
}

// Flight is a flat-priced flight line on the trip.
type Flight struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
}

// NormalizeDate truncates t to midnight UTC of its calendar date.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(NormalizeDate(b).Sub(NormalizeDate(a)).Hours() / 24)
}

// CompareDays orders days by day number, falling back to date when either
// side has no day number. It is suitable for slices.SortStableFunc.
func CompareDays(a, b TripDay) int {
	if a.DayNumber != nil && b.DayNumber != nil {
		return *a.DayNumber - *b.DayNumber
	}
	return NormalizeDate(a.Date).Compare(NormalizeDate(b.Date))
}
