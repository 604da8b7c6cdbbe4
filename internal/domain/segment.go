package domain

import (
	"time"

	"github.com/google/uuid"
)

// Segment limits for a split-stay plan. A single hotel for the whole trip is
// the non-split default and is not represented as a plan.
const (
	MinSegments = 2
	MaxSegments = 4
)

// Segment is a contiguous run of nights within a split stay, optionally bound
// to one hotel and room. EndDate is StartDate plus Duration nights.
type Segment struct {
	Index     int       `json:"index"`
	Duration  int       `json:"duration"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Hotel     *Hotel    `json:"hotel,omitempty"`
	Room      *Room     `json:"room,omitempty"`
}

// HasHotel reports whether a hotel has been chosen for the segment.
func (s Segment) HasHotel() bool {
	return s.Hotel != nil && s.Hotel.ID != uuid.Nil
}

// Bookable reports whether both a hotel and a room are selected, which is
// what the reconciler needs to emit stay commands.
func (s Segment) Bookable() bool {
	return s.HasHotel() && s.Room != nil && s.Room.ID != uuid.Nil
}

// SplitStay is the per-trip split-stay configuration.
//
// Durations is the draft the agent is editing and may be invalid.
// Segments is the last valid plan derived from a draft; it only changes when
// a draft validates. Both are empty when Enabled is false.
type SplitStay struct {
	TripID    uuid.UUID `json:"trip_id"`
	Enabled   bool      `json:"enabled"`
	Durations []int     `json:"durations"`
	Segments  []Segment `json:"segments"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fits reports whether the plan still describes a trip with the given start
// date and night count. A cached plan that no longer fits is discarded.
func (s SplitStay) Fits(start time.Time, nights int) bool {
	if !s.Enabled {
		return true
	}
	if len(s.Segments) == 0 {
		return false
	}
	total := 0
	for _, seg := range s.Segments {
		total += seg.Duration
	}
	return total == nights && NormalizeDate(s.Segments[0].StartDate).Equal(NormalizeDate(start))
}
