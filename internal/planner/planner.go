// Package planner turns a trip length and a list of segment durations into a
// contiguous split-stay plan, and applies duration edits to a draft plan.
// Everything here is pure: callers persist or propagate the result.
package planner

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tripproposal/internal/domain"
)

// Plan validates durations against totalNights and returns contiguous
// segments starting at start. Segment i ends where segment i+1 begins.
// Nothing is returned when validation fails.
func Plan(start time.Time, totalNights int, durations []int) ([]domain.Segment, error) {
	if err := Validate(totalNights, durations); err != nil {
		return nil, err
	}

	segments := make([]domain.Segment, len(durations))
	cursor := domain.NormalizeDate(start)
	for i, d := range durations {
		end := cursor.AddDate(0, 0, d)
		segments[i] = domain.Segment{
			Index:     i,
			Duration:  d,
			StartDate: cursor,
			EndDate:   end,
		}
		cursor = end
	}
	return segments, nil
}

// Validate checks the planner invariants in a fixed order and reports the
// first one violated:
//   - the trip must have at least two nights,
//   - there must be between 2 and 4 segments,
//   - every segment must last at least one night,
//   - durations must add up to totalNights exactly.
func Validate(totalNights int, durations []int) error {
	if totalNights < 2 {
		return domain.NewValidationError(domain.RuleTripLength,
			"a split stay needs at least 2 nights, trip has %d", totalNights)
	}
	if len(durations) < domain.MinSegments || len(durations) > domain.MaxSegments {
		return domain.NewValidationError(domain.RuleSegmentCount,
			"a split stay needs between %d and %d segments, got %d",
			domain.MinSegments, domain.MaxSegments, len(durations))
	}
	sum := 0
	for i, d := range durations {
		if d < 1 {
			return domain.NewValidationError(domain.RuleMinDuration,
				"segment %d must last at least 1 night, got %d", i+1, d)
		}
		sum += d
	}
	if sum != totalNights {
		return domain.NewValidationError(domain.RuleSum,
			"segment durations add up to %d nights, trip has %d", sum, totalNights)
	}
	return nil
}

// Regenerate re-plans from durations and carries hotel and room selections
// over from prev by segment index. Selections for indexes that no longer
// exist are dropped.
func Regenerate(prev []domain.Segment, start time.Time, totalNights int, durations []int) ([]domain.Segment, error) {
	segments, err := Plan(start, totalNights, durations)
	if err != nil {
		return nil, err
	}
	for _, p := range prev {
		if p.Index < 0 || p.Index >= len(segments) {
			continue
		}
		segments[p.Index].Hotel = p.Hotel
		segments[p.Index].Room = p.Room
	}
	return segments, nil
}

// ParsePreset parses a named split such as "2+2" or "1+3" into durations.
func ParsePreset(name string) ([]int, error) {
	parts := strings.Split(strings.TrimSpace(name), "+")
	durations := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, domain.NewValidationError(domain.RulePreset, "invalid preset %q", name)
		}
		durations = append(durations, n)
	}
	return durations, nil
}

// PresetName formats durations the way ParsePreset reads them.
func PresetName(durations []int) string {
	parts := make([]string, len(durations))
	for i, d := range durations {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, "+")
}

// Presets lists the named splits offered for a trip of totalNights:
// every two-way split, then even three- and four-way splits when the night
// count divides evenly.
func Presets(totalNights int) []string {
	if totalNights < 2 {
		return nil
	}
	var out []string
	for first := 1; first < totalNights; first++ {
		out = append(out, PresetName([]int{first, totalNights - first}))
	}
	for _, ways := range []int{3, 4} {
		if totalNights >= ways && totalNights%ways == 0 {
			even := make([]int, ways)
			for i := range even {
				even[i] = totalNights / ways
			}
			out = append(out, PresetName(even))
		}
	}
	return out
}

// Run is a maximal sequence of consecutive days booked into the same hotel.
type Run struct {
	Nights int
	Hotel  *domain.Hotel
	Room   *domain.Room
}

// Runs groups days (in day order) into runs of the same hotel. Days without
// a stay form runs with a nil Hotel.
func Runs(days []domain.TripDay) []Run {
	sorted := slices.Clone(days)
	slices.SortStableFunc(sorted, domain.CompareDays)

	var runs []Run
	current := uuid.Nil
	for i, d := range sorted {
		hotelID := d.Stay.HotelID()
		if i == 0 || hotelID != current {
			r := Run{}
			if d.Stay != nil && d.Stay.Room != nil {
				r.Room = d.Stay.Room
				r.Hotel = d.Stay.Room.Hotel
			}
			runs = append(runs, r)
			current = hotelID
		}
		runs[len(runs)-1].Nights++
	}
	return runs
}

// Derive rebuilds a split-stay plan from the stays already booked on the
// trip. It succeeds only when the days form 2 to 4 hotel runs that cover the
// whole trip; ok is false otherwise.
func Derive(start time.Time, totalNights int, days []domain.TripDay) (segments []domain.Segment, ok bool) {
	runs := Runs(days)
	// The departure day usually carries no stay.
	for len(runs) > 0 && runs[len(runs)-1].Hotel == nil {
		runs = runs[:len(runs)-1]
	}
	durations := make([]int, len(runs))
	for i, r := range runs {
		if r.Hotel == nil {
			return nil, false
		}
		durations[i] = r.Nights
	}
	segments, err := Plan(start, totalNights, durations)
	if err != nil {
		return nil, false
	}
	for i, r := range runs {
		segments[i].Hotel = r.Hotel
		segments[i].Room = r.Room
	}
	return segments, true
}

// Describe renders a one-line summary of a plan, e.g. "2+2 from 2024-01-01".
func Describe(segments []domain.Segment) string {
	if len(segments) == 0 {
		return "no split"
	}
	durations := make([]int, len(segments))
	for i, s := range segments {
		durations[i] = s.Duration
	}
	return fmt.Sprintf("%s from %s", PresetName(durations), segments[0].StartDate.Format(time.DateOnly))
}
