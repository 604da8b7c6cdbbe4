// Package matcher decides which trip days belong to a split-stay segment.
//
// Matching runs in two phases and the first one that selects anything wins:
//
//  1. Day numbers: the segment covers day numbers [offset+1, offset+1+duration),
//     where offset is the total duration of the earlier segments that already
//     carry a hotel. Counting only hotel-bearing segments lets a partially
//     assigned plan still line up with the booked days.
//  2. Dates: the segment covers dates in [StartDate, EndDate).
//
// Days whose claim key was taken by an earlier segment in the same pass are
// never selected. Matching is pure; the caller records claims.
package matcher

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/pkordes/tripproposal/internal/domain"
)

// Phase names the matching phase that produced a Result.
type Phase string

const (
	PhaseNone      Phase = "none"
	PhaseDayNumber Phase = "day_number"
	PhaseDateRange Phase = "date_range"
)

// Claims is the set of claim keys (stay IDs, or day IDs for days without a
// stay) already assigned during one reconciliation pass.
type Claims map[uuid.UUID]struct{}

// NewClaims returns an empty claim set.
func NewClaims() Claims {
	return make(Claims)
}

// Has reports whether the key is claimed.
func (c Claims) Has(key uuid.UUID) bool {
	_, ok := c[key]
	return ok
}

// Claim records a key. It reports false when the key was already claimed.
func (c Claims) Claim(key uuid.UUID) bool {
	if c.Has(key) {
		return false
	}
	c[key] = struct{}{}
	return true
}

// Result is the set of days matched to one segment, in day order.
type Result struct {
	Segment  int
	Phase    Phase
	Expected int
	Days     []domain.TripDay
}

// Shortfall reports whether fewer days matched than the segment has nights.
func (r Result) Shortfall() bool {
	return len(r.Days) < r.Expected
}

// Mismatch reports whether the matched day count differs from the duration.
func (r Result) Mismatch() bool {
	return len(r.Days) != r.Expected
}

// DayIDs returns the IDs of the matched days.
func (r Result) DayIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Days))
	for i, d := range r.Days {
		ids[i] = d.ID
	}
	return ids
}

// Matcher matches days to segments and logs count mismatches.
type Matcher struct {
	log *slog.Logger
}

// New constructs a Matcher. A nil logger falls back to slog.Default().
func New(log *slog.Logger) *Matcher {
	if log == nil {
		log = slog.Default()
	}
	return &Matcher{log: log}
}

// Match returns the days of the calendar that belong to segments[target].
// A mismatch between matched days and the segment duration is logged and
// the partial result is still returned.
func (m *Matcher) Match(days []domain.TripDay, segments []domain.Segment, target int, claims Claims) (Result, error) {
	if target < 0 || target >= len(segments) {
		return Result{}, fmt.Errorf("matcher.Match: segment %d of %d: %w", target, len(segments), domain.ErrNotFound)
	}
	seg := segments[target]
	res := Result{Segment: target, Phase: PhaseNone, Expected: seg.Duration}

	if matched := byDayNumber(days, segments, target, claims); len(matched) > 0 {
		res.Phase, res.Days = PhaseDayNumber, matched
	} else if matched := byDateRange(days, seg, claims); len(matched) > 0 {
		res.Phase, res.Days = PhaseDateRange, matched
	}
	slices.SortStableFunc(res.Days, domain.CompareDays)

	if res.Mismatch() {
		m.log.Warn("segment day count mismatch",
			"segment", target,
			"expected", res.Expected,
			"matched", len(res.Days),
			"phase", string(res.Phase),
		)
	}
	return res, nil
}

// Offset returns the number of nights covered by hotel-bearing segments
// before target.
func Offset(segments []domain.Segment, target int) int {
	offset := 0
	for _, s := range segments[:target] {
		if s.HasHotel() {
			offset += s.Duration
		}
	}
	return offset
}

func byDayNumber(days []domain.TripDay, segments []domain.Segment, target int, claims Claims) []domain.TripDay {
	start := Offset(segments, target) + 1
	end := start + segments[target].Duration

	var out []domain.TripDay
	for _, d := range days {
		if d.DayNumber == nil {
			continue
		}
		n := *d.DayNumber
		if n >= start && n < end && !claims.Has(d.ClaimKey()) {
			out = append(out, d)
		}
	}
	return out
}

func byDateRange(days []domain.TripDay, seg domain.Segment, claims Claims) []domain.TripDay {
	from := domain.NormalizeDate(seg.StartDate)
	to := domain.NormalizeDate(seg.EndDate)

	var out []domain.TripDay
	for _, d := range days {
		if d.Date.IsZero() {
			continue
		}
		day := domain.NormalizeDate(d.Date)
		if !day.Before(from) && day.Before(to) && !claims.Has(d.ClaimKey()) {
			out = append(out, d)
		}
	}
	return out
}
