package planner

import (
	"slices"

	"github.com/pkordes/tripproposal/internal/domain"
)

// Draft is the duration list an agent is editing for a trip of TotalNights.
//
// Every edit returns the next draft and the result of re-validating it.
// A refused edit (segment count limits, bad index) returns the receiver
// unchanged. An accepted edit that leaves the draft invalid returns the
// edited draft together with the validation error; callers keep the prior
// plan in effect until a draft validates.
type Draft struct {
	TotalNights int
	Durations   []int
}

// NewDraft copies durations into a Draft.
func NewDraft(totalNights int, durations []int) Draft {
	return Draft{TotalNights: totalNights, Durations: slices.Clone(durations)}
}

// Validate re-checks the whole draft.
func (d Draft) Validate() error {
	return Validate(d.TotalNights, d.Durations)
}

// AddSegment appends a one-night segment.
func (d Draft) AddSegment() (Draft, error) {
	if len(d.Durations) >= domain.MaxSegments {
		return d, domain.NewValidationError(domain.RuleSegmentCount,
			"a split stay allows at most %d segments", domain.MaxSegments)
	}
	next := NewDraft(d.TotalNights, append(slices.Clone(d.Durations), 1))
	return next, next.Validate()
}

// RemoveSegment deletes the segment at index. It is refused when the draft
// already has the minimum number of segments.
func (d Draft) RemoveSegment(index int) (Draft, error) {
	if len(d.Durations) <= domain.MinSegments {
		return d, domain.NewValidationError(domain.RuleSegmentCount,
			"a split stay needs at least %d segments", domain.MinSegments)
	}
	if err := d.checkIndex(index); err != nil {
		return d, err
	}
	next := NewDraft(d.TotalNights, slices.Delete(slices.Clone(d.Durations), index, index+1))
	return next, next.Validate()
}

// ResizeSegment sets the duration at index, clamped to [1, TotalNights].
func (d Draft) ResizeSegment(index, nights int) (Draft, error) {
	if err := d.checkIndex(index); err != nil {
		return d, err
	}
	nights = max(1, min(nights, max(d.TotalNights, 1)))
	next := NewDraft(d.TotalNights, d.Durations)
	next.Durations[index] = nights
	return next, next.Validate()
}

func (d Draft) checkIndex(index int) error {
	if index < 0 || index >= len(d.Durations) {
		return domain.NewValidationError(domain.RuleIndex,
			"segment %d does not exist", index+1)
	}
	return nil
}
