package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// trip, day, or stay does not exist in the trip store.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. segment durations that do not add up to the trip length).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrMatchingShortfall is returned when a segment matched fewer days than its
// duration and the reconciler runs in strict mode. In the default mode the
// shortfall is only logged.
var ErrMatchingShortfall = errors.New("matching shortfall")

// ErrIncompleteResponse marks a trip store write response that lacks nested
// hotel data for one or more days. It triggers a full re-fetch.
var ErrIncompleteResponse = errors.New("incomplete response")

// ErrTransient wraps a trip store call that failed outright.
// Handlers should map this to HTTP 502.
var ErrTransient = errors.New("trip store unavailable")

// ErrStaleSnapshot is returned when a reconciliation is requested while a
// re-fetch of the same trip is still pending.
// Handlers should map this to HTTP 409.
var ErrStaleSnapshot = errors.New("trip snapshot is stale")

// Rule names the planner invariant a ValidationError violated.
type Rule string

const (
	RuleTripLength   Rule = "trip_length"
	RuleSegmentCount Rule = "segment_count"
	RuleMinDuration  Rule = "min_duration"
	RuleSum          Rule = "duration_sum"
	RuleIndex        Rule = "segment_index"
	RulePreset       Rule = "preset"
	RuleSelection    Rule = "selection"
)

// ValidationError reports the specific rule a plan or edit violated.
// It unwraps to ErrValidation so callers can match with errors.Is.
type ValidationError struct {
	Rule    Rule
	Message string
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(rule Rule, format string, args ...any) *ValidationError {
	return &ValidationError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
