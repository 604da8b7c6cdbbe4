package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/planner"
	"github.com/pkordes/tripproposal/internal/pricing"
	"github.com/pkordes/tripproposal/internal/reconcile"
	"github.com/pkordes/tripproposal/internal/repo"
)

// SplitStayService manages the per-trip split-stay plan: enabling it from a
// duration split or preset, editing segments, selecting hotels, and applying
// the selections to the trip.
//
// The plan cache is advisory. Every load checks the cached plan against the
// current trip and rebuilds it from the booked stays when it no longer fits.
type SplitStayService struct {
	trips TripReconciler
	plans repo.PlanCache
	log   *slog.Logger
	now   func() time.Time

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewSplitStayService constructs a SplitStayService. A nil logger falls back
// to slog.Default().
func NewSplitStayService(trips TripReconciler, plans repo.PlanCache, log *slog.Logger) *SplitStayService {
	if log == nil {
		log = slog.Default()
	}
	return &SplitStayService{
		trips: trips,
		plans: plans,
		log:   log,
		now:   time.Now,
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// lock serialises plan edits per trip so concurrent requests cannot lose
// each other's read-modify-write on the cache.
func (s *SplitStayService) lock(tripID uuid.UUID) func() {
	s.mu.Lock()
	l, ok := s.locks[tripID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[tripID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Get returns the current split-stay state of a trip.
func (s *SplitStayService) Get(ctx context.Context, tripID uuid.UUID) (domain.SplitStay, error) {
	_, plan, err := s.load(ctx, tripID)
	if err != nil {
		return domain.SplitStay{}, fmt.Errorf("service.SplitStayService.Get: %w", err)
	}
	return plan, nil
}

// Presets lists the named splits offered for the trip's length.
func (s *SplitStayService) Presets(ctx context.Context, tripID uuid.UUID) ([]string, error) {
	trip, err := s.trips.Snapshot(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.SplitStayService.Presets: %w", err)
	}
	presets := planner.Presets(trip.Nights())
	if presets == nil {
		return []string{}, nil
	}
	return presets, nil
}

// EnableInput chooses the initial split. Preset wins when both are set.
type EnableInput struct {
	Durations []int
	Preset    string
}

// Enable turns split stay on, or replaces the split of an enabled plan.
// Hotel and room selections carry over by segment index. An invalid split
// leaves the stored plan untouched.
func (s *SplitStayService) Enable(ctx context.Context, tripID uuid.UUID, in EnableInput) (domain.SplitStay, error) {
	defer s.lock(tripID)()

	durations := in.Durations
	if in.Preset != "" {
		var err error
		if durations, err = planner.ParsePreset(in.Preset); err != nil {
			return domain.SplitStay{}, err
		}
	}

	trip, plan, err := s.load(ctx, tripID)
	if err != nil {
		return domain.SplitStay{}, fmt.Errorf("service.SplitStayService.Enable: %w", err)
	}
	segments, err := planner.Regenerate(plan.Segments, planStart(trip), trip.Nights(), durations)
	if err != nil {
		return domain.SplitStay{}, err
	}

	plan = domain.SplitStay{
		TripID:    tripID,
		Enabled:   true,
		Durations: durations,
		Segments:  segments,
	}
	return s.save(ctx, plan)
}

// Disable turns split stay off and resets the segments. The disabled state
// is cached so the plan is not derived again from the booked stays, which
// are left untouched.
func (s *SplitStayService) Disable(ctx context.Context, tripID uuid.UUID) (domain.SplitStay, error) {
	defer s.lock(tripID)()

	if _, err := s.trips.Snapshot(ctx, tripID); err != nil {
		return domain.SplitStay{}, fmt.Errorf("service.SplitStayService.Disable: %w", err)
	}
	plan, err := s.save(ctx, domain.SplitStay{TripID: tripID, Durations: []int{}, Segments: []domain.Segment{}})
	if err != nil {
		return domain.SplitStay{}, fmt.Errorf("service.SplitStayService.Disable: %w", err)
	}
	return plan, nil
}

// AddSegment appends a one-night segment to the draft.
func (s *SplitStayService) AddSegment(ctx context.Context, tripID uuid.UUID) (domain.SplitStay, error) {
	return s.edit(ctx, tripID, "AddSegment", func(d planner.Draft) (planner.Draft, error) {
		return d.AddSegment()
	})
}

// RemoveSegment deletes the draft segment at index.
func (s *SplitStayService) RemoveSegment(ctx context.Context, tripID uuid.UUID, index int) (domain.SplitStay, error) {
	return s.edit(ctx, tripID, "RemoveSegment", func(d planner.Draft) (planner.Draft, error) {
		return d.RemoveSegment(index)
	})
}

// ResizeSegment sets the number of nights of the draft segment at index.
func (s *SplitStayService) ResizeSegment(ctx context.Context, tripID uuid.UUID, index, nights int) (domain.SplitStay, error) {
	return s.edit(ctx, tripID, "ResizeSegment", func(d planner.Draft) (planner.Draft, error) {
		return d.ResizeSegment(index, nights)
	})
}

// edit applies one draft edit. The edited draft is stored even when it does
// not validate, so the agent can keep adjusting it; the segment list only
// changes once the draft validates. The validation error is returned with
// the stored state.
func (s *SplitStayService) edit(ctx context.Context, tripID uuid.UUID, op string, fn func(planner.Draft) (planner.Draft, error)) (domain.SplitStay, error) {
	defer s.lock(tripID)()

	trip, plan, err := s.load(ctx, tripID)
	if err != nil {
		return domain.SplitStay{}, fmt.Errorf("service.SplitStayService.%s: %w", op, err)
	}
	if !plan.Enabled {
		return plan, domain.NewValidationError(domain.RuleSegmentCount, "split stay is not enabled for this trip")
	}

	next, verr := fn(planner.NewDraft(trip.Nights(), plan.Durations))
	plan.Durations = next.Durations
	if verr == nil {
		segments, err := planner.Regenerate(plan.Segments, planStart(trip), trip.Nights(), next.Durations)
		if err != nil {
			return domain.SplitStay{}, err
		}
		plan.Segments = segments
	}

	saved, err := s.save(ctx, plan)
	if err != nil {
		return domain.SplitStay{}, fmt.Errorf("service.SplitStayService.%s: %w", op, err)
	}
	return saved, verr
}

// Selection binds a hotel and, optionally, a room to a segment. A nil Hotel
// clears the segment's selection.
type Selection struct {
	Hotel *domain.Hotel
	Room  *domain.Room
}

// Select sets the hotel and room of the segment at index in the current plan.
func (s *SplitStayService) Select(ctx context.Context, tripID uuid.UUID, index int, sel Selection) (domain.SplitStay, error) {
	defer s.lock(tripID)()

	_, plan, err := s.load(ctx, tripID)
	if err != nil {
		return domain.SplitStay{}, fmt.Errorf("service.SplitStayService.Select: %w", err)
	}
	if !plan.Enabled {
		return domain.SplitStay{}, domain.NewValidationError(domain.RuleSegmentCount, "split stay is not enabled for this trip")
	}
	if index < 0 || index >= len(plan.Segments) {
		return domain.SplitStay{}, domain.NewValidationError(domain.RuleIndex,
			"segment %d does not exist, plan has %d", index+1, len(plan.Segments))
	}
	if err := validateSelection(sel); err != nil {
		return domain.SplitStay{}, err
	}

	seg := &plan.Segments[index]
	seg.Hotel, seg.Room = sel.Hotel, nil
	if sel.Room != nil {
		room := *sel.Room
		room.Hotel = sel.Hotel
		seg.Room = &room
	}
	return s.save(ctx, plan)
}

func validateSelection(sel Selection) error {
	if sel.Hotel == nil {
		if sel.Room != nil {
			return domain.NewValidationError(domain.RuleSelection, "a room needs a hotel")
		}
		return nil
	}
	if sel.Hotel.ID == uuid.Nil {
		return domain.NewValidationError(domain.RuleSelection, "hotel id is required")
	}
	if sel.Room == nil {
		return nil
	}
	if sel.Room.ID == uuid.Nil {
		return domain.NewValidationError(domain.RuleSelection, "room id is required")
	}
	if sel.Room.Hotel != nil && sel.Room.Hotel.ID != sel.Hotel.ID {
		return domain.NewValidationError(domain.RuleSelection, "room %s belongs to another hotel", sel.Room.ID)
	}
	return nil
}

// ApplyResult is the outcome of reconciling a plan plus the new price.
type ApplyResult struct {
	reconcile.Outcome
	Plan  domain.SplitStay
	Price domain.PriceBreakdown
}

// Apply reconciles every segment with a hotel and room against the trip in
// one batch and prices the resulting trip.
func (s *SplitStayService) Apply(ctx context.Context, tripID uuid.UUID) (ApplyResult, error) {
	defer s.lock(tripID)()

	_, plan, err := s.load(ctx, tripID)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("service.SplitStayService.Apply: %w", err)
	}
	if !plan.Enabled {
		return ApplyResult{}, domain.NewValidationError(domain.RuleSegmentCount, "split stay is not enabled for this trip")
	}

	out, err := s.trips.Apply(ctx, tripID, plan.Segments)
	if err != nil {
		return ApplyResult{Outcome: out, Plan: plan}, fmt.Errorf("service.SplitStayService.Apply: %w", err)
	}
	s.log.Info("split stay applied",
		"trip_id", tripID.String(),
		"plan", planner.Describe(plan.Segments),
		"status", string(out.Status),
		"commands", len(out.Batch.Commands),
		"shortfalls", len(out.Batch.Shortfalls()),
	)
	return ApplyResult{
		Outcome: out,
		Plan:    plan,
		Price:   pricing.Calculate(pricing.FromTrip(out.Trip)),
	}, nil
}

// load returns the trip and its plan. A cached plan that no longer fits the
// trip's start date or length is dropped; without a usable cached plan the
// plan is derived from the stays already booked.
func (s *SplitStayService) load(ctx context.Context, tripID uuid.UUID) (domain.Trip, domain.SplitStay, error) {
	trip, err := s.trips.Snapshot(ctx, tripID)
	if err != nil {
		return domain.Trip{}, domain.SplitStay{}, err
	}
	start, nights := planStart(trip), trip.Nights()

	plan, err := s.plans.Load(ctx, tripID)
	switch {
	case err == nil && plan.Fits(start, nights):
		return trip, plan, nil
	case err == nil:
		s.log.Warn("cached split stay no longer fits trip, discarding",
			"trip_id", tripID.String(),
			"nights", nights,
			"plan", planner.Describe(plan.Segments),
		)
		if err := s.plans.Delete(ctx, tripID); err != nil {
			s.log.Warn("plan cache delete failed", "trip_id", tripID.String(), "error", err)
		}
	case !errors.Is(err, domain.ErrNotFound):
		s.log.Warn("plan cache unavailable, deriving from trip", "trip_id", tripID.String(), "error", err)
	}

	plan = domain.SplitStay{TripID: tripID, Durations: []int{}, Segments: []domain.Segment{}}
	if segments, ok := planner.Derive(start, nights, trip.Days); ok {
		plan.Enabled = true
		plan.Segments = segments
		plan.Durations = make([]int, len(segments))
		for i, seg := range segments {
			plan.Durations[i] = seg.Duration
		}
	}
	return trip, plan, nil
}

func (s *SplitStayService) save(ctx context.Context, plan domain.SplitStay) (domain.SplitStay, error) {
	plan.UpdatedAt = s.now().UTC()
	if err := s.plans.Save(ctx, plan); err != nil {
		return domain.SplitStay{}, fmt.Errorf("save plan: %w", err)
	}
	return plan, nil
}

// planStart is the first night of the trip: its start date, or the date of
// its first day when the store did not report one.
func planStart(trip domain.Trip) time.Time {
	if !trip.StartDate.IsZero() || len(trip.Days) == 0 {
		return domain.NormalizeDate(trip.StartDate)
	}
	first := trip.Days[0]
	for _, d := range trip.Days[1:] {
		if domain.CompareDays(d, first) < 0 {
			first = d
		}
	}
	return domain.NormalizeDate(first.Date)
}
