// Package reconcile converts split-stay selections into day-level stay
// commands, submits them to the trip store in one batch, and keeps a local
// snapshot of each trip consistent with what the store reports back.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/repo"
)

// DefaultRefetchDelay is how long the reconciler waits before the single
// recovery re-fetch after a failed submission.
const DefaultRefetchDelay = 750 * time.Millisecond

// Status is how a submission resolved.
type Status string

const (
	// StatusNoop means there was nothing to submit.
	StatusNoop Status = "noop"
	// StatusApplied means every record came back complete and the local
	// snapshot was patched directly.
	StatusApplied Status = "applied"
	// StatusNeedsRefetch means the response lacked nested hotel data; the
	// snapshot was replaced by a full re-fetch.
	StatusNeedsRefetch Status = "needs_refetch"
	// StatusFailed means the submission failed; the snapshot was recovered by
	// one delayed re-fetch. The mutation itself is never retried.
	StatusFailed Status = "failed"
)

// Result is the tagged outcome of one Submit call. The caller drives the
// follow-up (patch, re-fetch, delayed re-fetch) from Status.
type Result struct {
	Status  Status
	Records []domain.StayRecord
	Err     error
}

// Outcome is what Apply hands back to its caller.
type Outcome struct {
	Status Status
	Trip   domain.Trip
	Batch  Batch
	// Discarded is true when the response arrived after a newer one had
	// already been applied, so it was ignored.
	Discarded bool
	// Err is the submission error when Status is StatusFailed.
	Err error
}

// Options configures a Reconciler.
type Options struct {
	// RefetchDelay defaults to DefaultRefetchDelay when zero. Negative means
	// no delay.
	RefetchDelay time.Duration
	// Strict blocks submission when any segment matched fewer days than
	// its duration. The default proceeds with the partial match.
	Strict bool
	Logger *slog.Logger
}

// session is the per-trip local state. Responses carry the token of the
// request that produced them; a response older than the newest applied one
// is dropped so out-of-order completions cannot overwrite newer state.
type session struct {
	mu      sync.Mutex
	trip    domain.Trip
	loaded  bool
	pending int // re-fetches in flight
	issued  uint64
	applied uint64
}

func (s *session) nextToken() uint64 {
	s.issued++
	return s.issued
}

// accept reports whether a response for token may overwrite state, and
// records it as the newest applied one if so. Callers hold s.mu.
func (s *session) accept(token uint64) bool {
	if token < s.applied {
		return false
	}
	s.applied = token
	return true
}

// Reconciler owns the local trip snapshots and talks to the trip store.
// It is safe for concurrent use.
type Reconciler struct {
	store   repo.TripStore
	builder *Builder
	log     *slog.Logger
	delay   time.Duration
	strict  bool

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// New constructs a Reconciler backed by store.
func New(store repo.TripStore, opts Options) *Reconciler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	delay := opts.RefetchDelay
	if delay == 0 {
		delay = DefaultRefetchDelay
	}
	return &Reconciler{
		store:    store,
		builder:  NewBuilder(log),
		log:      log,
		delay:    delay,
		strict:   opts.Strict,
		sessions: make(map[uuid.UUID]*session),
	}
}

func (r *Reconciler) session(tripID uuid.UUID) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[tripID]
	if !ok {
		s = &session{}
		r.sessions[tripID] = s
	}
	return s
}

// Forget drops the local snapshot of a trip. The next call re-fetches it.
// A fetch that finds the trip missing forgets it automatically.
func (r *Reconciler) Forget(tripID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tripID)
}

// Snapshot returns the local snapshot of a trip, fetching it on first use.
func (r *Reconciler) Snapshot(ctx context.Context, tripID uuid.UUID) (domain.Trip, error) {
	s := r.session(tripID)
	s.mu.Lock()
	if s.loaded {
		trip := cloneTrip(s.trip)
		s.mu.Unlock()
		return trip, nil
	}
	s.mu.Unlock()

	trip, err := r.refetch(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("reconcile.Reconciler.Snapshot: %w", err)
	}
	return trip, nil
}

// Refresh replaces the local snapshot with a full re-fetch from the store.
func (r *Reconciler) Refresh(ctx context.Context, tripID uuid.UUID) (domain.Trip, error) {
	trip, err := r.refetch(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("reconcile.Reconciler.Refresh: %w", err)
	}
	return trip, nil
}

// Plan builds the batch Apply would submit, without submitting it.
func (r *Reconciler) Plan(ctx context.Context, tripID uuid.UUID, segments []domain.Segment) (Batch, error) {
	trip, err := r.Snapshot(ctx, tripID)
	if err != nil {
		return Batch{}, err
	}
	return r.builder.Build(trip.Days, segments)
}

// Apply reconciles every bookable segment against the trip in one batch.
//
// It refuses to start while a re-fetch of the trip is pending. A complete
// response patches the snapshot in place; an incomplete one is discarded in
// favour of a full re-fetch; a failed submission is followed by exactly one
// re-fetch after the configured delay. If that re-fetch fails as well the
// error is returned and the last known good snapshot is kept.
func (r *Reconciler) Apply(ctx context.Context, tripID uuid.UUID, segments []domain.Segment) (Outcome, error) {
	trip, err := r.Snapshot(ctx, tripID)
	if err != nil {
		return Outcome{}, fmt.Errorf("reconcile.Reconciler.Apply: %w", err)
	}

	s := r.session(tripID)
	s.mu.Lock()
	if s.pending > 0 {
		s.mu.Unlock()
		return Outcome{}, fmt.Errorf("reconcile.Reconciler.Apply: %w", domain.ErrStaleSnapshot)
	}
	token := s.nextToken()
	s.mu.Unlock()

	batch, err := r.builder.Build(trip.Days, segments)
	if err != nil {
		return Outcome{}, fmt.Errorf("reconcile.Reconciler.Apply: %w", err)
	}
	if short := batch.Shortfalls(); r.strict && len(short) > 0 {
		return Outcome{Batch: batch, Trip: trip}, fmt.Errorf("reconcile.Reconciler.Apply: segment %d matched %d of %d nights: %w",
			short[0].Segment+1, len(short[0].Days), short[0].Expected, domain.ErrMatchingShortfall)
	}
	if batch.Empty() {
		return Outcome{Status: StatusNoop, Trip: trip, Batch: batch}, nil
	}

	res := r.Submit(ctx, tripID, batch)
	out := Outcome{Status: res.Status, Batch: batch, Err: res.Err}

	switch res.Status {
	case StatusApplied:
		s.mu.Lock()
		if s.accept(token) {
			s.trip = patchTrip(s.trip, res.Records)
		} else {
			out.Discarded = true
			r.log.Info("discarding stale stay response", "trip_id", tripID.String(), "token", token)
		}
		out.Trip = cloneTrip(s.trip)
		s.mu.Unlock()
		return out, nil

	case StatusNeedsRefetch:
		r.log.Warn("stay response incomplete, re-fetching trip", "trip_id", tripID.String(), "error", res.Err)
		out.Trip, err = r.refetch(ctx, tripID)
		if err != nil {
			out.Trip = trip
			return out, fmt.Errorf("reconcile.Reconciler.Apply: %w", err)
		}
		return out, nil

	default:
		r.log.Warn("stay submission failed, scheduling re-fetch",
			"trip_id", tripID.String(), "delay", r.delay.String(), "error", res.Err)
		out.Trip, err = r.delayedRefetch(ctx, tripID)
		if err != nil {
			out.Trip = trip
			return out, fmt.Errorf("reconcile.Reconciler.Apply: %w", errors.Join(res.Err, err))
		}
		return out, nil
	}
}

// Submit sends the batch to the store in a single request and classifies the
// response. It never touches local state.
func (r *Reconciler) Submit(ctx context.Context, tripID uuid.UUID, batch Batch) Result {
	records, err := r.store.ApplyStays(ctx, tripID, batch.Commands)
	if err != nil {
		return Result{Status: StatusFailed, Err: classify(err)}
	}
	if missing := incomplete(batch.Commands, records); len(missing) > 0 {
		return Result{
			Status:  StatusNeedsRefetch,
			Records: records,
			Err:     fmt.Errorf("%d of %d days: %w", len(missing), len(batch.Commands), domain.ErrIncompleteResponse),
		}
	}
	return Result{Status: StatusApplied, Records: records}
}

// CreateStay books a single day outside of a split-stay plan.
func (r *Reconciler) CreateStay(ctx context.Context, tripID uuid.UUID, cmd domain.StayCommand) (domain.Trip, error) {
	cmd.StayID = uuid.Nil
	s := r.session(tripID)
	s.mu.Lock()
	token := s.nextToken()
	s.mu.Unlock()

	rec, err := r.store.CreateStay(ctx, tripID, cmd)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("reconcile.Reconciler.CreateStay: %w", classify(err))
	}
	if !rec.Complete() {
		return r.Refresh(ctx, tripID)
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return r.Snapshot(ctx, tripID)
	}
	if s.accept(token) {
		s.trip = patchTrip(s.trip, []domain.StayRecord{rec})
	}
	trip := cloneTrip(s.trip)
	s.mu.Unlock()
	return trip, nil
}

// DeleteStay removes a single stay and clears it from the local snapshot.
func (r *Reconciler) DeleteStay(ctx context.Context, tripID, stayID uuid.UUID) (domain.Trip, error) {
	if err := r.store.DeleteStay(ctx, tripID, stayID); err != nil {
		return domain.Trip{}, fmt.Errorf("reconcile.Reconciler.DeleteStay: %w", classify(err))
	}

	s := r.session(tripID)
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return r.Snapshot(ctx, tripID)
	}
	s.trip = cloneTrip(s.trip)
	for i := range s.trip.Days {
		if st := s.trip.Days[i].Stay; st != nil && st.ID == stayID {
			s.trip.Days[i].Stay = nil
		}
	}
	trip := cloneTrip(s.trip)
	s.mu.Unlock()
	return trip, nil
}

func (r *Reconciler) delayedRefetch(ctx context.Context, tripID uuid.UUID) (domain.Trip, error) {
	s := r.session(tripID)
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()
	}()

	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return domain.Trip{}, ctx.Err()
		}
	}
	return r.refetch(ctx, tripID)
}

// refetch loads the trip from the store and installs it as the snapshot
// unless a newer response has been applied meanwhile. On failure the last
// known good snapshot is left untouched.
func (r *Reconciler) refetch(ctx context.Context, tripID uuid.UUID) (domain.Trip, error) {
	s := r.session(tripID)
	s.mu.Lock()
	s.pending++
	token := s.nextToken()
	s.mu.Unlock()

	trip, err := r.store.FetchTrip(ctx, tripID)

	s.mu.Lock()
	s.pending--
	if errors.Is(err, domain.ErrNotFound) {
		// The trip is gone from the store; a stale snapshot must not outlive it.
		s.loaded = false
		s.trip = domain.Trip{}
		s.mu.Unlock()
		r.Forget(tripID)
		return domain.Trip{}, err
	}
	defer s.mu.Unlock()
	if err != nil {
		return domain.Trip{}, classify(err)
	}
	if s.accept(token) || !s.loaded {
		s.trip = trip
		s.loaded = true
	}
	return cloneTrip(s.trip), nil
}

// classify tags store failures that are not domain outcomes as transient.
func classify(err error) error {
	if errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrTransient) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrTransient, err)
}

// incomplete returns the day IDs of commands whose response record is
// missing or lacks nested hotel data.
func incomplete(cmds []domain.StayCommand, records []domain.StayRecord) []uuid.UUID {
	complete := make(map[uuid.UUID]bool, len(records))
	for _, rec := range records {
		if rec.Complete() {
			complete[rec.DayID] = true
		}
	}
	var missing []uuid.UUID
	for _, c := range cmds {
		if !complete[c.DayID] {
			missing = append(missing, c.DayID)
		}
	}
	return missing
}

// patchTrip returns a copy of trip with each record's stay installed on its day.
func patchTrip(trip domain.Trip, records []domain.StayRecord) domain.Trip {
	out := cloneTrip(trip)
	for _, rec := range records {
		for i := range out.Days {
			if out.Days[i].ID == rec.DayID {
				st := rec.Stay
				out.Days[i].Stay = &st
			}
		}
	}
	return out
}

// cloneTrip copies the day and flight slices so callers cannot mutate the
// session snapshot. Stays are replaced, never mutated, so they are shared.
func cloneTrip(t domain.Trip) domain.Trip {
	t.Days = slices.Clone(t.Days)
	t.Flights = slices.Clone(t.Flights)
	return t
}
