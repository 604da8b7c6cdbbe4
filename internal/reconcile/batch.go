package reconcile

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/matcher"
)

// Batch is the full set of stay commands for one user action, plus what the
// matcher found for each hotel-bearing segment.
type Batch struct {
	Commands []domain.StayCommand
	Matches  []matcher.Result
	// Skipped lists days dropped because an earlier segment in the same
	// batch already claimed them.
	Skipped []uuid.UUID
}

// Shortfalls returns the matches that found fewer days than their segment's
// duration.
func (b Batch) Shortfalls() []matcher.Result {
	var out []matcher.Result
	for _, m := range b.Matches {
		if m.Shortfall() {
			out = append(out, m)
		}
	}
	return out
}

// Empty reports whether the batch has nothing to submit.
func (b Batch) Empty() bool {
	return len(b.Commands) == 0
}

// Builder turns segment selections into stay commands.
type Builder struct {
	matcher *matcher.Matcher
	log     *slog.Logger
}

// NewBuilder constructs a Builder. A nil logger falls back to slog.Default().
func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{matcher: matcher.New(log), log: log}
}

// Build matches every bookable segment (hotel and room selected) in index
// order and emits one command per matched day. Claims are shared across the
// whole batch so no day is submitted twice. The result depends only on its
// inputs, so rebuilding from the same calendar yields the same batch.
func (b *Builder) Build(days []domain.TripDay, segments []domain.Segment) (Batch, error) {
	var batch Batch
	claims := matcher.NewClaims()

	for i, seg := range segments {
		if !seg.Bookable() {
			continue
		}
		res, err := b.matcher.Match(days, segments, i, claims)
		if err != nil {
			return Batch{}, fmt.Errorf("reconcile.Builder.Build: %w", err)
		}

		emitted := make([]domain.TripDay, 0, len(res.Days))
		for _, day := range res.Days {
			if !claims.Claim(day.ClaimKey()) {
				b.log.Warn("day already claimed in this batch, skipping",
					"segment", i,
					"day_id", day.ID.String(),
				)
				batch.Skipped = append(batch.Skipped, day.ID)
				continue
			}
			emitted = append(emitted, day)
			batch.Commands = append(batch.Commands, Command(seg, day))
		}
		// A skipped day is a night the segment will not get, so the match
		// reports only the days actually submitted.
		res.Days = emitted
		batch.Matches = append(batch.Matches, res)
	}
	return batch, nil
}

// Command builds the stay command that books day into seg's room.
func Command(seg domain.Segment, day domain.TripDay) domain.StayCommand {
	cmd := domain.StayCommand{
		DayID:              day.ID,
		RoomID:             seg.Room.ID,
		CheckIn:            domain.NormalizeDate(seg.StartDate),
		CheckOut:           domain.NormalizeDate(seg.EndDate),
		Nights:             seg.Duration,
		MealPlan:           MealPlan(seg),
		PriceTotalCents:    TotalPriceCents(seg),
		ConfirmationStatus: domain.ConfirmationPending,
	}
	if day.Stay != nil {
		cmd.StayID = day.Stay.ID
		if day.Stay.ConfirmationStatus != "" {
			cmd.ConfirmationStatus = day.Stay.ConfirmationStatus
		}
	}
	return cmd
}
