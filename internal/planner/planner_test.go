package planner_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/planner"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ruleOf(t *testing.T, err error) domain.Rule {
	t.Helper()
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "expected a ValidationError, got %v", err)
	return ve.Rule
}

// ---- Plan ------------------------------------------------------------------

func TestPlan_Preset2Plus2(t *testing.T) {
	durations, err := planner.ParsePreset("2+2")
	require.NoError(t, err)

	got, err := planner.Plan(date(2024, 1, 1), 4, durations)

	require.NoError(t, err)
	assert.Equal(t, []domain.Segment{
		{Index: 0, Duration: 2, StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 3)},
		{Index: 1, Duration: 2, StartDate: date(2024, 1, 3), EndDate: date(2024, 1, 5)},
	}, got)
}

func TestPlan_SumAndContiguity(t *testing.T) {
	cases := [][]int{{1, 1}, {1, 3}, {3, 1}, {2, 2, 3}, {1, 1, 1, 1}, {5, 2, 6, 1}}
	for _, durations := range cases {
		total := 0
		for _, d := range durations {
			total += d
		}
		t.Run(planner.PresetName(durations), func(t *testing.T) {
			got, err := planner.Plan(date(2025, 3, 30), total, durations)
			require.NoError(t, err)

			sum := 0
			for i, s := range got {
				sum += s.Duration
				assert.Equal(t, i, s.Index)
				assert.Equal(t, s.StartDate.AddDate(0, 0, s.Duration), s.EndDate)
				if i+1 < len(got) {
					assert.Equal(t, s.EndDate, got[i+1].StartDate, "segments must be contiguous")
				}
			}
			assert.Equal(t, total, sum)
		})
	}
}

func TestPlan_NormalizesStartToMidnight(t *testing.T) {
	got, err := planner.Plan(time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC), 2, []int{1, 1})

	require.NoError(t, err)
	assert.Equal(t, date(2024, 5, 10), got[0].StartDate)
}

func TestPlan_SumMismatch(t *testing.T) {
	got, err := planner.Plan(date(2024, 1, 1), 5, []int{1, 1})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, domain.RuleSum, ruleOf(t, err))
	assert.Nil(t, got)
}

func TestPlan_ZeroDuration(t *testing.T) {
	_, err := planner.Plan(date(2024, 1, 1), 4, []int{4, 0})

	assert.Equal(t, domain.RuleMinDuration, ruleOf(t, err))
}

func TestPlan_SegmentCount(t *testing.T) {
	_, err := planner.Plan(date(2024, 1, 1), 4, []int{4})
	assert.Equal(t, domain.RuleSegmentCount, ruleOf(t, err))

	_, err = planner.Plan(date(2024, 1, 1), 5, []int{1, 1, 1, 1, 1})
	assert.Equal(t, domain.RuleSegmentCount, ruleOf(t, err))
}

func TestPlan_TripTooShort(t *testing.T) {
	_, err := planner.Plan(date(2024, 1, 1), 1, []int{1, 0})

	assert.Equal(t, domain.RuleTripLength, ruleOf(t, err))
}

// ---- Presets ---------------------------------------------------------------

func TestParsePreset(t *testing.T) {
	got, err := planner.ParsePreset(" 1 + 3 ")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, got)

	_, err = planner.ParsePreset("two+two")
	assert.Equal(t, domain.RulePreset, ruleOf(t, err))
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"1+3", "2+2", "3+1", "1+1+1+1"}, planner.Presets(4))
	assert.Equal(t, []string{"1+2", "2+1", "1+1+1"}, planner.Presets(3))
	assert.Nil(t, planner.Presets(1))
}

// ---- Regenerate ------------------------------------------------------------

func TestRegenerate_PreservesSelectionsByIndex(t *testing.T) {
	hotelA := &domain.Hotel{ID: uuid.New(), Name: "A"}
	roomA := &domain.Room{ID: uuid.New(), Hotel: hotelA}
	hotelC := &domain.Hotel{ID: uuid.New(), Name: "C"}

	prev, err := planner.Plan(date(2024, 1, 1), 6, []int{2, 2, 2})
	require.NoError(t, err)
	prev[0].Hotel, prev[0].Room = hotelA, roomA
	prev[2].Hotel = hotelC

	got, err := planner.Regenerate(prev, date(2024, 1, 1), 6, []int{3, 3})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, hotelA, got[0].Hotel)
	assert.Equal(t, roomA, got[0].Room)
	assert.Nil(t, got[1].Hotel, "segment 1 had no selection")
	assert.Equal(t, date(2024, 1, 4), got[1].StartDate)
}

func TestRegenerate_InvalidLeavesNothing(t *testing.T) {
	prev, err := planner.Plan(date(2024, 1, 1), 4, []int{2, 2})
	require.NoError(t, err)

	got, err := planner.Regenerate(prev, date(2024, 1, 1), 4, []int{1, 1})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Nil(t, got)
}

// ---- Derive ----------------------------------------------------------------

func dayWithHotel(n int, d time.Time, h *domain.Hotel) domain.TripDay {
	num := n
	day := domain.TripDay{ID: uuid.New(), DayNumber: &num, Date: d}
	if h != nil {
		day.Stay = &domain.Stay{ID: uuid.New(), Room: &domain.Room{ID: uuid.New(), Hotel: h}}
	}
	return day
}

func TestDerive_FromBookedStays(t *testing.T) {
	a := &domain.Hotel{ID: uuid.New(), Name: "A"}
	b := &domain.Hotel{ID: uuid.New(), Name: "B"}
	days := []domain.TripDay{
		dayWithHotel(3, date(2024, 1, 3), b),
		dayWithHotel(1, date(2024, 1, 1), a),
		dayWithHotel(2, date(2024, 1, 2), a),
		dayWithHotel(4, date(2024, 1, 4), b),
		dayWithHotel(5, date(2024, 1, 5), nil), // departure day
	}

	got, ok := planner.Derive(date(2024, 1, 1), 4, days)

	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Duration)
	assert.Equal(t, a.ID, got[0].Hotel.ID)
	assert.Equal(t, b.ID, got[1].Hotel.ID)
}

func TestDerive_SingleHotelIsNotASplit(t *testing.T) {
	a := &domain.Hotel{ID: uuid.New()}
	days := []domain.TripDay{
		dayWithHotel(1, date(2024, 1, 1), a),
		dayWithHotel(2, date(2024, 1, 2), a),
	}

	_, ok := planner.Derive(date(2024, 1, 1), 2, days)

	assert.False(t, ok)
}

func TestDerive_GapInTheMiddle(t *testing.T) {
	a := &domain.Hotel{ID: uuid.New()}
	b := &domain.Hotel{ID: uuid.New()}
	days := []domain.TripDay{
		dayWithHotel(1, date(2024, 1, 1), a),
		dayWithHotel(2, date(2024, 1, 2), nil),
		dayWithHotel(3, date(2024, 1, 3), b),
	}

	_, ok := planner.Derive(date(2024, 1, 1), 3, days)

	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	segs, err := planner.Plan(date(2024, 1, 1), 4, []int{1, 3})
	require.NoError(t, err)

	assert.Equal(t, "1+3 from 2024-01-01", planner.Describe(segs))
	assert.Equal(t, "no split", planner.Describe(nil))
}
