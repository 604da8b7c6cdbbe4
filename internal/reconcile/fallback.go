package reconcile

import (
	"math"

	"github.com/pkordes/tripproposal/internal/domain"
)

// MealPlanSource yields a meal plan for a segment's selection, if it has one.
type MealPlanSource func(seg domain.Segment) (string, bool)

// NightlyPriceSource yields a per-night price in cents, if it has one.
type NightlyPriceSource func(seg domain.Segment) (int64, bool)

// MealPlanChain is evaluated in order; the first source that answers wins.
var MealPlanChain = []MealPlanSource{
	roomBaseMealPlan,
	roomBoardBasis,
	func(domain.Segment) (string, bool) { return domain.DefaultMealPlan, true },
}

// NightlyPriceChain is evaluated in order; the first source that answers wins.
var NightlyPriceChain = []NightlyPriceSource{
	roomPriceCents,
	roomPricePerNight,
	hotelMinPrice,
}

// MealPlan resolves the meal plan for a segment's room.
func MealPlan(seg domain.Segment) string {
	for _, src := range MealPlanChain {
		if v, ok := src(seg); ok {
			return v
		}
	}
	return domain.DefaultMealPlan
}

// NightlyPriceCents resolves the per-night price of a segment's room in cents.
// It returns 0 when no source has a price.
func NightlyPriceCents(seg domain.Segment) int64 {
	for _, src := range NightlyPriceChain {
		if v, ok := src(seg); ok {
			return v
		}
	}
	return 0
}

// TotalPriceCents is the nightly price times the segment duration.
func TotalPriceCents(seg domain.Segment) int64 {
	return NightlyPriceCents(seg) * int64(seg.Duration)
}

func roomBaseMealPlan(seg domain.Segment) (string, bool) {
	if seg.Room == nil || seg.Room.BaseMealPlan == "" {
		return "", false
	}
	return seg.Room.BaseMealPlan, true
}

func roomBoardBasis(seg domain.Segment) (string, bool) {
	if seg.Room == nil || seg.Room.BoardBasis == "" {
		return "", false
	}
	return seg.Room.BoardBasis, true
}

func roomPriceCents(seg domain.Segment) (int64, bool) {
	if seg.Room == nil || seg.Room.PriceCents == nil || *seg.Room.PriceCents <= 0 {
		return 0, false
	}
	return *seg.Room.PriceCents, true
}

func roomPricePerNight(seg domain.Segment) (int64, bool) {
	if seg.Room == nil || seg.Room.PricePerNight == nil || *seg.Room.PricePerNight <= 0 {
		return 0, false
	}
	return toCents(*seg.Room.PricePerNight), true
}

func hotelMinPrice(seg domain.Segment) (int64, bool) {
	hotel := seg.Hotel
	if hotel == nil && seg.Room != nil {
		hotel = seg.Room.Hotel
	}
	if hotel == nil || hotel.MinPrice == nil || *hotel.MinPrice <= 0 {
		return 0, false
	}
	return toCents(*hotel.MinPrice), true
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
