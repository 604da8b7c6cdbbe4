package pricing_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/pricing"
)

func ptr[T any](v T) *T { return &v }

func TestCalculate_HotelWithMarkup(t *testing.T) {
	got := pricing.Calculate(pricing.Proposal{
		Hotels:            []pricing.HotelLine{{PricePerNight: 100, Nights: 2}},
		Adults:            2,
		LandMarkupPercent: ptr(10.0),
	})

	assert.Equal(t, 200.0, got.Subtotal)
	assert.Equal(t, 20.0, got.Taxes)
	assert.Equal(t, 20.0, got.Markup)
	assert.Equal(t, 240.0, got.Total)
	assert.Equal(t, 120.0, got.PricePerAdult)
	assert.Equal(t, 84.0, got.PricePerChild)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, "$240.00", got.Formatted["total"])
}

func TestCalculate_ChildPaysSeventyPercent(t *testing.T) {
	// A flight of 90.91 gives a total of 100.00 after tax and no markup.
	got := pricing.Calculate(pricing.Proposal{
		Flights:  []pricing.FlightLine{{Price: 1000.0 / 11}},
		Adults:   1,
		Children: 1,
	})

	assert.Equal(t, 100.0, got.Total)
	assert.Equal(t, 50.0, got.PricePerAdult)
	assert.Equal(t, 35.0, got.PricePerChild)
}

func TestCalculate_AllLineKinds(t *testing.T) {
	got := pricing.Calculate(pricing.Proposal{
		Hotels:  []pricing.HotelLine{{PricePerNight: 80, Nights: 3}, {PricePerNight: 120, Nights: 1}},
		Flights: []pricing.FlightLine{{Price: 300}},
		Days:    []pricing.DayLine{{Activities: []float64{25, 15}}, {}},
		Adults:  2,
	})

	assert.Equal(t, 700.0, got.Subtotal)
	assert.Equal(t, 70.0, got.Taxes)
	assert.Equal(t, 0.0, got.Markup)
	assert.Equal(t, 770.0, got.Total)
}

func TestCalculate_NoTravellers(t *testing.T) {
	got := pricing.Calculate(pricing.Proposal{Hotels: []pricing.HotelLine{{PricePerNight: 100, Nights: 1}}})

	assert.Equal(t, 110.0, got.Total)
	assert.Zero(t, got.PricePerAdult)
	assert.Zero(t, got.PricePerChild)
}

func TestCalculate_RoundsToCents(t *testing.T) {
	got := pricing.Calculate(pricing.Proposal{
		Flights: []pricing.FlightLine{{Price: 10}},
		Adults:  3,
	})

	assert.Equal(t, 11.0, got.Total)
	assert.Equal(t, 3.67, got.PricePerAdult)
	assert.Equal(t, 2.57, got.PricePerChild)
}

func TestCalculate_Empty(t *testing.T) {
	got := pricing.Calculate(pricing.Proposal{Currency: "EUR"})

	assert.Zero(t, got.Total)
	assert.Equal(t, "€0,00", got.Formatted["total"])
}

func TestFromTrip(t *testing.T) {
	hotel := &domain.Hotel{ID: uuid.New(), Name: "Harbour View"}
	shared := &domain.Stay{ID: uuid.New(), Nights: 2, PriceTotalCents: 20000, Room: &domain.Room{Hotel: hotel}}
	trip := domain.Trip{
		Adults:            2,
		LandMarkupPercent: ptr(10.0),
		Currency:          "USD",
		Days: []domain.TripDay{
			{ID: uuid.New(), Stay: shared},
			{ID: uuid.New(), Stay: shared},
			{ID: uuid.New(), Activities: []domain.Activity{{Price: 40, Kind: domain.ActivityKindTransfer}}},
		},
		Flights: []domain.Flight{{Description: "LIS-OPO", Price: 60}},
	}

	p := pricing.FromTrip(trip)

	assert.Equal(t, []pricing.HotelLine{{Name: "Harbour View", PricePerNight: 100, Nights: 2}}, p.Hotels)
	assert.Len(t, p.Days, 3)
	assert.Equal(t, []float64{40}, p.Days[2].Activities)

	got := pricing.Calculate(p)
	assert.Equal(t, 300.0, got.Subtotal)
	assert.Equal(t, 360.0, got.Total)
}

func TestFromTrip_PerDayStaysCountOnce(t *testing.T) {
	room := &domain.Room{ID: uuid.New(), Hotel: &domain.Hotel{ID: uuid.New(), Name: "Harbour View"}}
	in := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := in.AddDate(0, 0, 2)
	// The stores keep one stay record per night of a booking.
	perDay := func() *domain.Stay {
		return &domain.Stay{ID: uuid.New(), Room: room, CheckIn: in, CheckOut: out, Nights: 2, PriceTotalCents: 20000}
	}
	trip := domain.Trip{
		Adults: 2,
		Days: []domain.TripDay{
			{ID: uuid.New(), Stay: perDay()},
			{ID: uuid.New(), Stay: perDay()},
		},
	}

	p := pricing.FromTrip(trip)

	assert.Equal(t, []pricing.HotelLine{{Name: "Harbour View", PricePerNight: 100, Nights: 2}}, p.Hotels)
	assert.Equal(t, 200.0, pricing.Calculate(p).Subtotal)
}

func TestFromTrip_SameRoomDifferentDatesAreSeparateBookings(t *testing.T) {
	room := &domain.Room{ID: uuid.New(), Hotel: &domain.Hotel{ID: uuid.New(), Name: "Harbour View"}}
	first := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	second := first.AddDate(0, 0, 1)
	trip := domain.Trip{
		Adults: 1,
		Days: []domain.TripDay{
			{ID: uuid.New(), Stay: &domain.Stay{ID: uuid.New(), Room: room, CheckIn: first, CheckOut: second, Nights: 1, PriceTotalCents: 10000}},
			{ID: uuid.New(), Stay: &domain.Stay{ID: uuid.New(), Room: room, CheckIn: second, CheckOut: second.AddDate(0, 0, 1), Nights: 1, PriceTotalCents: 10000}},
		},
	}

	p := pricing.FromTrip(trip)

	assert.Len(t, p.Hotels, 2)
	assert.Equal(t, 200.0, pricing.Calculate(p).Subtotal)
}

func TestFromTrip_StayWithoutNights(t *testing.T) {
	trip := domain.Trip{Days: []domain.TripDay{{Stay: &domain.Stay{ID: uuid.New(), PriceTotalCents: 5000}}}}

	p := pricing.FromTrip(trip)

	assert.Equal(t, 50.0, pricing.Calculate(p).Subtotal)
}
