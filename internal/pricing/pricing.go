// Package pricing computes the price breakdown of a proposal. The formula is
// fixed: a 10% tax and the agency's land markup on top of the subtotal, split
// evenly across travellers with children paying 70% of the adult share.
package pricing

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/pkg/currency"
)

const (
	// TaxRate applies to the subtotal.
	TaxRate = 0.10
	// ChildShare is the fraction of the adult price a child pays.
	ChildShare = 0.70
)

// HotelLine is one priced hotel booking.
type HotelLine struct {
	Name          string  `json:"name,omitempty"`
	PricePerNight float64 `json:"price_per_night"`
	Nights        int     `json:"nights"`
}

// FlightLine is a flat-priced flight.
type FlightLine struct {
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

// DayLine carries the priced activities and transfers of one day.
type DayLine struct {
	Activities []float64 `json:"activities"`
}

// Proposal is everything the calculator needs. It can be built from a trip
// snapshot with FromTrip or supplied directly.
type Proposal struct {
	Hotels            []HotelLine  `json:"hotels"`
	Flights           []FlightLine `json:"flights"`
	Days              []DayLine    `json:"days"`
	Adults            int          `json:"adults"`
	Children          int          `json:"children"`
	LandMarkupPercent *float64     `json:"land_markup_percent,omitempty"`
	Currency          string       `json:"currency,omitempty"`
}

// Calculate prices a proposal. Each amount is rounded to cents after it is
// computed from unrounded inputs.
func Calculate(p Proposal) domain.PriceBreakdown {
	var subtotal float64
	for _, h := range p.Hotels {
		subtotal += h.PricePerNight * float64(h.Nights)
	}
	for _, f := range p.Flights {
		subtotal += f.Price
	}
	for _, d := range p.Days {
		for _, a := range d.Activities {
			subtotal += a
		}
	}

	markupPercent := 0.0
	if p.LandMarkupPercent != nil {
		markupPercent = *p.LandMarkupPercent
	}

	taxes := subtotal * TaxRate
	markup := subtotal * (markupPercent / 100)
	total := subtotal + taxes + markup

	var perAdult float64
	if travellers := p.Adults + p.Children; travellers > 0 {
		perAdult = total / float64(travellers)
	}
	perChild := perAdult * ChildShare

	code := p.Currency
	if code == "" {
		code = domain.DefaultCurrency
	}

	b := domain.PriceBreakdown{
		Subtotal:      roundCents(subtotal),
		Taxes:         roundCents(taxes),
		Markup:        roundCents(markup),
		Total:         roundCents(total),
		PricePerAdult: roundCents(perAdult),
		PricePerChild: roundCents(perChild),
		Currency:      code,
	}
	b.Formatted = map[string]string{
		"subtotal":        currency.Format(b.Subtotal, code),
		"taxes":           currency.Format(b.Taxes, code),
		"markup":          currency.Format(b.Markup, code),
		"total":           currency.Format(b.Total, code),
		"price_per_adult": currency.Format(b.PricePerAdult, code),
		"price_per_child": currency.Format(b.PricePerChild, code),
	}
	return b
}

// FromTrip derives a proposal from a trip snapshot: one hotel line per
// booking, every flight, and every activity of every day.
//
// A multi-night booking reaches the snapshot either as one stay repeated on
// each of its days or as one stay record per day carrying the same room,
// dates and total. Both are counted once.
func FromTrip(trip domain.Trip) Proposal {
	p := Proposal{
		Adults:            trip.Adults,
		Children:          trip.Children,
		LandMarkupPercent: trip.LandMarkupPercent,
		Currency:          trip.Currency,
	}

	seen := make(map[bookingKey]bool)
	for _, d := range trip.Days {
		if st := d.Stay; st != nil {
			if key := keyOf(st); !seen[key] {
				seen[key] = true
				p.Hotels = append(p.Hotels, hotelLine(st))
			}
		}
		line := DayLine{Activities: make([]float64, 0, len(d.Activities))}
		for _, a := range d.Activities {
			line.Activities = append(line.Activities, a.Price)
		}
		p.Days = append(p.Days, line)
	}
	for _, f := range trip.Flights {
		p.Flights = append(p.Flights, FlightLine{Description: f.Description, Price: f.Price})
	}
	return p
}

// bookingKey identifies one hotel booking across the days it covers.
type bookingKey struct {
	stay     uuid.UUID
	room     uuid.UUID
	checkIn  time.Time
	checkOut time.Time
}

// keyOf groups dated stays by room and dates. Undated stays cannot be told
// apart from single-night bookings, so they keep their own identity.
func keyOf(st *domain.Stay) bookingKey {
	if st.CheckIn.IsZero() || st.CheckOut.IsZero() {
		return bookingKey{stay: st.ID}
	}
	key := bookingKey{
		checkIn:  domain.NormalizeDate(st.CheckIn),
		checkOut: domain.NormalizeDate(st.CheckOut),
	}
	if st.Room != nil {
		key.room = st.Room.ID
	}
	return key
}

// hotelLine prices a stay from its stored total. Stays without a night count
// are treated as one night so the total is still counted.
func hotelLine(st *domain.Stay) HotelLine {
	nights := st.Nights
	if nights < 1 {
		nights = 1
	}
	line := HotelLine{
		PricePerNight: float64(st.PriceTotalCents) / float64(nights) / 100,
		Nights:        nights,
	}
	if st.Room != nil && st.Room.Hotel != nil {
		line.Name = st.Room.Hotel.Name
	}
	return line
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
