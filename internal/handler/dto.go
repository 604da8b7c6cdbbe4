package handler

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/matcher"
	"github.com/pkordes/tripproposal/internal/planner"
	"github.com/pkordes/tripproposal/internal/pricing"
	"github.com/pkordes/tripproposal/internal/service"
)

// Wire types mirror the schemas in openapi.yaml. Dates travel as
// "YYYY-MM-DD" through openapi_types.Date.

type Hotel struct {
	Id       openapi_types.UUID `json:"id"`
	Name     string             `json:"name"`
	MinPrice *float64           `json:"min_price,omitempty"`
}

type Room struct {
	Id            openapi_types.UUID `json:"id"`
	Name          string             `json:"name"`
	PriceCents    *int64             `json:"price_cents,omitempty"`
	PricePerNight *float64           `json:"price_per_night,omitempty"`
	BaseMealPlan  string             `json:"base_meal_plan,omitempty"`
	BoardBasis    string             `json:"board_basis,omitempty"`
	Hotel         *Hotel             `json:"hotel,omitempty"`
}

type Stay struct {
	Id                 openapi_types.UUID  `json:"id"`
	Room               *Room               `json:"room,omitempty"`
	CheckIn            *openapi_types.Date `json:"check_in,omitempty"`
	CheckOut           *openapi_types.Date `json:"check_out,omitempty"`
	Nights             int                 `json:"nights"`
	MealPlan           string              `json:"meal_plan"`
	PriceTotalCents    int64               `json:"price_total_cents"`
	ConfirmationStatus string              `json:"confirmation_status"`
}

type Activity struct {
	Id    openapi_types.UUID `json:"id"`
	Name  string             `json:"name"`
	Kind  string             `json:"kind"`
	Price float64            `json:"price"`
}

type TripDay struct {
	Id         openapi_types.UUID  `json:"id"`
	DayNumber  *int                `json:"day_number,omitempty"`
	Date       *openapi_types.Date `json:"date,omitempty"`
	Stay       *Stay               `json:"stay,omitempty"`
	Activities []Activity          `json:"activities"`
}

type Flight struct {
	Id          openapi_types.UUID `json:"id"`
	Description string             `json:"description"`
	Price       float64            `json:"price"`
}

type Trip struct {
	Id                openapi_types.UUID  `json:"id"`
	Name              string              `json:"name"`
	StartDate         *openapi_types.Date `json:"start_date,omitempty"`
	EndDate           *openapi_types.Date `json:"end_date,omitempty"`
	Nights            int                 `json:"nights"`
	Adults            int                 `json:"adults"`
	Children          int                 `json:"children"`
	LandMarkupPercent *float64            `json:"land_markup_percent,omitempty"`
	Currency          string              `json:"currency"`
	Days              []TripDay           `json:"days"`
	Flights           []Flight            `json:"flights"`
}

type Segment struct {
	Index     int                `json:"index"`
	Duration  int                `json:"duration"`
	StartDate openapi_types.Date `json:"start_date"`
	EndDate   openapi_types.Date `json:"end_date"`
	Hotel     *Hotel             `json:"hotel,omitempty"`
	Room      *Room              `json:"room,omitempty"`
	Bookable  bool               `json:"bookable"`
}

// SplitStay is the plan state. Durations is the draft being edited; Valid
// is false while it does not add up, in which case Segments still show the
// last valid plan.
type SplitStay struct {
	TripId    openapi_types.UUID `json:"trip_id"`
	Enabled   bool               `json:"enabled"`
	Preset    string             `json:"preset,omitempty"`
	Durations []int              `json:"durations"`
	Valid     bool               `json:"valid"`
	Segments  []Segment          `json:"segments"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
}

type Shortfall struct {
	SegmentIndex int    `json:"segment_index"`
	Phase        string `json:"phase"`
	Expected     int    `json:"expected"`
	Matched      int    `json:"matched"`
}

type ApplyResponse struct {
	Status      string                `json:"status"`
	Discarded   bool                  `json:"discarded"`
	Commands    int                   `json:"commands"`
	SkippedDays []openapi_types.UUID  `json:"skipped_days"`
	Shortfalls  []Shortfall           `json:"shortfalls"`
	Error       string                `json:"error,omitempty"`
	SplitStay   SplitStay             `json:"split_stay"`
	Trip        Trip                  `json:"trip"`
	Price       domain.PriceBreakdown `json:"price"`
}

type PresetsResponse struct {
	Presets []string `json:"presets"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// ---- requests --------------------------------------------------------------

// EnableSplitStayRequest sets the initial split. Preset wins over Durations.
type EnableSplitStayRequest struct {
	Durations []int  `json:"durations,omitempty"`
	Preset    string `json:"preset,omitempty"`
}

type ResizeSegmentRequest struct {
	Nights *int `json:"nights"`
}

type SelectionRequest struct {
	Hotel *Hotel `json:"hotel"`
	Room  *Room  `json:"room,omitempty"`
}

type CreateStayRequest struct {
	RoomId             openapi_types.UUID  `json:"room_id"`
	CheckIn            *openapi_types.Date `json:"check_in,omitempty"`
	CheckOut           *openapi_types.Date `json:"check_out,omitempty"`
	MealPlan           string              `json:"meal_plan,omitempty"`
	PriceTotalCents    int64               `json:"price_total_cents,omitempty"`
	ConfirmationStatus string              `json:"confirmation_status,omitempty"`
}

// ProposalRequest is an ad-hoc proposal priced without touching a trip.
type ProposalRequest = pricing.Proposal

// --- mapping helpers --------------------------------------------------------

func dateOrNil(t time.Time) *openapi_types.Date {
	if t.IsZero() {
		return nil
	}
	return &openapi_types.Date{Time: domain.NormalizeDate(t)}
}

func hotelToResponse(h *domain.Hotel) *Hotel {
	if h == nil {
		return nil
	}
	return &Hotel{Id: h.ID, Name: h.Name, MinPrice: h.MinPrice}
}

func roomToResponse(r *domain.Room) *Room {
	if r == nil {
		return nil
	}
	return &Room{
		Id:            r.ID,
		Name:          r.Name,
		PriceCents:    r.PriceCents,
		PricePerNight: r.PricePerNight,
		BaseMealPlan:  r.BaseMealPlan,
		BoardBasis:    r.BoardBasis,
		Hotel:         hotelToResponse(r.Hotel),
	}
}

func stayToResponse(s *domain.Stay) *Stay {
	if s == nil {
		return nil
	}
	return &Stay{
		Id:                 s.ID,
		Room:               roomToResponse(s.Room),
		CheckIn:            dateOrNil(s.CheckIn),
		CheckOut:           dateOrNil(s.CheckOut),
		Nights:             s.Nights,
		MealPlan:           s.MealPlan,
		PriceTotalCents:    s.PriceTotalCents,
		ConfirmationStatus: s.ConfirmationStatus,
	}
}

func tripToResponse(t domain.Trip) Trip {
	resp := Trip{
		Id:                t.ID,
		Name:              t.Name,
		StartDate:         dateOrNil(t.StartDate),
		EndDate:           dateOrNil(t.EndDate),
		Nights:            t.Nights(),
		Adults:            t.Adults,
		Children:          t.Children,
		LandMarkupPercent: t.LandMarkupPercent,
		Currency:          t.Currency,
		Days:              make([]TripDay, len(t.Days)),
		Flights:           make([]Flight, len(t.Flights)),
	}
	for i, d := range t.Days {
		day := TripDay{
			Id:         d.ID,
			DayNumber:  d.DayNumber,
			Date:       dateOrNil(d.Date),
			Stay:       stayToResponse(d.Stay),
			Activities: make([]Activity, len(d.Activities)),
		}
		for j, a := range d.Activities {
			day.Activities[j] = Activity{Id: a.ID, Name: a.Name, Kind: string(a.Kind), Price: a.Price}
		}
		resp.Days[i] = day
	}
	for i, f := range t.Flights {
		resp.Flights[i] = Flight{Id: f.ID, Description: f.Description, Price: f.Price}
	}
	return resp
}

func splitStayToResponse(p domain.SplitStay) SplitStay {
	resp := SplitStay{
		TripId:    p.TripID,
		Enabled:   p.Enabled,
		Durations: p.Durations,
		Segments:  make([]Segment, len(p.Segments)),
	}
	if resp.Durations == nil {
		resp.Durations = []int{}
	}
	if p.Enabled {
		resp.Preset = planner.PresetName(p.Durations)
		resp.Valid = segmentsMatch(p.Segments, p.Durations)
	}
	if !p.UpdatedAt.IsZero() {
		updated := p.UpdatedAt
		resp.UpdatedAt = &updated
	}
	for i, s := range p.Segments {
		resp.Segments[i] = Segment{
			Index:     s.Index,
			Duration:  s.Duration,
			StartDate: openapi_types.Date{Time: s.StartDate},
			EndDate:   openapi_types.Date{Time: s.EndDate},
			Hotel:     hotelToResponse(s.Hotel),
			Room:      roomToResponse(s.Room),
			Bookable:  s.Bookable(),
		}
	}
	return resp
}

// segmentsMatch reports whether the draft durations are the ones the
// current segments were planned from.
func segmentsMatch(segments []domain.Segment, durations []int) bool {
	if len(segments) != len(durations) {
		return false
	}
	for i, s := range segments {
		if s.Duration != durations[i] {
			return false
		}
	}
	return true
}

func applyToResponse(res service.ApplyResult) ApplyResponse {
	resp := ApplyResponse{
		Status:      string(res.Status),
		Discarded:   res.Discarded,
		Commands:    len(res.Batch.Commands),
		SkippedDays: make([]openapi_types.UUID, 0, len(res.Batch.Skipped)),
		Shortfalls:  shortfallsToResponse(res.Batch.Shortfalls()),
		SplitStay:   splitStayToResponse(res.Plan),
		Trip:        tripToResponse(res.Trip),
		Price:       res.Price,
	}
	resp.SkippedDays = append(resp.SkippedDays, res.Batch.Skipped...)
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	return resp
}

func shortfallsToResponse(results []matcher.Result) []Shortfall {
	out := make([]Shortfall, len(results))
	for i, r := range results {
		out[i] = Shortfall{
			SegmentIndex: r.Segment,
			Phase:        string(r.Phase),
			Expected:     r.Expected,
			Matched:      len(r.Days),
		}
	}
	return out
}

func selectionFromRequest(req SelectionRequest) service.Selection {
	var sel service.Selection
	if req.Hotel != nil {
		sel.Hotel = &domain.Hotel{ID: req.Hotel.Id, Name: req.Hotel.Name, MinPrice: req.Hotel.MinPrice}
	}
	if req.Room != nil {
		sel.Room = &domain.Room{
			ID:            req.Room.Id,
			Name:          req.Room.Name,
			PriceCents:    req.Room.PriceCents,
			PricePerNight: req.Room.PricePerNight,
			BaseMealPlan:  req.Room.BaseMealPlan,
			BoardBasis:    req.Room.BoardBasis,
		}
		if h := req.Room.Hotel; h != nil {
			sel.Room.Hotel = &domain.Hotel{ID: h.Id, Name: h.Name, MinPrice: h.MinPrice}
		}
	}
	return sel
}

func stayInputFromRequest(req CreateStayRequest) service.StayInput {
	in := service.StayInput{
		RoomID:             req.RoomId,
		MealPlan:           req.MealPlan,
		PriceTotalCents:    req.PriceTotalCents,
		ConfirmationStatus: req.ConfirmationStatus,
	}
	if req.CheckIn != nil {
		in.CheckIn = req.CheckIn.Time
	}
	if req.CheckOut != nil {
		in.CheckOut = req.CheckOut.Time
	}
	return in
}
