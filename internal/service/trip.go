// Package service contains the business logic of the proposal engine.
// Services validate inputs, enforce business rules, and orchestrate the
// reconciler, the plan cache, and the price calculator.
// No SQL lives here; services depend on interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/pricing"
	"github.com/pkordes/tripproposal/internal/reconcile"
)

// TripReconciler is the part of *reconcile.Reconciler the services use.
type TripReconciler interface {
	Snapshot(ctx context.Context, tripID uuid.UUID) (domain.Trip, error)
	Refresh(ctx context.Context, tripID uuid.UUID) (domain.Trip, error)
	Apply(ctx context.Context, tripID uuid.UUID, segments []domain.Segment) (reconcile.Outcome, error)
	CreateStay(ctx context.Context, tripID uuid.UUID, cmd domain.StayCommand) (domain.Trip, error)
	DeleteStay(ctx context.Context, tripID, stayID uuid.UUID) (domain.Trip, error)
}

var _ TripReconciler = (*reconcile.Reconciler)(nil)

// TripService serves trip snapshots, single-stay edits, and prices.
type TripService struct {
	trips TripReconciler
}

// NewTripService constructs a TripService backed by the reconciler.
func NewTripService(trips TripReconciler) *TripService {
	return &TripService{trips: trips}
}

// Get returns the current local snapshot of a trip.
func (s *TripService) Get(ctx context.Context, tripID uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.Snapshot(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Get: %w", err)
	}
	return trip, nil
}

// Refresh discards the local snapshot in favour of a full re-fetch.
func (s *TripService) Refresh(ctx context.Context, tripID uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.Refresh(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Refresh: %w", err)
	}
	return trip, nil
}

// Price computes the breakdown of the trip as currently booked.
func (s *TripService) Price(ctx context.Context, tripID uuid.UUID) (domain.PriceBreakdown, error) {
	trip, err := s.trips.Snapshot(ctx, tripID)
	if err != nil {
		return domain.PriceBreakdown{}, fmt.Errorf("service.TripService.Price: %w", err)
	}
	return pricing.Calculate(pricing.FromTrip(trip)), nil
}

// PriceProposal prices line items that are not stored anywhere.
// Returns domain.ErrValidation for negative quantities or prices.
func (s *TripService) PriceProposal(p pricing.Proposal) (domain.PriceBreakdown, error) {
	if err := validateProposal(p); err != nil {
		return domain.PriceBreakdown{}, err
	}
	return pricing.Calculate(p), nil
}

// StayInput is a single-day booking outside of a split-stay plan.
type StayInput struct {
	RoomID             uuid.UUID
	CheckIn            time.Time // zero means the day's date
	CheckOut           time.Time // zero means one night after CheckIn
	MealPlan           string
	PriceTotalCents    int64
	ConfirmationStatus string
}

// CreateStay books one day of the trip.
// Returns domain.ErrNotFound if the day is not part of the trip.
func (s *TripService) CreateStay(ctx context.Context, tripID, dayID uuid.UUID, in StayInput) (domain.Trip, error) {
	trip, err := s.trips.Snapshot(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.CreateStay: %w", err)
	}
	day, ok := trip.Day(dayID)
	if !ok {
		return domain.Trip{}, fmt.Errorf("service.TripService.CreateStay: day %s: %w", dayID, domain.ErrNotFound)
	}

	cmd, err := stayCommand(day, in)
	if err != nil {
		return domain.Trip{}, err
	}
	trip, err = s.trips.CreateStay(ctx, tripID, cmd)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.CreateStay: %w", err)
	}
	return trip, nil
}

// DeleteStay removes a stay from the trip.
func (s *TripService) DeleteStay(ctx context.Context, tripID, stayID uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.DeleteStay(ctx, tripID, stayID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.DeleteStay: %w", err)
	}
	return trip, nil
}

// stayCommand validates a single-stay input.
func stayCommand(day domain.TripDay, in StayInput) (domain.StayCommand, error) {
	if in.RoomID == uuid.Nil {
		return domain.StayCommand{}, domain.NewValidationError(domain.RuleSelection, "room_id is required")
	}
	if in.PriceTotalCents < 0 {
		return domain.StayCommand{}, domain.NewValidationError(domain.RuleSelection, "price_total_cents must not be negative")
	}
	switch in.ConfirmationStatus {
	case "", domain.ConfirmationPending, domain.ConfirmationConfirmed, domain.ConfirmationCancelled:
	default:
		return domain.StayCommand{}, domain.NewValidationError(domain.RuleSelection,
			"unknown confirmation_status %q", in.ConfirmationStatus)
	}

	checkIn := in.CheckIn
	if checkIn.IsZero() {
		checkIn = day.Date
	}
	if checkIn.IsZero() {
		return domain.StayCommand{}, domain.NewValidationError(domain.RuleSelection, "check_in is required for an undated day")
	}
	checkOut := in.CheckOut
	if checkOut.IsZero() {
		checkOut = checkIn.AddDate(0, 0, 1)
	}
	nights := domain.DaysBetween(checkIn, checkOut)
	if nights < 1 {
		return domain.StayCommand{}, domain.NewValidationError(domain.RuleSelection, "check_out must be after check_in")
	}

	status := in.ConfirmationStatus
	if status == "" {
		status = domain.ConfirmationPending
	}
	mealPlan := in.MealPlan
	if mealPlan == "" {
		mealPlan = domain.DefaultMealPlan
	}
	return domain.StayCommand{
		DayID:              day.ID,
		RoomID:             in.RoomID,
		CheckIn:            domain.NormalizeDate(checkIn),
		CheckOut:           domain.NormalizeDate(checkOut),
		Nights:             nights,
		MealPlan:           mealPlan,
		PriceTotalCents:    in.PriceTotalCents,
		ConfirmationStatus: status,
	}, nil
}

func validateProposal(p pricing.Proposal) error {
	if p.Adults < 0 || p.Children < 0 {
		return fmt.Errorf("%w: traveller counts must not be negative", domain.ErrValidation)
	}
	for i, h := range p.Hotels {
		if h.Nights < 0 || h.PricePerNight < 0 {
			return fmt.Errorf("%w: hotel %d: nights and price must not be negative", domain.ErrValidation, i)
		}
	}
	for i, f := range p.Flights {
		if f.Price < 0 {
			return fmt.Errorf("%w: flight %d: price must not be negative", domain.ErrValidation, i)
		}
	}
	return nil
}
