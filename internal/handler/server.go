// Package handler implements the HTTP API of the proposal engine.
// All handlers are methods on Server; routes are registered on a chi router
// by Routes. Methods are split into domain-specific files (health.go,
// trip.go, splitstay.go) but share the same Server struct so they can
// access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/pricing"
	"github.com/pkordes/tripproposal/internal/service"
)

// TripServicer defines the trip operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the reconciler or a store.
type TripServicer interface {
	Get(ctx context.Context, tripID uuid.UUID) (domain.Trip, error)
	Refresh(ctx context.Context, tripID uuid.UUID) (domain.Trip, error)
	Price(ctx context.Context, tripID uuid.UUID) (domain.PriceBreakdown, error)
	PriceProposal(p pricing.Proposal) (domain.PriceBreakdown, error)
	CreateStay(ctx context.Context, tripID, dayID uuid.UUID, in service.StayInput) (domain.Trip, error)
	DeleteStay(ctx context.Context, tripID, stayID uuid.UUID) (domain.Trip, error)
}

// SplitStayServicer defines the split-stay operations the handlers depend on.
type SplitStayServicer interface {
	Get(ctx context.Context, tripID uuid.UUID) (domain.SplitStay, error)
	Presets(ctx context.Context, tripID uuid.UUID) ([]string, error)
	Enable(ctx context.Context, tripID uuid.UUID, in service.EnableInput) (domain.SplitStay, error)
	Disable(ctx context.Context, tripID uuid.UUID) (domain.SplitStay, error)
	AddSegment(ctx context.Context, tripID uuid.UUID) (domain.SplitStay, error)
	RemoveSegment(ctx context.Context, tripID uuid.UUID, index int) (domain.SplitStay, error)
	ResizeSegment(ctx context.Context, tripID uuid.UUID, index, nights int) (domain.SplitStay, error)
	Select(ctx context.Context, tripID uuid.UUID, index int, sel service.Selection) (domain.SplitStay, error)
	Apply(ctx context.Context, tripID uuid.UUID) (service.ApplyResult, error)
}

var (
	_ TripServicer      = (*service.TripService)(nil)
	_ SplitStayServicer = (*service.SplitStayService)(nil)
)

// Server serves every API endpoint.
type Server struct {
	trips   TripServicer
	splits  SplitStayServicer
	openapi []byte
	log     *slog.Logger
}

// NewServer constructs the Server with all its dependencies. openapi is the
// document served at /openapi.yaml; a nil logger falls back to slog.Default().
func NewServer(trips TripServicer, splits SplitStayServicer, openapi []byte, log *slog.Logger) *Server {
	return &Server{trips: trips, splits: splits, openapi: openapi, log: logger(log)}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil)
}

// Routes registers every endpoint on a fresh chi router. Cross-cutting
// middleware (request ID, logging, CORS, body limits) is applied by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/trips/{tripID}", func(r chi.Router) {
		if s.trips != nil {
			r.Get("/", s.GetTrip)
			r.Post("/refresh", s.RefreshTrip)
			r.Get("/price", s.GetTripPrice)
			r.Post("/days/{dayID}/stay", s.CreateStay)
			r.Delete("/stays/{stayID}", s.DeleteStay)
		}
		if s.splits != nil {
			r.Route("/split-stay", func(r chi.Router) {
				r.Get("/", s.GetSplitStay)
				r.Put("/", s.EnableSplitStay)
				r.Delete("/", s.DisableSplitStay)
				r.Get("/presets", s.GetPresets)
				r.Post("/apply", s.ApplySplitStay)
				r.Post("/segments", s.AddSegment)
				r.Delete("/segments/{index}", s.RemoveSegment)
				r.Patch("/segments/{index}", s.ResizeSegment)
				r.Put("/segments/{index}/selection", s.SelectSegment)
			})
		}
	})
	if s.trips != nil {
		r.Post("/pricing/breakdown", s.PriceProposal)
	}
	return r
}
