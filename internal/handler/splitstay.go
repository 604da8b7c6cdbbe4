package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/service"
)

// GetSplitStay handles GET /trips/{tripID}/split-stay.
func (s *Server) GetSplitStay(w http.ResponseWriter, r *http.Request) {
	tripID, ok := uuidParam(w, r, "tripID")
	if !ok {
		return
	}
	plan, err := s.splits.Get(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, splitStayToResponse(plan))
}

// GetPresets handles GET /trips/{tripID}/split-stay/presets.
func (s *Server) GetPresets(w http.ResponseWriter, r *http.Request) {
	tripID, ok := uuidParam(w, r, "tripID")
	if !ok {
		return
	}
	presets, err := s.splits.Presets(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, PresetsResponse{Presets: presets})
}

// EnableSplitStay handles PUT /trips/{tripID}/split-stay.
// The body names either a preset ("2+2") or an explicit duration list.
func (s *Server) EnableSplitStay(w http.ResponseWriter, r *http.Request) {
	tripID, ok := uuidParam(w, r, "tripID")
	if !ok {
		return
	}
	var body EnableSplitStayRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Preset == "" && len(body.Durations) == 0 {
		requestError(w, r, http.StatusBadRequest, "preset or durations is required")
		return
	}

	plan, err := s.splits.Enable(r.Context(), tripID, service.EnableInput{
		Durations: body.Durations,
		Preset:    body.Preset,
	})
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, splitStayToResponse(plan))
}

// DisableSplitStay handles DELETE /trips/{tripID}/split-stay.
func (s *Server) DisableSplitStay(w http.ResponseWriter, r *http.Request) {
	tripID, ok := uuidParam(w, r, "tripID")
	if !ok {
		return
	}
	plan, err := s.splits.Disable(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, splitStayToResponse(plan))
}

// AddSegment handles POST /trips/{tripID}/split-stay/segments.
func (s *Server) AddSegment(w http.ResponseWriter, r *http.Request) {
	tripID, ok := uuidParam(w, r, "tripID")
	if !ok {
		return
	}
	plan, err := s.splits.AddSegment(r.Context(), tripID)
	s.writeEdit(w, r, plan, err)
}

// RemoveSegment handles DELETE /trips/{tripID}/split-stay/segments/{index}.
func (s *Server) RemoveSegment(w http.ResponseWriter, r *http.Request) {
	tripID, ok := uuidParam(w, r, "tripID")
	if !ok {
		return
	}
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	plan, err := s.splits.RemoveSegment(r.Context(), tripID, index)
	s.writeEdit(w, r, plan, err)
}

// ResizeSegment handles PATCH /trips/{tripID}/split-stay/segments/{index}.
func (s *Server) ResizeSegment(w http.ResponseWriter, r *http.Request) {
	tripID, ok := uuidParam(w, r, "tripID")
	if !ok {
		return
	}
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var body ResizeSegmentRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Nights == nil {
		requestError(w, r, http.StatusBadRequest, "nights is required")
		return
	}
	plan, err := s.splits.ResizeSegment(r.Context(), tripID, index, *body.Nights)
	s.writeEdit(w, r, plan, err)
}

// SelectSegment handles PUT /trips/{tripID}/split-stay/segments/{index}/selection.
// A body without a hotel clears the segment's selection.
func (s *Server) SelectSegment(w http.ResponseWriter, r *http.Request) {
	tripID, ok := uuidParam(w, r, "tripID")
	if !ok {
		return
	}
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var body SelectionRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	plan, err := s.splits.Select(r.Context(), tripID, index, selectionFromRequest(body))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, splitStayToResponse(plan))
}

// ApplySplitStay handles POST /trips/{tripID}/split-stay/apply.
// A failed submission that was recovered by a re-fetch still answers 200:
// the body reports status "failed" with the error, alongside the fresh trip.
func (s *Server) ApplySplitStay(w http.ResponseWriter, r *http.Request) {
	tripID, ok := uuidParam(w, r, "tripID")
	if !ok {
		return
	}
	res, err := s.splits.Apply(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, applyToResponse(res))
}

// writeEdit answers a draft edit. A validation failure is 422 but still
// carries the stored plan, because the edited draft is kept.
func (s *Server) writeEdit(w http.ResponseWriter, r *http.Request, plan domain.SplitStay, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, splitStayToResponse(plan))
		return
	}
	if errors.Is(err, domain.ErrValidation) && plan.TripID != uuid.Nil {
		resp := splitStayToResponse(plan)
		s.writeError(w, r, err, &resp)
		return
	}
	s.writeError(w, r, err, nil)
}
