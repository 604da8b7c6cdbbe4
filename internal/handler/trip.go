package handler

import (
	"net/http"
)

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID, ok := uuidParam(w, r, "tripID")
	if !ok {
		return
	}
	trip, err := s.trips.Get(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// RefreshTrip handles POST /trips/{tripID}/refresh.
// The local snapshot is replaced by a full re-fetch from the trip store.
func (s *Server) RefreshTrip(w http.ResponseWriter, r *http.Request) {
	tripID, ok := uuidParam(w, r, "tripID")
	if !ok {
		return
	}
	trip, err := s.trips.Refresh(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// GetTripPrice handles GET /trips/{tripID}/price.
func (s *Server) GetTripPrice(w http.ResponseWriter, r *http.Request) {
	tripID, ok := uuidParam(w, r, "tripID")
	if !ok {
		return
	}
	price, err := s.trips.Price(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, price)
}

// CreateStay handles POST /trips/{tripID}/days/{dayID}/stay.
func (s *Server) CreateStay(w http.ResponseWriter, r *http.Request) {
	tripID, ok := uuidParam(w, r, "tripID")
	if !ok {
		return
	}
	dayID, ok := uuidParam(w, r, "dayID")
	if !ok {
		return
	}
	var body CreateStayRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	trip, err := s.trips.CreateStay(r.Context(), tripID, dayID, stayInputFromRequest(body))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(trip))
}

// DeleteStay handles DELETE /trips/{tripID}/stays/{stayID}.
// It returns the trip as it stands after the stay is gone.
func (s *Server) DeleteStay(w http.ResponseWriter, r *http.Request) {
	tripID, ok := uuidParam(w, r, "tripID")
	if !ok {
		return
	}
	stayID, ok := uuidParam(w, r, "stayID")
	if !ok {
		return
	}
	trip, err := s.trips.DeleteStay(r.Context(), tripID, stayID)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// PriceProposal handles POST /pricing/breakdown.
func (s *Server) PriceProposal(w http.ResponseWriter, r *http.Request) {
	var body ProposalRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	price, err := s.trips.PriceProposal(body)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, price)
}
