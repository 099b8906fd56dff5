package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/digitalboostplus/dtxent/internal/event"
)

func (s *Server) handlePublicLifestyle(w http.ResponseWriter, r *http.Request) {
	listings, err := s.lifestyle.Published(r.Context(), r.PathValue("kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Listings []event.LifestyleListing `json:"listings"`
	}{Listings: listings})
}

func (s *Server) handleAdminListLifestyle(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		writeError(w, err)
		return
	}

	listings, err := s.lifestyle.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Listings []event.LifestyleListing `json:"listings"`
	}{Listings: listings})
}

func (s *Server) handleSaveLifestyle(w http.ResponseWriter, r *http.Request) {
	actor, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var listing event.LifestyleListing
	if err := json.NewDecoder(r.Body).Decode(&listing); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}
	if id := r.PathValue("id"); id != "" {
		listing.ID = id
	}

	id, err := s.lifestyle.Save(r.Context(), actor, listing)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		ID string `json:"id"`
	}{ID: id})
}

func (s *Server) handleDeleteLifestyle(w http.ResponseWriter, r *http.Request) {
	actor, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.lifestyle.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
