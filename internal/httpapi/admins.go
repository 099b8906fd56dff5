package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/digitalboostplus/dtxent/internal/event"
)

type adminUserRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		writeError(w, err)
		return
	}

	users, err := s.admins.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Admins []event.AdminUser `json:"admins"`
	}{Admins: users})
}

func (s *Server) handleAddAdmin(w http.ResponseWriter, r *http.Request) {
	actor, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req adminUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	if err := s.admins.Add(r.Context(), actor, req.Email, event.Role(req.Role)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleSetAdminRole(w http.ResponseWriter, r *http.Request) {
	actor, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	if err := s.admins.SetRole(r.Context(), actor, r.PathValue("email"), event.Role(req.Role)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveAdmin(w http.ResponseWriter, r *http.Request) {
	actor, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.admins.Remove(r.Context(), actor, r.PathValue("email")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
