package httpapi

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleSiteConfig(w http.ResponseWriter, r *http.Request) {
	sections, err := s.siteCfg.Load(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

func (s *Server) handleGetConfigSection(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		writeError(w, err)
		return
	}

	fields, err := s.siteCfg.Get(r.Context(), r.PathValue("section"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

func (s *Server) handleSaveConfigSection(w http.ResponseWriter, r *http.Request) {
	actor, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	if err := s.siteCfg.Save(r.Context(), actor, r.PathValue("section"), fields); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
