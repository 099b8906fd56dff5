package httpapi

import (
	"net/http"
)

// handleTicketingLookup proxies a Discovery lookup for one event. Results are
// served from the TTL cache when fresh.
func (s *Server) handleTicketingLookup(w http.ResponseWriter, r *http.Request) {
	details, err := s.ticketing.EventDetails(r.Context(), r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, details)
}
