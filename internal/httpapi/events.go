package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/digitalboostplus/dtxent/internal/admin"
	"github.com/digitalboostplus/dtxent/internal/feed"
	"github.com/digitalboostplus/dtxent/internal/filter"
	"github.com/digitalboostplus/dtxent/internal/render"
)

// maxUploadSize caps event artwork uploads.
const maxUploadSize = 10 << 20

type eventsResponse struct {
	Events []render.Card   `json:"events"`
	Source string          `json:"source"`
	Venues []string        `json:"venues"`
	Schema render.ItemList `json:"schema"`
}

// handlePublicEvents serves the published upcoming cards plus the embedded
// metadata. Filter parameters come from the query string; facets always
// derive from the unfiltered list.
func (s *Server) handlePublicEvents(w http.ResponseWriter, r *http.Request) {
	events := s.feed.Events()

	q := r.URL.Query()
	state := filter.State{
		Search:   q.Get("search"),
		Status:   filter.StatusPublished,
		Venue:    q.Get("venue"),
		DateFrom: q.Get("from"),
		DateTo:   q.Get("to"),
		Sort:     q.Get("sort"),
	}
	subset := filter.Apply(events, state)
	set := render.BuildCardSet(subset, s.now())

	source := "local"
	if s.feed.RemoteActive() {
		source = "remote"
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Events: set.Cards(),
		Source: source,
		Venues: filter.Venues(events),
		Schema: set.Meta(),
	})
}

type adminEventsResponse struct {
	Events []render.Card `json:"events"`
	Venues []string      `json:"venues"`
}

func (s *Server) handleAdminListEvents(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		writeError(w, err)
		return
	}

	events, err := s.events.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	state := filter.State{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		Venue:    q.Get("venue"),
		DateFrom: q.Get("from"),
		DateTo:   q.Get("to"),
		Sort:     q.Get("sort"),
	}
	subset := filter.Apply(events, state)
	set := render.BuildCardSet(subset, s.now())

	writeJSON(w, http.StatusOK, adminEventsResponse{
		Events: set.Cards(),
		Venues: filter.Venues(events),
	})
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		writeError(w, err)
		return
	}

	events, err := s.events.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, filter.Summarize(events, s.now(), feed.GraceWindow))
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		writeError(w, err)
		return
	}

	ev, err := s.events.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	actor, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	fields, upload, err := parseEventForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	id, err := s.events.Create(r.Context(), actor, fields, upload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		ID string `json:"id"`
	}{ID: id})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	actor, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	fields, upload, err := parseEventForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.events.Update(r.Context(), actor, r.PathValue("id"), fields, upload); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	actor, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.events.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTogglePublish(w http.ResponseWriter, r *http.Request) {
	actor, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	published, err := s.events.TogglePublish(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		IsPublished bool `json:"isPublished"`
	}{IsPublished: published})
}

type bulkRequest struct {
	IDs []string `json:"ids"`
}

type bulkDeleteResponse struct {
	admin.Outcome
	Selection []string `json:"selection"`
}

// handleBulkDelete deletes the posted selection. Repeated ids collapse to one
// delete each. The response carries the surviving selection: deleted ids are
// gone from it, failed ids stay selected so the client can retry them.
func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	actor, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	sel := admin.NewSelection()
	sel.SelectAll(req.IDs)

	outcome, err := s.events.BulkDelete(r.Context(), actor, sel.IDs())
	if err != nil {
		writeError(w, err)
		return
	}
	for _, id := range sel.IDs() {
		if _, failed := outcome.Errors[id]; !failed {
			sel.Remove(id)
		}
	}
	writeJSON(w, http.StatusOK, bulkDeleteResponse{Outcome: outcome, Selection: sel.IDs()})
}

func (s *Server) handleBulkPublish(w http.ResponseWriter, r *http.Request) {
	actor, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		IDs         []string `json:"ids"`
		IsPublished bool     `json:"isPublished"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	sel := admin.NewSelection()
	sel.SelectAll(req.IDs)

	outcome, err := s.events.BulkSetPublished(r.Context(), actor, sel.IDs(), req.IsPublished)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// parseEventForm accepts either a JSON body or multipart form data with an
// optional image file part. The multipart "event" field carries the record's
// JSON fields.
func parseEventForm(r *http.Request) (map[string]any, *admin.Upload, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			return nil, nil, err
		}
		return fields, nil, nil
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, nil, err
	}

	var fields map[string]any
	if raw := r.FormValue("event"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, nil, err
		}
	} else {
		fields = make(map[string]any)
	}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return fields, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		return nil, nil, err
	}
	return fields, &admin.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
