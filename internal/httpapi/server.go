package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/digitalboostplus/dtxent/internal/admin"
	"github.com/digitalboostplus/dtxent/internal/auth"
	"github.com/digitalboostplus/dtxent/internal/docstore"
	"github.com/digitalboostplus/dtxent/internal/event"
	"github.com/digitalboostplus/dtxent/internal/metrics"
	"github.com/digitalboostplus/dtxent/internal/ticketing"
)

// FeedStore exposes the displayed event list.
type FeedStore interface {
	Events() []event.Event
	RemoteActive() bool
}

// EventAdmin captures the mutation operations needed by the HTTP handlers.
type EventAdmin interface {
	List(ctx context.Context) ([]event.Event, error)
	Get(ctx context.Context, id string) (event.Event, error)
	Create(ctx context.Context, actor admin.Actor, fields map[string]any, upload *admin.Upload) (string, error)
	Update(ctx context.Context, actor admin.Actor, id string, fields map[string]any, upload *admin.Upload) error
	Delete(ctx context.Context, actor admin.Actor, id string) error
	TogglePublish(ctx context.Context, actor admin.Actor, id string) (bool, error)
	BulkDelete(ctx context.Context, actor admin.Actor, ids []string) (admin.Outcome, error)
	BulkSetPublished(ctx context.Context, actor admin.Actor, ids []string, published bool) (admin.Outcome, error)
}

// AdminUsers manages the admins collection.
type AdminUsers interface {
	List(ctx context.Context) ([]event.AdminUser, error)
	Add(ctx context.Context, actor admin.Actor, email string, role event.Role) error
	SetRole(ctx context.Context, actor admin.Actor, email string, role event.Role) error
	Remove(ctx context.Context, actor admin.Actor, email string) error
}

// AuthProvider issues and verifies sessions.
type AuthProvider interface {
	Login(ctx context.Context, email, password string) (string, error)
	Verify(ctx context.Context, token string) (admin.Actor, error)
}

// SiteConfig reads and writes the per-section configuration.
type SiteConfig interface {
	Load(ctx context.Context) (map[string]map[string]any, error)
	Get(ctx context.Context, section string) (map[string]any, error)
	Save(ctx context.Context, actor admin.Actor, section string, fields map[string]any) error
}

// Lifestyle serves club, dining, and hotel listings.
type Lifestyle interface {
	Published(ctx context.Context, kind string) ([]event.LifestyleListing, error)
	All(ctx context.Context) ([]event.LifestyleListing, error)
	Save(ctx context.Context, actor admin.Actor, listing event.LifestyleListing) (string, error)
	Delete(ctx context.Context, actor admin.Actor, id string) error
}

// Ticketing looks up live event data.
type Ticketing interface {
	EventDetails(ctx context.Context, eventID string) (*ticketing.Details, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	feed      FeedStore
	events    EventAdmin
	admins    AdminUsers
	auth      AuthProvider
	siteCfg   SiteConfig
	lifestyle Lifestyle
	ticketing Ticketing
	now       func() time.Time
}

// New configures a Server with the given services.
func New(
	feed FeedStore,
	events EventAdmin,
	admins AdminUsers,
	authProvider AuthProvider,
	siteCfg SiteConfig,
	lifestyle Lifestyle,
	tickets Ticketing,
) *Server {
	return &Server{
		feed:      feed,
		events:    events,
		admins:    admins,
		auth:      authProvider,
		siteCfg:   siteCfg,
		lifestyle: lifestyle,
		ticketing: tickets,
		now:       time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.Handle("/metrics", metrics.Handler())

	// Public routes
	mux.HandleFunc("GET /api/v1/events", s.handlePublicEvents)
	mux.HandleFunc("GET /api/v1/lifestyle/{kind}", s.handlePublicLifestyle)
	mux.HandleFunc("GET /api/v1/site-config", s.handleSiteConfig)
	mux.HandleFunc("GET /api/v1/ticketing/events/{id}", s.handleTicketingLookup)

	// Auth routes
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	// Admin event routes
	mux.HandleFunc("GET /api/v1/admin/events", s.handleAdminListEvents)
	mux.HandleFunc("GET /api/v1/admin/events/stats", s.handleAdminStats)
	mux.HandleFunc("POST /api/v1/admin/events", s.handleCreateEvent)
	mux.HandleFunc("GET /api/v1/admin/events/{id}", s.handleGetEvent)
	mux.HandleFunc("PUT /api/v1/admin/events/{id}", s.handleUpdateEvent)
	mux.HandleFunc("DELETE /api/v1/admin/events/{id}", s.handleDeleteEvent)
	mux.HandleFunc("POST /api/v1/admin/events/{id}/toggle-publish", s.handleTogglePublish)
	mux.HandleFunc("POST /api/v1/admin/events/bulk-delete", s.handleBulkDelete)
	mux.HandleFunc("POST /api/v1/admin/events/bulk-publish", s.handleBulkPublish)

	// Admin account routes
	mux.HandleFunc("GET /api/v1/admin/users", s.handleListAdmins)
	mux.HandleFunc("POST /api/v1/admin/users", s.handleAddAdmin)
	mux.HandleFunc("PUT /api/v1/admin/users/{email}", s.handleSetAdminRole)
	mux.HandleFunc("DELETE /api/v1/admin/users/{email}", s.handleRemoveAdmin)

	// Admin site configuration routes
	mux.HandleFunc("GET /api/v1/admin/site-config/{section}", s.handleGetConfigSection)
	mux.HandleFunc("PUT /api/v1/admin/site-config/{section}", s.handleSaveConfigSection)

	// Admin lifestyle routes
	mux.HandleFunc("GET /api/v1/admin/lifestyle", s.handleAdminListLifestyle)
	mux.HandleFunc("POST /api/v1/admin/lifestyle", s.handleSaveLifestyle)
	mux.HandleFunc("PUT /api/v1/admin/lifestyle/{id}", s.handleSaveLifestyle)
	mux.HandleFunc("DELETE /api/v1/admin/lifestyle/{id}", s.handleDeleteLifestyle)

	var handler http.Handler = mux
	handler = RequestLogging()(handler)
	handler = Recovery()(handler)
	return handler
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// authenticate resolves the request's bearer token to an actor.
func (s *Server) authenticate(r *http.Request) (admin.Actor, error) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return admin.Actor{}, auth.ErrUnauthorized
	}
	return s.auth.Verify(r.Context(), token)
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var dataErr *event.DataError
	var remoteErr *docstore.RemoteError
	switch {
	case errors.As(err, &dataErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	case errors.Is(err, admin.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, docstore.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, admin.ErrLastAdmin), errors.Is(err, admin.ErrSelfRemoval):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &remoteErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
