package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/digitalboostplus/dtxent/internal/admin"
	"github.com/digitalboostplus/dtxent/internal/auth"
	"github.com/digitalboostplus/dtxent/internal/blob"
	"github.com/digitalboostplus/dtxent/internal/docstore"
	"github.com/digitalboostplus/dtxent/internal/docstore/memory"
	mongostore "github.com/digitalboostplus/dtxent/internal/docstore/mongo"
	pgstore "github.com/digitalboostplus/dtxent/internal/docstore/postgres"
	"github.com/digitalboostplus/dtxent/internal/feed"
	"github.com/digitalboostplus/dtxent/internal/httpapi"
	"github.com/digitalboostplus/dtxent/internal/lifestyle"
	"github.com/digitalboostplus/dtxent/internal/sitecfg"
	"github.com/digitalboostplus/dtxent/internal/ticketing"
)

// openDocstore selects the document store backend from configuration.
func openDocstore(ctx context.Context, cfg Config, logger zerolog.Logger) (docstore.Store, func(), error) {
	switch cfg.DocstoreDriver {
	case "postgres":
		db, err := openDocumentDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := pgstore.New(db, cfg.DatabaseURL, logger)
		return store, func() { _ = db.Close() }, nil
	case "mongo":
		client, db, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		store := mongostore.New(db, logger)
		return store, func() { _ = client.Disconnect(context.Background()) }, nil
	default:
		return memory.New(), func() {}, nil
	}
}

func newAssetStore(cfg Config) (blob.Store, error) {
	if cfg.AssetDir != "" {
		return blob.NewDiskStore(cfg.AssetDir, cfg.AssetBaseURL)
	}
	return blob.NewMemoryStore(cfg.AssetBaseURL), nil
}

func newTicketingCache(ctx context.Context, cfg Config, logger zerolog.Logger) (ticketing.Cache, func(), error) {
	if cfg.RedisAddr == "" {
		return ticketing.NewMemoryCache(), func() {}, nil
	}

	cache, err := ticketing.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("ticketing cache backed by redis")
	return cache, func() { _ = cache.Close() }, nil
}

func newHTTPHandler(
	cfg Config,
	feedStore *feed.Store,
	coordinator *admin.Coordinator,
	users *admin.Users,
	authProvider *auth.Provider,
	siteCfg *sitecfg.Service,
	listings *lifestyle.Service,
	tickets *ticketing.Client,
) http.Handler {
	server := httpapi.New(feedStore, coordinator, users, authProvider, siteCfg, listings, tickets)
	return withCORS(cfg.AllowedOrigins, server.Routes())
}

func withCORS(allowedOrigins []string, next http.Handler) http.Handler {
	originAllowed := func(origin string) bool {
		if len(allowedOrigins) == 0 || origin == "" {
			return false
		}
		for _, o := range allowedOrigins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
