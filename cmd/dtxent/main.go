package main

import (
	"context"
	"log"
	"net/http"

	"github.com/digitalboostplus/dtxent/internal/admin"
	"github.com/digitalboostplus/dtxent/internal/auth"
	"github.com/digitalboostplus/dtxent/internal/feed"
	"github.com/digitalboostplus/dtxent/internal/lifestyle"
	"github.com/digitalboostplus/dtxent/internal/logging"
	"github.com/digitalboostplus/dtxent/internal/sitecfg"
	"github.com/digitalboostplus/dtxent/internal/ticketing"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logging.SetGlobal(logger)

	ctx := context.Background()

	docs, closeDocs, err := openDocstore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open document store")
	}
	defer closeDocs()

	assets, err := newAssetStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("open asset store")
	}

	cache, closeCache, err := newTicketingCache(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open ticketing cache")
	}
	defer closeCache()

	local, err := feed.FallbackEvents()
	if err != nil {
		logger.Fatal().Err(err).Msg("load fallback events")
	}
	feedStore := feed.NewStore(local)
	controller := feed.NewController(docs, feedStore, logger)

	users := admin.NewUsers(docs)
	authProvider := auth.NewProvider(docs, users, []byte(cfg.JWTSecret))
	coordinator := admin.NewCoordinator(docs, assets, logger)
	siteCfg := sitecfg.NewService(docs, logger)
	listings := lifestyle.NewService(docs)
	tickets := ticketing.NewClient(cfg.TicketmasterAPIKey, cache, logger)

	if err := bootstrap(ctx, cfg, docs, authProvider, logger); err != nil {
		logger.Fatal().Err(err).Msg("bootstrap")
	}

	// The fallback feed serves until the subscription delivers a usable
	// snapshot, so a feed failure here is not fatal.
	if err := controller.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("event feed unavailable, serving fallback")
	}
	defer controller.Stop()

	handler := newHTTPHandler(cfg, feedStore, coordinator, users, authProvider, siteCfg, listings, tickets)

	logger.Info().Str("addr", cfg.Addr).Msg("API listening")
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
