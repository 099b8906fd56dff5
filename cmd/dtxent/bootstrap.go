package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/digitalboostplus/dtxent/internal/auth"
	"github.com/digitalboostplus/dtxent/internal/docstore"
	"github.com/digitalboostplus/dtxent/internal/event"
	"github.com/digitalboostplus/dtxent/internal/feed"
)

// bootstrap ensures a usable starting state: an owner account when one is
// configured, and seed events for the in-memory driver so the admin screens
// are not empty on first run.
func bootstrap(ctx context.Context, cfg Config, docs docstore.Store, authProvider *auth.Provider, logger zerolog.Logger) error {
	if cfg.BootstrapAdminEmail != "" && cfg.BootstrapAdminPassword != "" {
		if err := ensureOwner(ctx, docs, authProvider, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
			return err
		}
		logger.Info().Str("email", cfg.BootstrapAdminEmail).Msg("owner account ready")
	}

	if cfg.DocstoreDriver == "memory" {
		n, err := seedEvents(ctx, docs)
		if err != nil {
			return err
		}
		logger.Info().Int("count", n).Msg("seeded in-memory event store")
	}

	return nil
}

// ensureOwner creates the owner account and its credentials unless the
// account already exists.
func ensureOwner(ctx context.Context, docs docstore.Store, authProvider *auth.Provider, email, password string) error {
	// Store the account under the same lowercased key the login path looks up.
	email = strings.ToLower(strings.TrimSpace(email))

	_, err := docs.Get(ctx, "admins", email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("lookup owner: %w", err)
	}

	if err := docs.Set(ctx, "admins", email, map[string]any{
		"email":   email,
		"role":    string(event.RoleOwner),
		"addedBy": "bootstrap",
		"addedAt": docstore.ServerTimestamp,
	}, false); err != nil {
		return fmt.Errorf("create owner: %w", err)
	}
	if err := authProvider.SetPassword(ctx, email, password); err != nil {
		return fmt.Errorf("set owner password: %w", err)
	}
	return nil
}

// seedEvents loads the bundled fallback set into the document store.
func seedEvents(ctx context.Context, docs docstore.Store) (int, error) {
	events, err := feed.FallbackEvents()
	if err != nil {
		return 0, err
	}

	for _, ev := range events {
		buf, err := json.Marshal(ev)
		if err != nil {
			return 0, err
		}
		var fields map[string]any
		if err := json.Unmarshal(buf, &fields); err != nil {
			return 0, err
		}
		delete(fields, "id")

		if err := docs.Set(ctx, "events", ev.ID, fields, false); err != nil {
			return 0, err
		}
	}
	return len(events), nil
}
