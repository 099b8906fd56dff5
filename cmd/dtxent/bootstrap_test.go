package main

import (
	"context"
	"errors"
	"testing"

	"github.com/digitalboostplus/dtxent/internal/admin"
	"github.com/digitalboostplus/dtxent/internal/auth"
	"github.com/digitalboostplus/dtxent/internal/docstore/memory"
	"github.com/digitalboostplus/dtxent/internal/event"
)

func TestEnsureOwnerMixedCaseEmailCanLogIn(t *testing.T) {
	docs := memory.New()
	users := admin.NewUsers(docs)
	provider := auth.NewProvider(docs, users, []byte("test-secret"))
	ctx := context.Background()

	if err := ensureOwner(ctx, docs, provider, "Owner@Example.com", "hunter22"); err != nil {
		t.Fatalf("ensure owner: %v", err)
	}

	user, err := users.Get(ctx, "owner@example.com")
	if err != nil {
		t.Fatalf("owner account not found under lowercased key: %v", err)
	}
	if user.Role != event.RoleOwner {
		t.Fatalf("expected owner role, got %q", user.Role)
	}

	// Login accepts any casing of the configured address.
	for _, email := range []string{"Owner@Example.com", "owner@example.com"} {
		if _, err := provider.Login(ctx, email, "hunter22"); err != nil {
			t.Fatalf("login as %q: %v", email, err)
		}
	}
}

func TestEnsureOwnerIsIdempotent(t *testing.T) {
	docs := memory.New()
	users := admin.NewUsers(docs)
	provider := auth.NewProvider(docs, users, []byte("test-secret"))
	ctx := context.Background()

	if err := ensureOwner(ctx, docs, provider, "owner@example.com", "hunter22"); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	// A second run with different casing finds the existing account and must
	// not reset its password.
	if err := ensureOwner(ctx, docs, provider, "OWNER@example.com", "other"); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if _, err := provider.Login(ctx, "owner@example.com", "hunter22"); err != nil {
		t.Fatalf("original password rejected: %v", err)
	}
	if _, err := provider.Login(ctx, "owner@example.com", "other"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for the unused password, got %v", err)
	}
}
