package sitecfg

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/digitalboostplus/dtxent/internal/admin"
	"github.com/digitalboostplus/dtxent/internal/docstore"
	"github.com/digitalboostplus/dtxent/internal/docstore/memory"
	"github.com/digitalboostplus/dtxent/internal/event"
)

var (
	cfgOwner  = admin.Actor{Email: "owner@dtxent.com", Role: event.RoleOwner}
	cfgEditor = admin.Actor{Email: "editor@dtxent.com", Role: event.RoleEditor}
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(memory.New(), zerolog.Nop())
}

func TestSaveAndGetSection(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	err := s.Save(ctx, cfgOwner, "hero", map[string]any{
		"title":    "Live Events",
		"subtitle": "Rio Grande Valley",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(ctx, "hero")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["title"] != "Live Events" {
		t.Fatalf("unexpected section %#v", got)
	}
	if got["updatedBy"] != cfgOwner.Email {
		t.Fatalf("audit field missing: %#v", got)
	}
}

func TestSaveMergesIntoExistingSection(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if err := s.Save(ctx, cfgOwner, "seo", map[string]any{"title": "DTX Entertainment", "description": "events"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, cfgOwner, "seo", map[string]any{"description": "live shows"}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.Get(ctx, "seo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["title"] != "DTX Entertainment" || got["description"] != "live shows" {
		t.Fatalf("merge lost fields: %#v", got)
	}
}

func TestUnknownSectionRejected(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	var dataErr *event.DataError
	if _, err := s.Get(ctx, "colors"); !errors.As(err, &dataErr) {
		t.Fatalf("expected *event.DataError, got %v", err)
	}
	if err := s.Save(ctx, cfgOwner, "colors", map[string]any{}); !errors.As(err, &dataErr) {
		t.Fatalf("expected *event.DataError, got %v", err)
	}
}

func TestEditorCannotSave(t *testing.T) {
	s := newTestService(t)
	err := s.Save(context.Background(), cfgEditor, "hero", map[string]any{"title": "x"})
	if !errors.Is(err, admin.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestGetMissingSection(t *testing.T) {
	s := newTestService(t)
	if _, err := s.Get(context.Background(), "footer"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadSkipsMissingSections(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if err := s.Save(ctx, cfgOwner, "hero", map[string]any{"title": "x"}); err != nil {
		t.Fatalf("save hero: %v", err)
	}
	if err := s.Save(ctx, cfgOwner, "theme", map[string]any{"primary": "#c8102e"}); err != nil {
		t.Fatalf("save theme: %v", err)
	}

	all, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 loaded sections, got %d: %#v", len(all), all)
	}
	if _, ok := all["hero"]; !ok {
		t.Fatal("hero section missing")
	}
	if _, ok := all["footer"]; ok {
		t.Fatal("unsaved section should be omitted")
	}
}
