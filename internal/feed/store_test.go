package feed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/digitalboostplus/dtxent/internal/docstore/memory"
	"github.com/digitalboostplus/dtxent/internal/event"
)

var testNow = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func ev(id string, date time.Time) event.Event {
	return event.Event{ID: id, ArtistName: "Artist " + id, EventName: "Show", EventDate: date, IsPublished: true}
}

func TestStoreServesLocalUntilRemoteQualifies(t *testing.T) {
	local := []event.Event{
		ev("past", testNow.Add(-48*time.Hour)),
		ev("soon", testNow.Add(24*time.Hour)),
	}
	s := NewStore(local).WithClock(fixedClock)

	got := s.Events()
	if len(got) != 1 || got[0].ID != "soon" {
		t.Fatalf("expected only the upcoming fallback event, got %#v", got)
	}
	if s.RemoteActive() {
		t.Fatal("remote must not be active before a qualifying snapshot")
	}
}

func TestStoreGraceWindowKeepsRecentlyStarted(t *testing.T) {
	local := []event.Event{
		ev("started", testNow.Add(-5*time.Hour)),
		ev("gone", testNow.Add(-7*time.Hour)),
	}
	s := NewStore(local).WithClock(fixedClock)

	got := s.Events()
	if len(got) != 1 || got[0].ID != "started" {
		t.Fatalf("expected event inside grace window only, got %#v", got)
	}
}

func TestStoreEmptyFirstSnapshotIgnored(t *testing.T) {
	local := []event.Event{ev("soon", testNow.Add(24 * time.Hour))}
	s := NewStore(local).WithClock(fixedClock)

	s.ApplyRemote(nil)
	if s.RemoteActive() {
		t.Fatal("empty first snapshot must not take over")
	}
	if got := s.Events(); len(got) != 1 || got[0].ID != "soon" {
		t.Fatalf("fallback lost after empty snapshot: %#v", got)
	}

	// A snapshot with only stale events does not qualify either.
	s.ApplyRemote([]event.Event{ev("stale", testNow.Add(-48 * time.Hour))})
	if s.RemoteActive() {
		t.Fatal("stale-only snapshot must not take over")
	}
}

func TestStoreRemoteTakeoverThenEmptyReplaces(t *testing.T) {
	local := []event.Event{ev("fallback", testNow.Add(24 * time.Hour))}
	s := NewStore(local).WithClock(fixedClock)

	s.ApplyRemote([]event.Event{ev("remote-1", testNow.Add(48 * time.Hour))})
	if !s.RemoteActive() {
		t.Fatal("qualifying snapshot should take over")
	}
	if got := s.Events(); len(got) != 1 || got[0].ID != "remote-1" {
		t.Fatalf("expected remote snapshot, got %#v", got)
	}

	// Once authoritative, an empty snapshot means the events really are gone.
	s.ApplyRemote(nil)
	if !s.RemoteActive() {
		t.Fatal("remote stays authoritative through an empty snapshot")
	}
	if got := s.Events(); len(got) != 0 {
		t.Fatalf("expected empty display, got %#v", got)
	}
}

func TestStoreRevertsToFallbackOnRemoteError(t *testing.T) {
	local := []event.Event{ev("fallback", testNow.Add(24 * time.Hour))}
	s := NewStore(local).WithClock(fixedClock)

	s.ApplyRemote([]event.Event{ev("remote-1", testNow.Add(48 * time.Hour))})
	s.ApplyRemoteError()

	if s.RemoteActive() {
		t.Fatal("error must revert to fallback")
	}
	if got := s.Events(); len(got) != 1 || got[0].ID != "fallback" {
		t.Fatalf("expected fallback after error, got %#v", got)
	}

	// The next snapshot must re-qualify from scratch.
	s.ApplyRemote(nil)
	if s.RemoteActive() {
		t.Fatal("empty snapshot after revert must not take over")
	}
}

func TestControllerSingleSubscription(t *testing.T) {
	docs := memory.New()
	store := NewStore(nil).WithClock(fixedClock)
	ctrl := NewController(docs, store, zerolog.Nop())

	ctx := context.Background()
	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if got := docs.SubscriberCount(); got != 1 {
		t.Fatalf("expected exactly one live subscription, got %d", got)
	}

	ctrl.Stop()
	if got := docs.SubscriberCount(); got != 0 {
		t.Fatalf("expected no subscriptions after stop, got %d", got)
	}
}

func TestControllerAppliesPublishedSnapshot(t *testing.T) {
	docs := memory.New()
	ctx := context.Background()
	future := testNow.Add(72 * time.Hour).Format(time.RFC3339)
	if err := docs.Set(ctx, "events", "e1", map[string]any{
		"artistName":  "Los Tigres",
		"eventName":   "Norteno Night",
		"eventDate":   future,
		"isPublished": true,
	}, false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := docs.Set(ctx, "events", "draft", map[string]any{
		"artistName":  "Hidden",
		"eventName":   "Draft Show",
		"eventDate":   future,
		"isPublished": false,
	}, false); err != nil {
		t.Fatalf("seed draft: %v", err)
	}

	store := NewStore(nil).WithClock(fixedClock)
	ctrl := NewController(docs, store, zerolog.Nop())
	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer ctrl.Stop()

	got := store.Events()
	if len(got) != 1 || got[0].ID != "e1" {
		t.Fatalf("expected the published event only, got %#v", got)
	}
	if !store.RemoteActive() {
		t.Fatal("snapshot with upcoming event should activate remote")
	}
}

func TestControllerSkipsMalformedDocuments(t *testing.T) {
	docs := memory.New()
	ctx := context.Background()
	future := testNow.Add(72 * time.Hour).Format(time.RFC3339)
	seed := map[string]map[string]any{
		"good": {"artistName": "A", "eventName": "B", "eventDate": future, "isPublished": true},
		"bad":  {"artistName": "C", "eventName": "D", "eventDate": "whenever", "isPublished": true},
	}
	for id, fields := range seed {
		if err := docs.Set(ctx, "events", id, fields, false); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	store := NewStore(nil).WithClock(fixedClock)
	ctrl := NewController(docs, store, zerolog.Nop())
	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer ctrl.Stop()

	got := store.Events()
	if len(got) != 1 || got[0].ID != "good" {
		t.Fatalf("expected malformed document skipped, got %#v", got)
	}
}

func TestFallbackEventsLoad(t *testing.T) {
	events, err := FallbackEvents()
	if err != nil {
		t.Fatalf("load fallback: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected bundled fallback events")
	}
	for _, ev := range events {
		if ev.ID == "" || ev.ArtistName == "" || ev.EventDate.IsZero() {
			t.Fatalf("incomplete fallback event: %#v", ev)
		}
	}
}
