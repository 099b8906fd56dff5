package event

import (
	"errors"
	"testing"
	"time"
)

func rawFields(overrides map[string]any) map[string]any {
	f := map[string]any{
		"artistName": "Jeff Dunham",
		"eventName":  "Artificial Intelligence Tour",
		"eventDate":  "2026-01-31T19:00:00",
		"venueName":  "Payne Arena",
		"venueCity":  "Hidalgo",
		"venueState": "TX",
	}
	for k, v := range overrides {
		f[k] = v
	}
	return f
}

func TestNormalizeDerivesDisplayLabels(t *testing.T) {
	ev, err := Normalize(Raw{Source: SourceRemote, ID: "abc123", Fields: rawFields(nil)})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if ev.DisplayMonth != "JAN" {
		t.Fatalf("expected display month JAN, got %q", ev.DisplayMonth)
	}
	if ev.DisplayDay != "31" {
		t.Fatalf("expected display day 31, got %q", ev.DisplayDay)
	}
	want := time.Date(2026, time.January, 31, 19, 0, 0, 0, time.UTC)
	if !ev.EventDate.Equal(want) {
		t.Fatalf("expected date %v, got %v", want, ev.EventDate)
	}
}

func TestNormalizeZeroPadsSingleDigitDay(t *testing.T) {
	fields := rawFields(map[string]any{"eventDate": "2026-02-07T15:30:00"})
	ev, err := Normalize(Raw{Source: SourceRemote, ID: "x", Fields: fields})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if ev.DisplayDay != "07" {
		t.Fatalf("expected display day 07, got %q", ev.DisplayDay)
	}
	if ev.DisplayMonth != "FEB" {
		t.Fatalf("expected display month FEB, got %q", ev.DisplayMonth)
	}
}

func TestNormalizeRespectsPinnedDisplayLabels(t *testing.T) {
	fields := rawFields(map[string]any{"displayMonth": "ENE", "displayDay": "1"})
	ev, err := Normalize(Raw{Source: SourceRemote, ID: "x", Fields: fields})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if ev.DisplayMonth != "ENE" || ev.DisplayDay != "1" {
		t.Fatalf("pinned labels overwritten: %q %q", ev.DisplayMonth, ev.DisplayDay)
	}
}

func TestParseInstantForms(t *testing.T) {
	want := time.Date(2026, time.January, 31, 19, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		input any
	}{
		{"wall clock string", "2026-01-31T19:00:00"},
		{"rfc3339", "2026-01-31T19:00:00Z"},
		{"seconds map", map[string]any{"seconds": want.Unix()}},
		{"epoch float", float64(want.Unix())},
		{"native time", want},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseInstant(tc.input)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !got.Equal(want) {
				t.Fatalf("expected %v, got %v", want, got)
			}
		})
	}
}

func TestParseInstantDateOnly(t *testing.T) {
	got, err := ParseInstant("2026-01-31")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseInstantRejectsGarbage(t *testing.T) {
	for _, input := range []any{nil, "", "next tuesday", map[string]any{"nanos": 5}, 0, true} {
		if _, err := ParseInstant(input); err == nil {
			t.Fatalf("expected error for %#v", input)
		}
	}
}

func TestNormalizeUnparseableDateIsDataError(t *testing.T) {
	fields := rawFields(map[string]any{"eventDate": "soon"})
	_, err := Normalize(Raw{Source: SourceRemote, ID: "x", Fields: fields})
	var dataErr *DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("expected *DataError, got %v", err)
	}
	if dataErr.Field != "eventDate" {
		t.Fatalf("expected eventDate field, got %q", dataErr.Field)
	}
}

func TestNormalizeMissingRequiredFields(t *testing.T) {
	for _, field := range []string{"artistName", "eventName"} {
		fields := rawFields(map[string]any{field: ""})
		_, err := Normalize(Raw{Source: SourceRemote, ID: "x", Fields: fields})
		var dataErr *DataError
		if !errors.As(err, &dataErr) {
			t.Fatalf("%s: expected *DataError, got %v", field, err)
		}
		if dataErr.Field != field {
			t.Fatalf("expected field %q, got %q", field, dataErr.Field)
		}
	}
}

func TestNormalizeLocalIDFromArtist(t *testing.T) {
	ev, err := Normalize(Raw{Source: SourceLocal, Fields: rawFields(nil)})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if ev.ID != "local-jeff-dunham" {
		t.Fatalf("expected derived local id, got %q", ev.ID)
	}
}

func TestNormalizeRemoteWithoutIDFails(t *testing.T) {
	_, err := Normalize(Raw{Source: SourceRemote, Fields: rawFields(nil)})
	if err == nil {
		t.Fatal("expected error for remote record without id")
	}
}

func TestResolveImagePriority(t *testing.T) {
	cases := []struct {
		name     string
		fields   map[string]any
		wantURL  string
		wantPath string
	}{
		{
			name:     "owned asset with url",
			fields:   map[string]any{"imagePath": "events/1_a.jpg", "imageUrl": "https://cdn.example.com/a.jpg"},
			wantURL:  "https://cdn.example.com/a.jpg",
			wantPath: "events/1_a.jpg",
		},
		{
			name:     "owned asset without url",
			fields:   map[string]any{"imagePath": "events/1_a.jpg"},
			wantURL:  "/events/1_a.jpg",
			wantPath: "events/1_a.jpg",
		},
		{
			name:    "external url only",
			fields:  map[string]any{"imageUrl": "https://cdn.example.com/b.jpg"},
			wantURL: "https://cdn.example.com/b.jpg",
		},
		{
			name:    "legacy image name",
			fields:  map[string]any{"imageName": "dunham.jpg"},
			wantURL: "assets/dunham.jpg",
		},
		{
			name:    "placeholder fallback",
			fields:  map[string]any{},
			wantURL: PlaceholderImage,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := Normalize(Raw{Source: SourceRemote, ID: "x", Fields: rawFields(tc.fields)})
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if ev.ImageURL != tc.wantURL {
				t.Fatalf("expected url %q, got %q", tc.wantURL, ev.ImageURL)
			}
			if ev.ImagePath != tc.wantPath {
				t.Fatalf("expected path %q, got %q", tc.wantPath, ev.ImagePath)
			}
		})
	}
}

func TestVenueLineDerivation(t *testing.T) {
	ev, err := Normalize(Raw{Source: SourceRemote, ID: "x", Fields: rawFields(nil)})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if ev.VenueFullName != "Payne Arena, Hidalgo, TX" {
		t.Fatalf("unexpected venue line %q", ev.VenueFullName)
	}

	pinned := rawFields(map[string]any{"venueFullName": "Payne Arena (Hidalgo)"})
	ev, err = Normalize(Raw{Source: SourceRemote, ID: "x", Fields: pinned})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if ev.VenueFullName != "Payne Arena (Hidalgo)" {
		t.Fatalf("pinned venue line overwritten: %q", ev.VenueFullName)
	}
}

func TestNormalizeScheduleDropsIncompleteRows(t *testing.T) {
	fields := rawFields(map[string]any{"schedule": []any{
		map[string]any{"time": "3:30 PM", "description": "Gates Open"},
		map[string]any{"time": "", "description": "missing time"},
		map[string]any{"time": "7:30 PM", "description": "Main Event"},
	}})
	ev, err := Normalize(Raw{Source: SourceRemote, ID: "x", Fields: fields})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(ev.Schedule) != 2 {
		t.Fatalf("expected 2 schedule rows, got %d", len(ev.Schedule))
	}
	if ev.Schedule[1].Description != "Main Event" {
		t.Fatalf("unexpected schedule order: %#v", ev.Schedule)
	}
}

func TestNormalizeEngagementDatesDefaultTicketURL(t *testing.T) {
	fields := rawFields(map[string]any{
		"ticketUrl": "https://tickets.example.com/primary",
		"dates": []any{
			map[string]any{"date": "2026-01-31T19:00:00", "ticketUrl": "https://tickets.example.com/night-one"},
			map[string]any{"date": "2026-02-01T19:00:00"},
		},
	})
	ev, err := Normalize(Raw{Source: SourceRemote, ID: "x", Fields: fields})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(ev.Dates) != 2 {
		t.Fatalf("expected 2 engagement dates, got %d", len(ev.Dates))
	}
	if ev.Dates[0].TicketURL != "https://tickets.example.com/night-one" {
		t.Fatalf("explicit ticket url overwritten: %q", ev.Dates[0].TicketURL)
	}
	if ev.Dates[1].TicketURL != "https://tickets.example.com/primary" {
		t.Fatalf("expected primary ticket url fallback, got %q", ev.Dates[1].TicketURL)
	}
}

func TestNormalizeUnpublishedFlag(t *testing.T) {
	fields := rawFields(map[string]any{"isPublished": false})
	ev, err := Normalize(Raw{Source: SourceRemote, ID: "x", Fields: fields})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if ev.IsPublished {
		t.Fatal("expected unpublished event")
	}

	// Absent flag defaults to published.
	ev, err = Normalize(Raw{Source: SourceRemote, ID: "x", Fields: rawFields(nil)})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !ev.IsPublished {
		t.Fatal("expected default published")
	}
}

func TestParseRole(t *testing.T) {
	if got := ParseRole("owner"); got != RoleOwner {
		t.Fatalf("expected owner, got %q", got)
	}
	if got := ParseRole("superuser"); got != RoleEditor {
		t.Fatalf("unknown role should map to editor, got %q", got)
	}
	if RoleEditor.CanDelete() || RoleEditor.CanManageSettings() {
		t.Fatal("editor must not delete or manage settings")
	}
	if !RoleAdmin.CanDelete() || !RoleOwner.CanManageSettings() {
		t.Fatal("admin and owner gates broken")
	}
}
