// Package filter produces display subsets of the canonical event list. Apply
// is a pure function: it never mutates its input and always returns a fresh
// slice, so repeated application with the same state is a fixed point.
package filter

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/digitalboostplus/dtxent/internal/event"
)

// Status filter values.
const (
	StatusAll       = "all"
	StatusPublished = "published"
	StatusDraft     = "draft"
)

// Sort keys.
const (
	SortDateAsc  = "date-asc"
	SortDateDesc = "date-desc"
	SortArtistAZ = "artist-az"
	SortArtistZA = "artist-za"
	SortRecent   = "recent"
)

// VenueAll disables the venue filter.
const VenueAll = "all"

// State is one query over the canonical list. Zero value means no filtering
// and date-ascending order.
type State struct {
	Search   string
	Status   string
	Venue    string
	DateFrom string // inclusive, YYYY-MM-DD
	DateTo   string // inclusive, YYYY-MM-DD
	Sort     string
}

// Apply runs the five stages in order: search, status, venue, date range,
// sort. The sort is stable so equal keys keep their prior relative order.
func Apply(events []event.Event, s State) []event.Event {
	out := make([]event.Event, 0, len(events))
	from, hasFrom := parseDayStart(s.DateFrom)
	to, hasTo := parseDayEnd(s.DateTo)
	term := strings.ToLower(strings.TrimSpace(s.Search))

	for _, ev := range events {
		if term != "" && !matchesSearch(ev, term) {
			continue
		}
		switch s.Status {
		case StatusPublished:
			if !ev.IsPublished {
				continue
			}
		case StatusDraft:
			if ev.IsPublished {
				continue
			}
		}
		if s.Venue != "" && s.Venue != VenueAll && ev.VenueName != s.Venue {
			continue
		}
		if hasFrom && ev.EventDate.Before(from) {
			continue
		}
		if hasTo && ev.EventDate.After(to) {
			continue
		}
		out = append(out, ev)
	}

	sortEvents(out, s.Sort)
	return out
}

func matchesSearch(ev event.Event, term string) bool {
	haystack := strings.ToLower(ev.ArtistName + " " + ev.EventName + " " + ev.VenueName + " " + ev.VenueCity)
	return strings.Contains(haystack, term)
}

func sortEvents(events []event.Event, key string) {
	switch key {
	case SortDateDesc:
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].EventDate.After(events[j].EventDate)
		})
	case SortArtistAZ:
		// Collators carry an internal buffer, so each sort gets its own.
		c := collate.New(language.AmericanEnglish, collate.IgnoreCase)
		sort.SliceStable(events, func(i, j int) bool {
			return c.CompareString(events[i].ArtistName, events[j].ArtistName) < 0
		})
	case SortArtistZA:
		c := collate.New(language.AmericanEnglish, collate.IgnoreCase)
		sort.SliceStable(events, func(i, j int) bool {
			return c.CompareString(events[i].ArtistName, events[j].ArtistName) > 0
		})
	case SortRecent:
		// Missing createdAt (zero time) sorts last.
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].CreatedAt.After(events[j].CreatedAt)
		})
	default: // SortDateAsc
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].EventDate.Before(events[j].EventDate)
		})
	}
}

func parseDayStart(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseDayEnd(s string) (time.Time, bool) {
	t, ok := parseDayStart(s)
	if !ok {
		return time.Time{}, false
	}
	return t.Add(24*time.Hour - time.Millisecond), true
}

// Venues returns the distinct venue names of the full canonical list, sorted.
// Facets always derive from the unfiltered list so the option set never
// shrinks as a side effect of filtering.
func Venues(events []event.Event) []string {
	seen := make(map[string]struct{})
	var venues []string
	for _, ev := range events {
		if ev.VenueName == "" {
			continue
		}
		if _, ok := seen[ev.VenueName]; ok {
			continue
		}
		seen[ev.VenueName] = struct{}{}
		venues = append(venues, ev.VenueName)
	}
	sort.Strings(venues)
	return venues
}

// Stats summarizes the unfiltered canonical list for the admin dashboard.
type Stats struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Drafts    int `json:"drafts"`
	Upcoming  int `json:"upcoming"`
}

// Summarize counts the list. Upcoming uses the same grace cutoff as the feed.
func Summarize(events []event.Event, now time.Time, grace time.Duration) Stats {
	st := Stats{Total: len(events)}
	cutoff := now.Add(-grace)
	for _, ev := range events {
		if ev.IsPublished {
			st.Published++
		} else {
			st.Drafts++
		}
		if !ev.EventDate.Before(cutoff) {
			st.Upcoming++
		}
	}
	return st
}
