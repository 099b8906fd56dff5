package render

import (
	"testing"
	"time"

	"github.com/digitalboostplus/dtxent/internal/event"
	"github.com/digitalboostplus/dtxent/internal/ticketing"
)

var renderNow = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

func sampleEvent(id string) event.Event {
	return event.Event{
		ID:            id,
		ArtistName:    "Jeff Dunham",
		EventName:     "Artificial Intelligence Tour",
		EventDate:     time.Date(2026, time.January, 31, 19, 0, 0, 0, time.UTC),
		DisplayMonth:  "JAN",
		DisplayDay:    "31",
		PerformerType: "Person",
		VenueName:     "Payne Arena",
		VenueCity:     "Hidalgo",
		VenueState:    "TX",
		VenueFullName: "Payne Arena, Hidalgo, TX",
		TicketURL:     "https://www.ticketmaster.com/event/ABC123",
		ImageURL:      "assets/dunham.jpg",
		IsPublished:   true,
	}
}

func TestCountdownUntil(t *testing.T) {
	cases := []struct {
		name  string
		until time.Duration
		want  Countdown
	}{
		{"ninety minutes out", 90 * time.Minute, Countdown{Days: 0, Hours: 1, Mins: 30}},
		{"two and a half days", 60 * time.Hour, Countdown{Days: 2, Hours: 12, Mins: 0}},
		{"exactly now", 0, Countdown{Started: true}},
		{"already started", -time.Hour, Countdown{Started: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CountdownUntil(renderNow.Add(tc.until), renderNow)
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestCountdownNeverNegative(t *testing.T) {
	got := CountdownUntil(renderNow.Add(-300*time.Hour), renderNow)
	if got.Days != 0 || got.Hours != 0 || got.Mins != 0 || !got.Started {
		t.Fatalf("expected zeroed started countdown, got %+v", got)
	}
}

func TestBuildCard(t *testing.T) {
	card := BuildCard(sampleEvent("e1"), renderNow)
	if card.StatusBadge != BadgePublished {
		t.Fatalf("expected published badge, got %q", card.StatusBadge)
	}
	if card.Date.Month != "JAN" || card.Date.Day != "31" {
		t.Fatalf("unexpected date badge %+v", card.Date)
	}
	if card.VenueLine != "Payne Arena, Hidalgo, TX" {
		t.Fatalf("unexpected venue line %q", card.VenueLine)
	}
	if card.Countdown.Started {
		t.Fatal("future event must not be started")
	}
}

func TestBuildCardStripsLeadingZeroDay(t *testing.T) {
	ev := sampleEvent("e1")
	ev.DisplayDay = "07"
	card := BuildCard(ev, renderNow)
	if card.Date.Day != "7" {
		t.Fatalf("expected day 7, got %q", card.Date.Day)
	}
}

func TestBuildCardDraftAndPlaceholder(t *testing.T) {
	ev := sampleEvent("e1")
	ev.IsPublished = false
	ev.ImageURL = ""
	card := BuildCard(ev, renderNow)
	if card.StatusBadge != BadgeDraft {
		t.Fatalf("expected draft badge, got %q", card.StatusBadge)
	}
	if card.Image != event.PlaceholderImage {
		t.Fatalf("expected placeholder image, got %q", card.Image)
	}
}

func TestBuildItemList(t *testing.T) {
	list := BuildItemList([]event.Event{sampleEvent("e1")})
	if list.Context != "https://schema.org" || list.Type != "ItemList" {
		t.Fatalf("unexpected envelope %+v", list)
	}
	if len(list.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(list.Items))
	}
	item := list.Items[0]
	if item.Name != "Jeff Dunham - Artificial Intelligence Tour" {
		t.Fatalf("unexpected name %q", item.Name)
	}
	if item.StartDate != "2026-01-31" {
		t.Fatalf("start date must be date only, got %q", item.StartDate)
	}
	if item.Offers.Availability != "https://schema.org/InStock" {
		t.Fatalf("unexpected availability %q", item.Offers.Availability)
	}
	if item.Performer.Type != "Person" || item.Performer.Name != "Jeff Dunham" {
		t.Fatalf("unexpected performer %+v", item.Performer)
	}
	if item.Location.Address.Locality != "Hidalgo" || item.Location.Address.Region != "TX" {
		t.Fatalf("unexpected address %+v", item.Location.Address)
	}
}

func TestBuildItemListDefaultsPerformerType(t *testing.T) {
	ev := sampleEvent("e1")
	ev.PerformerType = ""
	list := BuildItemList([]event.Event{ev})
	if list.Items[0].Performer.Type != event.DefaultPerformerType {
		t.Fatalf("expected default performer type, got %q", list.Items[0].Performer.Type)
	}
}

func TestCardSetOrderAndLookup(t *testing.T) {
	events := []event.Event{sampleEvent("a"), sampleEvent("b")}
	events[1].ArtistName = "Aventura"
	set := BuildCardSet(events, renderNow)

	cards := set.Cards()
	if len(cards) != 2 || cards[0].ID != "a" || cards[1].ID != "b" {
		t.Fatalf("unexpected card order %#v", cards)
	}
	if _, ok := set.Card("a"); !ok {
		t.Fatal("expected card a")
	}
	if _, ok := set.Card("zzz"); ok {
		t.Fatal("unexpected card zzz")
	}
	if got := set.Meta(); len(got.Items) != 2 {
		t.Fatalf("metadata not regenerated, got %d items", len(got.Items))
	}
}

func TestEnrichAppliesPriceAndStatus(t *testing.T) {
	set := BuildCardSet([]event.Event{sampleEvent("a")}, renderNow)

	details := &ticketing.Details{
		PriceRanges: []ticketing.PriceRange{
			{Currency: "USD", Min: 79.5, Max: 250},
			{Currency: "USD", Min: 49.5, Max: 99},
		},
	}
	details.Dates.Status.Code = ticketing.StatusOnSale

	set.Enrich("a", details)
	card, _ := set.Card("a")
	if card.PriceFrom != "49.50 USD" {
		t.Fatalf("expected lowest price, got %q", card.PriceFrom)
	}
	if card.SaleStatus != ticketing.StatusOnSale {
		t.Fatalf("unexpected sale status %q", card.SaleStatus)
	}
}

func TestEnrichUnknownIDIsNoOp(t *testing.T) {
	set := BuildCardSet([]event.Event{sampleEvent("a")}, renderNow)
	details := &ticketing.Details{}
	details.Dates.Status.Code = ticketing.StatusCancelled

	set.Enrich("gone", details)
	card, _ := set.Card("a")
	if card.SaleStatus != "" {
		t.Fatalf("stale enrichment must not land, got %q", card.SaleStatus)
	}

	set.Enrich("a", nil)
	card, _ = set.Card("a")
	if card.SaleStatus != "" || card.PriceFrom != "" {
		t.Fatal("nil details must be a no-op")
	}
}
