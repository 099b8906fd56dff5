// Package render turns a display subset into card representations: date
// badges, venue lines, countdowns, and the machine-readable event descriptors
// embedded in the page.
package render

import (
	"strings"
	"time"

	"github.com/digitalboostplus/dtxent/internal/event"
)

// Countdown is the time remaining until an event starts. Once the instant
// passes, Started is the terminal state and the numbers stay at zero.
type Countdown struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Mins    int  `json:"mins"`
	Started bool `json:"started"`
}

// CountdownUntil computes the countdown at one instant. It never reports
// negative components.
func CountdownUntil(eventDate, now time.Time) Countdown {
	remaining := eventDate.Sub(now)
	if remaining <= 0 {
		return Countdown{Started: true}
	}
	return Countdown{
		Days:  int(remaining / (24 * time.Hour)),
		Hours: int(remaining % (24 * time.Hour) / time.Hour),
		Mins:  int(remaining % time.Hour / time.Minute),
	}
}

// DateBadge is the calendar corner of a card.
type DateBadge struct {
	Month string `json:"month"`
	Day   string `json:"day"`
}

// Status badge labels.
const (
	BadgePublished = "PUBLISHED"
	BadgeDraft     = "DRAFT"
)

// Card is one event prepared for display. Enrichment fields stay empty until
// a ticketing lookup lands.
type Card struct {
	ID          string               `json:"id"`
	ArtistName  string               `json:"artistName"`
	EventName   string               `json:"eventName"`
	Date        DateBadge            `json:"date"`
	VenueLine   string               `json:"venueLine"`
	StatusBadge string               `json:"statusBadge"`
	TicketURL   string               `json:"ticketUrl,omitempty"`
	Image       string               `json:"image"`
	ImageAlt    string               `json:"imageAlt,omitempty"`
	Schedule    []event.ScheduleItem `json:"schedule,omitempty"`
	Countdown   Countdown            `json:"countdown"`

	PriceFrom  string `json:"priceFrom,omitempty"`
	SaleStatus string `json:"saleStatus,omitempty"`
}

// BuildCard derives one card's display fields.
func BuildCard(ev event.Event, now time.Time) Card {
	badge := BadgeDraft
	if ev.IsPublished {
		badge = BadgePublished
	}

	image := ev.ImageURL
	if image == "" {
		image = event.PlaceholderImage
	}

	day := strings.TrimPrefix(ev.DisplayDay, "0")

	return Card{
		ID:          ev.ID,
		ArtistName:  ev.ArtistName,
		EventName:   ev.EventName,
		Date:        DateBadge{Month: ev.DisplayMonth, Day: day},
		VenueLine:   ev.VenueLine(),
		StatusBadge: badge,
		TicketURL:   ev.TicketURL,
		Image:       image,
		ImageAlt:    ev.ImageAlt,
		Schedule:    ev.Schedule,
		Countdown:   CountdownUntil(ev.EventDate, now),
	}
}
