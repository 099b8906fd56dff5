package render

import (
	"github.com/digitalboostplus/dtxent/internal/event"
)

// JSON-LD descriptor types mirroring the schema.org vocabulary. One ItemList
// is embedded per page render.

type ItemList struct {
	Context string       `json:"@context"`
	Type    string       `json:"@type"`
	Items   []SchemaItem `json:"itemListElement"`
}

type SchemaItem struct {
	Type      string      `json:"@type"`
	Name      string      `json:"name"`
	StartDate string      `json:"startDate"`
	Location  SchemaPlace `json:"location"`
	Offers    SchemaOffer `json:"offers"`
	Performer Performer   `json:"performer"`
	Image     string      `json:"image,omitempty"`
}

type SchemaPlace struct {
	Type    string        `json:"@type"`
	Name    string        `json:"name"`
	Address SchemaAddress `json:"address"`
}

type SchemaAddress struct {
	Type     string `json:"@type"`
	Locality string `json:"addressLocality,omitempty"`
	Region   string `json:"addressRegion,omitempty"`
}

type SchemaOffer struct {
	Type         string `json:"@type"`
	URL          string `json:"url,omitempty"`
	Availability string `json:"availability"`
}

type Performer struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

// BuildItemList emits one descriptor per event. startDate is the date only,
// matching what search engines index for event listings.
func BuildItemList(events []event.Event) ItemList {
	items := make([]SchemaItem, 0, len(events))
	for _, ev := range events {
		performerType := ev.PerformerType
		if performerType == "" {
			performerType = event.DefaultPerformerType
		}
		items = append(items, SchemaItem{
			Type:      "Event",
			Name:      ev.ArtistName + " - " + ev.EventName,
			StartDate: ev.EventDate.Format("2006-01-02"),
			Location: SchemaPlace{
				Type: "Place",
				Name: ev.VenueName,
				Address: SchemaAddress{
					Type:     "PostalAddress",
					Locality: ev.VenueCity,
					Region:   ev.VenueState,
				},
			},
			Offers: SchemaOffer{
				Type:         "Offer",
				URL:          ev.TicketURL,
				Availability: "https://schema.org/InStock",
			},
			Performer: Performer{
				Type: performerType,
				Name: ev.ArtistName,
			},
			Image: ev.ImageURL,
		})
	}
	return ItemList{
		Context: "https://schema.org",
		Type:    "ItemList",
		Items:   items,
	}
}
