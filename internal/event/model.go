package event

import (
	"fmt"
	"time"
)

// PerformerType values accepted by the schema descriptors. Anything else is
// passed through untouched; "Person" is the default.
const DefaultPerformerType = "Person"

// PlaceholderImage is served when a record carries no usable image reference.
const PlaceholderImage = "assets/dtxent-logo.png"

// ScheduleItem is one row of a show-day schedule. Only rows with both fields
// non-empty are kept.
type ScheduleItem struct {
	Time        string `json:"time"`
	Description string `json:"description"`
}

// EngagementDate is one entry of a multi-date engagement. When an event
// carries dates, index 0 mirrors the primary EventDate and TicketURL.
type EngagementDate struct {
	Date      time.Time `json:"date"`
	TicketURL string    `json:"ticketUrl"`
}

// Event is the canonical in-memory representation of a show, independent of
// whether it arrived from the bundled fallback feed or the remote store.
type Event struct {
	ID            string           `json:"id"`
	ArtistName    string           `json:"artistName"`
	EventName     string           `json:"eventName"`
	EventDate     time.Time        `json:"eventDate"`
	DisplayMonth  string           `json:"displayMonth"`
	DisplayDay    string           `json:"displayDay"`
	PerformerType string           `json:"performerType"`
	VenueName     string           `json:"venueName,omitempty"`
	VenueCity     string           `json:"venueCity,omitempty"`
	VenueState    string           `json:"venueState,omitempty"`
	VenueFullName string           `json:"venueFullName,omitempty"`
	TicketURL     string           `json:"ticketUrl,omitempty"`
	ImageURL      string           `json:"imageUrl,omitempty"`
	ImagePath     string           `json:"imagePath,omitempty"`
	ImageAlt      string           `json:"imageAlt,omitempty"`
	IsPublished   bool             `json:"isPublished"`
	Schedule      []ScheduleItem   `json:"schedule,omitempty"`
	Dates         []EngagementDate `json:"dates,omitempty"`
	CreatedAt     time.Time        `json:"createdAt,omitempty"`
	UpdatedAt     time.Time        `json:"updatedAt,omitempty"`
	CreatedBy     string           `json:"createdBy,omitempty"`
	UpdatedBy     string           `json:"updatedBy,omitempty"`
}

// VenueLine returns the stored venueFullName, or derives it from the three
// venue fields when absent.
func (e Event) VenueLine() string {
	if e.VenueFullName != "" {
		return e.VenueFullName
	}
	return fmt.Sprintf("%s, %s, %s", e.VenueName, e.VenueCity, e.VenueState)
}

// OwnsImage reports whether the event's image lives in our own asset storage,
// as opposed to an externally hosted URL.
func (e Event) OwnsImage() bool {
	return e.ImagePath != ""
}

// Role is the access level of an admin account.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// ParseRole validates a stored role string, defaulting unknown values to the
// most restricted level.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleEditor:
		return Role(s)
	default:
		return RoleEditor
	}
}

// CanDelete reports whether the role may delete events (single or bulk).
func (r Role) CanDelete() bool {
	return r == RoleOwner || r == RoleAdmin
}

// CanManageSettings reports whether the role may touch site settings,
// lifestyle listings, and the admins collection.
func (r Role) CanManageSettings() bool {
	return r == RoleOwner || r == RoleAdmin
}

// AdminUser is one entry of the admins collection, keyed by email.
type AdminUser struct {
	Email   string    `json:"email"`
	Role    Role      `json:"role"`
	AddedBy string    `json:"addedBy,omitempty"`
	AddedAt time.Time `json:"addedAt,omitempty"`
}

// LifestyleListing is a club, restaurant, or hotel card.
type LifestyleListing struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type,omitempty"`
	City        string   `json:"city,omitempty"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image,omitempty"`
	Link        string   `json:"link,omitempty"`
	Price       string   `json:"price,omitempty"`
	Stars       int      `json:"stars,omitempty"`
	Features    []string `json:"features,omitempty"`
	SortOrder   int      `json:"sortOrder"`
	IsPublished bool     `json:"isPublished"`
}
