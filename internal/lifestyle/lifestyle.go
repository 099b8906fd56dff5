// Package lifestyle manages the club, dining, and hotel listings shown on the
// public site alongside the event calendar.
package lifestyle

import (
	"context"
	"fmt"
	"sort"

	"github.com/digitalboostplus/dtxent/internal/admin"
	"github.com/digitalboostplus/dtxent/internal/docstore"
	"github.com/digitalboostplus/dtxent/internal/event"
)

const collection = "lifestyle"

// Listing categories.
const (
	TypeClub       = "club"
	TypeRestaurant = "restaurant"
	TypeHotel      = "hotel"
)

// Service reads and writes lifestyle listings.
type Service struct {
	docs docstore.Store
}

// NewService wires the service.
func NewService(docs docstore.Store) *Service {
	return &Service{docs: docs}
}

// Published returns the published listings of one category, ordered by
// sortOrder with stored order breaking ties.
func (s *Service) Published(ctx context.Context, kind string) ([]event.LifestyleListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validKind(kind); err != nil {
		return nil, err
	}

	docs, err := s.docs.List(ctx, collection, docstore.Query{
		Eq: map[string]any{"type": kind, "isPublished": true},
	})
	if err != nil {
		return nil, err
	}
	return sorted(docs), nil
}

// All returns every listing, drafts included, grouped by category order for
// the admin screens.
func (s *Service) All(ctx context.Context) ([]event.LifestyleListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs, err := s.docs.List(ctx, collection, docstore.Query{})
	if err != nil {
		return nil, err
	}
	return sorted(docs), nil
}

// Save creates or updates a listing. Editors may not manage listings.
func (s *Service) Save(ctx context.Context, actor admin.Actor, listing event.LifestyleListing) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !actor.Role.CanManageSettings() {
		return "", fmt.Errorf("save listing: %w", admin.ErrForbidden)
	}
	if listing.Name == "" {
		return "", &event.DataError{Field: "name", Reason: "required"}
	}
	if err := validKind(listing.Type); err != nil {
		return "", err
	}

	fields := map[string]any{
		"name":        listing.Name,
		"type":        listing.Type,
		"city":        listing.City,
		"description": listing.Description,
		"image":       listing.Image,
		"link":        listing.Link,
		"price":       listing.Price,
		"stars":       listing.Stars,
		"features":    anySlice(listing.Features),
		"sortOrder":   listing.SortOrder,
		"isPublished": listing.IsPublished,
		"updatedAt":   docstore.ServerTimestamp,
		"updatedBy":   actor.Email,
	}

	if listing.ID == "" {
		return s.docs.Add(ctx, collection, fields)
	}
	return listing.ID, s.docs.Set(ctx, collection, listing.ID, fields, true)
}

// Delete removes a listing. Editors may not manage listings.
func (s *Service) Delete(ctx context.Context, actor admin.Actor, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !actor.Role.CanManageSettings() {
		return fmt.Errorf("delete listing: %w", admin.ErrForbidden)
	}
	return s.docs.Delete(ctx, collection, id)
}

func sorted(docs []docstore.Document) []event.LifestyleListing {
	listings := make([]event.LifestyleListing, 0, len(docs))
	for _, doc := range docs {
		listings = append(listings, fromDoc(doc))
	}
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].SortOrder < listings[j].SortOrder
	})
	return listings
}

func fromDoc(doc docstore.Document) event.LifestyleListing {
	l := event.LifestyleListing{
		ID:          doc.ID,
		Name:        str(doc.Fields["name"]),
		Type:        str(doc.Fields["type"]),
		City:        str(doc.Fields["city"]),
		Description: str(doc.Fields["description"]),
		Image:       str(doc.Fields["image"]),
		Link:        str(doc.Fields["link"]),
		Price:       str(doc.Fields["price"]),
		Stars:       intVal(doc.Fields["stars"]),
		SortOrder:   intVal(doc.Fields["sortOrder"]),
		IsPublished: doc.Fields["isPublished"] == true,
	}
	if raw, ok := doc.Fields["features"].([]any); ok {
		for _, f := range raw {
			if s := str(f); s != "" {
				l.Features = append(l.Features, s)
			}
		}
	}
	return l
}

func validKind(kind string) error {
	switch kind {
	case TypeClub, TypeRestaurant, TypeHotel:
		return nil
	default:
		return &event.DataError{Field: "type", Reason: fmt.Sprintf("unknown listing type %q", kind)}
	}
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func intVal(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
