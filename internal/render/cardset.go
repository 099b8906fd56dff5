package render

import (
	"fmt"
	"sync"
	"time"

	"github.com/digitalboostplus/dtxent/internal/event"
	"github.com/digitalboostplus/dtxent/internal/ticketing"
)

// CardSet is one rendered view of a display subset. Enrichment lookups land
// asynchronously; a result for a card that is no longer in the set is
// silently dropped, so stale responses from a superseded render are no-ops.
type CardSet struct {
	mu    sync.RWMutex
	order []string
	cards map[string]*Card
	meta  ItemList
}

// BuildCardSet renders the subset in order and regenerates the embedded
// metadata, replacing whatever a previous render emitted.
func BuildCardSet(events []event.Event, now time.Time) *CardSet {
	set := &CardSet{
		order: make([]string, 0, len(events)),
		cards: make(map[string]*Card, len(events)),
		meta:  BuildItemList(events),
	}
	for _, ev := range events {
		card := BuildCard(ev, now)
		set.order = append(set.order, card.ID)
		set.cards[card.ID] = &card
	}
	return set
}

// Cards returns the cards in display order.
func (s *CardSet) Cards() []Card {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Card, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.cards[id])
	}
	return out
}

// Card returns one card by id.
func (s *CardSet) Card(id string) (Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	card, ok := s.cards[id]
	if !ok {
		return Card{}, false
	}
	return *card, true
}

// Meta returns the machine-readable descriptor list for this render.
func (s *CardSet) Meta() ItemList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// Enrich applies a ticketing lookup to one card in place. Unknown ids are
// ignored.
func (s *CardSet) Enrich(id string, details *ticketing.Details) {
	if details == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.cards[id]
	if !ok {
		return
	}
	if amount, currency, ok := details.PriceFrom(); ok {
		card.PriceFrom = fmt.Sprintf("%.2f %s", amount, currency)
	}
	if status := details.Status(); status != "" {
		card.SaleStatus = status
	}
}
