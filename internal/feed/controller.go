package feed

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/digitalboostplus/dtxent/internal/docstore"
	"github.com/digitalboostplus/dtxent/internal/event"
	"github.com/digitalboostplus/dtxent/internal/metrics"
)

const eventsCollection = "events"

// Controller owns the remote subscription. At most one subscription is live
// at a time: Start cancels any prior one before establishing its own, and a
// snapshot from a superseded subscription is discarded.
type Controller struct {
	docs  docstore.Store
	store *Store
	log   zerolog.Logger

	mu     sync.Mutex
	cancel docstore.CancelFunc
	gen    uint64
}

// NewController wires a controller to the document store and the feed store.
func NewController(docs docstore.Store, store *Store, log zerolog.Logger) *Controller {
	return &Controller{docs: docs, store: store, log: log}
}

// Start subscribes to the published event set, replacing any active
// subscription. Snapshot callbacks run until Stop or a later Start.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	// Subscribe runs outside the lock: adapters may deliver the initial
	// snapshot synchronously, and the callback needs the lock too.
	q := docstore.Query{
		Eq:      map[string]any{"isPublished": true},
		OrderBy: "eventDate",
	}
	cancel, err := c.docs.Subscribe(ctx, eventsCollection, q, func(docs []docstore.Document, err error) {
		if !c.current(gen) {
			return
		}
		if err != nil {
			c.log.Error().Err(err).Msg("event feed error, reverting to fallback")
			metrics.FeedSnapshots.WithLabelValues("error").Inc()
			c.store.ApplyRemoteError()
			return
		}
		metrics.FeedSnapshots.WithLabelValues("applied").Inc()
		c.store.ApplyRemote(c.normalize(docs))
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		cancel()
		return nil
	}
	c.cancel = cancel
	return nil
}

// Stop cancels the active subscription, if any.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

// normalize converts snapshot documents to canonical events. A document that
// fails normalization is logged and skipped so one bad record cannot blank
// the whole feed.
func (c *Controller) normalize(docs []docstore.Document) []event.Event {
	events := make([]event.Event, 0, len(docs))
	for _, doc := range docs {
		ev, err := event.Normalize(event.Raw{
			Source: event.SourceRemote,
			ID:     doc.ID,
			Fields: doc.Fields,
		})
		if err != nil {
			c.log.Warn().Err(err).Str("id", doc.ID).Msg("skipping malformed event document")
			continue
		}
		events = append(events, ev)
	}
	return events
}
