// Package admin orchestrates event mutations against the document store and
// the artwork store. Every mutation is independent: bulk operations fan out
// concurrently, settle all, and report an aggregate outcome instead of
// failing silently or rolling back.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/digitalboostplus/dtxent/internal/blob"
	"github.com/digitalboostplus/dtxent/internal/docstore"
	"github.com/digitalboostplus/dtxent/internal/event"
	"github.com/digitalboostplus/dtxent/internal/metrics"
)

func record(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.MutationsTotal.WithLabelValues(op, outcome).Inc()
}

const eventsCollection = "events"

// ErrForbidden is returned before any side effect when the actor's role does
// not permit the operation.
var ErrForbidden = errors.New("role does not permit this operation")

// Actor is the authenticated admin performing a mutation.
type Actor struct {
	Email string
	Role  event.Role
}

// Upload is an image file submitted with a create or update.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// maxUploadBytes caps uploaded artwork at 2 MiB.
const maxUploadBytes = 2 << 20

var allowedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

func validateUpload(u *Upload) error {
	if !allowedUploadTypes[u.ContentType] {
		return &event.DataError{Field: "image", Reason: fmt.Sprintf("unsupported image type %q", u.ContentType)}
	}
	if len(u.Data) > maxUploadBytes {
		return &event.DataError{Field: "image", Reason: "image exceeds the 2 MB limit"}
	}
	return nil
}

// Outcome is the aggregate result of a bulk operation.
type Outcome struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// Coordinator owns event mutations. Records and assets are written in an
// order that never leaves a record pointing at an asset that was not stored.
type Coordinator struct {
	docs   docstore.Store
	assets blob.Store
	log    zerolog.Logger
	now    func() time.Time
}

// NewCoordinator wires a coordinator.
func NewCoordinator(docs docstore.Store, assets blob.Store, log zerolog.Logger) *Coordinator {
	return &Coordinator{docs: docs, assets: assets, log: log, now: time.Now}
}

// WithClock overrides the time source for tests.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// List returns every event record, drafts included, ordered by date.
func (c *Coordinator) List(ctx context.Context) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs, err := c.docs.List(ctx, eventsCollection, docstore.Query{OrderBy: "eventDate"})
	if err != nil {
		return nil, err
	}
	events := make([]event.Event, 0, len(docs))
	for _, doc := range docs {
		ev, err := event.Normalize(event.Raw{Source: event.SourceRemote, ID: doc.ID, Fields: doc.Fields})
		if err != nil {
			c.log.Warn().Err(err).Str("id", doc.ID).Msg("skipping malformed event document")
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Get fetches one event record.
func (c *Coordinator) Get(ctx context.Context, id string) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}

	doc, err := c.docs.Get(ctx, eventsCollection, id)
	if err != nil {
		return event.Event{}, err
	}
	return event.Normalize(event.Raw{Source: event.SourceRemote, ID: doc.ID, Fields: doc.Fields})
}

// Create validates and persists a new event. An image source is required: an
// uploaded file, an external imageUrl, or a bundled imageName. An uploaded
// asset is stored before the record so the record never references a missing
// asset.
func (c *Coordinator) Create(ctx context.Context, actor Actor, fields map[string]any, upload *Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fields = cloneFields(fields)
	if upload == nil && str(fields["imageUrl"]) == "" && str(fields["imageName"]) == "" {
		return "", &event.DataError{Field: "image", Reason: "an uploaded file or image URL is required"}
	}
	if upload != nil {
		if err := validateUpload(upload); err != nil {
			return "", err
		}
	}

	// Validate before touching storage.
	if _, err := event.Normalize(event.Raw{Source: event.SourceRemote, ID: "pending", Fields: fields}); err != nil {
		return "", err
	}

	if upload != nil {
		key := blob.ObjectKey(upload.Filename, c.now())
		url, err := c.assets.Put(ctx, key, upload.ContentType, upload.Data)
		if err != nil {
			return "", err
		}
		fields["imagePath"] = key
		fields["imageUrl"] = url
	}

	fields["createdAt"] = docstore.ServerTimestamp
	fields["updatedAt"] = docstore.ServerTimestamp
	fields["createdBy"] = actor.Email
	fields["updatedBy"] = actor.Email

	id, err := c.docs.Add(ctx, eventsCollection, fields)
	record("create", err)
	return id, err
}

// Update merges changed fields into an existing record. A new image, whether
// uploaded or external, replaces the old one: the new asset is stored first,
// then the previously owned asset is deleted best effort. Asset deletion
// failures are logged and never block the record write.
func (c *Coordinator) Update(ctx context.Context, actor Actor, id string, fields map[string]any, upload *Upload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if upload != nil {
		if err := validateUpload(upload); err != nil {
			return err
		}
	}

	existing, err := c.docs.Get(ctx, eventsCollection, id)
	if err != nil {
		return err
	}
	oldPath := str(existing.Fields["imagePath"])
	fields = cloneFields(fields)

	// Validate the merged record before touching any asset.
	merged := cloneFields(existing.Fields)
	for k, v := range fields {
		merged[k] = v
	}
	if _, err := event.Normalize(event.Raw{Source: event.SourceRemote, ID: id, Fields: merged}); err != nil {
		return err
	}

	switch {
	case upload != nil:
		key := blob.ObjectKey(upload.Filename, c.now())
		url, err := c.assets.Put(ctx, key, upload.ContentType, upload.Data)
		if err != nil {
			return err
		}
		c.deleteAsset(ctx, id, oldPath)
		fields["imagePath"] = key
		fields["imageUrl"] = url
	case str(fields["imageUrl"]) != "":
		// Switching to an external image orphans the owned asset.
		c.deleteAsset(ctx, id, oldPath)
		fields["imagePath"] = nil
	}

	fields["updatedAt"] = docstore.ServerTimestamp
	fields["updatedBy"] = actor.Email

	err = c.docs.Update(ctx, eventsCollection, id, fields)
	record("update", err)
	return err
}

// Delete removes a record and, best effort, its owned asset. Editors are
// rejected before any side effect.
func (c *Coordinator) Delete(ctx context.Context, actor Actor, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !actor.Role.CanDelete() {
		return fmt.Errorf("delete event: %w", ErrForbidden)
	}
	err := c.deleteOne(ctx, id)
	record("delete", err)
	return err
}

func (c *Coordinator) deleteOne(ctx context.Context, id string) error {
	existing, err := c.docs.Get(ctx, eventsCollection, id)
	if err != nil {
		return err
	}
	if err := c.docs.Delete(ctx, eventsCollection, id); err != nil {
		return err
	}
	c.deleteAsset(ctx, id, str(existing.Fields["imagePath"]))
	return nil
}

// TogglePublish flips a record's published flag.
func (c *Coordinator) TogglePublish(ctx context.Context, actor Actor, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	existing, err := c.docs.Get(ctx, eventsCollection, id)
	if err != nil {
		return false, err
	}
	next := existing.Fields["isPublished"] != true
	err = c.docs.Update(ctx, eventsCollection, id, map[string]any{
		"isPublished": next,
		"updatedAt":   docstore.ServerTimestamp,
		"updatedBy":   actor.Email,
	})
	record("toggle_publish", err)
	if err != nil {
		return false, err
	}
	return next, nil
}

// BulkDelete removes every selected record. Editors are rejected up front
// with no partial side effect.
func (c *Coordinator) BulkDelete(ctx context.Context, actor Actor, ids []string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if !actor.Role.CanDelete() {
		return Outcome{}, fmt.Errorf("bulk delete: %w", ErrForbidden)
	}
	return c.settleAll("bulk_delete", ids, func(id string) error {
		return c.deleteOne(ctx, id)
	}), nil
}

// BulkSetPublished applies the published flag to every selected record
// independently. A failed id does not roll back the others.
func (c *Coordinator) BulkSetPublished(ctx context.Context, actor Actor, ids []string, published bool) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	return c.settleAll("bulk_publish", ids, func(id string) error {
		return c.docs.Update(ctx, eventsCollection, id, map[string]any{
			"isPublished": published,
			"updatedAt":   docstore.ServerTimestamp,
			"updatedBy":   actor.Email,
		})
	}), nil
}

// settleAll runs one operation per id concurrently and waits for all of them.
func (c *Coordinator) settleAll(name string, ids []string, op func(id string) error) Outcome {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = Outcome{Errors: make(map[string]string)}
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			err := op(id)
			record(name, err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Failed++
				out.Errors[id] = err.Error()
				return
			}
			out.Succeeded++
		}(id)
	}
	wg.Wait()

	if len(out.Errors) == 0 {
		out.Errors = nil
	}
	return out
}

func (c *Coordinator) deleteAsset(ctx context.Context, id, path string) {
	if path == "" {
		return
	}
	if err := c.assets.Delete(ctx, path); err != nil {
		c.log.Warn().Err(err).Str("id", id).Str("asset", path).Msg("failed to delete old asset")
	}
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
