// Package sitecfg manages the per-section site configuration documents that
// drive the public pages: hero copy, section headings, social links, footer,
// newsletter, SEO tags, and theme colors. A missing section is not an error,
// the site renders its built-in defaults.
package sitecfg

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/digitalboostplus/dtxent/internal/admin"
	"github.com/digitalboostplus/dtxent/internal/docstore"
	"github.com/digitalboostplus/dtxent/internal/event"
)

const collection = "siteConfig"

// Sections is the fixed set of configuration documents.
var Sections = []string{"hero", "sections", "social", "footer", "newsletter", "seo", "theme"}

// Service reads and writes site configuration.
type Service struct {
	docs docstore.Store
	log  zerolog.Logger
}

// NewService wires the service.
func NewService(docs docstore.Store, log zerolog.Logger) *Service {
	return &Service{docs: docs, log: log}
}

// Load fetches every section concurrently. Sections that are missing or fail
// to load are omitted from the result, never fatal.
func (s *Service) Load(ctx context.Context) (map[string]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]map[string]any, len(Sections))
	)
	for _, section := range Sections {
		wg.Add(1)
		go func(section string) {
			defer wg.Done()

			doc, err := s.docs.Get(ctx, collection, section)
			if errors.Is(err, docstore.ErrNotFound) {
				return
			}
			if err != nil {
				s.log.Warn().Err(err).Str("section", section).Msg("site config section failed to load")
				return
			}

			mu.Lock()
			out[section] = doc.Fields
			mu.Unlock()
		}(section)
	}
	wg.Wait()
	return out, nil
}

// Get fetches one section.
func (s *Service) Get(ctx context.Context, section string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !known(section) {
		return nil, &event.DataError{Field: "section", Reason: fmt.Sprintf("unknown section %q", section)}
	}

	doc, err := s.docs.Get(ctx, collection, section)
	if err != nil {
		return nil, err
	}
	return doc.Fields, nil
}

// Save merge-writes one section. Editors may not change site configuration.
func (s *Service) Save(ctx context.Context, actor admin.Actor, section string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !actor.Role.CanManageSettings() {
		return fmt.Errorf("save site config: %w", admin.ErrForbidden)
	}
	if !known(section) {
		return &event.DataError{Field: "section", Reason: fmt.Sprintf("unknown section %q", section)}
	}

	write := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		write[k] = v
	}
	write["updatedAt"] = docstore.ServerTimestamp
	write["updatedBy"] = actor.Email
	return s.docs.Set(ctx, collection, section, write, true)
}

func known(section string) bool {
	for _, s := range Sections {
		if s == section {
			return true
		}
	}
	return false
}
