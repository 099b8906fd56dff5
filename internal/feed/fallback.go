// Package feed maintains the displayed event list. It merges a bundled
// fallback feed with live snapshots from the document store under fixed
// precedence rules.
package feed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/digitalboostplus/dtxent/internal/event"
)

//go:embed fallback_events.yaml
var fallbackYAML []byte

// FallbackEvents decodes the bundled event set. The records go through the
// same normalizer as remote documents so both feeds share one canonical shape.
func FallbackEvents() ([]event.Event, error) {
	var doc struct {
		Events []map[string]any `yaml:"events"`
	}
	if err := yaml.Unmarshal(fallbackYAML, &doc); err != nil {
		return nil, fmt.Errorf("decode fallback events: %w", err)
	}

	events := make([]event.Event, 0, len(doc.Events))
	for i, fields := range doc.Events {
		artist, _ := fields["artistName"].(string)
		raw := event.Raw{
			Source: event.SourceLocal,
			ID:     event.LocalID(artist),
			Fields: fields,
		}
		ev, err := event.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("fallback event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
