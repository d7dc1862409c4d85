package exchange

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lifelinehq/lifeline/internal/store"
	"github.com/lifelinehq/lifeline/internal/timeline"
)

// Export bundles a timeline with its events and tags into a self-describing
// document. The store load already refuses to under-resolve event or tag
// references, so an exported document is always internally consistent.
func Export(s *store.Store, id timeline.TimelineID) (*timeline.Document, error) {
	t, err := s.GetTimelineByID(id)
	if err != nil {
		return nil, err
	}
	events := t.Events
	if events == nil {
		events = []timeline.Event{}
	}
	tags := t.Tags
	if tags == nil {
		tags = []timeline.Tag{}
	}
	return &timeline.Document{
		Version:  versions.Latest().Version,
		Metadata: t.Metadata,
		Events:   events,
		Tags:     tags,
	}, nil
}

// ExportJSON serializes the document. Pretty-printing is formatting only; it
// has no semantic effect.
func ExportJSON(s *store.Store, id timeline.TimelineID, pretty bool) ([]byte, error) {
	doc, err := Export(s, id)
	if err != nil {
		return nil, err
	}
	if pretty {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal document: %w", err)
		}
		return data, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

// ExportFile writes the document to path.
func ExportFile(s *store.Store, id timeline.TimelineID, path string, pretty bool) error {
	data, err := ExportJSON(s, id, pretty)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}
