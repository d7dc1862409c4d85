package exchange

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lifelinehq/lifeline/internal/store"
	"github.com/lifelinehq/lifeline/internal/timeline"
)

// ErrVersion means the document declares a schema version this build does
// not recognize.
var ErrVersion = errors.New("unsupported document version")

// Import parses an exchange document, validates it against its declared
// schema version, and inserts it into the store as a new timeline with all
// identifiers remapped. Nothing is written unless the whole document is
// valid; the remapping insert itself is transactional.
func Import(s *store.Store, data []byte) (timeline.TimelineID, error) {
	var probe struct {
		Version json.RawMessage `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, wrapShape(err)
	}
	if probe.Version == nil {
		return 0, fmt.Errorf("document: %w: missing version field", timeline.ErrShape)
	}

	var version int
	if err := json.Unmarshal(probe.Version, &version); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrVersion, probe.Version)
	}

	rec, ok := versions.Find(version)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrVersion, version)
	}

	doc, err := rec.Decode(data)
	if err != nil {
		return 0, err
	}
	return s.ImportTimeline(doc)
}

func wrapShape(err error) error {
	if errors.Is(err, timeline.ErrShape) {
		return err
	}
	return fmt.Errorf("document: %w: %v", timeline.ErrShape, err)
}
