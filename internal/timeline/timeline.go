// Package timeline defines the entity model: timeline metadata, events and
// tags, the identifiers that cross-reference them, and the JSON wire shapes
// used by the exchange document.
//
// A timeline exclusively owns its events (cascade on delete); events
// reference tags weakly and tags are shareable across timelines.
package timeline

import (
	"errors"
	"time"

	"github.com/lifelinehq/lifeline/internal/datetime"
)

// SchemaVersion is the current exchange-document schema version.
const SchemaVersion = 1

// ErrShape is wrapped by every decode failure: missing required fields,
// wrong array-ness, unparseable dates, malformed JSON.
var ErrShape = errors.New("invalid shape")

// Typed identifiers. Zero means "not yet stored"; the store assigns real
// identifiers on insert and returns them directly.
type (
	TimelineID int64
	EventID    int64
	TagID      int64
)

// Metadata is the top-level record describing one timeline. EventIDs is the
// authoritative, ordered ownership list.
type Metadata struct {
	ID      TimelineID
	Version int

	Name        string
	Description string
	Start       datetime.DateTime
	End         datetime.DateTime
	EventIDs    []EventID

	CreatedOn    time.Time
	LastModified time.Time
}

// Event is a dated occurrence owned by exactly one timeline. An absent End
// means a point in time, or ongoing. TagIDs is ordered and may repeat.
type Event struct {
	ID EventID

	Name        string
	Description string
	Start       datetime.DateTime
	End         *datetime.DateTime
	TagIDs      []TagID

	CreatedOn    time.Time
	LastModified time.Time
}

// Tag is a named label referenced by events. Names are unique in the store.
type Tag struct {
	ID TagID

	Name        string
	Description string

	CreatedOn    time.Time
	LastModified time.Time
}

// Timeline is the fully resolved aggregate: metadata plus its owned events
// and every tag those events reference.
type Timeline struct {
	Metadata Metadata
	Events   []Event
	Tags     []Tag
}

// Tag looks up a resolved tag by id.
func (t *Timeline) Tag(id TagID) (Tag, bool) {
	for _, tag := range t.Tags {
		if tag.ID == id {
			return tag, true
		}
	}
	return Tag{}, false
}

// Document is the versioned exchange bundle: one timeline with its events
// and tags, self-describing via Version. Identifiers inside it refer to the
// source store's numbering and must be remapped on import.
type Document struct {
	Version  int      `json:"version"`
	Metadata Metadata `json:"metadata"`
	Events   []Event  `json:"events"`
	Tags     []Tag    `json:"tags"`
}
