package timeline

import (
	"encoding/json"
	"fmt"

	"github.com/lifelinehq/lifeline/internal/datetime"
)

type eventJSON struct {
	ID          EventID            `json:"id,omitempty"`
	Name        *string            `json:"name"`
	Description string             `json:"description,omitempty"`
	Start       *datetime.DateTime `json:"start"`
	End         *datetime.DateTime `json:"end,omitempty"`
	TagIDs      *[]TagID           `json:"tagIds"`
	CreatedOn   json.RawMessage    `json:"createdOn"`
	LastMod     json.RawMessage    `json:"lastModified"`
}

// MarshalJSON renders the exchange-document shape. TagIDs always serializes
// as an array, never null.
func (e Event) MarshalJSON() ([]byte, error) {
	name := e.Name
	start := e.Start
	tagIDs := e.TagIDs
	if tagIDs == nil {
		tagIDs = []TagID{}
	}
	return json.Marshal(eventJSON{
		ID:          e.ID,
		Name:        &name,
		Description: e.Description,
		Start:       &start,
		End:         e.End,
		TagIDs:      &tagIDs,
		CreatedOn:   mustMarshalString(formatTimestamp(e.CreatedOn)),
		LastMod:     mustMarshalString(formatTimestamp(e.LastModified)),
	})
}

// UnmarshalJSON decodes and shape-checks an event object: name, start and a
// tagIds array are required, and both timestamps must parse.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("event: %w: %v", ErrShape, err)
	}
	if raw.Name == nil {
		return fmt.Errorf("event: %w: missing name", ErrShape)
	}
	if raw.Start == nil {
		return fmt.Errorf("event: %w: missing start", ErrShape)
	}
	if raw.TagIDs == nil {
		return fmt.Errorf("event: %w: missing tagIds array", ErrShape)
	}
	createdOn, err := parseTimestamp(raw.CreatedOn)
	if err != nil {
		return fmt.Errorf("event: %w: createdOn: %v", ErrShape, err)
	}
	lastModified, err := parseTimestamp(raw.LastMod)
	if err != nil {
		return fmt.Errorf("event: %w: lastModified: %v", ErrShape, err)
	}
	*e = Event{
		ID:           raw.ID,
		Name:         *raw.Name,
		Description:  raw.Description,
		Start:        *raw.Start,
		End:          raw.End,
		TagIDs:       *raw.TagIDs,
		CreatedOn:    createdOn,
		LastModified: lastModified,
	}
	return nil
}

// EventFromJSON decodes a single event sub-document.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}
