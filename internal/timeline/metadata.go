package timeline

import (
	"encoding/json"
	"fmt"

	"github.com/lifelinehq/lifeline/internal/datetime"
)

type metadataJSON struct {
	ID          TimelineID         `json:"id,omitempty"`
	Name        string             `json:"name,omitempty"`
	Description string             `json:"description,omitempty"`
	Start       *datetime.DateTime `json:"start"`
	End         *datetime.DateTime `json:"end"`
	EventIDs    *[]EventID         `json:"eventIds"`
	CreatedOn   json.RawMessage    `json:"createdOn"`
	LastMod     json.RawMessage    `json:"lastModified"`
}

// MarshalJSON renders the exchange-document shape. The schema version is not
// part of the metadata object; the enclosing document carries it.
func (m Metadata) MarshalJSON() ([]byte, error) {
	start, end := m.Start, m.End
	eventIDs := m.EventIDs
	if eventIDs == nil {
		eventIDs = []EventID{}
	}
	return json.Marshal(metadataJSON{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Start:       &start,
		End:         &end,
		EventIDs:    &eventIDs,
		CreatedOn:   mustMarshalString(formatTimestamp(m.CreatedOn)),
		LastMod:     mustMarshalString(formatTimestamp(m.LastModified)),
	})
}

// UnmarshalJSON decodes and shape-checks a metadata object: start, end, an
// eventIds array and both timestamps are required.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw metadataJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("metadata: %w: %v", ErrShape, err)
	}
	if raw.Start == nil {
		return fmt.Errorf("metadata: %w: missing start", ErrShape)
	}
	if raw.End == nil {
		return fmt.Errorf("metadata: %w: missing end", ErrShape)
	}
	if raw.EventIDs == nil {
		return fmt.Errorf("metadata: %w: missing eventIds array", ErrShape)
	}
	createdOn, err := parseTimestamp(raw.CreatedOn)
	if err != nil {
		return fmt.Errorf("metadata: %w: createdOn: %v", ErrShape, err)
	}
	lastModified, err := parseTimestamp(raw.LastMod)
	if err != nil {
		return fmt.Errorf("metadata: %w: lastModified: %v", ErrShape, err)
	}
	*m = Metadata{
		ID:           raw.ID,
		Version:      SchemaVersion,
		Name:         raw.Name,
		Description:  raw.Description,
		Start:        *raw.Start,
		End:          *raw.End,
		EventIDs:     *raw.EventIDs,
		CreatedOn:    createdOn,
		LastModified: lastModified,
	}
	return nil
}

// MetadataFromJSON decodes a single metadata sub-document.
func MetadataFromJSON(data []byte) (Metadata, error) {
	var m Metadata
	err := json.Unmarshal(data, &m)
	return m, err
}
