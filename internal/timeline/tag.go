package timeline

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Tag names are lowercase identifiers: letters, digits, brackets, braces,
// parens, dashes and underscores. No spaces, no uppercase.
var tagNameRe = regexp.MustCompile(`^[a-z0-9\[\](){}_-]+$`)

// ValidTagName reports whether name matches the tag-name grammar.
func ValidTagName(name string) bool {
	return tagNameRe.MatchString(name)
}

type tagJSON struct {
	ID          TagID           `json:"id,omitempty"`
	Name        *string         `json:"name"`
	Description string          `json:"description,omitempty"`
	CreatedOn   json.RawMessage `json:"createdOn"`
	LastMod     json.RawMessage `json:"lastModified"`
}

// MarshalJSON renders the exchange-document shape with RFC 7231 timestamps.
func (t Tag) MarshalJSON() ([]byte, error) {
	name := t.Name
	return json.Marshal(tagJSON{
		ID:          t.ID,
		Name:        &name,
		Description: t.Description,
		CreatedOn:   mustMarshalString(formatTimestamp(t.CreatedOn)),
		LastMod:     mustMarshalString(formatTimestamp(t.LastModified)),
	})
}

// UnmarshalJSON decodes and shape-checks a tag object. Failures wrap
// ErrShape and name the offending field.
func (t *Tag) UnmarshalJSON(data []byte) error {
	var raw tagJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tag: %w: %v", ErrShape, err)
	}
	if raw.Name == nil {
		return fmt.Errorf("tag: %w: missing name", ErrShape)
	}
	createdOn, err := parseTimestamp(raw.CreatedOn)
	if err != nil {
		return fmt.Errorf("tag: %w: createdOn: %v", ErrShape, err)
	}
	lastModified, err := parseTimestamp(raw.LastMod)
	if err != nil {
		return fmt.Errorf("tag: %w: lastModified: %v", ErrShape, err)
	}
	*t = Tag{
		ID:           raw.ID,
		Name:         *raw.Name,
		Description:  raw.Description,
		CreatedOn:    createdOn,
		LastModified: lastModified,
	}
	return nil
}

// TagFromJSON decodes a single tag sub-document.
func TagFromJSON(data []byte) (Tag, error) {
	var t Tag
	err := json.Unmarshal(data, &t)
	return t, err
}

func mustMarshalString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
