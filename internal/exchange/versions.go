// Package exchange implements the versioned JSON import/export protocol for
// timelines, plus a flat CSV event export.
package exchange

import (
	"encoding/json"
	"fmt"

	"github.com/lifelinehq/lifeline/internal/timeline"
)

type decodeFunc func([]byte) (*timeline.Document, error)

// a box holding the number and decoder for one document schema version.
type versionRecord struct {
	Version int
	Decode  decodeFunc
}

// an immutable container of every known schema version. The last entry is
// always the latest.
type versionDatabase struct {
	versions []versionRecord
	byNumber map[int]*versionRecord
}

func (d versionDatabase) Latest() versionRecord {
	return d.versions[len(d.versions)-1]
}

func (d versionDatabase) Find(version int) (versionRecord, bool) {
	rec, ok := d.byNumber[version]
	if !ok {
		return versionRecord{}, false
	}
	return *rec, true
}

func newVersionDatabase(records ...versionRecord) versionDatabase {
	if len(records) == 0 {
		panic("must be called with at least one version record")
	}
	versions := make([]versionRecord, len(records))
	byNumber := make(map[int]*versionRecord, len(records))
	for i, r := range records {
		if _, ok := byNumber[r.Version]; ok {
			panic(fmt.Sprintf("duplicate document version %d", r.Version))
		}
		versions[i] = r
		byNumber[r.Version] = &versions[i]
	}
	return versionDatabase{versions, byNumber}
}

// the canonical list of document versions, oldest to newest.
var versions = newVersionDatabase(
	versionRecord{Version: 1, Decode: decodeV1},
)

// decodeV1 validates and deserializes a version-1 document. The entity
// unmarshalers perform the per-object shape checks.
func decodeV1(data []byte) (*timeline.Document, error) {
	var raw struct {
		Metadata *timeline.Metadata `json:"metadata"`
		Events   *[]timeline.Event  `json:"events"`
		Tags     *[]timeline.Tag    `json:"tags"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, wrapShape(err)
	}
	if raw.Metadata == nil {
		return nil, fmt.Errorf("document: %w: missing metadata object", timeline.ErrShape)
	}
	if raw.Events == nil {
		return nil, fmt.Errorf("document: %w: missing events array", timeline.ErrShape)
	}
	if raw.Tags == nil {
		return nil, fmt.Errorf("document: %w: missing tags array", timeline.ErrShape)
	}
	return &timeline.Document{
		Version:  1,
		Metadata: *raw.Metadata,
		Events:   *raw.Events,
		Tags:     *raw.Tags,
	}, nil
}
