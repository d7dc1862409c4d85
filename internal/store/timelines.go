package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lifelinehq/lifeline/internal/datetime"
	"github.com/lifelinehq/lifeline/internal/timeline"
)

// CreateTimeline inserts new metadata with an empty event list and returns
// the assigned id.
func (s *Store) CreateTimeline(start, end datetime.DateTime, name, description string) (timeline.TimelineID, error) {
	now := nowRFC3339()
	res, err := s.db.Exec(
		`INSERT INTO metadata (name, description, start, "end", event_ids, created_on, last_modified)
		 VALUES (?, ?, ?, ?, '[]', ?, ?)`,
		name, description, encodeDateTime(start), encodeDateTime(end), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert metadata: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		return 0, fmt.Errorf("insert metadata: no id assigned: %w", err)
	}
	return timeline.TimelineID(id), nil
}

// GetTimelineByID loads metadata, then every event it owns, then every tag
// those events reference. A shortfall in either resolution is ErrIntegrity:
// the id lists are authoritative and a partial timeline would silently hide
// data loss.
func (s *Store) GetTimelineByID(id timeline.TimelineID) (*timeline.Timeline, error) {
	md, err := getMetadata(s.db, id)
	if err != nil {
		return nil, err
	}

	events, err := getEventsByIDs(s.db, md.EventIDs)
	if err != nil {
		return nil, err
	}
	if len(events) != len(md.EventIDs) {
		return nil, fmt.Errorf(
			"timeline %d: %w: references %d events, resolved %d",
			id, ErrIntegrity, len(md.EventIDs), len(events))
	}

	tagIDs := referencedTagIDs(events)
	tags, err := getTagsByIDs(s.db, tagIDs)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, fmt.Errorf(
			"timeline %d: %w: events reference %d unique tags, resolved %d",
			id, ErrIntegrity, len(tagIDs), len(tags))
	}

	return &timeline.Timeline{Metadata: md, Events: events, Tags: tags}, nil
}

// referencedTagIDs collects the de-duplicated union of the events' tag
// references, in first-seen order.
func referencedTagIDs(events []timeline.Event) []timeline.TagID {
	var ids []timeline.TagID
	seen := make(map[timeline.TagID]bool)
	for _, e := range events {
		for _, tid := range e.TagIDs {
			if !seen[tid] {
				seen[tid] = true
				ids = append(ids, tid)
			}
		}
	}
	return ids
}

// ListTimelineMetadata returns every timeline's metadata, most recently
// modified first, without loading events or tags.
func (s *Store) ListTimelineMetadata() ([]timeline.Metadata, error) {
	rows, err := s.db.Query(
		`SELECT id, name, description, start, "end", event_ids, created_on, last_modified
		 FROM metadata ORDER BY last_modified DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	defer rows.Close()

	var list []timeline.Metadata
	for rows.Next() {
		md, err := scanMetadata(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, md)
	}
	return list, rows.Err()
}

// DeleteTimelineByID removes the metadata and cascades to its owned events.
// Tags are never deleted automatically: they may be shared by events of
// other timelines. Use DeleteTag for explicit removal.
func (s *Store) DeleteTimelineByID(id timeline.TimelineID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete timeline: %w", err)
	}
	defer tx.Rollback()

	md, err := getMetadata(tx, id)
	if err != nil {
		return err
	}
	if err := deleteEvents(tx, md.EventIDs); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM metadata WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete metadata %d: %w", id, err)
	}
	return tx.Commit()
}

// AddEventToTimeline inserts the event with fresh timestamps, appends its new
// id to the timeline's ownership list and bumps lastModified, all in one
// transaction.
func (s *Store) AddEventToTimeline(e timeline.Event, id timeline.TimelineID) (timeline.EventID, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("add event: %w", err)
	}
	defer tx.Rollback()

	md, err := getMetadata(tx, id)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	e.CreatedOn = now
	e.LastModified = now
	eid, err := insertEvent(tx, e)
	if err != nil {
		return 0, err
	}

	if err := setEventIDs(tx, md.ID, append(md.EventIDs, eid)); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("add event: %w", err)
	}
	return eid, nil
}

// RemoveEventFromTimeline deletes one owned event and drops it from the
// timeline's ownership list. The event's tag references go with it; the tags
// themselves stay.
func (s *Store) RemoveEventFromTimeline(eventID timeline.EventID, id timeline.TimelineID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("remove event: %w", err)
	}
	defer tx.Rollback()

	md, err := getMetadata(tx, id)
	if err != nil {
		return err
	}

	kept := md.EventIDs[:0]
	found := false
	for _, eid := range md.EventIDs {
		if eid == eventID {
			found = true
			continue
		}
		kept = append(kept, eid)
	}
	if !found {
		return fmt.Errorf("event %d in timeline %d: %w", eventID, id, ErrNotFound)
	}

	if err := deleteEvents(tx, []timeline.EventID{eventID}); err != nil {
		return err
	}
	if err := setEventIDs(tx, md.ID, kept); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveTimeline bulk-upserts the timeline's events (assigning ids to any
// event that lacks one), rewrites the ownership list to match, and persists
// the metadata. The timeline must already carry an id; there is no implicit
// create-on-save.
func (s *Store) SaveTimeline(t *timeline.Timeline) error {
	if t.Metadata.ID == 0 {
		return fmt.Errorf("save timeline: metadata has no id")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save timeline: %w", err)
	}
	defer tx.Rollback()

	if _, err := getMetadata(tx, t.Metadata.ID); err != nil {
		return err
	}

	eventIDs := make([]timeline.EventID, 0, len(t.Events))
	for i := range t.Events {
		e := &t.Events[i]
		if e.ID == 0 {
			id, err := insertEvent(tx, *e)
			if err != nil {
				return err
			}
			e.ID = id
		} else {
			if err := updateEvent(tx, *e); err != nil {
				return err
			}
		}
		eventIDs = append(eventIDs, e.ID)
	}

	t.Metadata.EventIDs = eventIDs
	t.Metadata.LastModified = time.Now().UTC()
	if _, err := tx.Exec(
		`UPDATE metadata SET name = ?, description = ?, start = ?, "end" = ?, event_ids = ?, last_modified = ?
		 WHERE id = ?`,
		t.Metadata.Name, t.Metadata.Description,
		encodeDateTime(t.Metadata.Start), encodeDateTime(t.Metadata.End),
		encodeIDs(eventIDs), t.Metadata.LastModified.Format(time.RFC3339),
		t.Metadata.ID,
	); err != nil {
		return fmt.Errorf("update metadata %d: %w", t.Metadata.ID, err)
	}
	return tx.Commit()
}

// ImportTimeline inserts a decoded exchange document as a brand-new
// timeline, remapping every identifier: foreign ids are meaningful only in
// the source document and must not collide with local ones. The whole remap
// runs in one transaction, so a failed import writes nothing.
func (s *Store) ImportTimeline(doc *timeline.Document) (timeline.TimelineID, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("import timeline: %w", err)
	}
	defer tx.Rollback()

	tagMap := make(map[timeline.TagID]timeline.TagID, len(doc.Tags))
	for _, t := range doc.Tags {
		if t.ID == 0 {
			// Decoded documents always number their tags; an id-less tag is
			// a bug upstream, not recoverable input.
			return 0, fmt.Errorf("import timeline: tag %q has no source id", t.Name)
		}
		foreign := t.ID
		t.ID = 0
		newID, err := insertImportedTag(tx, t)
		if err != nil {
			return 0, err
		}
		tagMap[foreign] = newID
	}

	eventIDs := make([]timeline.EventID, 0, len(doc.Events))
	for _, e := range doc.Events {
		e.ID = 0
		remapped := make([]timeline.TagID, 0, len(e.TagIDs))
		for _, tid := range e.TagIDs {
			if newID, ok := tagMap[tid]; ok {
				remapped = append(remapped, newID)
			}
			// A tag id absent from the document's own tag list is dropped;
			// Export refuses to produce such documents.
		}
		e.TagIDs = remapped
		id, err := insertEvent(tx, e)
		if err != nil {
			return 0, err
		}
		eventIDs = append(eventIDs, id)
	}

	md := doc.Metadata
	res, err := tx.Exec(
		`INSERT INTO metadata (name, description, start, "end", event_ids, created_on, last_modified)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		md.Name, md.Description,
		encodeDateTime(md.Start), encodeDateTime(md.End), encodeIDs(eventIDs),
		md.CreatedOn.UTC().Format(time.RFC3339), md.LastModified.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert imported metadata: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		return 0, fmt.Errorf("insert imported metadata: no id assigned: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("import timeline: %w", err)
	}
	return timeline.TimelineID(id), nil
}

func setEventIDs(q dbtx, id timeline.TimelineID, ids []timeline.EventID) error {
	if _, err := q.Exec(
		`UPDATE metadata SET event_ids = ?, last_modified = ? WHERE id = ?`,
		encodeIDs(ids), nowRFC3339(), id,
	); err != nil {
		return fmt.Errorf("update metadata %d event list: %w", id, err)
	}
	return nil
}

func getMetadata(q dbtx, id timeline.TimelineID) (timeline.Metadata, error) {
	row := q.QueryRow(
		`SELECT id, name, description, start, "end", event_ids, created_on, last_modified
		 FROM metadata WHERE id = ?`, id,
	)
	md, err := scanMetadata(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return timeline.Metadata{}, fmt.Errorf("timeline %d: %w", id, ErrNotFound)
	}
	return md, err
}

func scanMetadata(scan func(...any) error) (timeline.Metadata, error) {
	var md timeline.Metadata
	var startStr, endStr, eventIDsStr, createdOn, lastModified string
	if err := scan(&md.ID, &md.Name, &md.Description, &startStr, &endStr, &eventIDsStr, &createdOn, &lastModified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return timeline.Metadata{}, err
		}
		return timeline.Metadata{}, fmt.Errorf("scan metadata: %w", err)
	}
	var err error
	if md.Start, err = decodeDateTime(startStr); err != nil {
		return timeline.Metadata{}, err
	}
	if md.End, err = decodeDateTime(endStr); err != nil {
		return timeline.Metadata{}, err
	}
	if md.EventIDs, err = decodeIDs[timeline.EventID](eventIDsStr); err != nil {
		return timeline.Metadata{}, err
	}
	md.Version = timeline.SchemaVersion
	md.CreatedOn, _ = time.Parse(time.RFC3339, createdOn)
	md.LastModified, _ = time.Parse(time.RFC3339, lastModified)
	return md, nil
}
