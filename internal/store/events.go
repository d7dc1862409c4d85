package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lifelinehq/lifeline/internal/timeline"
)

func insertEvent(q dbtx, e timeline.Event) (timeline.EventID, error) {
	var end any
	if e.End != nil {
		end = encodeDateTime(*e.End)
	}
	res, err := q.Exec(
		`INSERT INTO events (name, description, start, "end", tag_ids, created_on, last_modified)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Description, encodeDateTime(e.Start), end, encodeIDs(e.TagIDs),
		e.CreatedOn.UTC().Format(time.RFC3339), e.LastModified.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		return 0, fmt.Errorf("insert event: no id assigned: %w", err)
	}
	eid := timeline.EventID(id)
	if err := syncEventTags(q, eid, e.TagIDs); err != nil {
		return 0, err
	}
	return eid, nil
}

func updateEvent(q dbtx, e timeline.Event) error {
	var end any
	if e.End != nil {
		end = encodeDateTime(*e.End)
	}
	_, err := q.Exec(
		`UPDATE events SET name = ?, description = ?, start = ?, "end" = ?, tag_ids = ?, last_modified = ?
		 WHERE id = ?`,
		e.Name, e.Description, encodeDateTime(e.Start), end, encodeIDs(e.TagIDs),
		e.LastModified.UTC().Format(time.RFC3339), e.ID,
	)
	if err != nil {
		return fmt.Errorf("update event %d: %w", e.ID, err)
	}
	return syncEventTags(q, e.ID, e.TagIDs)
}

// syncEventTags rebuilds the set-membership index rows for one event.
// Duplicate references collapse to one index row; tag_ids keeps the
// authoritative ordered list.
func syncEventTags(q dbtx, id timeline.EventID, tagIDs []timeline.TagID) error {
	if _, err := q.Exec(`DELETE FROM event_tags WHERE event_id = ?`, id); err != nil {
		return fmt.Errorf("clear event tags: %w", err)
	}
	seen := make(map[timeline.TagID]bool, len(tagIDs))
	for _, tid := range tagIDs {
		if seen[tid] {
			continue
		}
		seen[tid] = true
		if _, err := q.Exec(
			`INSERT INTO event_tags (event_id, tag_id) VALUES (?, ?)`, id, tid,
		); err != nil {
			return fmt.Errorf("index event tag: %w", err)
		}
	}
	return nil
}

// getEventsByIDs bulk-loads events, preserving the order (and duplicates) of
// ids. Unresolvable ids are skipped; callers compare counts.
func getEventsByIDs(q dbtx, ids []timeline.EventID) ([]timeline.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	unique := make([]any, 0, len(ids))
	seen := make(map[timeline.EventID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	rows, err := q.Query(
		`SELECT id, name, description, start, "end", tag_ids, created_on, last_modified
		 FROM events WHERE id IN (`+placeholders(len(unique))+`)`, unique...,
	)
	if err != nil {
		return nil, fmt.Errorf("bulk get events: %w", err)
	}
	defer rows.Close()

	byID := make(map[timeline.EventID]timeline.Event, len(unique))
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var events []timeline.Event
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			events = append(events, e)
		}
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (timeline.Event, error) {
	var e timeline.Event
	var startStr, tagIDsStr, createdOn, lastModified string
	var endStr sql.NullString
	if err := rows.Scan(&e.ID, &e.Name, &e.Description, &startStr, &endStr, &tagIDsStr, &createdOn, &lastModified); err != nil {
		return timeline.Event{}, fmt.Errorf("scan event: %w", err)
	}
	start, err := decodeDateTime(startStr)
	if err != nil {
		return timeline.Event{}, err
	}
	e.Start = start
	if endStr.Valid {
		end, err := decodeDateTime(endStr.String)
		if err != nil {
			return timeline.Event{}, err
		}
		e.End = &end
	}
	if e.TagIDs, err = decodeIDs[timeline.TagID](tagIDsStr); err != nil {
		return timeline.Event{}, err
	}
	e.CreatedOn, _ = time.Parse(time.RFC3339, createdOn)
	e.LastModified, _ = time.Parse(time.RFC3339, lastModified)
	return e, nil
}

func deleteEvents(q dbtx, ids []timeline.EventID) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	// event_tags rows go with them via ON DELETE CASCADE.
	if _, err := q.Exec(
		`DELETE FROM events WHERE id IN (`+placeholders(len(ids))+`)`, args...,
	); err != nil {
		return fmt.Errorf("bulk delete events: %w", err)
	}
	return nil
}

// EventsReferencingTag returns the ids of events whose tag list contains the
// given tag, via the event_tags index.
func (s *Store) EventsReferencingTag(id timeline.TagID) ([]timeline.EventID, error) {
	rows, err := s.db.Query(`SELECT event_id FROM event_tags WHERE tag_id = ? ORDER BY event_id`, id)
	if err != nil {
		return nil, fmt.Errorf("events referencing tag %d: %w", id, err)
	}
	defer rows.Close()

	var ids []timeline.EventID
	for rows.Next() {
		var eid timeline.EventID
		if err := rows.Scan(&eid); err != nil {
			return nil, err
		}
		ids = append(ids, eid)
	}
	return ids, rows.Err()
}
