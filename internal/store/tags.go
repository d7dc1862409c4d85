package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lifelinehq/lifeline/internal/timeline"
)

// AddTag inserts a tag with fresh timestamps and returns its new id. The
// name must match the tag-name grammar and be unique in the store.
func (s *Store) AddTag(t timeline.Tag) (timeline.TagID, error) {
	return addTag(s.db, t, time.Now().UTC())
}

// AddTags inserts one tag per name in a single transaction.
func (s *Store) AddTags(names []string) ([]timeline.TagID, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("add tags: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	ids := make([]timeline.TagID, 0, len(names))
	for _, name := range names {
		id, err := addTag(tx, timeline.Tag{Name: name}, now)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("add tags: %w", err)
	}
	return ids, nil
}

func addTag(q dbtx, t timeline.Tag, now time.Time) (timeline.TagID, error) {
	if !timeline.ValidTagName(t.Name) {
		return 0, fmt.Errorf("%w: invalid tag name %q", ErrConstraint, t.Name)
	}
	nowStr := now.Format(time.RFC3339)
	res, err := q.Exec(
		`INSERT INTO tags (name, description, created_on, last_modified) VALUES (?, ?, ?, ?)`,
		t.Name, t.Description, nowStr, nowStr,
	)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("%w: duplicate tag name %q", ErrConstraint, t.Name)
	}
	if err != nil {
		return 0, fmt.Errorf("insert tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		return 0, fmt.Errorf("insert tag: no id assigned: %w", err)
	}
	return timeline.TagID(id), nil
}

// insertImportedTag keeps the document's timestamps instead of stamping new
// ones; used only by the import remap.
func insertImportedTag(q dbtx, t timeline.Tag) (timeline.TagID, error) {
	res, err := q.Exec(
		`INSERT INTO tags (name, description, created_on, last_modified) VALUES (?, ?, ?, ?)`,
		t.Name, t.Description,
		t.CreatedOn.UTC().Format(time.RFC3339), t.LastModified.UTC().Format(time.RFC3339),
	)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("%w: duplicate tag name %q", ErrConstraint, t.Name)
	}
	if err != nil {
		return 0, fmt.Errorf("insert imported tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		return 0, fmt.Errorf("insert imported tag: no id assigned: %w", err)
	}
	return timeline.TagID(id), nil
}

// GetTag loads a single tag by id.
func (s *Store) GetTag(id timeline.TagID) (timeline.Tag, error) {
	tags, err := getTagsByIDs(s.db, []timeline.TagID{id})
	if err != nil {
		return timeline.Tag{}, err
	}
	if len(tags) == 0 {
		return timeline.Tag{}, fmt.Errorf("tag %d: %w", id, ErrNotFound)
	}
	return tags[0], nil
}

// ListTags returns every tag ordered by name.
func (s *Store) ListTags() ([]timeline.Tag, error) {
	rows, err := s.db.Query(
		`SELECT id, name, description, created_on, last_modified FROM tags ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

// DeleteTag removes a tag that no event references. Tags still in use are
// protected: deleting them would dangle the referencing events' tag lists.
func (s *Store) DeleteTag(id timeline.TagID) error {
	refs, err := s.EventsReferencingTag(id)
	if err != nil {
		return err
	}
	if len(refs) > 0 {
		return fmt.Errorf("%w: tag %d is referenced by %d event(s)", ErrConstraint, id, len(refs))
	}
	res, err := s.db.Exec(`DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("tag %d: %w", id, ErrNotFound)
	}
	return nil
}

// getTagsByIDs bulk-loads tags in the order of ids, skipping unresolvable
// ones; callers compare counts.
func getTagsByIDs(q dbtx, ids []timeline.TagID) ([]timeline.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.Query(
		`SELECT id, name, description, created_on, last_modified
		 FROM tags WHERE id IN (`+placeholders(len(ids))+`)`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("bulk get tags: %w", err)
	}
	defer rows.Close()

	tags, err := scanTags(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[timeline.TagID]timeline.Tag, len(tags))
	for _, t := range tags {
		byID[t.ID] = t
	}
	ordered := make([]timeline.Tag, 0, len(tags))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			ordered = append(ordered, t)
		}
	}
	return ordered, nil
}

func scanTags(rows *sql.Rows) ([]timeline.Tag, error) {
	var tags []timeline.Tag
	for rows.Next() {
		var t timeline.Tag
		var createdOn, lastModified string
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &createdOn, &lastModified); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		t.CreatedOn, _ = time.Parse(time.RFC3339, createdOn)
		t.LastModified, _ = time.Parse(time.RFC3339, lastModified)
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
