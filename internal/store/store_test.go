package store

import (
	"errors"
	"testing"

	"github.com/lifelinehq/lifeline/internal/datetime"
	"github.com/lifelinehq/lifeline/internal/timeline"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestTimeline creates a timeline with n events referencing the given
// tag ids, round-robin.
func newTestTimeline(t *testing.T, s *Store, n int, tagIDs []timeline.TagID) timeline.TimelineID {
	t.Helper()
	id, err := s.CreateTimeline(datetime.New(1980), datetime.New(2024), "life", "")
	if err != nil {
		t.Fatalf("create timeline: %v", err)
	}
	for i := 0; i < n; i++ {
		e := timeline.Event{
			Name:  "event",
			Start: datetime.New(1980 + i),
		}
		if len(tagIDs) > 0 {
			e.TagIDs = []timeline.TagID{tagIDs[i%len(tagIDs)]}
		}
		if _, err := s.AddEventToTimeline(e, id); err != nil {
			t.Fatalf("add event: %v", err)
		}
	}
	return id
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/lifeline.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen — should succeed and not re-migrate
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestDefaultSettingsSeeded(t *testing.T) {
	s := newTestStore(t)
	v, err := s.GetSetting(SettingPreferredTimezone)
	if err != nil {
		t.Fatal(err)
	}
	if v != "" {
		t.Fatalf("expected empty default, got %q", v)
	}
	v, err = s.GetSetting(SettingPrettyExport)
	if err != nil {
		t.Fatal(err)
	}
	if v != "true" {
		t.Fatalf("expected true, got %q", v)
	}
}

func TestDeleteDatabase(t *testing.T) {
	s := newTestStore(t)
	newTestTimeline(t, s, 2, nil)

	if err := s.DeleteDatabase(); err != nil {
		t.Fatal(err)
	}

	metas, err := s.ListTimelineMetadata()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 0 {
		t.Fatalf("expected empty store after reset, got %d timelines", len(metas))
	}
	// Schema and default settings are back.
	if _, err := s.GetSetting(SettingPrettyExport); err != nil {
		t.Fatalf("settings not re-seeded: %v", err)
	}
}

// ============================================================
// Timelines
// ============================================================

func TestCreateAndGetTimeline(t *testing.T) {
	s := newTestStore(t)
	id, err := s.CreateTimeline(datetime.New(1987), datetime.New(2024), "my life", "so far")
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	tl, err := s.GetTimelineByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if tl.Metadata.Name != "my life" || tl.Metadata.Description != "so far" {
		t.Fatalf("unexpected metadata: %+v", tl.Metadata)
	}
	if tl.Metadata.Start.Year != 1987 || tl.Metadata.End.Year != 2024 {
		t.Fatalf("span not preserved: %+v", tl.Metadata)
	}
	if len(tl.Events) != 0 || len(tl.Tags) != 0 {
		t.Fatal("new timeline should be empty")
	}
	if tl.Metadata.CreatedOn.IsZero() {
		t.Fatal("CreatedOn should be set")
	}
}

func TestGetTimelineNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetTimelineByID(42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTimelineResolvesEventsAndTags(t *testing.T) {
	s := newTestStore(t)
	tagIDs, err := s.AddTags([]string{"work", "school"})
	if err != nil {
		t.Fatal(err)
	}
	id := newTestTimeline(t, s, 3, tagIDs)

	tl, err := s.GetTimelineByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(tl.Events))
	}
	if len(tl.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tl.Tags))
	}
	// Events come back in ownership-list order.
	for i, e := range tl.Events {
		if e.Start.Year != 1980+i {
			t.Fatalf("events out of order: %+v", tl.Events)
		}
	}
}

func TestGetTimelineIntegrityViolation(t *testing.T) {
	s := newTestStore(t)
	id := newTestTimeline(t, s, 2, nil)

	// Break the ownership list behind the store's back.
	if _, err := s.db.Exec(`DELETE FROM events`); err != nil {
		t.Fatal(err)
	}

	_, err := s.GetTimelineByID(id)
	if !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}

func TestGetTimelineTagIntegrityViolation(t *testing.T) {
	s := newTestStore(t)
	tagIDs, err := s.AddTags([]string{"orphaned"})
	if err != nil {
		t.Fatal(err)
	}
	id := newTestTimeline(t, s, 1, tagIDs)

	if _, err := s.db.Exec(`DELETE FROM tags`); err != nil {
		t.Fatal(err)
	}

	_, err = s.GetTimelineByID(id)
	if !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}

func TestListTimelineMetadata(t *testing.T) {
	s := newTestStore(t)
	newTestTimeline(t, s, 1, nil)
	newTestTimeline(t, s, 2, nil)

	metas, err := s.ListTimelineMetadata()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Fatalf("expected 2 timelines, got %d", len(metas))
	}
}

func TestDeleteTimelineCascadesEvents(t *testing.T) {
	s := newTestStore(t)
	id := newTestTimeline(t, s, 3, nil)

	if err := s.DeleteTimelineByID(id); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetTimelineByID(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var n int
	s.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n)
	if n != 0 {
		t.Fatalf("expected owned events deleted, %d remain", n)
	}
}

func TestDeleteTimelineKeepsTags(t *testing.T) {
	s := newTestStore(t)
	tagIDs, err := s.AddTags([]string{"shared"})
	if err != nil {
		t.Fatal(err)
	}
	id := newTestTimeline(t, s, 2, tagIDs)

	if err := s.DeleteTimelineByID(id); err != nil {
		t.Fatal(err)
	}

	// Tags are shareable and never deleted by cascade.
	tags, err := s.ListTags()
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 || tags[0].Name != "shared" {
		t.Fatalf("expected tag to survive, got %+v", tags)
	}
}

func TestDeleteTimelineNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.DeleteTimelineByID(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Events
// ============================================================

func TestAddEventToTimeline(t *testing.T) {
	s := newTestStore(t)
	id := newTestTimeline(t, s, 0, nil)

	before, _ := s.GetTimelineByID(id)

	end := datetime.DateTime{Year: 1991, Month: datetime.Ptr(6)}
	eid, err := s.AddEventToTimeline(timeline.Event{
		Name:  "university",
		Start: datetime.DateTime{Year: 1987, Month: datetime.Ptr(9)},
		End:   &end,
	}, id)
	if err != nil {
		t.Fatal(err)
	}
	if eid == 0 {
		t.Fatal("expected non-zero event id")
	}

	after, err := s.GetTimelineByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(after.Metadata.EventIDs) != 1 || after.Metadata.EventIDs[0] != eid {
		t.Fatalf("ownership list not updated: %v", after.Metadata.EventIDs)
	}
	if after.Events[0].End == nil || after.Events[0].End.Year != 1991 {
		t.Fatalf("end not preserved: %+v", after.Events[0])
	}
	if after.Events[0].CreatedOn.IsZero() {
		t.Fatal("CreatedOn should be stamped")
	}
	if after.Metadata.LastModified.Before(before.Metadata.LastModified) {
		t.Fatal("metadata lastModified should not move backwards")
	}
}

func TestAddEventToMissingTimeline(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddEventToTimeline(timeline.Event{Name: "x", Start: datetime.New(2000)}, 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// Nothing was written.
	var n int
	s.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n)
	if n != 0 {
		t.Fatalf("expected no events, got %d", n)
	}
}

func TestRemoveEventFromTimeline(t *testing.T) {
	s := newTestStore(t)
	id := newTestTimeline(t, s, 3, nil)

	tl, _ := s.GetTimelineByID(id)
	victim := tl.Events[1].ID

	if err := s.RemoveEventFromTimeline(victim, id); err != nil {
		t.Fatal(err)
	}

	after, err := s.GetTimelineByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(after.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(after.Events))
	}
	for _, e := range after.Events {
		if e.ID == victim {
			t.Fatal("removed event still present")
		}
	}
}

func TestRemoveEventNotOwned(t *testing.T) {
	s := newTestStore(t)
	id := newTestTimeline(t, s, 1, nil)
	if err := s.RemoveEventFromTimeline(999, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEventTagOrderAndDuplicatesPreserved(t *testing.T) {
	s := newTestStore(t)
	tagIDs, err := s.AddTags([]string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	id := newTestTimeline(t, s, 0, nil)

	// Same tag twice, interleaved: the ordered list is data.
	refs := []timeline.TagID{tagIDs[1], tagIDs[0], tagIDs[1]}
	if _, err := s.AddEventToTimeline(timeline.Event{
		Name: "e", Start: datetime.New(2000), TagIDs: refs,
	}, id); err != nil {
		t.Fatal(err)
	}

	tl, err := s.GetTimelineByID(id)
	if err != nil {
		t.Fatal(err)
	}
	got := tl.Events[0].TagIDs
	if len(got) != 3 || got[0] != refs[0] || got[1] != refs[1] || got[2] != refs[2] {
		t.Fatalf("tag refs not preserved: got %v, want %v", got, refs)
	}
}

// ============================================================
// SaveTimeline
// ============================================================

func TestSaveTimelineUpsertsEvents(t *testing.T) {
	s := newTestStore(t)
	id := newTestTimeline(t, s, 1, nil)

	tl, err := s.GetTimelineByID(id)
	if err != nil {
		t.Fatal(err)
	}

	// Edit the existing event and append a new, unsaved one.
	tl.Events[0].Name = "renamed"
	tl.Events = append(tl.Events, timeline.Event{
		Name:  "fresh",
		Start: datetime.New(2010),
	})
	tl.Metadata.Name = "retitled"

	if err := s.SaveTimeline(tl); err != nil {
		t.Fatal(err)
	}
	if tl.Events[1].ID == 0 {
		t.Fatal("save should assign ids to new events in place")
	}

	after, err := s.GetTimelineByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if after.Metadata.Name != "retitled" {
		t.Fatalf("metadata not saved: %+v", after.Metadata)
	}
	if len(after.Events) != 2 || after.Events[0].Name != "renamed" || after.Events[1].Name != "fresh" {
		t.Fatalf("events not saved: %+v", after.Events)
	}
}

func TestSaveTimelineRequiresID(t *testing.T) {
	s := newTestStore(t)
	tl := &timeline.Timeline{}
	if err := s.SaveTimeline(tl); err == nil {
		t.Fatal("expected error for unsaved timeline")
	}
}

// ============================================================
// Tags
// ============================================================

func TestAddTagAndList(t *testing.T) {
	s := newTestStore(t)
	id, err := s.AddTag(timeline.Tag{Name: "career", Description: "jobs"})
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	tags, err := s.ListTags()
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 || tags[0].Name != "career" || tags[0].Description != "jobs" {
		t.Fatalf("unexpected tags: %+v", tags)
	}
	if tags[0].CreatedOn.IsZero() {
		t.Fatal("CreatedOn should be stamped")
	}
}

func TestAddTagDuplicateName(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddTag(timeline.Tag{Name: "dup"}); err != nil {
		t.Fatal(err)
	}
	_, err := s.AddTag(timeline.Tag{Name: "dup"})
	if !errors.Is(err, ErrConstraint) {
		t.Fatalf("expected ErrConstraint, got %v", err)
	}
}

func TestAddTagInvalidName(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"", "Has Spaces", "UPPER", "#hash"} {
		if _, err := s.AddTag(timeline.Tag{Name: name}); !errors.Is(err, ErrConstraint) {
			t.Errorf("expected ErrConstraint for %q, got %v", name, err)
		}
	}
}

func TestAddTagsTransactional(t *testing.T) {
	s := newTestStore(t)
	// Second name is invalid; nothing should be committed.
	_, err := s.AddTags([]string{"good", "BAD NAME"})
	if !errors.Is(err, ErrConstraint) {
		t.Fatalf("expected ErrConstraint, got %v", err)
	}
	tags, _ := s.ListTags()
	if len(tags) != 0 {
		t.Fatalf("expected rollback, got %+v", tags)
	}
}

func TestListTagsOrderedByName(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddTags([]string{"zebra", "alpha", "mid"}); err != nil {
		t.Fatal(err)
	}
	tags, err := s.ListTags()
	if err != nil {
		t.Fatal(err)
	}
	if tags[0].Name != "alpha" || tags[1].Name != "mid" || tags[2].Name != "zebra" {
		t.Fatalf("unexpected order: %+v", tags)
	}
}

func TestDeleteTagUnreferenced(t *testing.T) {
	s := newTestStore(t)
	id, err := s.AddTag(timeline.Tag{Name: "loose"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTag(id); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetTag(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTagStillReferenced(t *testing.T) {
	s := newTestStore(t)
	tagIDs, err := s.AddTags([]string{"used"})
	if err != nil {
		t.Fatal(err)
	}
	newTestTimeline(t, s, 1, tagIDs)

	if err := s.DeleteTag(tagIDs[0]); !errors.Is(err, ErrConstraint) {
		t.Fatalf("expected ErrConstraint, got %v", err)
	}
}

func TestDeleteTagNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.DeleteTag(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEventsReferencingTag(t *testing.T) {
	s := newTestStore(t)
	tagIDs, err := s.AddTags([]string{"tracked"})
	if err != nil {
		t.Fatal(err)
	}
	id := newTestTimeline(t, s, 2, tagIDs)

	refs, err := s.EventsReferencingTag(tagIDs[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 referencing events, got %d", len(refs))
	}

	// Removing an event drops its index rows.
	if err := s.RemoveEventFromTimeline(refs[0], id); err != nil {
		t.Fatal(err)
	}
	refs, _ = s.EventsReferencingTag(tagIDs[0])
	if len(refs) != 1 {
		t.Fatalf("expected 1 referencing event, got %d", len(refs))
	}
}

// ============================================================
// Settings
// ============================================================

func TestSetAndGetSetting(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSetting(SettingPreferredTimezone, "+02:00"); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetSetting(SettingPreferredTimezone)
	if err != nil {
		t.Fatal(err)
	}
	if v != "+02:00" {
		t.Fatalf("got %q", v)
	}

	// Upsert overwrites.
	if err := s.SetSetting(SettingPreferredTimezone, "-05:00"); err != nil {
		t.Fatal(err)
	}
	v, _ = s.GetSetting(SettingPreferredTimezone)
	if v != "-05:00" {
		t.Fatalf("got %q", v)
	}
}

func TestGetAllSettings(t *testing.T) {
	s := newTestStore(t)
	settings, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(settings) < 2 {
		t.Fatalf("expected seeded settings, got %+v", settings)
	}
}
