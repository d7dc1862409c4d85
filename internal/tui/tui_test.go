package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lifelinehq/lifeline/internal/datetime"
	"github.com/lifelinehq/lifeline/internal/store"
	"github.com/lifelinehq/lifeline/internal/timeline"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedTimeline(t *testing.T, s *store.Store) timeline.TimelineID {
	t.Helper()
	id, err := s.CreateTimeline(datetime.New(1987), datetime.New(2024), "my life", "")
	if err != nil {
		t.Fatalf("create timeline: %v", err)
	}
	tagIDs, err := s.AddTags([]string{"work"})
	if err != nil {
		t.Fatalf("add tags: %v", err)
	}
	if _, err := s.AddEventToTimeline(timeline.Event{
		Name:   "first job",
		Start:  datetime.DateTime{Year: 2010, Month: datetime.Ptr(3)},
		TagIDs: tagIDs,
	}, id); err != nil {
		t.Fatalf("add event: %v", err)
	}
	return id
}

// runCmd executes a command and returns its message.
func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	s := newTestStore(t)
	app := NewApp(s)

	if app.activeView != viewTimelines {
		t.Fatal("default view should be timelines")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.exportPicking {
		t.Fatal("export picker should be hidden by default")
	}
}

func TestAppIsFormActiveDefault(t *testing.T) {
	s := newTestStore(t)
	app := NewApp(s)

	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppLoadingState(t *testing.T) {
	s := newTestStore(t)
	app := NewApp(s)
	// Width 0 means not yet sized
	if output := app.View(); output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppViewStates(t *testing.T) {
	s := newTestStore(t)
	app := NewApp(s)
	app.width = 120
	app.height = 40

	views := []viewState{viewTimelines, viewEvents, viewTags, viewReports, viewSettings}
	for _, v := range views {
		app.activeView = v
		if output := app.View(); output == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	s := newTestStore(t)
	app := NewApp(s)
	app.width = 120
	app.height = 40

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppStatusMessage(t *testing.T) {
	s := newTestStore(t)
	app := NewApp(s)
	app.width = 120
	app.height = 40

	model, _ := app.Update(statusMsg{text: "test status"})
	app = model.(App)
	if !strings.Contains(app.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppTimelineLoadedFansOut(t *testing.T) {
	s := newTestStore(t)
	id := seedTimeline(t, s)
	tl, err := s.GetTimelineByID(id)
	if err != nil {
		t.Fatal(err)
	}

	app := NewApp(s)
	model, _ := app.Update(timelineLoadedMsg{t: tl})
	app = model.(App)

	if app.activeView != viewEvents {
		t.Fatal("opening a timeline should switch to the events view")
	}
	if app.events.timeline == nil || app.events.timeline.Metadata.ID != id {
		t.Fatal("events view did not receive the timeline")
	}
	if app.reports.timeline == nil {
		t.Fatal("reports view did not receive the timeline")
	}
}

func TestAppTimelineClosed(t *testing.T) {
	s := newTestStore(t)
	id := seedTimeline(t, s)
	tl, _ := s.GetTimelineByID(id)

	app := NewApp(s)
	model, _ := app.Update(timelineLoadedMsg{t: tl})
	model, _ = model.(App).Update(timelineClosedMsg{})
	app = model.(App)

	if app.activeView != viewTimelines {
		t.Fatal("closing should return to the timelines view")
	}
	if app.events.timeline != nil {
		t.Fatal("events view should drop the closed timeline")
	}
}

func TestAppExportTarget(t *testing.T) {
	s := newTestStore(t)
	app := NewApp(s)

	if _, ok := app.exportTarget(); ok {
		t.Fatal("empty app should have no export target")
	}

	id := seedTimeline(t, s)
	tl, _ := s.GetTimelineByID(id)
	model, _ := app.Update(timelineLoadedMsg{t: tl})
	app = model.(App)

	target, ok := app.exportTarget()
	if !ok || target != id {
		t.Fatalf("expected open timeline %d as target, got %d (%v)", id, target, ok)
	}
}

// ============================================================
// Timelines view
// ============================================================

func TestTimelinesRefresh(t *testing.T) {
	s := newTestStore(t)
	seedTimeline(t, s)

	m := newTimelinesModel(s)
	msg := runCmd(t, m.refresh())
	data, ok := msg.(timelinesDataMsg)
	if !ok {
		t.Fatalf("expected timelinesDataMsg, got %T", msg)
	}
	if len(data.metas) != 1 || data.metas[0].Name != "my life" {
		t.Fatalf("unexpected metas: %+v", data.metas)
	}
}

func TestTimelinesOpen(t *testing.T) {
	s := newTestStore(t)
	id := seedTimeline(t, s)

	m := newTimelinesModel(s)
	msg := runCmd(t, m.openTimeline(id))
	loaded, ok := msg.(timelineLoadedMsg)
	if !ok {
		t.Fatalf("expected timelineLoadedMsg, got %T", msg)
	}
	if loaded.t.Metadata.ID != id || len(loaded.t.Events) != 1 {
		t.Fatalf("unexpected timeline: %+v", loaded.t.Metadata)
	}
}

func TestTimelinesOpenMissing(t *testing.T) {
	s := newTestStore(t)
	m := newTimelinesModel(s)
	msg := runCmd(t, m.openTimeline(42))
	status, ok := msg.(statusMsg)
	if !ok || !status.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

func TestTimelinesDataUpdateClampsCursor(t *testing.T) {
	s := newTestStore(t)
	m := newTimelinesModel(s)
	m.cursor = 5
	m, _ = m.update(timelinesDataMsg{metas: []timeline.Metadata{{Name: "only"}}})
	if m.cursor != 0 {
		t.Fatalf("cursor should clamp to list, got %d", m.cursor)
	}
}

func TestTimelinesImportFile(t *testing.T) {
	s := newTestStore(t)
	m := newTimelinesModel(s)
	msg := runCmd(t, m.importFile("/does/not/exist.json"))
	status, ok := msg.(statusMsg)
	if !ok || !status.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

// ============================================================
// Events view
// ============================================================

func TestEventsViewWithoutTimeline(t *testing.T) {
	s := newTestStore(t)
	m := newEventsModel(s)
	m.setSize(100, 30)
	if !strings.Contains(m.view(), "No timeline open") {
		t.Fatal("expected placeholder for missing timeline")
	}
}

func TestEventsViewRendersEvents(t *testing.T) {
	s := newTestStore(t)
	id := seedTimeline(t, s)
	tl, _ := s.GetTimelineByID(id)

	m := newEventsModel(s)
	m.setSize(100, 30)
	m.setTimeline(tl)

	out := m.view()
	if !strings.Contains(out, "first job") {
		t.Fatal("expected event name in view")
	}
	if !strings.Contains(out, "2010, March") {
		t.Fatalf("expected partial-precision date rendering, got:\n%s", out)
	}
	if !strings.Contains(out, "work") {
		t.Fatal("expected resolved tag name in view")
	}
}

func TestEventsResolveTagIDs(t *testing.T) {
	s := newTestStore(t)
	existing, err := s.AddTag(timeline.Tag{Name: "known"})
	if err != nil {
		t.Fatal(err)
	}

	m := newEventsModel(s)
	ids, err := m.resolveTagIDs([]string{"known", "fresh", "known"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 refs, got %v", ids)
	}
	if ids[0] != existing || ids[2] != existing {
		t.Fatal("existing tag should resolve to its id")
	}
	if ids[1] == existing || ids[1] == 0 {
		t.Fatal("new name should create a fresh tag")
	}

	tags, _ := s.ListTags()
	if len(tags) != 2 {
		t.Fatalf("expected 2 stored tags, got %+v", tags)
	}
}

// ============================================================
// Tags view
// ============================================================

func TestTagsRefreshCounts(t *testing.T) {
	s := newTestStore(t)
	seedTimeline(t, s)

	m := newTagsModel(s)
	msg := runCmd(t, m.refresh())
	data, ok := msg.(tagsDataMsg)
	if !ok {
		t.Fatalf("expected tagsDataMsg, got %T", msg)
	}
	if len(data.tags) != 1 {
		t.Fatalf("expected 1 tag, got %+v", data.tags)
	}
	if data.counts[data.tags[0].ID] != 1 {
		t.Fatalf("expected usage count 1, got %+v", data.counts)
	}
}

// ============================================================
// Reports view
// ============================================================

func TestReportsChartBuilds(t *testing.T) {
	s := newTestStore(t)
	id := seedTimeline(t, s)
	tl, _ := s.GetTimelineByID(id)

	r := newReportsModel(s)
	r.setSize(100, 30)
	r.setTimeline(tl)

	out := r.view()
	if !strings.Contains(out, "my life") {
		t.Fatal("expected timeline name in report header")
	}
	if !strings.Contains(out, "1 event(s)") {
		t.Fatalf("expected summary line, got:\n%s", out)
	}
}

func TestReportsDecadeBuckets(t *testing.T) {
	s := newTestStore(t)
	r := newReportsModel(s)
	r.timeline = &timeline.Timeline{
		Events: []timeline.Event{
			{Start: datetime.New(1985)},
			{Start: datetime.New(1989)},
			{Start: datetime.New(2003)},
		},
	}

	bars := r.decadeBars()
	if len(bars) != 2 {
		t.Fatalf("expected 2 decades, got %+v", bars)
	}
	if bars[0].Label != "1980s" || bars[1].Label != "2000s" {
		t.Fatalf("unexpected labels: %q %q", bars[0].Label, bars[1].Label)
	}
	if bars[0].Values[0].Value != 2 {
		t.Fatalf("expected 2 events in the 1980s, got %v", bars[0].Values[0].Value)
	}
}

// ============================================================
// Settings view
// ============================================================

func TestSettingsRefresh(t *testing.T) {
	s := newTestStore(t)
	m := newSettingsModel(s)
	msg := runCmd(t, m.refresh())
	data, ok := msg.(settingsDataMsg)
	if !ok {
		t.Fatalf("expected settingsDataMsg, got %T", msg)
	}
	if len(data.settings) < 2 {
		t.Fatalf("expected seeded settings, got %+v", data.settings)
	}
}

func TestSettingsSave(t *testing.T) {
	s := newTestStore(t)
	m := newSettingsModel(s)
	*m.preferredTZ = "+09:00"
	*m.prettyExport = "false"
	m.saveSettings()

	v, _ := s.GetSetting(store.SettingPreferredTimezone)
	if v != "+09:00" {
		t.Fatalf("got %q", v)
	}
	v, _ = s.GetSetting(store.SettingPrettyExport)
	if v != "false" {
		t.Fatalf("got %q", v)
	}
}

// ============================================================
// Helpers and validation
// ============================================================

func TestSplitTagNames(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"work", []string{"work"}},
		{"work school", []string{"work", "school"}},
		{"work, school,travel", []string{"work", "school", "travel"}},
		{"  spaced   out  ", []string{"spaced", "out"}},
	}
	for _, tc := range cases {
		got := splitTagNames(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("splitTagNames(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitTagNames(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}

func TestValidateYear(t *testing.T) {
	if err := validateYear("1987"); err != nil {
		t.Fatal(err)
	}
	if err := validateYear("-1"); err == nil {
		t.Fatal("expected error for negative year")
	}
	if err := validateYear("soon"); err == nil {
		t.Fatal("expected error for non-numeric year")
	}
}

func TestValidateOptional(t *testing.T) {
	v := validateOptional(datetime.MonthRe, "a month 1-12")
	if err := v(""); err != nil {
		t.Fatal("blank optional is allowed")
	}
	if err := v("12"); err != nil {
		t.Fatal(err)
	}
	if err := v("13"); err == nil {
		t.Fatal("expected error for month 13")
	}
}

func TestValidateTimeZone(t *testing.T) {
	if err := validateTimeZone(""); err != nil {
		t.Fatal("blank timezone is allowed")
	}
	if err := validateTimeZone("+02:00"); err != nil {
		t.Fatal(err)
	}
	if err := validateTimeZone("25:00"); err == nil {
		t.Fatal("expected error for impossible offset")
	}
}

func TestValidateTagNames(t *testing.T) {
	if err := validateTagNames("work school-days"); err != nil {
		t.Fatal(err)
	}
	if err := validateTagNames("Bad Name"); err == nil {
		t.Fatal("expected error for uppercase tag")
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}
