package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lifelinehq/lifeline/internal/timeline"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimelines viewState = iota
	viewEvents
	viewTags
	viewReports
	viewSettings
)

var viewNames = []string{"Timelines", "Events", "Tags", "Reports", "Settings"}

// --- Messages ---

type timelinesDataMsg struct {
	metas []timeline.Metadata
}

type timelineLoadedMsg struct {
	t *timeline.Timeline
}

type timelineClosedMsg struct{}

type tagsDataMsg struct {
	tags   []timeline.Tag
	counts map[timeline.TagID]int
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

type importDoneMsg struct {
	id timeline.TimelineID
}

// --- Helpers ---

func statusCmd(text string, isError bool) func() tea.Msg {
	return func() tea.Msg {
		return statusMsg{text: text, isError: isError}
	}
}

// span renders a metadata's covered range, e.g. "1987 — 2024, March".
func span(md timeline.Metadata) string {
	return md.Start.String() + " — " + md.End.String()
}

// splitTagNames splits comma- or space-separated form input into names.
func splitTagNames(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' '
	})
	var names []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			names = append(names, f)
		}
	}
	return names
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
