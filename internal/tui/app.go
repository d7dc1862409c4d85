package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lifelinehq/lifeline/internal/exchange"
	"github.com/lifelinehq/lifeline/internal/store"
	"github.com/lifelinehq/lifeline/internal/timeline"
)

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	timelines timelinesModel
	events    eventsModel
	tags      tagsModel
	reports   reportsModel
	settings  settingsModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(s *store.Store) App {
	h := help.New()
	h.ShowAll = false

	return App{
		store:      s,
		activeView: viewTimelines,
		timelines:  newTimelinesModel(s),
		events:     newEventsModel(s),
		tags:       newTagsModel(s),
		reports:    newReportsModel(s),
		settings:   newSettingsModel(s),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return a.timelines.refresh()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timelines.setSize(a.width, contentHeight)
		a.events.setSize(a.width, contentHeight)
		a.tags.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			if _, ok := a.exportTarget(); ok {
				a.exportPicking = true
				a.exportCursor = 0
			} else {
				a.status = "Nothing to export"
			}
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTimelines
			return a, a.timelines.refresh()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewEvents
			return a, a.events.reload()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewTags
			return a, a.tags.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewReports
			return a, nil
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 5
			return a, a.refreshCurrentView()
		}

	case timelineLoadedMsg:
		// Fan the loaded timeline out to the views that render it.
		a.events.setTimeline(msg.t)
		a.reports.setTimeline(msg.t)
		if a.activeView == viewTimelines {
			a.activeView = viewEvents
		}
		a.status = "Opened " + msg.t.Metadata.Name
		a.statusErr = false
		return a, nil

	case timelineClosedMsg:
		a.events.timeline = nil
		a.reports.timeline = nil
		a.activeView = viewTimelines
		a.status = ""
		return a, a.timelines.refresh()

	case importDoneMsg:
		a.status = fmt.Sprintf("Imported timeline %d", msg.id)
		a.statusErr = false
		return a, a.timelines.refresh()

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimelines:
		a.timelines, cmd = a.timelines.update(msg)
	case viewEvents:
		a.events, cmd = a.events.update(msg)
	case viewTags:
		a.tags, cmd = a.tags.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTimelines:
		return a.timelines.formActive
	case viewEvents:
		return a.events.formActive
	case viewTags:
		return a.tags.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTimelines:
		return a.timelines.refresh()
	case viewEvents:
		return a.events.reload()
	case viewTags:
		return a.tags.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

// exportTarget picks the timeline an export acts on: the open one, falling
// back to the selection in the Timelines view.
func (a App) exportTarget() (timeline.TimelineID, bool) {
	if a.events.timeline != nil {
		return a.events.timeline.Metadata.ID, true
	}
	if md, ok := a.timelines.selected(); ok {
		return md.ID, true
	}
	return 0, false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimelines:
		content = a.timelines.view()
	case viewEvents:
		content = a.events.view()
	case viewTags:
		content = a.tags.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("lifeline")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	openInfo := ""
	if a.events.timeline != nil {
		openInfo = accentStyle.Render(" ◆ " + a.events.timeline.Metadata.Name)
	}

	left := footerStyle.Render(helpView)
	right := openInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"JSON", "CSV"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	id, ok := a.exportTarget()
	if !ok {
		return statusCmd("Nothing to export", true)
	}

	return func() tea.Msg {
		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			pretty := true
			if v, err := a.store.GetSetting(store.SettingPrettyExport); err == nil {
				pretty = v != "false"
			}
			path = filepath.Join(home, fmt.Sprintf("lifeline-export-%s.json", dateStr))
			if err := exchange.ExportFile(a.store, id, path, pretty); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		} else {
			t, err := a.store.GetTimelineByID(id)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
			path = filepath.Join(home, fmt.Sprintf("lifeline-export-%s.csv", dateStr))
			if err := exchange.ToCSV(t, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
