package tui

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/lifelinehq/lifeline/internal/datetime"
	"github.com/lifelinehq/lifeline/internal/exchange"
	"github.com/lifelinehq/lifeline/internal/store"
	"github.com/lifelinehq/lifeline/internal/timeline"
)

type timelinesModel struct {
	store  *store.Store
	width  int
	height int

	metas  []timeline.Metadata
	cursor int

	formActive bool
	form       *huh.Form
	formType   string // "timeline", "import"

	// Form field pointers (survive value copies)
	formName        *string
	formDescription *string
	formStartYear   *string
	formEndYear     *string
	formTimeZone    *string
	formPath        *string
}

func newTimelinesModel(s *store.Store) timelinesModel {
	name, desc, start, end, tz, path := "", "", "", "", "", ""
	return timelinesModel{
		store:           s,
		formName:        &name,
		formDescription: &desc,
		formStartYear:   &start,
		formEndYear:     &end,
		formTimeZone:    &tz,
		formPath:        &path,
	}
}

func (m *timelinesModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m timelinesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		metas, err := m.store.ListTimelineMetadata()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load error: %v", err), isError: true}
		}
		return timelinesDataMsg{metas: metas}
	}
}

func (m timelinesModel) selected() (timeline.Metadata, bool) {
	if m.cursor >= len(m.metas) {
		return timeline.Metadata{}, false
	}
	return m.metas[m.cursor], true
}

func (m timelinesModel) update(msg tea.Msg) (timelinesModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case timelinesDataMsg:
		m.metas = msg.metas
		if m.cursor >= len(m.metas) {
			m.cursor = max(0, len(m.metas)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.metas)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if md, ok := m.selected(); ok {
				return m, m.openTimeline(md.ID)
			}
		case key.Matches(msg, keys.New):
			return m.showNewTimelineForm()
		case key.Matches(msg, keys.Import):
			return m.showImportForm()
		case key.Matches(msg, keys.Delete):
			if md, ok := m.selected(); ok {
				if err := m.store.DeleteTimelineByID(md.ID); err != nil {
					return m, statusCmd(fmt.Sprintf("Delete error: %v", err), true)
				}
				return m, m.refresh()
			}
		}
	}
	return m, nil
}

func (m timelinesModel) openTimeline(id timeline.TimelineID) tea.Cmd {
	return func() tea.Msg {
		t, err := m.store.GetTimelineByID(id)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Open error: %v", err), isError: true}
		}
		return timelineLoadedMsg{t: t}
	}
}

func (m timelinesModel) showNewTimelineForm() (timelinesModel, tea.Cmd) {
	*m.formName = ""
	*m.formDescription = ""
	*m.formStartYear = ""
	*m.formEndYear = ""
	*m.formTimeZone = ""
	m.formType = "timeline"

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(m.formName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().Title("Description").Value(m.formDescription),
			huh.NewInput().Title("Start Year").Value(m.formStartYear).
				Validate(validateYear),
			huh.NewInput().Title("End Year").Value(m.formEndYear).
				Validate(validateYear),
			huh.NewInput().Title("Time Zone (e.g. +02:00, blank for none)").Value(m.formTimeZone).
				Validate(validateTimeZone),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m timelinesModel) showImportForm() (timelinesModel, tea.Cmd) {
	*m.formPath = ""
	m.formType = "import"

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("File to import").Value(m.formPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path is required")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m timelinesModel) updateForm(msg tea.Msg) (timelinesModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		switch m.formType {
		case "timeline":
			return m, m.createTimeline()
		case "import":
			return m, m.importFile(strings.TrimSpace(*m.formPath))
		}
	}

	return m, cmd
}

func (m timelinesModel) createTimeline() tea.Cmd {
	name := strings.TrimSpace(*m.formName)
	desc := strings.TrimSpace(*m.formDescription)
	tz := strings.TrimSpace(*m.formTimeZone)
	start, ok := datetime.FromStrings(*m.formStartYear, "", "", "", "", tz)
	if !ok {
		return statusCmd("Invalid start year", true)
	}
	end, ok := datetime.FromStrings(*m.formEndYear, "", "", "", "", tz)
	if !ok {
		return statusCmd("Invalid end year", true)
	}

	return func() tea.Msg {
		if _, err := m.store.CreateTimeline(start, end, name, desc); err != nil {
			return statusMsg{text: fmt.Sprintf("Create error: %v", err), isError: true}
		}
		metas, err := m.store.ListTimelineMetadata()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load error: %v", err), isError: true}
		}
		return timelinesDataMsg{metas: metas}
	}
}

func (m timelinesModel) importFile(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Import error: %v", err), isError: true}
		}
		id, err := exchange.Import(m.store, data)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Import error: %v", err), isError: true}
		}
		return importDoneMsg{id: id}
	}
}

func validateYear(s string) error {
	if !datetime.YearRe.MatchString(strings.TrimSpace(s)) {
		return fmt.Errorf("expected a year like 1987")
	}
	return nil
}

// validateOptional admits blank input; anything else must match re.
func validateOptional(re *regexp.Regexp, hint string) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		if !re.MatchString(s) {
			return fmt.Errorf("expected %s or blank", hint)
		}
		return nil
	}
}

func validateTimeZone(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !datetime.TZRe.MatchString(s) {
		return fmt.Errorf("expected an offset like +02:00 or -5")
	}
	return nil
}

func (m timelinesModel) view() string {
	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Timeline")
		if m.formType == "import" {
			title = titleStyle.Render("Import Timeline")
		}
		formView := m.form.View()
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", formView)
		return panelStyle.Width(m.width - 4).Render(content)
	}

	w := m.width - 4
	title := titleStyle.Render("Timelines")

	if len(m.metas) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No timelines yet. Press n to create one, i to import."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-28s %-32s %8s", "Name", "Span", "Events"))
	rows = append(rows, header)

	for i, md := range m.metas {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := style.Render(fmt.Sprintf("%s%-28s %-32s %8d", cursor, md.Name, span(md), len(md.EventIDs)))
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  i: import  d: delete  enter: open"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
