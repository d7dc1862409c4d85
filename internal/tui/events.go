package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/lifelinehq/lifeline/internal/datetime"
	"github.com/lifelinehq/lifeline/internal/store"
	"github.com/lifelinehq/lifeline/internal/timeline"
)

type eventsModel struct {
	store  *store.Store
	width  int
	height int

	timeline *timeline.Timeline
	cursor   int

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formName        *string
	formDescription *string
	formYear        *string
	formMonth       *string
	formDay         *string
	formHour        *string
	formMinute      *string
	formTimeZone    *string
	formEndYear     *string
	formTags        *string
}

func newEventsModel(s *store.Store) eventsModel {
	var fields [10]string
	return eventsModel{
		store:           s,
		formName:        &fields[0],
		formDescription: &fields[1],
		formYear:        &fields[2],
		formMonth:       &fields[3],
		formDay:         &fields[4],
		formHour:        &fields[5],
		formMinute:      &fields[6],
		formTimeZone:    &fields[7],
		formEndYear:     &fields[8],
		formTags:        &fields[9],
	}
}

func (m *eventsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *eventsModel) setTimeline(t *timeline.Timeline) {
	m.timeline = t
	m.cursor = 0
}

// reload re-reads the open timeline from the store.
func (m eventsModel) reload() tea.Cmd {
	if m.timeline == nil {
		return nil
	}
	id := m.timeline.Metadata.ID
	return func() tea.Msg {
		t, err := m.store.GetTimelineByID(id)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Reload error: %v", err), isError: true}
		}
		return timelineLoadedMsg{t: t}
	}
}

func (m eventsModel) update(msg tea.Msg) (eventsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case timelineLoadedMsg:
		m.timeline = msg.t
		if m.cursor >= len(m.timeline.Events) {
			m.cursor = max(0, len(m.timeline.Events)-1)
		}
		return m, nil

	case tea.KeyMsg:
		if m.timeline == nil {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.timeline.Events)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.New):
			return m.showNewEventForm()
		case key.Matches(msg, keys.Delete):
			if m.cursor < len(m.timeline.Events) {
				e := m.timeline.Events[m.cursor]
				if err := m.store.RemoveEventFromTimeline(e.ID, m.timeline.Metadata.ID); err != nil {
					return m, statusCmd(fmt.Sprintf("Delete error: %v", err), true)
				}
				return m, m.reload()
			}
		case key.Matches(msg, keys.Back):
			return m, func() tea.Msg { return timelineClosedMsg{} }
		}
	}
	return m, nil
}

func (m eventsModel) showNewEventForm() (eventsModel, tea.Cmd) {
	*m.formName = ""
	*m.formDescription = ""
	*m.formYear = ""
	*m.formMonth = ""
	*m.formDay = ""
	*m.formHour = ""
	*m.formMinute = ""
	*m.formEndYear = ""
	*m.formTags = ""

	// Prefill the timezone from the preferred setting.
	tz, _ := m.store.GetSetting(store.SettingPreferredTimezone)
	*m.formTimeZone = tz

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
			huh.NewInput().Title("Tags (space-separated)").Value(m.formTags).
				Validate(validateTagNames),
		),
		huh.NewGroup(
			huh.NewInput().Title("Year").Value(m.formYear).Validate(validateYear),
			huh.NewInput().Title("Month (blank to omit)").Value(m.formMonth).
				Validate(validateOptional(datetime.MonthRe, "a month 1-12")),
			huh.NewInput().Title("Day (blank to omit)").Value(m.formDay).
				Validate(validateOptional(datetime.DayRe, "a day 1-31")),
			huh.NewInput().Title("Hour (blank to omit)").Value(m.formHour).
				Validate(validateOptional(datetime.HourRe, "an hour 0-23")),
			huh.NewInput().Title("Minute (blank to omit)").Value(m.formMinute).
				Validate(validateOptional(datetime.MinuteRe, "a minute 0-59")),
			huh.NewInput().Title("Time Zone").Value(m.formTimeZone).Validate(validateTimeZone),
			huh.NewInput().Title("End Year (blank for none)").Value(m.formEndYear).
				Validate(validateOptional(datetime.YearRe, "a year")),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m eventsModel) updateForm(msg tea.Msg) (eventsModel, tea.Cmd) {
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
		return m, m.createEvent()
	}

	return m, cmd
}

func (m eventsModel) createEvent() tea.Cmd {
	if m.timeline == nil {
		return nil
	}
	tz := strings.TrimSpace(*m.formTimeZone)
	start, ok := datetime.FromStrings(*m.formYear, *m.formMonth, *m.formDay, *m.formHour, *m.formMinute, tz)
	if !ok {
		return statusCmd("Invalid start date", true)
	}

	var end *datetime.DateTime
	if strings.TrimSpace(*m.formEndYear) != "" {
		e, ok := datetime.FromStrings(*m.formEndYear, "", "", "", "", tz)
		if !ok {
			return statusCmd("Invalid end year", true)
		}
		end = &e
	}

	name := strings.TrimSpace(*m.formName)
	desc := strings.TrimSpace(*m.formDescription)
	tagNames := splitTagNames(*m.formTags)
	id := m.timeline.Metadata.ID

	return func() tea.Msg {
		tagIDs, err := m.resolveTagIDs(tagNames)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Tag error: %v", err), isError: true}
		}
		e := timeline.Event{
			Name:        name,
			Description: desc,
			Start:       start,
			End:         end,
			TagIDs:      tagIDs,
		}
		if _, err := m.store.AddEventToTimeline(e, id); err != nil {
			return statusMsg{text: fmt.Sprintf("Add error: %v", err), isError: true}
		}
		t, err := m.store.GetTimelineByID(id)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Reload error: %v", err), isError: true}
		}
		return timelineLoadedMsg{t: t}
	}
}

// resolveTagIDs maps names to existing tag ids, creating tags for names the
// store does not know yet.
func (m eventsModel) resolveTagIDs(names []string) ([]timeline.TagID, error) {
	if len(names) == 0 {
		return nil, nil
	}
	existing, err := m.store.ListTags()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]timeline.TagID, len(existing))
	for _, t := range existing {
		byName[t.Name] = t.ID
	}

	ids := make([]timeline.TagID, 0, len(names))
	for _, name := range names {
		if id, ok := byName[name]; ok {
			ids = append(ids, id)
			continue
		}
		id, err := m.store.AddTag(timeline.Tag{Name: name})
		if err != nil {
			return nil, err
		}
		byName[name] = id
		ids = append(ids, id)
	}
	return ids, nil
}

func validateTagNames(s string) error {
	for _, name := range splitTagNames(s) {
		if !timeline.ValidTagName(name) {
			return fmt.Errorf("invalid tag name %q", name)
		}
	}
	return nil
}

func (m eventsModel) view() string {
	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Event")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(m.width - 4).Render(content)
	}

	w := m.width - 4

	if m.timeline == nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Events"),
			"",
			mutedStyle.Render("No timeline open. Select one from the Timelines view."),
		)
		return panelStyle.Width(w).Render(content)
	}

	md := m.timeline.Metadata
	title := titleStyle.Render(md.Name) + subtitleStyle.Render("  "+span(md))

	if len(m.timeline.Events) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No events yet. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for i, e := range m.timeline.Events {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		when := e.Start.String()
		if e.End != nil {
			when += " — " + e.End.String()
		}
		row := style.Render(fmt.Sprintf("%s%-30s ", cursor, e.Name)) + highlightStyle.Render(when)
		if names := m.tagNames(e); names != "" {
			row += mutedStyle.Render("  [" + names + "]")
		}
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  d: delete  esc: close timeline"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m eventsModel) tagNames(e timeline.Event) string {
	var names []string
	for _, id := range e.TagIDs {
		if t, ok := m.timeline.Tag(id); ok {
			names = append(names, t.Name)
		}
	}
	return strings.Join(names, " ")
}
