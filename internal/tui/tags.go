package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/lifelinehq/lifeline/internal/store"
	"github.com/lifelinehq/lifeline/internal/timeline"
)

type tagsModel struct {
	store  *store.Store
	width  int
	height int

	tags   []timeline.Tag
	counts map[timeline.TagID]int
	cursor int

	formActive bool
	form       *huh.Form

	formName        *string
	formDescription *string
}

func newTagsModel(s *store.Store) tagsModel {
	name, desc := "", ""
	return tagsModel{
		store:           s,
		formName:        &name,
		formDescription: &desc,
	}
}

func (m *tagsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m tagsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		tags, err := m.store.ListTags()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load error: %v", err), isError: true}
		}
		counts := make(map[timeline.TagID]int, len(tags))
		for _, t := range tags {
			refs, err := m.store.EventsReferencingTag(t.ID)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Load error: %v", err), isError: true}
			}
			counts[t.ID] = len(refs)
		}
		return tagsDataMsg{tags: tags, counts: counts}
	}
}

func (m tagsModel) update(msg tea.Msg) (tagsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tagsDataMsg:
		m.tags = msg.tags
		m.counts = msg.counts
		if m.cursor >= len(m.tags) {
			m.cursor = max(0, len(m.tags)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.tags)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.New):
			return m.showNewTagForm()
		case key.Matches(msg, keys.Delete):
			if m.cursor < len(m.tags) {
				t := m.tags[m.cursor]
				if err := m.store.DeleteTag(t.ID); err != nil {
					return m, statusCmd(fmt.Sprintf("Delete error: %v", err), true)
				}
				return m, m.refresh()
			}
		}
	}
	return m, nil
}

func (m tagsModel) showNewTagForm() (tagsModel, tea.Cmd) {
	*m.formName = ""
	*m.formDescription = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name (lowercase, digits, -_[](){} )").Value(m.formName).
				Validate(func(s string) error {
					if !timeline.ValidTagName(strings.TrimSpace(s)) {
						return fmt.Errorf("invalid tag name")
					}
					return nil
				}),
			huh.NewInput().Title("Description").Value(m.formDescription),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tagsModel) updateForm(msg tea.Msg) (tagsModel, tea.Cmd) {
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
		name := strings.TrimSpace(*m.formName)
		desc := strings.TrimSpace(*m.formDescription)
		return m, func() tea.Msg {
			if _, err := m.store.AddTag(timeline.Tag{Name: name, Description: desc}); err != nil {
				return statusMsg{text: fmt.Sprintf("Add error: %v", err), isError: true}
			}
			return m.refresh()()
		}
	}

	return m, cmd
}

func (m tagsModel) view() string {
	if m.formActive && m.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Tag"), "", m.form.View())
		return panelStyle.Width(m.width - 4).Render(content)
	}

	w := m.width - 4
	title := titleStyle.Render("Tags")

	if len(m.tags) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tags yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-24s %8s  %s", "Name", "Events", "Description"))
	rows = append(rows, header)

	for i, t := range m.tags {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := style.Render(fmt.Sprintf("%s%-24s %8d  ", cursor, t.Name, m.counts[t.ID])) +
			mutedStyle.Render(t.Description)
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  d: delete (unreferenced only)"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
