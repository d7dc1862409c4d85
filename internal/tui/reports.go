package tui

import (
	"fmt"
	"sort"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lifelinehq/lifeline/internal/store"
	"github.com/lifelinehq/lifeline/internal/timeline"
)

type reportMode int

const (
	reportByTag reportMode = iota
	reportByDecade
)

type reportsModel struct {
	store  *store.Store
	width  int
	height int

	mode     reportMode
	timeline *timeline.Timeline

	chart barchart.Model
}

func newReportsModel(s *store.Store) reportsModel {
	return reportsModel{
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r *reportsModel) setTimeline(t *timeline.Timeline) {
	r.timeline = t
	r.buildChart()
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case timelineLoadedMsg:
		r.timeline = msg.t
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
			if r.mode == reportByTag {
				r.mode = reportByDecade
			} else {
				r.mode = reportByTag
			}
			r.buildChart()
			return r, nil
		}
	}
	return r, nil
}

var barPalette = []lipgloss.Color{
	colorPrimary, colorSecondary, colorAccent, colorSuccess,
	colorWarning, colorHighlight, colorError,
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	if r.timeline == nil {
		return
	}

	var bars []barchart.BarData
	if r.mode == reportByTag {
		bars = r.tagBars()
	} else {
		bars = r.decadeBars()
	}
	if len(bars) == 0 {
		return
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

// tagBars counts each tag's event references in the open timeline.
func (r *reportsModel) tagBars() []barchart.BarData {
	counts := make(map[timeline.TagID]int)
	for _, e := range r.timeline.Events {
		for _, id := range e.TagIDs {
			counts[id]++
		}
	}

	ids := make([]timeline.TagID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})

	var bars []barchart.BarData
	for i, id := range ids {
		name := fmt.Sprintf("#%d", id)
		if t, ok := r.timeline.Tag(id); ok {
			name = t.Name
		}
		style := lipgloss.NewStyle().Foreground(barPalette[i%len(barPalette)])
		bars = append(bars, barchart.BarData{
			Label: name,
			Values: []barchart.BarValue{
				{Name: name, Value: float64(counts[id]), Style: style},
			},
		})
	}
	return bars
}

// decadeBars buckets events by the decade of their start year.
func (r *reportsModel) decadeBars() []barchart.BarData {
	counts := make(map[int]int)
	for _, e := range r.timeline.Events {
		counts[e.Start.Year/10*10]++
	}

	decades := make([]int, 0, len(counts))
	for d := range counts {
		decades = append(decades, d)
	}
	sort.Ints(decades)

	var bars []barchart.BarData
	for i, d := range decades {
		label := fmt.Sprintf("%ds", d)
		style := lipgloss.NewStyle().Foreground(barPalette[i%len(barPalette)])
		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{
				{Name: label, Value: float64(counts[d]), Style: style},
			},
		})
	}
	return bars
}

func (r reportsModel) view() string {
	w := r.width - 4

	if r.timeline == nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Reports"),
			"",
			mutedStyle.Render("No timeline open. Select one from the Timelines view."),
		)
		return panelStyle.Width(w).Render(content)
	}

	byTagTab := inactiveTabStyle.Render("By Tag")
	byDecadeTab := inactiveTabStyle.Render("By Decade")
	if r.mode == reportByTag {
		byTagTab = activeTabStyle.Render("By Tag")
	} else {
		byDecadeTab = activeTabStyle.Render("By Decade")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, byTagTab, byDecadeTab)

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render(r.timeline.Metadata.Name), "  ", modeTabs,
	)

	chartView := r.chart.View()
	if len(r.timeline.Events) == 0 {
		chartView = mutedStyle.Render("  No events to chart")
	}

	summary := mutedStyle.Render(fmt.Sprintf("  %d event(s), %d tag(s)",
		len(r.timeline.Events), len(r.timeline.Tags)))

	nav := mutedStyle.Render("  ←/→: switch mode")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", summary, "", nav,
		),
	)
}
