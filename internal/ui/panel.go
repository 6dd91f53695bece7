package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-airwaves/internal/globe"
	"github.com/litescript/ls-airwaves/internal/station"
)

const (
	panelWidth     = 38
	emptyNearbyMsg = "No stations found in this range."
)

// stationItem adapts a nearby station to the list.
type stationItem struct {
	nearby station.Nearby
}

func (i stationItem) Title() string { return i.nearby.Name }

func (i stationItem) Description() string {
	codec := i.nearby.Codec
	if codec == "" {
		codec = "?"
	}
	return fmt.Sprintf("%s · %s · %.1f", i.nearby.DisplayTags(), codec, i.nearby.Distance)
}

func (i stationItem) FilterValue() string { return i.nearby.Name }

// PanelModel shows the result of the last pick.
type PanelModel struct {
	list   list.Model
	pick   globe.PickResult
	pickAt time.Time
	open   bool
	width  int
	height int
}

// NewPanelModel creates a closed panel.
func NewPanelModel() PanelModel {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("#00FF88")).
		BorderForeground(lipgloss.Color("#00FF88"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("#4FB38A")).
		BorderForeground(lipgloss.Color("#00FF88"))

	l := list.New(nil, delegate, panelWidth-2, 10)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return PanelModel{list: l, width: panelWidth}
}

// SetPick opens the panel on a pick result.
func (p PanelModel) SetPick(r globe.PickResult, at time.Time) PanelModel {
	items := make([]list.Item, len(r.Nearby))
	for i, n := range r.Nearby {
		items[i] = stationItem{nearby: n}
	}
	p.list.SetItems(items)
	p.list.Select(0)
	p.pick = r
	p.pickAt = at
	p.open = true
	return p
}

// Close hides the panel.
func (p PanelModel) Close() PanelModel {
	p.open = false
	return p
}

// Open reports whether the panel is shown.
func (p PanelModel) Open() bool {
	return p.open
}

// Pick returns the displayed pick.
func (p PanelModel) Pick() globe.PickResult {
	return p.pick
}

// SetSize sets the panel height. Width is fixed.
func (p PanelModel) SetSize(height int) PanelModel {
	p.height = height
	// Header block takes six lines.
	listHeight := height - 6
	if listHeight < 2 {
		listHeight = 2
	}
	p.list.SetSize(p.width-2, listHeight)
	return p
}

// Selected returns the highlighted station.
func (p PanelModel) Selected() (station.Nearby, bool) {
	item, ok := p.list.SelectedItem().(stationItem)
	if !ok {
		return station.Nearby{}, false
	}
	return item.nearby, true
}

// Update forwards navigation keys to the list.
func (p PanelModel) Update(msg tea.Msg) (PanelModel, tea.Cmd) {
	if !p.open {
		return p, nil
	}
	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return p, cmd
}

// View renders the panel.
func (p PanelModel) View() string {
	if !p.open {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF88")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("135")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	offset := p.pick.UTCOffset()
	var b strings.Builder
	b.WriteString(titleStyle.Render(truncate(p.pick.Region(), p.width-4)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Local "))
	b.WriteString(fmt.Sprintf("%s (UTC%+d)", p.pick.LocalTime(p.pickAt), offset))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%.2f°, %.2f°", p.pick.Latitude(), p.pick.Longitude())))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%d nearby", len(p.pick.Nearby))))
	b.WriteString("\n\n")

	if len(p.pick.Nearby) == 0 {
		b.WriteString(dimStyle.Render(emptyNearbyMsg))
	} else {
		b.WriteString(p.list.View())
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#7B2CBF")).
		Width(p.width - 2)
	if p.height > 2 {
		box = box.Height(p.height - 2)
	}
	return box.Render(b.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
