// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-airwaves/internal/globe"
	"github.com/litescript/ls-airwaves/internal/state"
	"github.com/litescript/ls-airwaves/internal/station"
	"github.com/litescript/ls-airwaves/internal/version"
)

// headerLines and footerLines frame the globe viewport.
const (
	headerLines = 1
	footerLines = 2
)

// Keyboard orbit step in radians.
const keyOrbitStep = 0.08

// Msg types for Bubble Tea
type (
	// FrameMsg drives one scene frame. Gen ties it to a scene run; frames
	// from an earlier run are dropped.
	FrameMsg struct {
		Gen uint64
		At  time.Time
	}

	// DataUpdateMsg signals a new station snapshot is available.
	DataUpdateMsg struct {
		Snapshot state.Snapshot
	}

	// ErrorMsg signals a fetch error.
	ErrorMsg struct {
		Error error
	}

	// exportDoneMsg reports the result of an export.
	exportDoneMsg struct {
		path string
		err  error
	}
)

// Config holds UI settings.
type Config struct {
	FrameInterval time.Duration
	ExportDir     string
	// Refresh asks the host for a station refresh. Nil disables the key.
	Refresh func()
}

// DefaultConfig returns the UI defaults.
func DefaultConfig() Config {
	return Config{
		FrameInterval: globe.DefaultConfig().FrameInterval,
		ExportDir:     ".",
	}
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	state   *state.Manager
	scene   *globe.Scene
	surface *cellSurface
	cfg     Config
	now     func() time.Time

	// UI state
	width      int
	height     int
	ready      bool // window size known
	sceneReady bool // first frame presented
	sceneErr   error
	statusMsg  string
	animTick   int

	// Input queued for the next frame
	pending []globe.InputEvent

	// Sub-models
	spinner spinner.Model
	panel   PanelModel

	// Data snapshot (updated on DataUpdateMsg)
	snapshot state.Snapshot
}

// New creates a new root UI model.
func New(stateMgr *state.Manager, scene *globe.Scene, cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Globe
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF88"))

	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultConfig().FrameInterval
	}

	return Model{
		state:   stateMgr,
		scene:   scene,
		surface: newCellSurface(0, 0),
		cfg:     cfg,
		now:     time.Now,
		spinner: s,
		panel:   NewPanelModel(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		cmds = append(cmds, m.layout())

	case FrameMsg:
		if m.scene.Running() && msg.Gen == m.scene.Generation() {
			m.frame(msg.At)
			cmds = append(cmds, frameCmd(msg.Gen, m.cfg.FrameInterval))
		}

	case spinner.TickMsg:
		if m.loading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case DataUpdateMsg:
		m.snapshot = msg.Snapshot
		m.scene.SetStations(m.snapshot.Stations)

	case ErrorMsg:
		if m.state != nil {
			m.snapshot = m.state.Snapshot()
		}
		m.snapshot.LastError = msg.Error

	case exportDoneMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Export failed: %v", msg.err)
		} else {
			m.statusMsg = "Exported " + msg.path
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	now := m.now()
	switch msg.String() {
	case "q", "ctrl+c":
		m.scene.Stop()
		return tea.Quit
	case "r":
		m.scene.SetAutoRotate(!m.scene.AutoRotate())
	case "c":
		m.scene.ResetView(now)
		m.statusMsg = ""
	case "+", "=":
		m.scene.Zoom(-1)
	case "-", "_":
		m.scene.Zoom(1)
	case "left":
		m.scene.Orbit(keyOrbitStep, 0)
	case "right":
		m.scene.Orbit(-keyOrbitStep, 0)
	case "up":
		m.scene.Orbit(0, -keyOrbitStep)
	case "down":
		m.scene.Orbit(0, keyOrbitStep)
	case "esc":
		if m.panel.Open() {
			m.panel = m.panel.Close()
			return m.layout()
		}
	case "enter":
		if n, ok := m.panel.Selected(); ok && m.panel.Open() {
			m.scene.FlyTo(n.Lat, n.Lon, now)
			m.statusMsg = fmt.Sprintf("%s: %s", n.Name, n.StreamURL())
		}
	case "b":
		picks := m.snapshot.Picks
		if len(picks) < 2 {
			m.statusMsg = "No earlier pick"
			return nil
		}
		prev := picks[len(picks)-2]
		m.scene.FlyTo(prev.Latitude, prev.Longitude, now)
		m.showPick(m.scene.PickAt(prev.Latitude, prev.Longitude))
	case "f":
		if m.cfg.Refresh != nil {
			m.cfg.Refresh()
			m.statusMsg = "Refreshing stations..."
		}
	case "x":
		if m.panel.Open() {
			return exportCmd(m.panel.Pick(), now, m.cfg.ExportDir)
		}
	case "j", "k":
		var cmd tea.Cmd
		m.panel, cmd = m.panel.Update(msg)
		return cmd
	}
	return nil
}

// handleMouse queues pointer input for the next frame. Only presses that
// start on the globe are tracked.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	col, row := msg.X, msg.Y-headerLines
	w, h := m.surface.Size()
	inside := col >= 0 && row >= 0 && col < w && row < h
	ev := globe.InputEvent{Col: col, Row: row, At: m.now()}

	switch {
	case msg.Button == tea.MouseButtonWheelUp && inside:
		ev.Kind, ev.Wheel = globe.InputWheel, -1
	case msg.Button == tea.MouseButtonWheelDown && inside:
		ev.Kind, ev.Wheel = globe.InputWheel, 1
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && inside:
		ev.Kind = globe.InputPointerDown
	case msg.Action == tea.MouseActionMotion:
		ev.Kind = globe.InputPointerMove
	case msg.Action == tea.MouseActionRelease && inside:
		ev.Kind = globe.InputPointerUp
	case msg.Action == tea.MouseActionRelease:
		// Released over the header, footer or panel.
		ev.Kind = globe.InputPointerCancel
	default:
		return
	}
	m.pending = append(m.pending, ev)
}

// layout sizes the globe and panel to the window. The first call starts
// the scene and its frame loop.
func (m *Model) layout() tea.Cmd {
	if !m.ready {
		return nil
	}
	gw := m.width
	if m.panel.Open() {
		gw -= panelWidth
	}
	gh := m.height - headerLines - footerLines
	m.panel = m.panel.SetSize(gh)
	m.surface.SetSize(gw, gh)

	if m.scene.Running() {
		if err := m.scene.Resize(gw, gh); err != nil {
			m.statusMsg = err.Error()
		}
		return nil
	}
	if m.sceneErr != nil {
		return nil
	}
	if err := m.scene.Start(m.surface); err != nil {
		m.sceneErr = err
		return tea.Quit
	}
	return frameCmd(m.scene.Generation(), 0)
}

func (m *Model) frame(at time.Time) {
	events := m.pending
	m.pending = nil

	result := m.scene.Frame(at, events)
	m.animTick++
	if result.Ready {
		m.sceneReady = true
	}

	if len(result.Picks) == 0 {
		return
	}
	m.showPick(result.Picks[len(result.Picks)-1])
}

// showPick opens the panel on pick and records it in the session history.
func (m *Model) showPick(pick globe.PickResult) {
	wasOpen := m.panel.Open()
	m.panel = m.panel.SetPick(pick, m.now())
	m.statusMsg = ""
	if m.state != nil {
		m.state.RecordPick(state.PickRecord{
			Timestamp: m.now(),
			Latitude:  pick.Latitude(),
			Longitude: pick.Longitude(),
			Region:    pick.Region(),
			Nearby:    len(pick.Nearby),
		})
		m.snapshot = m.state.Snapshot()
	}
	if !wasOpen {
		m.layout()
	}
}

// SceneError returns the error that kept the globe from starting.
func (m Model) SceneError() error {
	return m.sceneErr
}

func (m Model) loading() bool {
	return !m.sceneReady || (m.snapshot.Stations == nil && m.snapshot.LastError == nil)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.sceneErr != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
		return errorStyle.Render("  Globe unavailable: "+m.sceneErr.Error()) + "\n"
	}
	if m.loading() {
		return m.renderLoading()
	}

	content := m.surface.View()
	if m.panel.Open() {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, m.panel.View())
	}
	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderLoading() string {
	text := m.spinner.View() + " " + m.renderShimmerText("Initializing Satellites...")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, text)
}

func (m Model) renderHeader() string {
	title := " LS-AIRWAVES "
	runes := []rune(title)
	var b strings.Builder
	for col, r := range runes {
		color := gradientColor(col, 0, len(runes), 1)
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(string(r)))
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render(fmt.Sprintf("· v%s · %d stations", version.Version, len(m.snapshot.Stations))))
	if len(m.snapshot.Countries) > 0 {
		top := m.snapshot.Countries[0]
		b.WriteString(muted.Render(fmt.Sprintf(" · most in %s (%d)", top.Country, top.Stations)))
	}
	if !m.snapshot.NextRefresh.IsZero() {
		b.WriteString(muted.Render(" · next refresh " + m.snapshot.NextRefresh.Format("15:04")))
	}
	return b.String()
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF88"))

	var status string
	if m.snapshot.LastError != nil {
		status = errorStyle.Render("ERROR: " + m.snapshot.LastError.Error())
	} else if !m.snapshot.LastFetch.IsZero() {
		status = accentStyle.Render("●") + dimStyle.Render(fmt.Sprintf(" %d on air", len(m.snapshot.Stations)))
		if m.snapshot.Cached {
			status += dimStyle.Render(" (cached)")
		} else if m.snapshot.FetchDuration > 0 {
			status += dimStyle.Render(" (" + m.snapshot.FetchDuration.Round(time.Millisecond).String() + ")")
		}
	} else {
		status = m.renderShimmerText("Waiting for stations...")
	}

	help := "click: pick | drag: orbit | +/-: zoom | r: drift | c: center | b: back | f: refresh | q: quit"
	if m.panel.Open() {
		help = "j/k: station | enter: fly+stream | b: back | x: export | esc: close | q: quit"
	}

	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + dimStyle.Render(help)
	switch {
	case m.statusMsg != "":
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	case len(m.snapshot.Events) > 0:
		e := m.snapshot.Events[len(m.snapshot.Events)-1]
		footer += "\n  " + dimStyle.Render(e.Timestamp.Format("15:04")+" "+describeEvent(e))
	}
	return footer
}

// describeEvent returns a one-line summary of a state event.
func describeEvent(e state.Event) string {
	switch e.Type {
	case state.EventCatalogLoaded:
		return fmt.Sprintf("Loaded %d stations", e.Count)
	case state.EventStationsAdded:
		return fmt.Sprintf("%d stations came on air", e.Count)
	case state.EventStationsRemoved:
		return fmt.Sprintf("%d stations went off air", e.Count)
	case state.EventFetchFailed:
		return "Refresh failed: " + e.Detail
	case state.EventPick:
		return fmt.Sprintf("Picked %s (%d nearby)", e.Region, e.Count)
	default:
		return string(e.Type)
	}
}

// gradientColor returns a hex color for a position in the title gradient,
// running from blue through green.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := 0.0
	if height > 1 {
		yRatio = float64(row) / float64(height)
	}

	// Blue (#3B82F6) -> Teal (#14B8A6) -> Green (#00FF88)
	var r, g, b float64
	if xRatio < 0.5 {
		t := xRatio / 0.5
		r = 59 + t*(20-59)
		g = 130 + t*(184-130)
		b = 246 + t*(166-246)
	} else {
		t := (xRatio - 0.5) / 0.5
		r = 20 + t*(0-20)
		g = 184 + t*(255-184)
		b = 166 + t*(136-166)
	}

	brightness := 1.0 - (yRatio * 0.5)
	return fmt.Sprintf("#%02X%02X%02X", clampByte(r*brightness), clampByte(g*brightness), clampByte(b*brightness))
}

func clampByte(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return int(v)
}

// renderShimmerText renders text with a subtle moving shine effect.
func (m Model) renderShimmerText(text string) string {
	runes := []rune(text)
	textLen := len(runes)
	if textLen == 0 {
		return ""
	}

	pos := m.animTick % (textLen + 8)

	var result strings.Builder
	for i, r := range runes {
		dist := i - pos + 4
		if dist < 0 {
			dist = -dist
		}

		var r8, g8, b8 int
		switch {
		case dist <= 1:
			r8, g8, b8 = 170, 255, 210
		case dist <= 3:
			r8, g8, b8 = 110, 210, 170
		case dist <= 5:
			r8, g8, b8 = 80, 160, 130
		default:
			r8, g8, b8 = 60, 110, 95
		}

		hexColor := fmt.Sprintf("#%02X%02X%02X", r8, g8, b8)
		result.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor)).Render(string(r)))
	}
	return result.String()
}

func frameCmd(gen uint64, interval time.Duration) tea.Cmd {
	if interval <= 0 {
		return func() tea.Msg {
			return FrameMsg{Gen: gen, At: time.Now()}
		}
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return FrameMsg{Gen: gen, At: t}
	})
}

func exportCmd(pick globe.PickResult, now time.Time, dir string) tea.Cmd {
	return func() tea.Msg {
		path := filepath.Join(dir, fmt.Sprintf("airwaves-%s.xlsx", now.Format("20060102-150405")))
		export := station.ExportPick(pick.Latitude(), pick.Longitude(), pick.Region(), pick.LocalTime(now), pick.Nearby, now)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exportDoneMsg{path: path, err: err}
		}
		return exportDoneMsg{path: path, err: export.WriteXLSX(path)}
	}
}
