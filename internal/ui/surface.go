package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-airwaves/internal/globe"
)

// cellSurface is the globe's render surface: it turns a framebuffer into
// styled terminal lines. Runs of equal color share one style render.
type cellSurface struct {
	w, h  int
	lines []string
}

func newCellSurface(w, h int) *cellSurface {
	return &cellSurface{w: w, h: h}
}

// Size implements globe.Surface.
func (s *cellSurface) Size() (int, int) {
	return s.w, s.h
}

// SetSize updates the size reported to the scene.
func (s *cellSurface) SetSize(w, h int) {
	s.w, s.h = w, h
}

// Present implements globe.Surface.
func (s *cellSurface) Present(fb *globe.Framebuffer) error {
	lines := make([]string, fb.H)
	for y := 0; y < fb.H; y++ {
		lines[y] = renderRow(fb, y)
	}
	s.lines = lines
	return nil
}

// View returns the last presented frame.
func (s *cellSurface) View() string {
	return strings.Join(s.lines, "\n")
}

func renderRow(fb *globe.Framebuffer, y int) string {
	var b strings.Builder
	var run []rune
	var runColor globe.RGB
	runEmpty := true

	flush := func() {
		if len(run) == 0 {
			return
		}
		if runEmpty {
			b.WriteString(string(run))
		} else {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(runColor.Hex()))
			if runColor == globe.DefaultMarkerStyle.Color {
				style = style.Bold(true)
			}
			b.WriteString(style.Render(string(run)))
		}
		run = run[:0]
	}

	for x := 0; x < fb.W; x++ {
		c := fb.At(x, y)
		empty := c.Layer == globe.LayerEmpty
		if empty != runEmpty || (!empty && c.FG != runColor) {
			flush()
			runEmpty = empty
			runColor = c.FG
		}
		run = append(run, c.Ch)
	}
	flush()
	return b.String()
}
