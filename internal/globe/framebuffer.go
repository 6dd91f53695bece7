package globe

import (
	"fmt"
	"strings"
)

// RGB is a 24-bit color.
type RGB struct {
	R, G, B uint8
}

// Hex returns the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Scale multiplies each channel by k, clamped to [0,1].
func (c RGB) Scale(k float64) RGB {
	if k < 0 {
		k = 0
	}
	if k > 1 {
		k = 1
	}
	return RGB{
		R: uint8(float64(c.R)*k + 0.5),
		G: uint8(float64(c.G)*k + 0.5),
		B: uint8(float64(c.B)*k + 0.5),
	}
}

// Layer records which draw item last wrote a cell.
type Layer uint8

const (
	LayerEmpty Layer = iota
	LayerStar
	LayerAtmosphere
	LayerPlanet
	LayerGraticule
	LayerMarker
)

// Cell is one character of the framebuffer.
type Cell struct {
	Ch    rune
	FG    RGB
	Layer Layer
}

var emptyCell = Cell{Ch: ' ', Layer: LayerEmpty}

// Framebuffer is a W×H grid of cells, row-major.
type Framebuffer struct {
	W, H  int
	Cells []Cell
}

// NewFramebuffer allocates a cleared framebuffer.
func NewFramebuffer(w, h int) *Framebuffer {
	fb := &Framebuffer{W: w, H: h, Cells: make([]Cell, w*h)}
	fb.Clear()
	return fb
}

// Clear resets every cell to empty.
func (fb *Framebuffer) Clear() {
	for i := range fb.Cells {
		fb.Cells[i] = emptyCell
	}
}

// At returns the cell at (x, y). Out-of-range coordinates return nil.
func (fb *Framebuffer) At(x, y int) *Cell {
	if x < 0 || y < 0 || x >= fb.W || y >= fb.H {
		return nil
	}
	return &fb.Cells[y*fb.W+x]
}

// Set writes a cell, ignoring out-of-range coordinates.
func (fb *Framebuffer) Set(x, y int, c Cell) {
	if p := fb.At(x, y); p != nil {
		*p = c
	}
}

// Count returns how many cells carry the given layer.
func (fb *Framebuffer) Count(layer Layer) int {
	n := 0
	for _, c := range fb.Cells {
		if c.Layer == layer {
			n++
		}
	}
	return n
}

// Row returns row y as plain text.
func (fb *Framebuffer) Row(y int) string {
	var b strings.Builder
	for x := 0; x < fb.W; x++ {
		b.WriteRune(fb.Cells[y*fb.W+x].Ch)
	}
	return b.String()
}

// String renders the framebuffer as plain text without color.
func (fb *Framebuffer) String() string {
	var b strings.Builder
	for y := 0; y < fb.H; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(fb.Row(y))
	}
	return b.String()
}
