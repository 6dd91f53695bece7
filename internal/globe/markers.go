package globe

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/litescript/ls-airwaves/internal/geo"
	"github.com/litescript/ls-airwaves/internal/station"
)

// MarkerStyle is shared by every marker.
type MarkerStyle struct {
	Color RGB
	Glyph rune
}

// DefaultMarkerStyle is the green dot drawn for each station.
var DefaultMarkerStyle = MarkerStyle{
	Color: RGB{0x00, 0xff, 0x88},
	Glyph: '•',
}

// MarkerField keeps a single point buffer with one point per station.
type MarkerField struct {
	arena  *Arena
	handle Handle
	radius float64
	style  MarkerStyle
}

// NewMarkerField returns an empty field drawing at the given radius.
func NewMarkerField(arena *Arena, radius float64) *MarkerField {
	return &MarkerField{
		arena:  arena,
		handle: NoHandle,
		radius: radius,
		style:  DefaultMarkerStyle,
	}
}

// Rebuild replaces the point buffer with one built from stations. The
// previous buffer is released first, so repeated rebuilds hold at most one
// buffer.
func (f *MarkerField) Rebuild(stations []station.Station) {
	f.Release()
	pts := make([]mgl64.Vec3, len(stations))
	for i, s := range stations {
		pts[i] = geo.ToSurfacePoint(s.Lat, s.Lon, f.radius)
	}
	f.handle = f.arena.AllocPoints("markers", pts)
}

// Release frees the point buffer, if any.
func (f *MarkerField) Release() {
	if f.handle != NoHandle {
		f.arena.Free(f.handle)
		f.handle = NoHandle
	}
}

// Forget drops the handle without freeing it, after the arena was swept.
func (f *MarkerField) Forget() {
	f.handle = NoHandle
}

// Handle returns the current point buffer, or NoHandle.
func (f *MarkerField) Handle() Handle {
	return f.handle
}

// Positions returns the marker positions in station order.
func (f *MarkerField) Positions() []mgl64.Vec3 {
	return f.arena.Points(f.handle)
}

// Len returns the number of markers.
func (f *MarkerField) Len() int {
	return len(f.Positions())
}

// DrawItem returns the draw list entry for the field.
func (f *MarkerField) DrawItem() DrawItem {
	return DrawItem{
		Kind:     DrawMarkers,
		Resource: f.handle,
		Color:    f.style.Color,
		Glyph:    f.style.Glyph,
	}
}
