package globe

import (
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/litescript/ls-airwaves/internal/geo"
	"github.com/litescript/ls-airwaves/internal/logging"
	"github.com/litescript/ls-airwaves/internal/station"
)

// InputKind classifies an InputEvent.
type InputKind uint8

const (
	InputPointerDown InputKind = iota + 1
	InputPointerUp
	InputPointerMove
	InputWheel
	// InputPointerCancel ends a press without picking, e.g. a release
	// outside the render target.
	InputPointerCancel
)

func (k InputKind) String() string {
	switch k {
	case InputPointerDown:
		return "down"
	case InputPointerUp:
		return "up"
	case InputPointerMove:
		return "move"
	case InputWheel:
		return "wheel"
	case InputPointerCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// InputEvent is a pointer event in cell coordinates of the render target.
// Events are queued by the host and handed to Scene.Frame in order.
type InputEvent struct {
	Kind InputKind
	Col  int
	Row  int
	At   time.Time
	// Wheel is positive for zooming out, negative for zooming in.
	Wheel int
}

// PickOutcome describes what a pointer release did.
type PickOutcome uint8

const (
	PickNone PickOutcome = iota
	PickHit
	PickMiss
	PickDrag
)

func (o PickOutcome) String() string {
	switch o {
	case PickHit:
		return "hit"
	case PickMiss:
		return "miss"
	case PickDrag:
		return "drag"
	default:
		return "none"
	}
}

// PickResult is emitted when a tap lands on the planet.
type PickResult struct {
	// Point is where the ray met the planet surface.
	Point mgl64.Vec3
	// Nearby holds stations within the pick threshold, closest first.
	Nearby []station.Nearby
	// FlyTarget is where the camera is sent.
	FlyTarget mgl64.Vec3
}

// Latitude of the picked point in degrees.
func (r PickResult) Latitude() float64 {
	return geo.Latitude(r.Point)
}

// Longitude of the picked point in degrees.
func (r PickResult) Longitude() float64 {
	return geo.Longitude(r.Point)
}

// Region names the area from the closest station.
func (r PickResult) Region() string {
	if len(r.Nearby) > 0 && r.Nearby[0].Country != "" {
		return r.Nearby[0].Country
	}
	return "Unknown Region"
}

// UTCOffset returns the approximate whole-hour offset of the picked point.
func (r PickResult) UTCOffset() int {
	return geo.UTCOffset(r.Longitude())
}

// LocalTime formats the approximate local time at the picked point.
func (r PickResult) LocalTime(now time.Time) string {
	return geo.LocalTime(now, r.UTCOffset())
}

// NearbyStations returns copies of the stations whose base-sphere position
// lies within threshold of point, sorted by ascending distance. Ties keep
// input order. point is projected onto the sphere of the given radius
// first, so marker lift never affects the result.
func NearbyStations(point mgl64.Vec3, stations []station.Station, radius, threshold float64) []station.Nearby {
	if point.Len() == 0 {
		return []station.Nearby{}
	}
	base := point.Normalize().Mul(radius)

	out := []station.Nearby{}
	for _, s := range stations {
		d := geo.ChordDistance(base, geo.ToSurfacePoint(s.Lat, s.Lon, radius))
		if d < threshold {
			out = append(out, station.Nearby{Station: s, Distance: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out
}

// Picker turns press/release pairs into planet picks.
type Picker struct {
	cfg     Config
	log     *logging.Logger
	pressed bool
	downAt  time.Time
	lastCol int
	lastRow int
}

// NewPicker returns an idle picker.
func NewPicker(cfg Config, log *logging.Logger) *Picker {
	if log == nil {
		log = logging.Discard()
	}
	return &Picker{cfg: cfg, log: log}
}

// PointerDown records the press time and position.
func (p *Picker) PointerDown(ev InputEvent) {
	p.pressed = true
	p.downAt = ev.At
	p.lastCol, p.lastRow = ev.Col, ev.Row
}

// Pressed reports whether a press is in progress.
func (p *Picker) Pressed() bool {
	return p.pressed
}

// Drag returns the cell delta since the last pointer position and
// records the new one. It returns zeros when no press is in progress.
func (p *Picker) Drag(ev InputEvent) (dCol, dRow int) {
	if !p.pressed {
		return 0, 0
	}
	dCol, dRow = ev.Col-p.lastCol, ev.Row-p.lastRow
	p.lastCol, p.lastRow = ev.Col, ev.Row
	return dCol, dRow
}

// CancelPress ends a press without testing the ray. It reports whether a
// press was in progress.
func (p *Picker) CancelPress() bool {
	was := p.pressed
	p.pressed = false
	return was
}

// PointerUp ends a press. A press held longer than the drag threshold
// is a drag and never picks. Otherwise the ray through the release cell
// is tested against the planet sphere; other scene objects are ignored.
func (p *Picker) PointerUp(ev InputEvent, cam Camera, w, h int, stations []station.Station) (PickResult, PickOutcome) {
	if !p.pressed {
		return PickResult{}, PickNone
	}
	p.pressed = false

	if held := ev.At.Sub(p.downAt); held > p.cfg.DragThreshold {
		p.log.Debug("release after %v treated as drag", held)
		return PickResult{}, PickDrag
	}
	if w <= 0 || h <= 0 {
		return PickResult{}, PickMiss
	}

	x, y := CellNDC(ev.Col, ev.Row, w, h)
	ray := cam.RayFromNDC(x, y)
	t, ok := IntersectSphere(ray, p.cfg.Radius)
	if !ok {
		return PickResult{}, PickMiss
	}

	point := ray.At(t)
	result := PickResult{
		Point:     point,
		Nearby:    NearbyStations(point, stations, p.cfg.Radius, p.cfg.PickThreshold),
		FlyTarget: point.Normalize().Mul(p.cfg.FlyDistance),
	}
	p.log.Debug("pick at %.2f,%.2f: %d nearby", result.Latitude(), result.Longitude(), len(result.Nearby))
	return result, PickHit
}

// PickCoordinate builds the result a tap at (lat, lon) would produce.
func PickCoordinate(cfg Config, lat, lon float64, stations []station.Station) PickResult {
	point := geo.ToSurfacePoint(lat, lon, cfg.Radius)
	return PickResult{
		Point:     point,
		Nearby:    NearbyStations(point, stations, cfg.Radius, cfg.PickThreshold),
		FlyTarget: point.Normalize().Mul(cfg.FlyDistance),
	}
}
