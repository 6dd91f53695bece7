// Package globe renders the station globe into a character framebuffer and
// turns pointer input into station picks.
//
// The scene is data-oriented: every GPU-like resource (meshes, point
// buffers, the render target) lives in a single Arena, and the frame is a
// flat list of DrawItems referencing arena handles. Stopping the scene
// releases everything in one sweep.
package globe

import (
	"time"

	"github.com/litescript/ls-airwaves/internal/geo"
)

// Config holds tunables for the scene, camera and picking.
type Config struct {
	// Radius is the planet radius in scene units.
	Radius float64
	// MarkerLift raises markers above the surface so they are not
	// z-fighting with it.
	MarkerLift float64
	// AtmosphereLift is the shell height of the atmosphere glow.
	AtmosphereLift float64

	// PickThreshold is the chord distance, measured on the base sphere,
	// within which a station counts as nearby.
	PickThreshold float64
	// DragThreshold separates taps from drags. A press held longer than
	// this never picks.
	DragThreshold time.Duration
	// FlyDistance is the camera distance from the center after a pick.
	FlyDistance float64
	// FlyDuration is the length of the pick fly-to animation.
	FlyDuration time.Duration

	FOV             float64 // vertical, degrees
	Near            float64
	Far             float64
	InitialDistance float64
	MinDistance     float64
	MaxDistance     float64

	// AutoRotateSpeed follows the orbit-controls convention: 1.0 is one
	// revolution per minute.
	AutoRotateSpeed float64
	// OrbitSpeed is radians of camera rotation per dragged cell.
	OrbitSpeed float64
	// ZoomStep is the distance multiplier for one wheel notch.
	ZoomStep float64

	// CellAspect is cell width divided by cell height.
	CellAspect float64

	StarCount  int
	StarSpread float64
	StarSeed   int64

	// SunPosition places the directional light.
	SunPosition [3]float64
	// SunIntensity scales the directional light.
	SunIntensity float64
	// Ambient is the ambient light level in [0,1].
	Ambient float64
	// GraticuleStep is the spacing of drawn lat/lon lines in degrees.
	// Zero disables them.
	GraticuleStep float64

	// FrameInterval is the target time between frames.
	FrameInterval time.Duration
}

// DefaultConfig returns the standard globe configuration.
func DefaultConfig() Config {
	return Config{
		Radius:          geo.GlobeRadius,
		MarkerLift:      0.5,
		AtmosphereLift:  2,
		PickThreshold:   5,
		DragThreshold:   200 * time.Millisecond,
		FlyDistance:     200,
		FlyDuration:     time.Second,
		FOV:             45,
		Near:            0.1,
		Far:             1000,
		InitialDistance: 250,
		MinDistance:     120,
		MaxDistance:     400,
		AutoRotateSpeed: 0.5,
		OrbitSpeed:      0.05,
		ZoomStep:        1.1,
		CellAspect:      0.5,
		StarCount:       600,
		StarSpread:      800,
		StarSeed:        1,
		SunPosition:     [3]float64{50, 30, 50},
		SunIntensity:    1.5,
		Ambient:         0.2,
		GraticuleStep:   30,
		FrameInterval:   33 * time.Millisecond,
	}
}

// Recorder receives scene telemetry. A nil Recorder is replaced by a no-op.
type Recorder interface {
	ObserveFrame(d time.Duration)
	ObservePick(nearby int)
	IncPickMiss()
	IncDrag()
	ObserveMarkerRebuild(markers int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFrame(time.Duration) {}
func (nopRecorder) ObservePick(int)            {}
func (nopRecorder) IncPickMiss()               {}
func (nopRecorder) IncDrag()                   {}
func (nopRecorder) ObserveMarkerRebuild(int)   {}
