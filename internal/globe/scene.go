package globe

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/litescript/ls-airwaves/internal/geo"
	"github.com/litescript/ls-airwaves/internal/logging"
	"github.com/litescript/ls-airwaves/internal/station"
)

var (
	// ErrSurfaceUnavailable is returned by Start when there is nothing to
	// draw into.
	ErrSurfaceUnavailable = errors.New("render surface unavailable")
	// ErrAlreadyRunning is returned by Start on a running scene.
	ErrAlreadyRunning = errors.New("scene already running")
)

// maxFrameStep caps the drift applied after a long pause between frames.
const maxFrameStep = 250 * time.Millisecond

// Surface is the host display. Present is the single draw call of a frame.
type Surface interface {
	Size() (w, h int)
	Present(fb *Framebuffer) error
}

// FrameResult reports what a frame did.
type FrameResult struct {
	// Ready is true on the first presented frame after Start.
	Ready bool
	// Picks holds one result per tap that landed on the planet.
	Picks []PickResult
	// Presented is true when the draw call succeeded.
	Presented bool
	// Err holds the draw call error, if any.
	Err error
}

// Option configures a Scene.
type Option func(*Scene)

// WithLogger sets the scene logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scene) {
		s.log = l
	}
}

// WithRecorder sets the telemetry sink.
func WithRecorder(r Recorder) Option {
	return func(s *Scene) {
		s.rec = r
	}
}

// Scene owns the planet, atmosphere, starfield, markers and camera, and
// runs one frame per call to Frame. It is not safe for concurrent use; the
// host drives it from a single goroutine.
type Scene struct {
	cfg Config
	log *logging.Logger
	rec Recorder

	arena    Arena
	items    []DrawItem
	target   Handle
	planet   Handle
	glow     Handle
	stars    Handle
	markers  *MarkerField
	stations []station.Station

	camera   Camera
	animator *CameraAnimator
	picker   *Picker

	surface    Surface
	running    bool
	ready      bool
	autoRotate bool
	generation uint64
	lastFrame  time.Time
}

// NewScene creates a stopped scene.
func NewScene(cfg Config, opts ...Option) *Scene {
	s := &Scene{
		cfg:    cfg,
		target: NoHandle,
		planet: NoHandle,
		glow:   NoHandle,
		stars:  NoHandle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.rec == nil {
		s.rec = nopRecorder{}
	}
	s.markers = NewMarkerField(&s.arena, cfg.Radius+cfg.MarkerLift)
	s.camera = NewCamera(cfg)
	s.animator = NewCameraAnimator(&s.camera)
	s.picker = NewPicker(cfg, s.log.Named("picker"))
	return s
}

// Start builds the scene against surface and begins accepting frames.
func (s *Scene) Start(surface Surface) error {
	if s.running {
		return ErrAlreadyRunning
	}
	if surface == nil {
		return ErrSurfaceUnavailable
	}
	w, h := surface.Size()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrSurfaceUnavailable, w, h)
	}

	s.surface = surface
	s.camera = NewCamera(s.cfg)
	s.camera.SetViewport(w, h, s.cfg.CellAspect)
	s.animator.cancel()
	s.picker = NewPicker(s.cfg, s.log.Named("picker"))

	s.target = s.arena.AllocTarget("target", w, h)
	s.planet = s.arena.AllocSphere("planet", s.cfg.Radius)
	s.glow = s.arena.AllocSphere("atmosphere", s.cfg.Radius+s.cfg.AtmosphereLift)
	s.stars = s.arena.AllocPoints("stars", Starfield(s.cfg.StarCount, s.cfg.StarSpread, s.cfg.StarSeed))
	s.markers.Rebuild(s.stations)
	s.rebuildDrawList()

	s.running = true
	s.ready = false
	s.autoRotate = true
	s.generation++
	s.lastFrame = time.Time{}

	s.rec.ObserveMarkerRebuild(s.markers.Len())
	s.log.Info("started %dx%d with %d markers, %d resources", w, h, s.markers.Len(), s.arena.Live())
	return nil
}

// Stop releases every scene resource in one sweep. Stopping a stopped
// scene is a no-op. Frames after Stop do nothing.
func (s *Scene) Stop() {
	if !s.running {
		return
	}
	n := s.arena.Reset()
	s.markers.Forget()
	s.items = nil
	s.target, s.planet, s.glow, s.stars = NoHandle, NoHandle, NoHandle, NoHandle
	s.animator.cancel()
	s.surface = nil
	s.running = false
	s.generation++
	s.log.Info("stopped, released %d resources", n)
}

// Running reports whether the scene accepts frames.
func (s *Scene) Running() bool {
	return s.running
}

// Generation changes on every Start and Stop. Hosts tag scheduled frames
// with it and drop frames from an older generation.
func (s *Scene) Generation() uint64 {
	return s.generation
}

func (s *Scene) rebuildDrawList() {
	s.items = append(s.items[:0],
		DrawItem{Kind: DrawPlanet, Resource: s.planet},
		DrawItem{Kind: DrawAtmosphere, Resource: s.glow},
		DrawItem{Kind: DrawStars, Resource: s.stars, Color: starColor, Glyph: '.'},
		s.markers.DrawItem(),
	)
}

// SetStations replaces the station list. The slice is not modified and
// must not be modified by the caller afterwards.
func (s *Scene) SetStations(stations []station.Station) {
	s.stations = stations
	if !s.running {
		return
	}
	s.markers.Rebuild(stations)
	s.rebuildDrawList()
	s.rec.ObserveMarkerRebuild(s.markers.Len())
	s.log.Debug("rebuilt %d markers", s.markers.Len())
}

// PickAt returns the pick a tap at (lat, lon) would produce against the
// current stations.
func (s *Scene) PickAt(lat, lon float64) PickResult {
	return PickCoordinate(s.cfg, lat, lon, s.stations)
}

// Resize swaps the render target and updates the camera aspect. The
// camera position and any animation in flight are untouched.
func (s *Scene) Resize(w, h int) error {
	if !s.running {
		return nil
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrSurfaceUnavailable, w, h)
	}
	if fb := s.arena.Target(s.target); fb != nil && fb.W == w && fb.H == h {
		return nil
	}
	s.arena.Free(s.target)
	s.target = s.arena.AllocTarget("target", w, h)
	s.camera.SetViewport(w, h, s.cfg.CellAspect)
	s.log.Debug("resized to %dx%d", w, h)
	return nil
}

// Size returns the render target size.
func (s *Scene) Size() (w, h int) {
	if fb := s.arena.Target(s.target); fb != nil {
		return fb.W, fb.H
	}
	return 0, 0
}

// Frame applies queued input, advances the camera animation, applies
// idle drift and issues one draw. now is the frame timestamp.
func (s *Scene) Frame(now time.Time, events []InputEvent) FrameResult {
	var result FrameResult
	if !s.running {
		return result
	}
	began := time.Now()

	var dt time.Duration
	if !s.lastFrame.IsZero() {
		dt = now.Sub(s.lastFrame)
		if dt < 0 {
			dt = 0
		}
		if dt > maxFrameStep {
			dt = maxFrameStep
		}
	}
	s.lastFrame = now

	for _, ev := range events {
		if pick, ok := s.handle(ev, now); ok {
			result.Picks = append(result.Picks, pick)
		}
	}

	animating := s.animator.Advance(now)
	if s.autoRotate && !animating && !s.picker.Pressed() {
		s.camera.AutoRotate(s.cfg.AutoRotateSpeed, dt.Seconds())
	}

	fb := s.arena.Target(s.target)
	newRaster(s.cfg, &s.arena, s.camera, fb).draw(s.items)
	if err := s.surface.Present(fb); err != nil {
		s.log.Warn("present failed: %v", err)
		result.Err = err
	} else {
		result.Presented = true
		if !s.ready {
			s.ready = true
			result.Ready = true
		}
	}

	s.rec.ObserveFrame(time.Since(began))
	return result
}

func (s *Scene) handle(ev InputEvent, now time.Time) (PickResult, bool) {
	switch ev.Kind {
	case InputPointerDown:
		s.picker.PointerDown(ev)
		// Any interaction ends the idle drift.
		s.autoRotate = false
	case InputPointerMove:
		dc, dr := s.picker.Drag(ev)
		if dc != 0 || dr != 0 {
			s.camera.Orbit(-float64(dc)*s.cfg.OrbitSpeed, -float64(dr)*s.cfg.OrbitSpeed/s.cfg.CellAspect)
		}
	case InputPointerUp:
		w, h := s.Size()
		pick, outcome := s.picker.PointerUp(ev, s.camera, w, h, s.stations)
		switch outcome {
		case PickHit:
			s.animator.AnimateTo(pick.FlyTarget, s.cfg.FlyDuration, now)
			s.rec.ObservePick(len(pick.Nearby))
			return pick, true
		case PickMiss:
			s.rec.IncPickMiss()
		case PickDrag:
			s.rec.IncDrag()
		}
	case InputPointerCancel:
		if s.picker.CancelPress() {
			s.rec.IncPickMiss()
		}
	case InputWheel:
		if ev.Wheel != 0 {
			s.camera.Dolly(math.Pow(s.cfg.ZoomStep, float64(ev.Wheel)), s.cfg.MinDistance, s.cfg.MaxDistance)
		}
	}
	return PickResult{}, false
}

// FlyTo animates the camera to look down on (lat, lon).
func (s *Scene) FlyTo(lat, lon float64, now time.Time) {
	s.autoRotate = false
	s.animator.AnimateTo(geo.ToSurfacePoint(lat, lon, s.cfg.FlyDistance), s.cfg.FlyDuration, now)
}

// Orbit rotates the camera by keyboard-sized steps.
func (s *Scene) Orbit(dAzimuth, dPolar float64) {
	s.autoRotate = false
	s.camera.Orbit(dAzimuth, dPolar)
}

// Zoom moves the camera by wheel notches; positive zooms out.
func (s *Scene) Zoom(notches int) {
	s.camera.Dolly(math.Pow(s.cfg.ZoomStep, float64(notches)), s.cfg.MinDistance, s.cfg.MaxDistance)
}

// ResetView animates back to the initial view and resumes drift.
func (s *Scene) ResetView(now time.Time) {
	s.animator.AnimateTo(mgl64.Vec3{0, 0, s.cfg.InitialDistance}, s.cfg.FlyDuration, now)
	s.autoRotate = true
}

// SetAutoRotate enables or disables idle drift.
func (s *Scene) SetAutoRotate(on bool) {
	s.autoRotate = on
}

// AutoRotate reports whether idle drift is enabled.
func (s *Scene) AutoRotate() bool {
	return s.autoRotate
}

// Camera returns a copy of the camera.
func (s *Scene) Camera() Camera {
	return s.camera
}

// Animating reports whether a camera animation is in flight.
func (s *Scene) Animating() bool {
	return s.animator.Active()
}

// Animation returns the in-flight camera animation.
func (s *Scene) Animation() (CameraAnimationState, bool) {
	return s.animator.State()
}

// LiveResources returns the number of arena resources held.
func (s *Scene) LiveResources() int {
	return s.arena.Live()
}

// MarkerCount returns the number of markers in the field.
func (s *Scene) MarkerCount() int {
	return s.markers.Len()
}

// Starfield returns n points spread uniformly in a cube of the given side
// centered on the origin. The same seed gives the same field.
func Starfield(n int, spread float64, seed int64) []mgl64.Vec3 {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]mgl64.Vec3, n)
	for i := range pts {
		pts[i] = mgl64.Vec3{
			(rng.Float64() - 0.5) * spread,
			(rng.Float64() - 0.5) * spread,
			(rng.Float64() - 0.5) * spread,
		}
	}
	return pts
}
