package globe

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// EaseOutCubic maps t in [0,1] to 1-(1-t)^3.
func EaseOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

// CameraAnimationState is the in-flight camera transition. It is plain
// data; CameraAnimator advances it against a clock supplied by the caller.
type CameraAnimationState struct {
	From      mgl64.Vec3
	To        mgl64.Vec3
	StartedAt time.Time
	Duration  time.Duration
	Easing    func(float64) float64
}

// Progress returns the clamped linear progress at now.
func (s CameraAnimationState) Progress(now time.Time) float64 {
	if s.Duration <= 0 {
		return 1
	}
	elapsed := now.Sub(s.StartedAt)
	if elapsed <= 0 {
		return 0
	}
	t := float64(elapsed) / float64(s.Duration)
	if t > 1 {
		t = 1
	}
	return t
}

// Position returns the interpolated camera position at now.
func (s CameraAnimationState) Position(now time.Time) mgl64.Vec3 {
	t := s.Progress(now)
	if t >= 1 {
		return s.To
	}
	ease := s.Easing
	if ease == nil {
		ease = EaseOutCubic
	}
	k := ease(t)
	return s.From.Add(s.To.Sub(s.From).Mul(k))
}

// CameraAnimator drives a camera along at most one animation at a time.
type CameraAnimator struct {
	camera *Camera
	state  *CameraAnimationState
}

// NewCameraAnimator returns an idle animator bound to cam.
func NewCameraAnimator(cam *Camera) *CameraAnimator {
	return &CameraAnimator{camera: cam}
}

// AnimateTo starts a transition from the camera's current position to
// target. An animation already in flight is replaced; because the start
// is the current position, there is no jump.
func (a *CameraAnimator) AnimateTo(target mgl64.Vec3, duration time.Duration, now time.Time) {
	a.state = &CameraAnimationState{
		From:      a.camera.Position,
		To:        target,
		StartedAt: now,
		Duration:  duration,
		Easing:    EaseOutCubic,
	}
}

// Advance writes the interpolated position for now into the camera. It
// returns false when no animation is active. The animation ends once
// progress reaches 1, after which Advance leaves the camera alone.
func (a *CameraAnimator) Advance(now time.Time) bool {
	if a.state == nil {
		return false
	}
	a.camera.Position = a.state.Position(now)
	if a.state.Progress(now) >= 1 {
		a.state = nil
	}
	return true
}

// Active reports whether an animation is in flight.
func (a *CameraAnimator) Active() bool {
	return a.state != nil
}

// State returns a copy of the in-flight animation.
func (a *CameraAnimator) State() (CameraAnimationState, bool) {
	if a.state == nil {
		return CameraAnimationState{}, false
	}
	return *a.state, true
}

// cancel drops the in-flight animation, leaving the camera where it is.
func (a *CameraAnimator) cancel() {
	a.state = nil
}
