package globe

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// polarEpsilon keeps orbiting away from the poles, where the view's up
// vector degenerates.
const polarEpsilon = 1e-3

// Camera is a perspective camera looking at the origin.
type Camera struct {
	Position mgl64.Vec3
	Up       mgl64.Vec3
	FOV      float64 // vertical, degrees
	Aspect   float64
	Near     float64
	Far      float64
}

// NewCamera returns a camera on the +Z axis at the configured distance.
func NewCamera(cfg Config) Camera {
	return Camera{
		Position: mgl64.Vec3{0, 0, cfg.InitialDistance},
		Up:       mgl64.Vec3{0, 1, 0},
		FOV:      cfg.FOV,
		Aspect:   1,
		Near:     cfg.Near,
		Far:      cfg.Far,
	}
}

// SetViewport derives the aspect ratio from a cell grid.
func (c *Camera) SetViewport(w, h int, cellAspect float64) {
	if w <= 0 || h <= 0 {
		return
	}
	c.Aspect = float64(w) * cellAspect / float64(h)
}

// View returns the world-to-camera matrix.
func (c Camera) View() mgl64.Mat4 {
	up := c.Up
	fwd := c.Position.Mul(-1)
	if fwd.Cross(up).Len() < 1e-9*fwd.Len() {
		// Looking straight along up; any perpendicular works.
		up = mgl64.Vec3{0, 0, -1}
		if fwd.Y() < 0 {
			up = mgl64.Vec3{0, 0, 1}
		}
	}
	return mgl64.LookAtV(c.Position, mgl64.Vec3{}, up)
}

// Projection returns the camera-to-clip matrix.
func (c Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// ViewProjection returns Projection * View.
func (c Camera) ViewProjection() mgl64.Mat4 {
	return c.Projection().Mul4(c.View())
}

// Distance returns the distance from the orbit center.
func (c Camera) Distance() float64 {
	return c.Position.Len()
}

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// At returns the point at parameter t.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// RayFromNDC builds the world-space ray through normalized device
// coordinates (x, y), each in [-1, 1] with +y up.
func (c Camera) RayFromNDC(x, y float64) Ray {
	inv := c.ViewProjection().Inv()
	p := inv.Mul4x1(mgl64.Vec4{x, y, 0.5, 1})
	world := p.Vec3().Mul(1 / p.W())
	return Ray{Origin: c.Position, Dir: world.Sub(c.Position).Normalize()}
}

// CellNDC maps the center of cell (col, row) of a w×h grid to NDC.
func CellNDC(col, row, w, h int) (float64, float64) {
	x := (float64(col)+0.5)/float64(w)*2 - 1
	y := -((float64(row)+0.5)/float64(h)*2 - 1)
	return x, y
}

// Project maps a world point onto a w×h grid. ok is false when the point
// is behind the camera or outside the view volume.
func (c Camera) Project(vp mgl64.Mat4, p mgl64.Vec3, w, h int) (col, row int, ok bool) {
	clip := vp.Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	if ndc.X() < -1 || ndc.X() > 1 || ndc.Y() < -1 || ndc.Y() > 1 || ndc.Z() < -1 || ndc.Z() > 1 {
		return 0, 0, false
	}
	col = int((ndc.X() + 1) / 2 * float64(w))
	row = int((1 - ndc.Y()) / 2 * float64(h))
	if col >= w {
		col = w - 1
	}
	if row >= h {
		row = h - 1
	}
	return col, row, true
}

// IntersectSphere returns the nearest non-negative ray parameter at which
// r meets the origin-centered sphere of the given radius.
func IntersectSphere(r Ray, radius float64) (float64, bool) {
	b := r.Origin.Dot(r.Dir)
	c := r.Origin.Dot(r.Origin) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

// farIntersection returns the exit parameter of r through the sphere.
func farIntersection(r Ray, radius float64) (float64, bool) {
	b := r.Origin.Dot(r.Dir)
	c := r.Origin.Dot(r.Origin) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	t := -b + math.Sqrt(disc)
	return t, t >= 0
}

// Orbit rotates the camera about the origin by azimuth and polar deltas
// in radians, keeping its distance.
func (c *Camera) Orbit(dAzimuth, dPolar float64) {
	r := c.Position.Len()
	if r == 0 {
		return
	}
	theta := math.Atan2(c.Position.X(), c.Position.Z())
	phi := math.Acos(mgl64.Clamp(c.Position.Y()/r, -1, 1))

	theta += dAzimuth
	phi = mgl64.Clamp(phi+dPolar, polarEpsilon, math.Pi-polarEpsilon)

	sinPhi := math.Sin(phi)
	c.Position = mgl64.Vec3{
		r * sinPhi * math.Sin(theta),
		r * math.Cos(phi),
		r * sinPhi * math.Cos(theta),
	}
}

// Dolly scales the camera distance by factor, clamped to [min, max].
func (c *Camera) Dolly(factor, min, max float64) {
	r := c.Position.Len()
	if r == 0 || factor <= 0 {
		return
	}
	nr := mgl64.Clamp(r*factor, min, max)
	c.Position = c.Position.Mul(nr / r)
}

// AutoRotate advances the idle drift for elapsed seconds. speed 1.0 is one
// revolution per minute.
func (c *Camera) AutoRotate(speed, seconds float64) {
	if speed == 0 || seconds <= 0 {
		return
	}
	angle := 2 * math.Pi / 60 * speed * seconds
	rot := mgl64.Rotate3DY(angle)
	c.Position = rot.Mul3x1(c.Position)
}
