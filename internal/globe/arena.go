package globe

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Handle identifies a resource in an Arena.
type Handle int32

// NoHandle is the zero reference.
const NoHandle Handle = -1

// ResourceKind classifies arena resources.
type ResourceKind uint8

const (
	ResourceSphere ResourceKind = iota + 1
	ResourcePoints
	ResourceTarget
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceSphere:
		return "sphere"
	case ResourcePoints:
		return "points"
	case ResourceTarget:
		return "target"
	default:
		return "unknown"
	}
}

type resource struct {
	kind   ResourceKind
	label  string
	live   bool
	radius float64
	points []mgl64.Vec3
	target *Framebuffer
}

// Arena owns every renderable resource of a scene. Freed slots are reused.
type Arena struct {
	slots []resource
	free  []Handle
	live  int
}

func (a *Arena) alloc(r resource) Handle {
	r.live = true
	a.live++
	if n := len(a.free); n > 0 {
		h := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[h] = r
		return h
	}
	a.slots = append(a.slots, r)
	return Handle(len(a.slots) - 1)
}

// AllocSphere registers a sphere mesh of the given radius.
func (a *Arena) AllocSphere(label string, radius float64) Handle {
	return a.alloc(resource{kind: ResourceSphere, label: label, radius: radius})
}

// AllocPoints registers a point buffer. The arena takes ownership of pts.
func (a *Arena) AllocPoints(label string, pts []mgl64.Vec3) Handle {
	return a.alloc(resource{kind: ResourcePoints, label: label, points: pts})
}

// AllocTarget registers a render target of w×h cells.
func (a *Arena) AllocTarget(label string, w, h int) Handle {
	return a.alloc(resource{kind: ResourceTarget, label: label, target: NewFramebuffer(w, h)})
}

func (a *Arena) get(h Handle) *resource {
	if h < 0 || int(h) >= len(a.slots) || !a.slots[h].live {
		return nil
	}
	return &a.slots[h]
}

// Free releases a resource. It reports false for stale or invalid handles.
func (a *Arena) Free(h Handle) bool {
	r := a.get(h)
	if r == nil {
		return false
	}
	*r = resource{}
	a.live--
	a.free = append(a.free, h)
	return true
}

// Valid reports whether h refers to a live resource.
func (a *Arena) Valid(h Handle) bool {
	return a.get(h) != nil
}

// Kind returns the resource kind, or zero for invalid handles.
func (a *Arena) Kind(h Handle) ResourceKind {
	if r := a.get(h); r != nil {
		return r.kind
	}
	return 0
}

// Label returns the debug label of a resource.
func (a *Arena) Label(h Handle) string {
	if r := a.get(h); r != nil {
		return r.label
	}
	return ""
}

// Radius returns the radius of a sphere resource.
func (a *Arena) Radius(h Handle) float64 {
	if r := a.get(h); r != nil {
		return r.radius
	}
	return 0
}

// Points returns the contents of a point buffer.
func (a *Arena) Points(h Handle) []mgl64.Vec3 {
	if r := a.get(h); r != nil {
		return r.points
	}
	return nil
}

// Target returns the framebuffer of a render target.
func (a *Arena) Target(h Handle) *Framebuffer {
	if r := a.get(h); r != nil {
		return r.target
	}
	return nil
}

// Live returns the number of allocated resources.
func (a *Arena) Live() int {
	return a.live
}

// Reset frees every resource in one sweep and returns how many were live.
func (a *Arena) Reset() int {
	n := a.live
	a.slots = a.slots[:0]
	a.free = a.free[:0]
	a.live = 0
	return n
}

// DrawKind selects the rasterizer pass for a DrawItem.
type DrawKind uint8

const (
	DrawPlanet DrawKind = iota + 1
	DrawAtmosphere
	DrawStars
	DrawMarkers
)

// DrawItem is one entry of the per-frame draw list.
type DrawItem struct {
	Kind     DrawKind
	Resource Handle
	Color    RGB
	Glyph    rune
}
