package globe

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const eps = 1e-6

func vecNear(a, b mgl64.Vec3, tol float64) bool {
	return a.Sub(b).Len() <= tol
}

func TestIntersectSphere(t *testing.T) {
	tests := []struct {
		name   string
		ray    Ray
		wantOK bool
		wantT  float64
	}{
		{"head on", Ray{mgl64.Vec3{0, 0, 250}, mgl64.Vec3{0, 0, -1}}, true, 150},
		{"facing away", Ray{mgl64.Vec3{0, 0, 250}, mgl64.Vec3{0, 0, 1}}, false, 0},
		{"passes above", Ray{mgl64.Vec3{0, 150, 250}, mgl64.Vec3{0, 0, -1}}, false, 0},
		{"from inside", Ray{mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}}, true, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IntersectSphere(tt.ray, 100)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.wantT) > eps {
				t.Errorf("t = %v, want %v", got, tt.wantT)
			}
		})
	}
}

func TestCamera_RayFromNDCCenter(t *testing.T) {
	cam := NewCamera(DefaultConfig())
	cam.SetViewport(100, 40, 0.5)

	r := cam.RayFromNDC(0, 0)
	if !vecNear(r.Dir, mgl64.Vec3{0, 0, -1}, 1e-9) {
		t.Errorf("center ray = %v, want -Z", r.Dir)
	}
	if r.Origin != cam.Position {
		t.Errorf("origin = %v, want camera position", r.Origin)
	}

	// +y in NDC points up in the world.
	up := cam.RayFromNDC(0, 0.5)
	if up.Dir.Y() <= 0 {
		t.Errorf("upper ray dir = %v, want positive Y", up.Dir)
	}
}

func TestCamera_SetViewport(t *testing.T) {
	cam := NewCamera(DefaultConfig())
	cam.SetViewport(100, 40, 0.5)
	if math.Abs(cam.Aspect-1.25) > eps {
		t.Errorf("Aspect = %v, want 1.25", cam.Aspect)
	}
	cam.SetViewport(0, 40, 0.5)
	if math.Abs(cam.Aspect-1.25) > eps {
		t.Errorf("zero width should not change aspect, got %v", cam.Aspect)
	}
}

func TestCamera_Project(t *testing.T) {
	cam := NewCamera(DefaultConfig())
	cam.SetViewport(100, 40, 0.5)
	vp := cam.ViewProjection()

	col, row, ok := cam.Project(vp, mgl64.Vec3{}, 100, 40)
	if !ok || col != 50 || row != 20 {
		t.Errorf("origin projects to (%d,%d,%v), want (50,20,true)", col, row, ok)
	}

	if _, _, ok := cam.Project(vp, mgl64.Vec3{0, 0, 500}, 100, 40); ok {
		t.Error("point behind the camera should not project")
	}
}

func TestCellNDC(t *testing.T) {
	x, y := CellNDC(0, 0, 2, 2)
	if x != -0.5 || y != 0.5 {
		t.Errorf("CellNDC(0,0) = %v,%v, want -0.5,0.5", x, y)
	}
	x, y = CellNDC(1, 1, 2, 2)
	if x != 0.5 || y != -0.5 {
		t.Errorf("CellNDC(1,1) = %v,%v, want 0.5,-0.5", x, y)
	}
}

func TestCamera_Orbit(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	cam.Orbit(math.Pi/2, 0)
	if !vecNear(cam.Position, mgl64.Vec3{250, 0, 0}, 1e-9) {
		t.Errorf("after quarter turn = %v, want (250,0,0)", cam.Position)
	}

	// Polar angle is clamped short of the pole.
	cam.Orbit(0, -10)
	if math.Abs(cam.Distance()-250) > 1e-9 {
		t.Errorf("distance = %v, want 250", cam.Distance())
	}
	if cam.Position.Y() >= 250 {
		t.Errorf("camera reached the pole: %v", cam.Position)
	}
}

func TestCamera_Dolly(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	cam.Dolly(0.1, 120, 400)
	if math.Abs(cam.Distance()-120) > eps {
		t.Errorf("distance = %v, want clamp at 120", cam.Distance())
	}
	cam.Dolly(10, 120, 400)
	if math.Abs(cam.Distance()-400) > eps {
		t.Errorf("distance = %v, want clamp at 400", cam.Distance())
	}
}

func TestCamera_AutoRotate(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	// Speed 0.5 is half a revolution per minute.
	cam.AutoRotate(0.5, 60)
	if !vecNear(cam.Position, mgl64.Vec3{0, 0, -250}, 1e-6) {
		t.Errorf("after 60s = %v, want (0,0,-250)", cam.Position)
	}

	before := cam.Position
	cam.AutoRotate(0.5, 0)
	if cam.Position != before {
		t.Error("zero elapsed time should not move the camera")
	}
}

func TestCamera_ViewAtPole(t *testing.T) {
	cam := NewCamera(DefaultConfig())
	cam.Position = mgl64.Vec3{0, 200, 0}

	m := cam.View()
	for i := 0; i < 16; i++ {
		if math.IsNaN(m[i]) {
			t.Fatalf("View() has NaN at %d: %v", i, m)
		}
	}
	r := cam.RayFromNDC(0, 0)
	if !vecNear(r.Dir, mgl64.Vec3{0, -1, 0}, 1e-9) {
		t.Errorf("pole ray = %v, want -Y", r.Dir)
	}
}
