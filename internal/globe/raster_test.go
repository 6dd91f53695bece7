package globe

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestAtmosphereIntensity(t *testing.T) {
	toCam := mgl64.Vec3{0, 0, 1}
	tests := []struct {
		name string
		n    mgl64.Vec3
		want float64
	}{
		{"edge on", mgl64.Vec3{1, 0, 0}, 0.735},
		{"facing camera", mgl64.Vec3{0, 0, 1}, 0.135},
		{"facing away", mgl64.Vec3{0, 0, -1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AtmosphereIntensity(tt.n, toCam); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AtmosphereIntensity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRampGlyph(t *testing.T) {
	if g := rampGlyph(0); g != '.' {
		t.Errorf("dark glyph = %q, want '.'", g)
	}
	if g := rampGlyph(1); g != '@' {
		t.Errorf("bright glyph = %q, want '@'", g)
	}
}

func TestRGB(t *testing.T) {
	c := RGB{0x00, 0xff, 0x88}
	if c.Hex() != "#00ff88" {
		t.Errorf("Hex = %s", c.Hex())
	}
	if got := c.Scale(2); got != c {
		t.Errorf("Scale clamps high: %v", got)
	}
	if got := c.Scale(0); got != (RGB{}) {
		t.Errorf("Scale(0) = %v", got)
	}
}

func TestFramebuffer(t *testing.T) {
	fb := NewFramebuffer(3, 2)
	fb.Set(1, 0, Cell{Ch: 'x', Layer: LayerMarker})
	fb.Set(5, 5, Cell{Ch: 'y'})

	if fb.At(-1, 0) != nil || fb.At(3, 0) != nil {
		t.Error("out-of-range At should be nil")
	}
	if got := fb.String(); got != " x \n   " {
		t.Errorf("String = %q", got)
	}
	if fb.Count(LayerMarker) != 1 {
		t.Errorf("Count = %d", fb.Count(LayerMarker))
	}
	fb.Clear()
	if strings.TrimSpace(fb.String()) != "" {
		t.Error("Clear should blank every cell")
	}
}

func TestStarfield_Deterministic(t *testing.T) {
	a := Starfield(50, 800, 7)
	b := Starfield(50, 800, 7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("star %d differs", i)
		}
		for j := 0; j < 3; j++ {
			if math.Abs(a[i][j]) > 400 {
				t.Errorf("star %d outside cube: %v", i, a[i])
			}
		}
	}
}
