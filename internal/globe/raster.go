package globe

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/litescript/ls-airwaves/internal/geo"
)

// shadeRamp orders glyphs from dark to bright.
const shadeRamp = " .:-=+*#%@"

var (
	oceanColor     = RGB{0x2a, 0x6f, 0xc9}
	graticuleColor = RGB{0x7f, 0xc4, 0xff}
	glowColor      = RGB{0x4d, 0x99, 0xff}
	starColor      = RGB{0xcc, 0xcc, 0xcc}
)

// raster draws a list of DrawItems into a framebuffer by casting one ray
// per cell for surfaces and projecting point buffers.
type raster struct {
	cfg    Config
	arena  *Arena
	cam    Camera
	fb     *Framebuffer
	vp     mgl64.Mat4
	invVP  mgl64.Mat4
	sunDir mgl64.Vec3
}

func newRaster(cfg Config, arena *Arena, cam Camera, fb *Framebuffer) *raster {
	vp := cam.ViewProjection()
	sun := mgl64.Vec3{cfg.SunPosition[0], cfg.SunPosition[1], cfg.SunPosition[2]}
	if sun.Len() > 0 {
		sun = sun.Normalize()
	}
	return &raster{
		cfg:    cfg,
		arena:  arena,
		cam:    cam,
		fb:     fb,
		vp:     vp,
		invVP:  vp.Inv(),
		sunDir: sun,
	}
}

func (r *raster) ray(col, row int) Ray {
	x, y := CellNDC(col, row, r.fb.W, r.fb.H)
	p := r.invVP.Mul4x1(mgl64.Vec4{x, y, 0.5, 1})
	world := p.Vec3().Mul(1 / p.W())
	return Ray{Origin: r.cam.Position, Dir: world.Sub(r.cam.Position).Normalize()}
}

func (r *raster) draw(items []DrawItem) {
	r.fb.Clear()
	for _, it := range items {
		if !r.arena.Valid(it.Resource) {
			continue
		}
		switch it.Kind {
		case DrawPlanet:
			r.planet(r.arena.Radius(it.Resource))
		case DrawAtmosphere:
			r.atmosphere(r.arena.Radius(it.Resource))
		case DrawStars:
			r.points(r.arena.Points(it.Resource), it, LayerStar, false)
		case DrawMarkers:
			r.points(r.arena.Points(it.Resource), it, LayerMarker, true)
		}
	}
}

func rampGlyph(light float64) rune {
	i := int(light*float64(len(shadeRamp)-1) + 0.5)
	if i < 1 {
		i = 1
	}
	if i >= len(shadeRamp) {
		i = len(shadeRamp) - 1
	}
	return rune(shadeRamp[i])
}

func (r *raster) planet(radius float64) {
	for row := 0; row < r.fb.H; row++ {
		for col := 0; col < r.fb.W; col++ {
			ray := r.ray(col, row)
			t, ok := IntersectSphere(ray, radius)
			if !ok {
				continue
			}
			p := ray.At(t)
			n := p.Normalize()

			diffuse := math.Max(0, n.Dot(r.sunDir)) * r.cfg.SunIntensity
			light := mgl64.Clamp(r.cfg.Ambient+diffuse*(1-r.cfg.Ambient), 0, 1)

			cell := Cell{Ch: rampGlyph(light), FG: oceanColor.Scale(0.35 + 0.65*light), Layer: LayerPlanet}
			if r.onGraticule(p) {
				cell.FG = graticuleColor.Scale(0.35 + 0.65*light)
				cell.Layer = LayerGraticule
			}
			r.fb.Set(col, row, cell)
		}
	}
}

func (r *raster) onGraticule(p mgl64.Vec3) bool {
	step := r.cfg.GraticuleStep
	if step <= 0 {
		return false
	}
	const tol = 0.8
	lat := geo.Latitude(p)
	if nearMultiple(lat, step, tol) {
		return true
	}
	if math.Abs(lat) > 80 {
		return false
	}
	return nearMultiple(geo.Longitude(p), step, tol/math.Cos(mgl64.DegToRad(lat)))
}

func nearMultiple(v, step, tol float64) bool {
	m := math.Mod(math.Abs(v), step)
	return m < tol || step-m < tol
}

// atmosphere fills cells not covered by the planet where the view ray
// crosses the shell. It shades the far (back-facing) side of the shell so
// the glow is strongest next to the planet's silhouette.
func (r *raster) atmosphere(radius float64) {
	for row := 0; row < r.fb.H; row++ {
		for col := 0; col < r.fb.W; col++ {
			if c := r.fb.At(col, row); c.Layer != LayerEmpty {
				continue
			}
			ray := r.ray(col, row)
			t, ok := farIntersection(ray, radius)
			if !ok {
				continue
			}
			n := ray.At(t).Normalize()
			intensity := AtmosphereIntensity(n, ray.Dir.Mul(-1))
			if intensity <= 0 {
				continue
			}
			r.fb.Set(col, row, Cell{Ch: '░', FG: glowColor.Scale(intensity), Layer: LayerAtmosphere})
		}
	}
}

// AtmosphereIntensity is the glow at a shell point with outward normal n,
// seen along toCamera: (0.7 - n·toCamera)² × 1.5, clamped to [0,1].
func AtmosphereIntensity(n, toCamera mgl64.Vec3) float64 {
	k := 0.7 - n.Dot(toCamera)
	return mgl64.Clamp(k*k*1.5, 0, 1)
}

// points projects a point buffer. Background points only fill empty cells;
// surface points are culled when they face away from the camera.
func (r *raster) points(pts []mgl64.Vec3, it DrawItem, layer Layer, surface bool) {
	for _, p := range pts {
		if surface && p.Dot(r.cam.Position.Sub(p)) <= 0 {
			continue
		}
		col, row, ok := r.cam.Project(r.vp, p, r.fb.W, r.fb.H)
		if !ok {
			continue
		}
		if !surface && r.fb.At(col, row).Layer != LayerEmpty {
			continue
		}
		r.fb.Set(col, row, Cell{Ch: it.Glyph, FG: it.Color, Layer: layer})
	}
}
