package geo

import (
	"math"
	"testing"
	"time"
)

func TestToSurfacePoint_KnownPoints(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		x, y, z float64
	}{
		{"north pole", 90, 0, 0, 100, 0},
		{"south pole", -90, 0, 0, -100, 0},
		{"null island", 0, 0, 100, 0, 0},
		{"90E", 0, 90, 0, 0, -100},
		{"90W", 0, -90, 0, 0, 100},
		{"antimeridian", 0, 180, -100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ToSurfacePoint(tt.lat, tt.lon, GlobeRadius)
			if math.Abs(p.X()-tt.x) > 1e-9 || math.Abs(p.Y()-tt.y) > 1e-9 || math.Abs(p.Z()-tt.z) > 1e-9 {
				t.Errorf("ToSurfacePoint(%v, %v) = %v, want (%v, %v, %v)", tt.lat, tt.lon, p, tt.x, tt.y, tt.z)
			}
		})
	}
}

func TestToSurfacePoint_Deterministic(t *testing.T) {
	for lat := -90.0; lat <= 90; lat += 7.5 {
		for lon := -180.0; lon <= 180; lon += 11.25 {
			a := ToSurfacePoint(lat, lon, GlobeRadius)
			b := ToSurfacePoint(lat, lon, GlobeRadius)
			if a != b {
				t.Fatalf("ToSurfacePoint(%v, %v) not deterministic: %v vs %v", lat, lon, a, b)
			}
		}
	}
}

func TestToSurfacePoint_OnSphere(t *testing.T) {
	radii := []float64{1, GlobeRadius, GlobeRadius + 0.5}
	for _, r := range radii {
		for lat := -90.0; lat <= 90; lat += 5 {
			for lon := -180.0; lon <= 180; lon += 5 {
				p := ToSurfacePoint(lat, lon, r)
				for i := 0; i < 3; i++ {
					if math.IsNaN(p[i]) || math.IsInf(p[i], 0) {
						t.Fatalf("ToSurfacePoint(%v, %v, %v) has non-finite component: %v", lat, lon, r, p)
					}
				}
				if rel := math.Abs(p.Len()-r) / r; rel > 1e-6 {
					t.Errorf("|ToSurfacePoint(%v, %v, %v)| = %v, want %v", lat, lon, r, p.Len(), r)
				}
			}
		}
	}
}

func TestLatitudeLongitude_Inverse(t *testing.T) {
	for lat := -85.0; lat <= 85; lat += 17 {
		for lon := -179.0; lon <= 180; lon += 23 {
			p := ToSurfacePoint(lat, lon, GlobeRadius)
			if got := Latitude(p); math.Abs(got-lat) > 1e-9 {
				t.Errorf("Latitude(%v,%v) = %v", lat, lon, got)
			}
			if got := Longitude(p); math.Abs(got-lon) > 1e-9 {
				t.Errorf("Longitude(%v,%v) = %v", lat, lon, got)
			}
		}
	}
}

func TestLongitude_Range(t *testing.T) {
	for lon := -180.0; lon <= 180; lon += 1 {
		got := Longitude(ToSurfacePoint(10, lon, GlobeRadius))
		if got <= -180-1e-9 || got > 180+1e-9 {
			t.Errorf("Longitude out of range for lon=%v: %v", lon, got)
		}
	}
}

func TestChordDistance(t *testing.T) {
	a := ToSurfacePoint(0, 0, GlobeRadius)
	b := ToSurfacePoint(0, 180, GlobeRadius)
	if got := ChordDistance(a, b); math.Abs(got-200) > 1e-9 {
		t.Errorf("ChordDistance antipodes = %v, want 200", got)
	}
	if got := ChordDistance(a, a); got != 0 {
		t.Errorf("ChordDistance self = %v, want 0", got)
	}
}

func TestValidCoordinate(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.1, 0, false},
		{0, -180.5, false},
		{math.NaN(), 0, false},
	}
	for _, tt := range tests {
		if got := ValidCoordinate(tt.lat, tt.lon); got != tt.want {
			t.Errorf("ValidCoordinate(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
		}
	}
}

func TestUTCOffset(t *testing.T) {
	tests := []struct {
		lon  float64
		want int
	}{
		{0, 0},
		{-0.12, 0},
		{7.5, 1},
		{-7.5, 0}, // halves round toward +Inf
		{139.7, 9},
		{-74, -5},
		{180, 12},
		{-180, -12},
	}
	for _, tt := range tests {
		if got := UTCOffset(tt.lon); got != tt.want {
			t.Errorf("UTCOffset(%v) = %d, want %d", tt.lon, got, tt.want)
		}
	}
}

func TestLocalTime(t *testing.T) {
	utc := time.Date(2024, 3, 1, 2, 5, 0, 0, time.UTC)
	tests := []struct {
		offset int
		want   string
	}{
		{0, "2:05"},
		{9, "11:05"},
		{-5, "21:05"},
		{-12, "14:05"},
		{22, "0:05"},
	}
	for _, tt := range tests {
		if got := LocalTime(utc, tt.offset); got != tt.want {
			t.Errorf("LocalTime(offset=%d) = %q, want %q", tt.offset, got, tt.want)
		}
	}
}
