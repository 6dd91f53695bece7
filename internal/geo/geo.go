// Package geo maps geographic coordinates onto the globe sphere and back.
//
// Every consumer that needs a station's position on the globe (marker
// placement, proximity queries, surface shading) goes through ToSurfacePoint,
// so rendered and queried positions never diverge.
package geo

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// GlobeRadius is the radius of the rendered planet in scene units.
const GlobeRadius = 100.0

// ToSurfacePoint converts latitude/longitude in degrees to a point on a
// sphere of the given radius centered at the origin.
//
// Conventions (Y is the polar axis):
//   - phi is measured from the north pole: phi = 90° - lat
//   - theta is the longitude shifted by 180° so the texture seam sits on
//     the antimeridian
//   - x = -r·sin(phi)·cos(theta), y = r·cos(phi), z = r·sin(phi)·sin(theta)
func ToSurfacePoint(latDeg, lonDeg, radius float64) mgl64.Vec3 {
	phi := mgl64.DegToRad(90 - latDeg)
	theta := mgl64.DegToRad(lonDeg + 180)

	sinPhi := math.Sin(phi)
	return mgl64.Vec3{
		-(radius * sinPhi * math.Cos(theta)),
		radius * math.Cos(phi),
		radius * sinPhi * math.Sin(theta),
	}
}

// Latitude recovers the latitude in degrees of a point on (or near) the
// sphere. Returns 0 for the origin.
func Latitude(p mgl64.Vec3) float64 {
	r := p.Len()
	if r == 0 {
		return 0
	}
	cosPhi := mgl64.Clamp(p.Y()/r, -1, 1)
	return 90 - mgl64.RadToDeg(math.Acos(cosPhi))
}

// Longitude recovers an approximate longitude in degrees, normalized to
// (-180, 180]. Only used for display purposes.
func Longitude(p mgl64.Vec3) float64 {
	theta := mgl64.RadToDeg(math.Atan2(p.Z(), -p.X()))
	lon := theta - 180
	if lon <= -180 {
		lon += 360
	}
	return lon
}

// ChordDistance is the straight-line distance between two points.
func ChordDistance(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}

// ValidCoordinate reports whether lat/lon are inside the geographic range.
func ValidCoordinate(latDeg, lonDeg float64) bool {
	if math.IsNaN(latDeg) || math.IsNaN(lonDeg) {
		return false
	}
	return latDeg >= -90 && latDeg <= 90 && lonDeg >= -180 && lonDeg <= 180
}

// UTCOffset estimates a whole-hour UTC offset from a longitude using
// 15° buckets. Halves round toward +Inf. This ignores real timezone
// boundaries on purpose; it is a display convenience.
func UTCOffset(lonDeg float64) int {
	return int(math.Floor(lonDeg/15 + 0.5))
}

// LocalTime formats the wall-clock time at the given whole-hour offset
// from utc as "H:MM" (hour not zero padded).
func LocalTime(utc time.Time, offset int) string {
	utc = utc.UTC()
	hour := ((utc.Hour()+offset)%24 + 24) % 24
	return fmt.Sprintf("%d:%02d", hour, utc.Minute())
}
