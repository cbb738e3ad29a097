package geo

import "math"

// Point is a WGS84 position in decimal degrees.
type Point struct {
	LatDeg float64
	LonDeg float64
}

// EarthRadiusM is the mean earth radius used by the spherical approximations.
const EarthRadiusM = 6371000.0

// Distance returns the haversine great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	lat1 := a.LatDeg * math.Pi / 180.0
	lat2 := b.LatDeg * math.Pi / 180.0
	dLat := (b.LatDeg - a.LatDeg) * math.Pi / 180.0
	dLon := (b.LonDeg - a.LonDeg) * math.Pi / 180.0

	s1 := math.Sin(dLat / 2)
	s2 := math.Sin(dLon / 2)
	h := s1*s1 + math.Cos(lat1)*math.Cos(lat2)*s2*s2
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusM * math.Asin(math.Sqrt(h))
}

// Bearing returns the initial true-north bearing from a to b in degrees [0,360).
//
// The direction is undefined when a == b; callers must not pass coincident
// points (GPS noise makes exact equality impossible in practice).
func Bearing(a, b Point) float64 {
	lat1 := a.LatDeg * math.Pi / 180.0
	lat2 := b.LatDeg * math.Pi / 180.0
	dLon := (b.LonDeg - a.LonDeg) * math.Pi / 180.0

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180.0 / math.Pi
	return math.Mod(deg+360.0, 360.0)
}

// WrapTo180 normalizes an angle in degrees to [-180,180].
//
// The modulo is taken with a non-negative remainder so negative inputs wrap
// correctly (e.g. -270 -> 90).
func WrapTo180(deg float64) float64 {
	m := math.Mod(deg+180.0, 360.0)
	if m < 0 {
		m += 360.0
	}
	return m - 180.0
}
