package spatial

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// ValidLatLng reports whether lat/lon lie within the WGS84 range
func ValidLatLng(lat, lon float64) bool {
	return s2.LatLngFromDegrees(lat, lon).IsValid()
}

// TrackLength sums the great-circle distance between consecutive points in meters.
// It is informative only, elevation is ignored.
func TrackLength(points []s2.LatLng) float64 {
	var total s1.Angle
	for i := 1; i < len(points); i++ {
		total += points[i-1].Distance(points[i])
	}
	return total.Radians() * EarthRadiusMeters
}

// EarthRadiusMeters is the mean radius of the earth
const EarthRadiusMeters = 6371000.0
