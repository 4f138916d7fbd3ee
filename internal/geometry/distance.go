// Package geometry holds the distance and travel-time estimates used by the
// location lookup.
package geometry

import (
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// MetersPerMile converts geodesic distances to statute miles.
const MetersPerMile = 1609.344

// DistanceMiles returns the geodesic distance between two lon/lat points in
// miles.
func DistanceMiles(a, b orb.Point) float64 {
	return geo.Distance(a, b) / MetersPerMile
}

// TravelMinutes estimates the minutes needed to cover miles at an average
// speed, rounded up. A non-positive speed yields 0.
func TravelMinutes(miles, mph float64) int {
	if mph <= 0 || miles <= 0 {
		return 0
	}
	return int(math.Ceil(miles / mph * 60))
}

// Nearest returns the index of the point closest to origin and its distance
// in miles, or -1 when points is empty.
func Nearest(origin orb.Point, points []orb.Point) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, p := range points {
		if d := DistanceMiles(origin, p); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, bestDist
}

// SearchBound returns the box of the given radius (meters) around center.
func SearchBound(center orb.Point, meters float64) orb.Bound {
	return geo.NewBoundAroundPoint(center, meters)
}

// District returns the outward part of a UK postcode ("L6 6DN" -> "L6").
// Postcodes written without a space keep everything but the last three
// characters.
func District(postcode string) string {
	pc := strings.ToUpper(strings.TrimSpace(postcode))
	if pc == "" {
		return ""
	}
	if i := strings.IndexByte(pc, ' '); i > 0 {
		return pc[:i]
	}
	if len(pc) > 3 {
		return pc[:len(pc)-3]
	}
	return pc
}
