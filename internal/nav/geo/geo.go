// Package geo implements the pure geometric primitives the navigation
// controller depends on: great-circle distance, projection onto a route
// polyline, and cumulative arc length.
package geo

import (
	"math"

	"github.com/wayfarer-go/navigator/internal/domain/models"
)

// EarthRadiusM is the mean earth radius used for all haversine math.
const EarthRadiusM = 6_371_000.0

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// HaversineDistanceM returns the great-circle distance between a and b, in
// meters.
func HaversineDistanceM(a, b models.GeographicCoordinate) float64 {
	lat1, lat2 := toRadians(a.Lat), toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng) - toRadians(a.Lng)

	sinDLat := math.Sin(dLat / 2)
	sinDLng := math.Sin(dLng / 2)
	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLng*sinDLng

	return EarthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// SnapResult is the outcome of projecting a point onto a segment or
// polyline.
type SnapResult struct {
	Snapped         models.GeographicCoordinate
	SegmentIndex    int
	T               float64
	PerpendicularM  float64
}

// metersPerDegree returns a local planar scale (meters per degree of lat
// and lng) about the given latitude, used for the short-segment planar
// approximation.
func metersPerDegree(atLat float64) (perDegLat, perDegLng float64) {
	latRad := toRadians(atLat)
	perDegLat = EarthRadiusM * math.Pi / 180
	perDegLng = perDegLat * math.Cos(latRad)
	return
}

// SnapToSegment projects p onto the great-circle segment a-b, clamping the
// along-segment parameter t to [0, 1]. Segments are expected to be short
// (well under the ~10km validity horizon of the planar approximation used
// here); the resulting perpendicular distance is accurate to within 0.5m
// for such segments.
func SnapToSegment(p, a, b models.GeographicCoordinate) SnapResult {
	midLat := (a.Lat + b.Lat) / 2
	perDegLat, perDegLng := metersPerDegree(midLat)

	ax, ay := 0.0, 0.0
	bx := (b.Lng - a.Lng) * perDegLng
	by := (b.Lat - a.Lat) * perDegLat
	px := (p.Lng - a.Lng) * perDegLng
	py := (p.Lat - a.Lat) * perDegLat

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy

	var t float64
	if lenSq > 0 {
		t = ((px-ax)*dx + (py-ay)*dy) / lenSq
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	sx := ax + t*dx
	sy := ay + t*dy

	snapped := models.GeographicCoordinate{
		Lat: a.Lat + sy/perDegLat,
		Lng: a.Lng + sx/perDegLng,
	}

	return SnapResult{
		Snapped:        snapped,
		T:              t,
		PerpendicularM: HaversineDistanceM(p, snapped),
	}
}

// SnapToLineString finds the closest point on the polyline to p by
// checking every segment. line must have at least 2 points; callers must
// never invoke this on an empty or single-point line (validated at Route
// construction). Ties are broken by lowest segment index, then lowest t.
func SnapToLineString(p models.GeographicCoordinate, line []models.GeographicCoordinate) SnapResult {
	best := SnapToSegment(p, line[0], line[1])
	best.SegmentIndex = 0

	// Strict less-than means an exact PerpendicularM tie keeps the
	// earlier segment, which is the lowest-segment_index tie-break; the
	// lowest-t tie-break is then moot, since a single segment index
	// never yields two different t candidates to choose between.
	for i := 1; i < len(line)-1; i++ {
		candidate := SnapToSegment(p, line[i], line[i+1])
		if candidate.PerpendicularM < best.PerpendicularM {
			candidate.SegmentIndex = i
			best = candidate
		}
	}

	return best
}

// CumulativeDistanceM returns the prefix sums of segment lengths along
// line; index 0 is always 0.
func CumulativeDistanceM(line []models.GeographicCoordinate) []float64 {
	sums := make([]float64, len(line))
	for i := 1; i < len(line); i++ {
		sums[i] = sums[i-1] + HaversineDistanceM(line[i-1], line[i])
	}
	return sums
}

// SegmentLengthM returns the length of segment i (between points i and
// i+1) of line.
func SegmentLengthM(line []models.GeographicCoordinate, i int) float64 {
	return HaversineDistanceM(line[i], line[i+1])
}

// RemainingDistanceOnStep returns the arc length from the snapped point at
// (segmentIndex, t) to the end of the step's geometry:
// (1-t)*len(seg_i) + sum of len(seg_j) for j > i.
func RemainingDistanceOnStep(step models.RouteStep, segmentIndex int, t float64) float64 {
	line := step.Geometry
	remaining := (1 - t) * SegmentLengthM(line, segmentIndex)
	for j := segmentIndex + 1; j < len(line)-1; j++ {
		remaining += SegmentLengthM(line, j)
	}
	return remaining
}
