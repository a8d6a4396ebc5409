package valhalla

import "math"

// decodePolyline decodes a Google/Valhalla-style encoded polyline at the
// given precision (5 for OSRM, 6 for Valhalla's native "polyline6") into
// (lat, lng) pairs in encoding order.
func decodePolyline(encoded string, precision int) [][2]float64 {
	if encoded == "" {
		return nil
	}

	factor := math.Pow10(precision)
	lat, lng := 0, 0
	var points [][2]float64
	index := 0

	for index < len(encoded) {
		var b int
		shift, result := 0, 0
		for {
			b = int(encoded[index]) - 63
			index++
			result |= (b & 0x1f) << shift
			shift += 5
			if b < 0x20 {
				break
			}
		}
		if result&1 != 0 {
			lat += ^(result >> 1)
		} else {
			lat += result >> 1
		}

		shift, result = 0, 0
		for {
			b = int(encoded[index]) - 63
			index++
			result |= (b & 0x1f) << shift
			shift += 5
			if b < 0x20 {
				break
			}
		}
		if result&1 != 0 {
			lng += ^(result >> 1)
		} else {
			lng += result >> 1
		}

		points = append(points, [2]float64{float64(lat) / factor, float64(lng) / factor})
	}

	return points
}
