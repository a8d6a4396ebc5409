// Package deviation decides whether the user has strayed off the route,
// and by how many meters.
package deviation

import (
	"github.com/wayfarer-go/navigator/internal/domain/models"
	"github.com/wayfarer-go/navigator/internal/nav/geo"
)

// Mode selects the deviation-detection policy.
type Mode int

const (
	// None always reports NoDeviation.
	None Mode = iota
	// StaticThreshold reports OffRoute once the perpendicular distance to
	// the remaining route exceeds a fixed threshold, gated by location
	// accuracy.
	StaticThreshold
	// Custom delegates to a host-supplied Detector.
	Custom
)

// Detector is the host-provided capability for Mode Custom.
type Detector interface {
	Detect(route models.Route, remainingSteps []models.RouteStep, loc models.UserLocation) models.DeviationResult
}

// Config is the tagged-union configuration for deviation tracking.
type Config struct {
	Mode Mode

	MinHorizontalAccuracyM   float64
	MaxAcceptableDeviationM  float64

	Custom Detector
}

// NoneConfig builds a config that never reports deviation.
func NoneConfig() Config {
	return Config{Mode: None}
}

// StaticThresholdConfig builds a StaticThreshold config.
func StaticThresholdConfig(minAccuracyM, maxDeviationM float64) Config {
	return Config{
		Mode:                    StaticThreshold,
		MinHorizontalAccuracyM:  minAccuracyM,
		MaxAcceptableDeviationM: maxDeviationM,
	}
}

// CustomConfig builds a Custom config delegating to d.
func CustomConfig(d Detector) Config {
	return Config{Mode: Custom, Custom: d}
}

// Detect runs the configured policy against the remainder of the route.
func (c Config) Detect(route models.Route, remainingSteps []models.RouteStep, loc models.UserLocation) models.DeviationResult {
	switch c.Mode {
	case None:
		return models.NoDeviation()

	case StaticThreshold:
		if loc.HorizontalAccuracyM > c.MinHorizontalAccuracyM {
			return models.NoDeviation()
		}
		perp := perpendicularToRemainingRoute(remainingSteps, loc.Coordinate)
		if perp > c.MaxAcceptableDeviationM {
			return models.OffRoute(perp)
		}
		return models.NoDeviation()

	case Custom:
		if c.Custom == nil {
			return models.NoDeviation()
		}
		return c.Custom.Detect(route, remainingSteps, loc)

	default:
		return models.NoDeviation()
	}
}

// perpendicularToRemainingRoute returns the perpendicular distance from p
// to the nearest point on the concatenation of every remaining step's
// geometry.
func perpendicularToRemainingRoute(remainingSteps []models.RouteStep, p models.GeographicCoordinate) float64 {
	best := -1.0
	for _, step := range remainingSteps {
		res := geo.SnapToLineString(p, step.Geometry)
		if best < 0 || res.PerpendicularM < best {
			best = res.PerpendicularM
		}
	}
	if best < 0 {
		return 0
	}
	return best
}
