// Package stepadvance decides when the navigation controller should move
// from the active step to the next one.
package stepadvance

// Mode selects the step-advance policy.
type Mode int

const (
	// Manual never advances automatically; only an explicit
	// advance_to_next_step call moves the active step forward.
	Manual Mode = iota
	// DistanceToEndOfStep advances once the user's remaining distance on
	// the current step, and their location accuracy, both clear a
	// configured threshold.
	DistanceToEndOfStep
	// RelativeLineStringDistance advances either on proximity to the end
	// of the step or once the user is demonstrably closer to the next
	// step's polyline than the current one.
	RelativeLineStringDistance
)

// Config is the tagged-union configuration for step-advance policy.
type Config struct {
	Mode Mode

	// Used by DistanceToEndOfStep.
	DistanceM float64

	// Used by DistanceToEndOfStep and RelativeLineStringDistance.
	MinHorizontalAccuracyM float64

	// Used by RelativeLineStringDistance.
	AutomaticAdvanceDistanceM float64
}

// ManualConfig builds a Manual-mode config.
func ManualConfig() Config {
	return Config{Mode: Manual}
}

// DistanceToEndOfStepConfig builds a DistanceToEndOfStep config.
func DistanceToEndOfStepConfig(distanceM, minAccuracyM float64) Config {
	return Config{
		Mode:                   DistanceToEndOfStep,
		DistanceM:              distanceM,
		MinHorizontalAccuracyM: minAccuracyM,
	}
}

// RelativeLineStringDistanceConfig builds a RelativeLineStringDistance config.
func RelativeLineStringDistanceConfig(minAccuracyM, autoAdvanceM float64) Config {
	return Config{
		Mode:                      RelativeLineStringDistance,
		MinHorizontalAccuracyM:    minAccuracyM,
		AutomaticAdvanceDistanceM: autoAdvanceM,
	}
}

// Observation carries the per-tick quantities the policy needs to decide.
type Observation struct {
	RemainingOnCurrentStepM float64
	HorizontalAccuracyM     float64
	// DCurrentM is the perpendicular distance from the user to the
	// current step's polyline.
	DCurrentM float64
	// DNextM is the perpendicular distance to the next step's polyline;
	// nil when there is no next step.
	DNextM *float64
}

// ShouldAdvance evaluates the configured policy against one observation.
func (c Config) ShouldAdvance(obs Observation) bool {
	switch c.Mode {
	case Manual:
		return false

	case DistanceToEndOfStep:
		return obs.RemainingOnCurrentStepM <= c.DistanceM &&
			obs.HorizontalAccuracyM <= c.MinHorizontalAccuracyM

	case RelativeLineStringDistance:
		if obs.HorizontalAccuracyM > c.MinHorizontalAccuracyM {
			return false
		}
		if obs.RemainingOnCurrentStepM <= c.AutomaticAdvanceDistanceM {
			return true
		}
		return obs.DNextM != nil && *obs.DNextM < obs.DCurrentM

	default:
		return false
	}
}
