// Package nav implements the navigation controller: a deterministic,
// side-effect-free state machine over (Route, Config) x TripState x
// UserLocation -> TripState.
package nav

import (
	"github.com/wayfarer-go/navigator/internal/domain/models"
	"github.com/wayfarer-go/navigator/internal/nav/geo"
	"github.com/wayfarer-go/navigator/internal/nav/instruction"
	"github.com/wayfarer-go/navigator/internal/nav/stepadvance"
)

// Controller composes the geometry, step-advance, deviation, and
// instruction-trigger components into the single state machine a host
// drives with each location fix. It holds no clocks, no RNG, and performs
// no I/O; every method is a pure function of its arguments. A Controller
// is not re-entrant: the host must serialize calls against one instance.
type Controller struct {
	route  models.Route
	config Config
}

// New validates route against the invariants in models.Route and returns a
// Controller bound to it for the session's lifetime.
func New(route models.Route, config Config) (*Controller, error) {
	if err := route.Validate(); err != nil {
		return nil, RouteInvariantViolation{Detail: err.Error()}
	}
	return &Controller{route: route, config: config}, nil
}

// Route returns the route this controller was constructed with.
func (c *Controller) Route() models.Route {
	return c.route
}

// InitialState snaps loc to the route's first step and produces a
// Navigating state spanning every step and waypoint.
func (c *Controller) InitialState(loc models.UserLocation) (models.TripState, error) {
	if loc.HorizontalAccuracyM < 0 {
		return models.TripState{}, NoUserLocation{Detail: "horizontal_accuracy_m must be >= 0"}
	}

	remainingSteps := c.route.Steps
	remainingWaypoints := c.route.Waypoints
	current := remainingSteps[0]
	snap := geo.SnapToLineString(loc.Coordinate, current.Geometry)
	distanceToNext := geo.RemainingDistanceOnStep(current, snap.SegmentIndex, snap.T)

	return c.finalize(remainingSteps, remainingWaypoints, loc, snap, distanceToNext), nil
}

// UpdateUserLocation is the core tick: snap, decide whether to advance the
// active step (looping at most len(remaining_steps) times), recompute
// deviation, and re-select instructions. Never fails; a Complete state is
// returned unchanged.
func (c *Controller) UpdateUserLocation(state models.TripState, loc models.UserLocation) models.TripState {
	if state.Status != models.TripNavigating || state.Navigating == nil {
		return models.Complete()
	}

	remainingSteps := state.Navigating.RemainingSteps
	remainingWaypoints := state.Navigating.RemainingWaypoints
	budget := len(remainingSteps)

	for {
		if len(remainingSteps) == 0 {
			return models.Complete()
		}

		current := remainingSteps[0]
		snap := geo.SnapToLineString(loc.Coordinate, current.Geometry)
		distanceToNext := geo.RemainingDistanceOnStep(current, snap.SegmentIndex, snap.T)

		if budget <= 0 {
			return c.finalize(remainingSteps, remainingWaypoints, loc, snap, distanceToNext)
		}

		obs := stepadvance.Observation{
			RemainingOnCurrentStepM: distanceToNext,
			HorizontalAccuracyM:     loc.HorizontalAccuracyM,
			DCurrentM:               snap.PerpendicularM,
			DNextM:                  nextStepDistanceM(remainingSteps, loc.Coordinate),
		}

		if !c.config.StepAdvance.ShouldAdvance(obs) {
			return c.finalize(remainingSteps, remainingWaypoints, loc, snap, distanceToNext)
		}

		remainingWaypoints = dropBreakWaypointAt(remainingWaypoints, current.EndCoordinate())
		remainingSteps = remainingSteps[1:]
		budget--
	}
}

// AdvanceToNextStep forces one step advance regardless of the configured
// step-advance policy, transitioning to Complete when steps exhaust.
func (c *Controller) AdvanceToNextStep(state models.TripState) models.TripState {
	if state.Status != models.TripNavigating || state.Navigating == nil {
		return models.Complete()
	}

	remainingSteps := state.Navigating.RemainingSteps
	if len(remainingSteps) == 0 {
		return models.Complete()
	}

	remainingWaypoints := dropBreakWaypointAt(state.Navigating.RemainingWaypoints, remainingSteps[0].EndCoordinate())
	remainingSteps = remainingSteps[1:]
	if len(remainingSteps) == 0 {
		return models.Complete()
	}

	// No fresh fix is available on a forced advance; re-snap the last
	// known position against the new head step.
	loc := models.UserLocation{Coordinate: state.Navigating.SnappedLocation}
	current := remainingSteps[0]
	snap := geo.SnapToLineString(loc.Coordinate, current.Geometry)
	distanceToNext := geo.RemainingDistanceOnStep(current, snap.SegmentIndex, snap.T)

	return c.finalize(remainingSteps, remainingWaypoints, loc, snap, distanceToNext)
}

func (c *Controller) finalize(remainingSteps []models.RouteStep, remainingWaypoints []models.Waypoint, loc models.UserLocation, snap geo.SnapResult, distanceToNext float64) models.TripState {
	current := remainingSteps[0]
	dev := c.config.DeviationTracking.Detect(c.route, remainingSteps, loc)

	return models.Navigating(models.NavigatingState{
		SnappedLocation:         snap.Snapped,
		RemainingSteps:          remainingSteps,
		RemainingWaypoints:      remainingWaypoints,
		DistanceToNextManeuverM: distanceToNext,
		Deviation:               dev,
		VisualInstruction:       instruction.SelectVisual(current, distanceToNext),
		SpokenInstruction:       instruction.SelectSpoken(current, distanceToNext),
	})
}

// nextStepDistanceM returns the perpendicular distance from p to the next
// step's polyline, or nil when the current step is the last one.
func nextStepDistanceM(remainingSteps []models.RouteStep, p models.GeographicCoordinate) *float64 {
	if len(remainingSteps) < 2 {
		return nil
	}
	d := geo.SnapToLineString(p, remainingSteps[1].Geometry).PerpendicularM
	return &d
}

// dropBreakWaypointAt removes the first Break waypoint whose coordinate
// equals coord, leaving Via waypoints (and non-matching Break waypoints)
// untouched.
func dropBreakWaypointAt(waypoints []models.Waypoint, coord models.GeographicCoordinate) []models.Waypoint {
	for i, wp := range waypoints {
		if wp.Kind == models.WaypointBreak && wp.Coordinate == coord {
			out := make([]models.Waypoint, 0, len(waypoints)-1)
			out = append(out, waypoints[:i]...)
			out = append(out, waypoints[i+1:]...)
			return out
		}
	}
	return waypoints
}
