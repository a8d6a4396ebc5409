package nav

import (
	"math"
	"testing"
	"time"

	"github.com/wayfarer-go/navigator/internal/domain/models"
	"github.com/wayfarer-go/navigator/internal/nav/deviation"
	"github.com/wayfarer-go/navigator/internal/nav/stepadvance"
	"github.com/wayfarer-go/navigator/pkg/uuid"
)

func coord(lat, lng float64) models.GeographicCoordinate {
	return models.GeographicCoordinate{Lat: lat, Lng: lng}
}

func loc(c models.GeographicCoordinate, accuracyM float64) models.UserLocation {
	return models.UserLocation{Coordinate: c, HorizontalAccuracyM: accuracyM, Timestamp: time.Now()}
}

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.New()
	if err != nil {
		t.Fatalf("uuid.New: %v", err)
	}
	return id
}

// straightTwoPointRoute is a single ~111m step with one visual
// instruction triggered at 100m.
func straightTwoPointRoute(t *testing.T) models.Route {
	step := models.RouteStep{
		Geometry:  []models.GeographicCoordinate{coord(0, 0), coord(0, 0.001)},
		DistanceM: 111.2,
		VisualInstructions: []models.VisualInstruction{
			{Primary: models.VisualInstructionContent{Text: "Continue"}, TriggerDistanceBeforeManeuverM: 100},
		},
	}
	route := models.Route{
		Geometry: step.Geometry,
		BBox:     models.BoundingBox{SouthWest: coord(0, 0), NorthEast: coord(0, 0.001)},
		Steps:    []models.RouteStep{step},
	}
	if err := route.Validate(); err != nil {
		t.Fatalf("invalid fixture route: %v", err)
	}
	return route
}

func TestScenario1_StraightTwoPointRoute(t *testing.T) {
	route := straightTwoPointRoute(t)
	ctrl, err := New(route, Config{StepAdvance: stepadvance.ManualConfig(), DeviationTracking: deviation.NoneConfig()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state, err := ctrl.InitialState(loc(coord(0, 0), 5))
	if err != nil {
		t.Fatalf("InitialState: %v", err)
	}

	if state.Status != models.TripNavigating {
		t.Fatalf("status = %v, want Navigating", state.Status)
	}
	if math.Abs(state.Navigating.DistanceToNextManeuverM-111.19) > 1 {
		t.Fatalf("distance_to_next_maneuver_m = %v, want ~111.19", state.Navigating.DistanceToNextManeuverM)
	}
	if state.Navigating.VisualInstruction == nil || state.Navigating.VisualInstruction.Primary.Text != "Continue" {
		t.Fatalf("expected the only visual instruction to be selected via the largest-trigger fallback, got %+v", state.Navigating.VisualInstruction)
	}
	if state.Navigating.Deviation.IsOffRoute() {
		t.Fatalf("expected NoDeviation, got %+v", state.Navigating.Deviation)
	}
}

func TestScenario2_SnappingOffTheLine(t *testing.T) {
	route := straightTwoPointRoute(t)

	lenient, err := New(route, Config{
		StepAdvance:       stepadvance.ManualConfig(),
		DeviationTracking: deviation.StaticThresholdConfig(10, 15),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	state, err := lenient.InitialState(loc(coord(0.00005, 0.0005), 5))
	if err != nil {
		t.Fatalf("InitialState: %v", err)
	}
	if state.Navigating.Deviation.IsOffRoute() {
		t.Fatalf("max_dev=15 should tolerate ~5.5m deviation, got %+v", state.Navigating.Deviation)
	}

	strict, err := New(route, Config{
		StepAdvance:       stepadvance.ManualConfig(),
		DeviationTracking: deviation.StaticThresholdConfig(10, 3),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	state2, err := strict.InitialState(loc(coord(0.00005, 0.0005), 5))
	if err != nil {
		t.Fatalf("InitialState: %v", err)
	}
	if !state2.Navigating.Deviation.IsOffRoute() {
		t.Fatalf("max_dev=3 should flag ~5.5m deviation as OffRoute, got %+v", state2.Navigating.Deviation)
	}
}

func twoStepRoute(t *testing.T) models.Route {
	step1 := models.RouteStep{
		Geometry: []models.GeographicCoordinate{coord(0, 0), coord(0, 0.001)},
	}
	step2 := models.RouteStep{
		Geometry: []models.GeographicCoordinate{coord(0, 0.001), coord(0, 0.002)},
	}
	route := models.Route{
		Geometry: append(append([]models.GeographicCoordinate{}, step1.Geometry...), step2.Geometry[1]),
		BBox:     models.BoundingBox{SouthWest: coord(0, 0), NorthEast: coord(0, 0.002)},
		Steps:    []models.RouteStep{step1, step2},
	}
	if err := route.Validate(); err != nil {
		t.Fatalf("invalid fixture route: %v", err)
	}
	return route
}

func TestScenario3_AutomaticAdvance(t *testing.T) {
	route := twoStepRoute(t)
	ctrl, err := New(route, Config{
		StepAdvance:       stepadvance.RelativeLineStringDistanceConfig(16, 10),
		DeviationTracking: deviation.NoneConfig(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state, err := ctrl.InitialState(loc(coord(0, 0), 5))
	if err != nil {
		t.Fatalf("InitialState: %v", err)
	}

	// Near the end of step 1: 8m remaining (< 10m auto-advance distance).
	nearEnd := coord(0, 0.001-8.0/111195.0)
	next := ctrl.UpdateUserLocation(state, loc(nearEnd, 10))

	if next.Status != models.TripNavigating {
		t.Fatalf("status = %v, want Navigating", next.Status)
	}
	if len(next.Navigating.RemainingSteps) != 1 {
		t.Fatalf("remaining steps = %d, want 1 (advanced past step 1)", len(next.Navigating.RemainingSteps))
	}
}

func TestScenario4_Completion(t *testing.T) {
	route := straightTwoPointRoute(t)
	ctrl, err := New(route, Config{
		StepAdvance:       stepadvance.DistanceToEndOfStepConfig(5, 20),
		DeviationTracking: deviation.NoneConfig(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state, err := ctrl.InitialState(loc(coord(0, 0), 5))
	if err != nil {
		t.Fatalf("InitialState: %v", err)
	}

	// Beyond the last point: snapping clamps to the end, advance fires,
	// and the single-step route has nothing left.
	beyond := coord(0, 0.01)
	final := ctrl.UpdateUserLocation(state, loc(beyond, 5))

	if !final.IsComplete() {
		t.Fatalf("status = %v, want Complete", final.Status)
	}

	// Once complete, state stays complete.
	again := ctrl.UpdateUserLocation(final, loc(beyond, 5))
	if !again.IsComplete() {
		t.Fatalf("Complete state must stay Complete, got %v", again.Status)
	}
}

func TestScenario5_UtteranceDedup(t *testing.T) {
	id := mustUUID(t)
	step := models.RouteStep{
		Geometry: []models.GeographicCoordinate{coord(0, 0), coord(0, 0.001)},
		SpokenInstructions: []models.SpokenInstruction{
			{Text: "turn left", TriggerDistanceBeforeManeuverM: 100, UtteranceID: id},
		},
	}
	route := models.Route{
		Geometry: step.Geometry,
		BBox:     models.BoundingBox{SouthWest: coord(0, 0), NorthEast: coord(0, 0.001)},
		Steps:    []models.RouteStep{step},
	}

	ctrl, err := New(route, Config{StepAdvance: stepadvance.ManualConfig(), DeviationTracking: deviation.NoneConfig()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state, err := ctrl.InitialState(loc(coord(0, 0), 5))
	if err != nil {
		t.Fatalf("InitialState: %v", err)
	}
	t2 := ctrl.UpdateUserLocation(state, loc(coord(0, 0.00002), 5))

	emitted := map[uuid.UUID]struct{}{}
	for _, s := range []models.TripState{state, t2} {
		if s.Navigating.SpokenInstruction != nil {
			emitted[s.Navigating.SpokenInstruction.UtteranceID] = struct{}{}
		}
	}
	if len(emitted) != 1 {
		t.Fatalf("expected exactly one distinct utterance id across both ticks, got %d", len(emitted))
	}
}

type alwaysOffRouteDetector struct{ deviationM float64 }

func (a alwaysOffRouteDetector) Detect(_ models.Route, _ []models.RouteStep, _ models.UserLocation) models.DeviationResult {
	return models.OffRoute(a.deviationM)
}

func TestScenario6_CustomDeviationDetectorAlwaysOffRoute(t *testing.T) {
	route := straightTwoPointRoute(t)
	ctrl, err := New(route, Config{
		StepAdvance:       stepadvance.ManualConfig(),
		DeviationTracking: deviation.CustomConfig(alwaysOffRouteDetector{deviationM: 42}),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state, err := ctrl.InitialState(loc(coord(0, 0), 5))
	if err != nil {
		t.Fatalf("InitialState: %v", err)
	}
	next := ctrl.UpdateUserLocation(state, loc(coord(0, 0.0002), 5))

	if !next.Navigating.Deviation.IsOffRoute() || next.Navigating.Deviation.DeviationM != 42 {
		t.Fatalf("got %+v, want OffRoute{42} regardless of geometry", next.Navigating.Deviation)
	}
}

func TestIdempotence_RepeatedUpdateWithSameLocation(t *testing.T) {
	route := straightTwoPointRoute(t)
	ctrl, err := New(route, Config{StepAdvance: stepadvance.ManualConfig(), DeviationTracking: deviation.NoneConfig()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state, err := ctrl.InitialState(loc(coord(0, 0), 5))
	if err != nil {
		t.Fatalf("InitialState: %v", err)
	}

	l := loc(coord(0, 0.0003), 5)
	once := ctrl.UpdateUserLocation(state, l)
	twice := ctrl.UpdateUserLocation(once, l)

	if once.Navigating.DistanceToNextManeuverM != twice.Navigating.DistanceToNextManeuverM {
		t.Fatalf("repeated update with the same location changed distance: %v vs %v",
			once.Navigating.DistanceToNextManeuverM, twice.Navigating.DistanceToNextManeuverM)
	}
	if once.Navigating.SnappedLocation != twice.Navigating.SnappedLocation {
		t.Fatalf("repeated update with the same location changed snapped position")
	}
}

func TestMonotonicProgress_ForwardMotionAlongStep(t *testing.T) {
	route := straightTwoPointRoute(t)
	ctrl, err := New(route, Config{StepAdvance: stepadvance.ManualConfig(), DeviationTracking: deviation.NoneConfig()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state, err := ctrl.InitialState(loc(coord(0, 0), 5))
	if err != nil {
		t.Fatalf("InitialState: %v", err)
	}

	prev := state.Navigating.DistanceToNextManeuverM
	for _, frac := range []float64{0.2, 0.4, 0.6, 0.8} {
		l := loc(coord(0, 0.001*frac), 5)
		state = ctrl.UpdateUserLocation(state, l)
		cur := state.Navigating.DistanceToNextManeuverM
		if cur > prev {
			t.Fatalf("distance_to_next_maneuver_m increased under forward motion: prev=%v cur=%v", prev, cur)
		}
		prev = cur
	}
}

func TestNew_RejectsInvalidRoute(t *testing.T) {
	_, err := New(models.Route{}, Config{})
	if err == nil {
		t.Fatalf("expected RouteInvariantViolation for an empty route")
	}
	if _, ok := err.(RouteInvariantViolation); !ok {
		t.Fatalf("got error of type %T, want RouteInvariantViolation", err)
	}
}

func TestInitialState_RejectsNegativeAccuracy(t *testing.T) {
	route := straightTwoPointRoute(t)
	ctrl, err := New(route, Config{StepAdvance: stepadvance.ManualConfig(), DeviationTracking: deviation.NoneConfig()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = ctrl.InitialState(loc(coord(0, 0), -1))
	if _, ok := err.(NoUserLocation); !ok {
		t.Fatalf("got error of type %T, want NoUserLocation", err)
	}
}

func TestAdvanceToNextStep_ForcesAdvanceRegardlessOfPolicy(t *testing.T) {
	route := twoStepRoute(t)
	ctrl, err := New(route, Config{StepAdvance: stepadvance.ManualConfig(), DeviationTracking: deviation.NoneConfig()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state, err := ctrl.InitialState(loc(coord(0, 0), 5))
	if err != nil {
		t.Fatalf("InitialState: %v", err)
	}
	next := ctrl.AdvanceToNextStep(state)
	if len(next.Navigating.RemainingSteps) != 1 {
		t.Fatalf("remaining steps = %d, want 1 after a forced advance", len(next.Navigating.RemainingSteps))
	}

	final := ctrl.AdvanceToNextStep(next)
	if !final.IsComplete() {
		t.Fatalf("status = %v, want Complete after exhausting steps", final.Status)
	}
}

func TestWaypointAdvancement_DropsBreakAtStepEnd(t *testing.T) {
	route := twoStepRoute(t)
	route.Waypoints = []models.Waypoint{
		{Coordinate: coord(0, 0.001), Kind: models.WaypointBreak},
		{Coordinate: coord(0, 0.002), Kind: models.WaypointBreak},
	}
	ctrl, err := New(route, Config{StepAdvance: stepadvance.ManualConfig(), DeviationTracking: deviation.NoneConfig()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state, err := ctrl.InitialState(loc(coord(0, 0), 5))
	if err != nil {
		t.Fatalf("InitialState: %v", err)
	}
	if len(state.Navigating.RemainingWaypoints) != 2 {
		t.Fatalf("expected both waypoints present initially")
	}

	next := ctrl.AdvanceToNextStep(state)
	if len(next.Navigating.RemainingWaypoints) != 1 {
		t.Fatalf("expected the waypoint at step 1's end to be dropped, got %d remaining", len(next.Navigating.RemainingWaypoints))
	}
	if next.Navigating.RemainingWaypoints[0].Coordinate != coord(0, 0.002) {
		t.Fatalf("expected the step-2-end waypoint to survive, got %+v", next.Navigating.RemainingWaypoints[0])
	}
}
