package models

import (
	"errors"
	"fmt"
)

// RouteStep is one maneuver segment: its own polyline plus the visual and
// spoken instructions that belong to it.
type RouteStep struct {
	Geometry           []GeographicCoordinate `json:"geometry"`
	DistanceM          float64                `json:"distance_m"`
	RoadName           string                 `json:"road_name,omitempty"`
	Instruction        string                 `json:"instruction"`
	VisualInstructions []VisualInstruction    `json:"visual_instructions"`
	SpokenInstructions []SpokenInstruction    `json:"spoken_instructions"`
}

// EndCoordinate returns the step's last geometry point.
func (s RouteStep) EndCoordinate() GeographicCoordinate {
	return s.Geometry[len(s.Geometry)-1]
}

// Route is an ordered sequence of steps from origin to final waypoint.
// Immutable once constructed; the controller borrows it for the session's
// lifetime.
type Route struct {
	Geometry   []GeographicCoordinate `json:"geometry"`
	BBox       BoundingBox            `json:"bbox"`
	DistanceM  float64                `json:"distance_m"`
	Waypoints  []Waypoint             `json:"waypoints"`
	Steps      []RouteStep            `json:"steps"`
}

// Validate checks the invariants spelled out for Route/RouteStep: every
// step has at least two geometry points, consecutive steps share an
// endpoint, and the route carries at least one step.
func (r Route) Validate() error {
	if len(r.Steps) == 0 {
		return errors.New("route has no steps")
	}
	if !r.BBox.Valid() {
		return errors.New("bounding box southwest corner is north of its northeast corner")
	}

	for i, step := range r.Steps {
		if len(step.Geometry) < 2 {
			return fmt.Errorf("step %d: geometry must have at least 2 points, got %d", i, len(step.Geometry))
		}
		for _, pt := range step.Geometry {
			if !pt.Valid() {
				return fmt.Errorf("step %d: coordinate %+v out of range", i, pt)
			}
		}
		if i > 0 {
			prevEnd := r.Steps[i-1].EndCoordinate()
			if step.Geometry[0] != prevEnd {
				return fmt.Errorf("step %d: first point %+v does not match previous step's last point %+v", i, step.Geometry[0], prevEnd)
			}
		}
		for _, vi := range step.VisualInstructions {
			if vi.TriggerDistanceBeforeManeuverM <= 0 {
				return fmt.Errorf("step %d: visual instruction trigger distance must be > 0", i)
			}
		}
		for _, si := range step.SpokenInstructions {
			if si.TriggerDistanceBeforeManeuverM <= 0 {
				return fmt.Errorf("step %d: spoken instruction trigger distance must be > 0", i)
			}
		}
	}

	return nil
}
