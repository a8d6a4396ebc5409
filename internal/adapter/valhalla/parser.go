package valhalla

import (
	"encoding/json"
	"fmt"

	"github.com/wayfarer-go/navigator/internal/domain/models"
	"github.com/wayfarer-go/navigator/internal/nav/routeadapter"
	"github.com/wayfarer-go/navigator/pkg/uuid"
)

// geometryPrecision is the polyline precision Valhalla's OSRM-compatible
// serializer uses by default (shape_match=map_snap, polyline6).
const geometryPrecision = 6

// ResponseParser implements routeadapter.ResponseParser for Valhalla's
// OSRM-compatible /route response body.
type ResponseParser struct{}

var _ routeadapter.ResponseParser = ResponseParser{}

// ParseResponse decodes body into one models.Route per top-level route.
// Any structural problem - missing steps, malformed geometry - fails the
// whole response with routeadapter.ParseError. A banner or voice
// instruction whose distanceAlongGeometry is not positive is dropped from
// its step rather than failing the response.
func (ResponseParser) ParseResponse(body []byte) ([]models.Route, error) {
	var wire directionsResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, routeadapter.ParseError{Detail: fmt.Sprintf("invalid json: %s", err)}
	}
	if len(wire.Routes) == 0 {
		return nil, routeadapter.ParseError{Detail: "response contains no routes"}
	}

	waypoints := make([]models.Waypoint, 0, len(wire.Waypoints))
	for _, wp := range wire.Waypoints {
		waypoints = append(waypoints, models.Waypoint{
			Coordinate: models.GeographicCoordinate{Lat: wp.Location[1], Lng: wp.Location[0]},
			Kind:       models.WaypointBreak,
		})
	}

	routes := make([]models.Route, 0, len(wire.Routes))
	for ri, r := range wire.Routes {
		parsed, err := parseRoute(r, waypoints)
		if err != nil {
			return nil, routeadapter.ParseError{Detail: fmt.Sprintf("route %d: %s", ri, err)}
		}
		routes = append(routes, parsed)
	}
	return routes, nil
}

func parseRoute(r route, waypoints []models.Waypoint) (models.Route, error) {
	var steps []models.RouteStep
	var geometry []models.GeographicCoordinate

	for _, l := range r.Legs {
		if len(l.Steps) == 0 {
			return models.Route{}, fmt.Errorf("leg has no steps")
		}
		for _, s := range l.Steps {
			step, err := parseStep(s)
			if err != nil {
				return models.Route{}, err
			}
			if len(steps) == 0 {
				geometry = append(geometry, step.Geometry...)
			} else {
				geometry = append(geometry, step.Geometry[1:]...)
			}
			steps = append(steps, step)
		}
	}
	if len(steps) == 0 {
		return models.Route{}, fmt.Errorf("route has no steps")
	}

	bbox := boundingBox(geometry)

	return models.Route{
		Geometry:  geometry,
		BBox:      bbox,
		DistanceM: r.Distance,
		Waypoints: waypoints,
		Steps:     steps,
	}, nil
}

func parseStep(s step) (models.RouteStep, error) {
	geometry, err := decodeStepGeometry(s.Geometry)
	if err != nil {
		return models.RouteStep{}, err
	}
	if len(geometry) < 2 {
		return models.RouteStep{}, fmt.Errorf("step geometry has fewer than 2 points")
	}

	visual := make([]models.VisualInstruction, 0, len(s.BannerInstructions))
	for _, b := range s.BannerInstructions {
		trigger := b.DistanceAlongGeometry
		if trigger <= 0 {
			continue
		}
		vi := models.VisualInstruction{
			Primary: models.VisualInstructionContent{
				Text:             b.Primary.Text,
				ManeuverType:     b.Primary.Type,
				ManeuverModifier: b.Primary.Modifier,
			},
			TriggerDistanceBeforeManeuverM: trigger,
		}
		if b.Primary.DegreesOfTurn != nil {
			vi.Primary.RoundaboutExitDegrees = b.Primary.DegreesOfTurn
		}
		if b.Secondary != nil {
			vi.Secondary = &models.VisualInstructionContent{
				Text:             b.Secondary.Text,
				ManeuverType:     b.Secondary.Type,
				ManeuverModifier: b.Secondary.Modifier,
			}
		}
		visual = append(visual, vi)
	}

	spoken := make([]models.SpokenInstruction, 0, len(s.VoiceInstructions))
	for _, v := range s.VoiceInstructions {
		trigger := v.DistanceAlongGeometry
		if trigger <= 0 {
			continue
		}
		id, err := uuid.New()
		if err != nil {
			return models.RouteStep{}, fmt.Errorf("generating utterance id: %w", err)
		}
		spoken = append(spoken, models.SpokenInstruction{
			Text:                           v.Announcement,
			SSML:                           v.SSMLAnnouncement,
			TriggerDistanceBeforeManeuverM: trigger,
			UtteranceID:                    id,
		})
	}

	return models.RouteStep{
		Geometry:           geometry,
		DistanceM:           s.Distance,
		RoadName:            s.Name,
		Instruction:         s.Maneuver.Instruction,
		VisualInstructions:  visual,
		SpokenInstructions:  spoken,
	}, nil
}

// decodeStepGeometry accepts either a polyline6-encoded string or a raw
// [[lon,lat], ...] coordinate array, per the wire format this adapter must
// support.
func decodeStepGeometry(raw json.RawMessage) ([]models.GeographicCoordinate, error) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		decoded := decodePolyline(asString, geometryPrecision)
		out := make([]models.GeographicCoordinate, len(decoded))
		for i, p := range decoded {
			out[i] = models.GeographicCoordinate{Lat: p[0], Lng: p[1]}
		}
		return out, nil
	}

	var asCoords [][2]float64
	if err := json.Unmarshal(raw, &asCoords); err != nil {
		return nil, fmt.Errorf("geometry is neither an encoded polyline string nor a coordinate array: %w", err)
	}
	out := make([]models.GeographicCoordinate, len(asCoords))
	for i, p := range asCoords {
		out[i] = models.GeographicCoordinate{Lat: p[1], Lng: p[0]}
	}
	return out, nil
}

func boundingBox(points []models.GeographicCoordinate) models.BoundingBox {
	if len(points) == 0 {
		return models.BoundingBox{}
	}
	sw, ne := points[0], points[0]
	for _, p := range points[1:] {
		if p.Lat < sw.Lat {
			sw.Lat = p.Lat
		}
		if p.Lng < sw.Lng {
			sw.Lng = p.Lng
		}
		if p.Lat > ne.Lat {
			ne.Lat = p.Lat
		}
		if p.Lng > ne.Lng {
			ne.Lng = p.Lng
		}
	}
	return models.BoundingBox{SouthWest: sw, NorthEast: ne}
}
