package valhalla

import (
	"testing"

	"github.com/wayfarer-go/navigator/internal/domain/models"
	"github.com/wayfarer-go/navigator/internal/nav/routeadapter"
)

func sampleLocation() models.UserLocation {
	return models.UserLocation{Coordinate: models.GeographicCoordinate{Lat: 0, Lng: 0}, HorizontalAccuracyM: 5}
}

const sampleResponse = `{
  "code": "Ok",
  "waypoints": [{"location": [0.0, 0.0]}, {"location": [0.002, 0.0]}],
  "routes": [{
    "distance": 222.4,
    "duration": 30.0,
    "legs": [{
      "distance": 222.4,
      "steps": [
        {
          "distance": 111.2,
          "name": "Main St",
          "geometry": [[0.0, 0.0], [0.0, 0.001]],
          "maneuver": {"instruction": "Head east on Main St", "type": "depart"},
          "voiceInstructions": [
            {"distanceAlongGeometry": 90, "announcement": "In 90 meters, continue on Main Street"}
          ],
          "bannerInstructions": [
            {"distanceAlongGeometry": 0, "primary": {"text": "Main St", "type": "turn"}}
          ]
        },
        {
          "distance": 111.2,
          "name": "Main St",
          "geometry": [[0.0, 0.001], [0.0, 0.002]],
          "maneuver": {"instruction": "Arrive at destination", "type": "arrive"},
          "voiceInstructions": [],
          "bannerInstructions": []
        }
      ]
    }]
  }]
}`

func TestParseResponse_DecodesCoordinateListGeometry(t *testing.T) {
	routes, err := ResponseParser{}.ParseResponse([]byte(sampleResponse))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(routes))
	}

	r := routes[0]
	if len(r.Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(r.Steps))
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("parsed route fails invariants: %v", err)
	}
	if len(r.Waypoints) != 2 {
		t.Fatalf("got %d waypoints, want 2", len(r.Waypoints))
	}
	if r.Steps[0].SpokenInstructions[0].TriggerDistanceBeforeManeuverM != 90 {
		t.Fatalf("trigger distance = %v, want 90 (distanceAlongGeometry itself)",
			r.Steps[0].SpokenInstructions[0].TriggerDistanceBeforeManeuverM)
	}
}

func TestParseResponse_DecodesPolylineGeometry(t *testing.T) {
	// "??AC" is a hand-encoded two-point polyline: (0,0) then a delta of
	// (+1,+2) in the encoding's fixed-point units.
	body := []byte(`{"code":"Ok","routes":[{"distance":1,"legs":[{"distance":1,"steps":[
		{"distance":1,"name":"x","geometry":"??AC","maneuver":{"instruction":"go"}}
	]}]}]}`)

	routes, err := ResponseParser{}.ParseResponse(body)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	geom := routes[0].Steps[0].Geometry
	if len(geom) != 2 {
		t.Fatalf("got %d decoded points, want 2", len(geom))
	}
	if geom[0] != (models.GeographicCoordinate{}) {
		t.Fatalf("first decoded point = %+v, want (0,0)", geom[0])
	}
}

func TestParseResponse_SinglePointStepFails(t *testing.T) {
	body := []byte(`{"code":"Ok","routes":[{"distance":1,"legs":[{"distance":1,"steps":[
		{"distance":1,"name":"x","geometry":[[0.0,0.0]],"maneuver":{"instruction":"go"}}
	]}]}]}`)

	_, err := ResponseParser{}.ParseResponse(body)
	if _, ok := err.(routeadapter.ParseError); !ok {
		t.Fatalf("got error of type %T, want routeadapter.ParseError", err)
	}
}

func TestParseResponse_NoRoutesFails(t *testing.T) {
	_, err := ResponseParser{}.ParseResponse([]byte(`{"code":"Ok","routes":[]}`))
	if _, ok := err.(routeadapter.ParseError); !ok {
		t.Fatalf("got error of type %T, want routeadapter.ParseError", err)
	}
}

func TestParseResponse_MalformedJSONFails(t *testing.T) {
	_, err := ResponseParser{}.ParseResponse([]byte(`not json`))
	if _, ok := err.(routeadapter.ParseError); !ok {
		t.Fatalf("got error of type %T, want routeadapter.ParseError", err)
	}
}

func TestRequestGenerator_RejectsEmptyWaypoints(t *testing.T) {
	gen := RequestGenerator{BaseURL: "http://localhost:8002"}
	_, err := gen.GenerateRequest(sampleLocation(), nil)
	if _, ok := err.(routeadapter.RequestGenerationError); !ok {
		t.Fatalf("got error of type %T, want routeadapter.RequestGenerationError", err)
	}
}
