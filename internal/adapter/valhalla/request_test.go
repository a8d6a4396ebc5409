package valhalla

import (
	"encoding/json"
	"testing"

	"github.com/wayfarer-go/navigator/internal/domain/models"
)

func TestRequestGenerator_BuildsPostRequest(t *testing.T) {
	gen := RequestGenerator{BaseURL: "http://localhost:8002", Costing: "bicycle"}
	waypoints := []models.Waypoint{
		{Coordinate: models.GeographicCoordinate{Lat: 1, Lng: 2}, Kind: models.WaypointVia},
		{Coordinate: models.GeographicCoordinate{Lat: 3, Lng: 4}, Kind: models.WaypointBreak},
	}

	req, err := gen.GenerateRequest(sampleLocation(), waypoints)
	if err != nil {
		t.Fatalf("GenerateRequest: %v", err)
	}
	if req.HttpPost == nil {
		t.Fatalf("expected an HttpPost request variant")
	}
	if req.HttpPost.URL != "http://localhost:8002/route" {
		t.Fatalf("url = %q", req.HttpPost.URL)
	}

	var body routeRequestBody
	if err := json.Unmarshal(req.HttpPost.Body, &body); err != nil {
		t.Fatalf("request body is not valid json: %v", err)
	}
	if body.Costing != "bicycle" {
		t.Fatalf("costing = %q, want bicycle", body.Costing)
	}
	if len(body.Locations) != 3 {
		t.Fatalf("got %d locations, want 3 (user + 2 waypoints)", len(body.Locations))
	}
	if body.Locations[1].Type != "via" {
		t.Fatalf("locations[1].Type = %q, want via", body.Locations[1].Type)
	}
	if body.Locations[2].Type != "break" {
		t.Fatalf("locations[2].Type = %q, want break", body.Locations[2].Type)
	}
}

func TestRequestGenerator_DefaultsCosting(t *testing.T) {
	gen := RequestGenerator{BaseURL: "http://localhost:8002"}
	req, err := gen.GenerateRequest(sampleLocation(), []models.Waypoint{
		{Coordinate: models.GeographicCoordinate{Lat: 1, Lng: 2}, Kind: models.WaypointBreak},
	})
	if err != nil {
		t.Fatalf("GenerateRequest: %v", err)
	}
	var body routeRequestBody
	if err := json.Unmarshal(req.HttpPost.Body, &body); err != nil {
		t.Fatalf("request body is not valid json: %v", err)
	}
	if body.Costing != "auto" {
		t.Fatalf("costing = %q, want auto default", body.Costing)
	}
}
