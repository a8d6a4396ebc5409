package valhalla

import (
	"encoding/json"
	"fmt"

	"github.com/wayfarer-go/navigator/internal/domain/models"
	"github.com/wayfarer-go/navigator/internal/nav/routeadapter"
)

// RequestGenerator implements routeadapter.RequestGenerator against
// Valhalla's OSRM-compatible /route endpoint.
type RequestGenerator struct {
	BaseURL string
	Costing string
}

var _ routeadapter.RequestGenerator = RequestGenerator{}

type routeRequestBody struct {
	Locations []locationRequest `json:"locations"`
	Costing   string            `json:"costing"`
}

type locationRequest struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Type string  `json:"type,omitempty"`
}

// GenerateRequest builds an HTTP POST body from the user's current position
// followed by every waypoint, in order.
func (g RequestGenerator) GenerateRequest(loc models.UserLocation, waypoints []models.Waypoint) (routeadapter.RouteRequest, error) {
	if len(waypoints) == 0 {
		return routeadapter.RouteRequest{}, routeadapter.RequestGenerationError{Detail: "no waypoints supplied"}
	}

	costing := g.Costing
	if costing == "" {
		costing = "auto"
	}

	locations := make([]locationRequest, 0, len(waypoints)+1)
	locations = append(locations, locationRequest{Lat: loc.Coordinate.Lat, Lon: loc.Coordinate.Lng, Type: "break"})
	for _, wp := range waypoints {
		locations = append(locations, locationRequest{
			Lat:  wp.Coordinate.Lat,
			Lon:  wp.Coordinate.Lng,
			Type: locationTypeFor(wp.Kind),
		})
	}

	body, err := json.Marshal(routeRequestBody{Locations: locations, Costing: costing})
	if err != nil {
		return routeadapter.RouteRequest{}, routeadapter.RequestGenerationError{Detail: fmt.Sprintf("encoding request body: %s", err)}
	}

	return routeadapter.RouteRequest{
		HttpPost: &routeadapter.HttpPostRequest{
			URL:     g.BaseURL + "/route",
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    body,
		},
	}, nil
}

func locationTypeFor(kind models.WaypointKind) string {
	if kind == models.WaypointVia {
		return "via"
	}
	return "break"
}
