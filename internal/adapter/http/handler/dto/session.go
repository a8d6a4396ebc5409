// Package dto holds the request/response bodies of the session HTTP
// surface, kept separate from internal/domain/models so the wire shape can
// evolve without touching the pure core's types.
package dto

import (
	"errors"

	"github.com/wayfarer-go/navigator/internal/domain/models"
	"github.com/wayfarer-go/navigator/internal/nav"
)

// StartSessionRequest is the body of POST /v1/sessions.
type StartSessionRequest struct {
	Route          models.Route         `json:"route"`
	Config         *nav.Config          `json:"config,omitempty"`
	FirstLocation  models.UserLocation  `json:"first_location"`
}

func (r StartSessionRequest) Validate() error {
	if len(r.Route.Steps) == 0 {
		return errors.New("route.steps must not be empty")
	}
	if r.FirstLocation.HorizontalAccuracyM < 0 {
		return errors.New("first_location.horizontal_accuracy_m must be >= 0")
	}
	return nil
}

// StartSessionResponse is the body of POST /v1/sessions' 201 response.
type StartSessionResponse struct {
	SessionID string           `json:"session_id"`
	State     models.TripState `json:"state"`
}

// ReportLocationRequest is the body of POST /v1/sessions/{id}/locations.
type ReportLocationRequest struct {
	Location models.UserLocation `json:"location"`
}

func (r ReportLocationRequest) Validate() error {
	if r.Location.HorizontalAccuracyM < 0 {
		return errors.New("location.horizontal_accuracy_m must be >= 0")
	}
	return nil
}

// RerouteResponse is the body of POST /v1/sessions/{id}/reroute's response.
type RerouteResponse struct {
	Route models.Route `json:"route"`
}
