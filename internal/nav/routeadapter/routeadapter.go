// Package routeadapter declares the host-facing plug-in shapes a
// navigation host uses to fetch and parse routes. The core consumes
// parsed Route values; it never performs network I/O itself.
package routeadapter

import (
	"context"
	"fmt"

	"github.com/wayfarer-go/navigator/internal/domain/models"
)

// HttpPostRequest is the only RouteRequest variant implemented here.
type HttpPostRequest struct {
	URL     string
	Headers map[string]string
	Body    []byte
}

// RouteRequest is a tagged union of ways to ask a provider for a route.
type RouteRequest struct {
	HttpPost *HttpPostRequest
}

// RequestGenerator turns a location and waypoint list into a provider
// request.
type RequestGenerator interface {
	GenerateRequest(loc models.UserLocation, waypoints []models.Waypoint) (RouteRequest, error)
}

// ResponseParser turns raw provider bytes into parsed routes.
type ResponseParser interface {
	ParseResponse(body []byte) ([]models.Route, error)
}

// CustomProvider is the async, host-supplied alternative to the
// request/response pair: it fetches and parses in one call.
type CustomProvider interface {
	GetRoutes(ctx context.Context, loc models.UserLocation, waypoints []models.Waypoint) ([]models.Route, error)
}

// ParseError is returned by a ResponseParser when provider bytes cannot be
// interpreted as one or more routes.
type ParseError struct {
	Detail string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("route adapter: parse error: %s", e.Detail)
}

// RequestGenerationError is returned by a RequestGenerator when it cannot
// produce a request from the given inputs (e.g. no waypoints).
type RequestGenerationError struct {
	Detail string
}

func (e RequestGenerationError) Error() string {
	return fmt.Sprintf("route adapter: cannot generate request: %s", e.Detail)
}
