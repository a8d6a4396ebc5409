package handler

import (
	"errors"
	"net/http"

	"github.com/wayfarer-go/navigator/internal/domain/types"
	"github.com/wayfarer-go/navigator/internal/nav"
	"github.com/wayfarer-go/navigator/internal/nav/routeadapter"
)

func errorResponse(w http.ResponseWriter, status int, message any) {
	env := envelope{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func internalErrorResponse(w http.ResponseWriter, message any) {
	errorResponse(w, http.StatusInternalServerError, message)
}

// statusFor maps a host or core error to the HTTP status the six session
// routes respond with.
func statusFor(err error) int {
	switch {
	case isOneOf(err, types.ErrSessionNotFound):
		return http.StatusNotFound
	case isOneOf(err, types.ErrRerouteCoolingDown):
		return http.StatusTooManyRequests
	case isOneOf(err, types.ErrSessionComplete):
		return http.StatusConflict
	case isRouteInvariantOrParseOrRequestError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isRouteInvariantOrParseOrRequestError(err error) bool {
	var inv nav.RouteInvariantViolation
	var noLoc nav.NoUserLocation
	var parseErr routeadapter.ParseError
	var reqErr routeadapter.RequestGenerationError
	return errors.As(err, &inv) || errors.As(err, &noLoc) || errors.As(err, &parseErr) || errors.As(err, &reqErr)
}

func isOneOf(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
