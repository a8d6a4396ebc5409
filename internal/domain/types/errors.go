package types

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrRerouteCoolingDown = errors.New("reroute requested too recently")
	ErrSessionComplete    = errors.New("session already reached its destination")
	ErrNotFound           = errors.New("requested item not found")
	ErrDatabaseFailed     = errors.New("database operation failed")
	ErrRouteProviderFailed = errors.New("route provider request failed")
)
