package nav

import "fmt"

// RouteInvariantViolation is returned by New when the supplied route or
// one of its steps fails the invariants documented on models.Route.
type RouteInvariantViolation struct {
	Detail string
}

func (e RouteInvariantViolation) Error() string {
	return fmt.Sprintf("route invariant violation: %s", e.Detail)
}

// NoUserLocation is returned by InitialState when the seed location is
// ill-formed (negative accuracy).
type NoUserLocation struct {
	Detail string
}

func (e NoUserLocation) Error() string {
	return fmt.Sprintf("no usable user location: %s", e.Detail)
}
