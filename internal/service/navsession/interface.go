package navsession

import (
	"context"

	"github.com/wayfarer-go/navigator/internal/domain/models"
	"github.com/wayfarer-go/navigator/pkg/uuid"
)

/*=====================Session Repository============================*/

type Repository interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	UpdateState(ctx context.Context, id uuid.UUID, state models.TripState) error
	UpdateRoute(ctx context.Context, id uuid.UUID, route models.Route, state models.TripState) error
	UpdateLastRerouteAt(ctx context.Context, id uuid.UUID) error

	HasEmitted(ctx context.Context, sessionID, utteranceID uuid.UUID) (bool, error)
	MarkEmitted(ctx context.Context, sessionID, utteranceID uuid.UUID) error
}

/*========================Publisher===============================*/

type Publisher interface {
	PublishDeviation(ctx context.Context, ev DeviationEvent) error
	PublishCompletion(ctx context.Context, ev CompletionEvent) error
}

/*===========================Hub===============================*/

// Hub streams TripState updates to a session's live subscribers. A slow
// or absent subscriber must never block a controller tick.
type Hub interface {
	Push(sessionID uuid.UUID, state models.TripState)
}

/*=====================Route provider============================*/

// RouteProvider is the reroute path's dependency: either a
// request/response pair or a CustomProvider, resolved by the caller that
// constructs the Service.
type RouteProvider interface {
	Route(ctx context.Context, loc models.UserLocation, waypoints []models.Waypoint) (models.Route, error)
}
