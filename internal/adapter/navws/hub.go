// Package navws streams TripState updates to a session's live WebSocket
// subscribers over the shared connection hub.
package navws

import (
	"context"

	ws "github.com/wayfarer-go/navigator/pkg/wsHub"

	"github.com/wayfarer-go/navigator/internal/domain/models"
	"github.com/wayfarer-go/navigator/internal/service/navsession"
	"github.com/wayfarer-go/navigator/pkg/logger"
	wrap "github.com/wayfarer-go/navigator/pkg/logger/wrapper"
	"github.com/wayfarer-go/navigator/pkg/uuid"
)

// Hub adapts ws.ConnectionHub, keyed one-connection-per-session, into
// navsession.Hub. Push never blocks a controller tick: it fans out in its
// own goroutine and swallows the not-found case, since a session with no
// live subscriber is the common case, not an error.
type Hub struct {
	conns *ws.ConnectionHub
	log   logger.Logger
}

func NewHub(conns *ws.ConnectionHub, log logger.Logger) *Hub {
	return &Hub{conns: conns, log: log}
}

var _ navsession.Hub = (*Hub)(nil)

func (h *Hub) Push(sessionID uuid.UUID, state models.TripState) {
	go func() {
		ctx := wrap.WithAction(wrap.WithSessionID(context.Background(), sessionID.String()), "ws_push_trip_state")

		if err := h.conns.SendTo(sessionID, state); err != nil {
			if err == ws.ErrConnIsNotFound {
				return
			}
			h.log.Warn(ctx, "failed to push trip state to subscriber", "error", err.Error())
		}
	}()
}

func (h *Hub) Subscribe(entityID uuid.UUID, conn *ws.Conn) error {
	return h.conns.Add(conn)
}

func (h *Hub) Unsubscribe(entityID uuid.UUID) error {
	return h.conns.Delete(entityID)
}
