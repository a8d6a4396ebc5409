package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/wayfarer-go/navigator/pkg/logger"
	wrap "github.com/wayfarer-go/navigator/pkg/logger/wrapper"
	"github.com/wayfarer-go/navigator/pkg/uuid"
	ws "github.com/wayfarer-go/navigator/pkg/wsHub"
)

// StreamHub is the subset of navws.Hub the WebSocket upgrade handler needs.
type StreamHub interface {
	Subscribe(entityID uuid.UUID, conn *ws.Conn) error
}

type Stream struct {
	hub      StreamHub
	sessions SessionService
	upgrader websocket.Upgrader
	log      logger.Logger
}

func NewStream(hub StreamHub, sessions SessionService, log logger.Logger) *Stream {
	return &Stream{
		hub:      hub,
		sessions: sessions,
		upgrader: websocket.Upgrader{EnableCompression: false},
		log:      log,
	}
}

// HandleWebSocket godoc
// @Summary      Stream trip state updates
// @Description  Upgrades to a WebSocket that receives one TripState message per controller tick.
// @Tags         Sessions
// @Router       /ws/sessions/{id} [get]
func (s *Stream) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "ws_subscribe")

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid session id")
		return
	}

	state, err := s.sessions.GetState(ctx, id)
	if err != nil {
		errorResponse(w, statusFor(err), err.Error())
		return
	}

	rawConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(ctx, "failed to upgrade websocket", "error", err.Error())
		return
	}

	conn := ws.NewConn(context.Background(), id, rawConn)
	if err := s.hub.Subscribe(id, conn); err != nil {
		s.log.Warn(ctx, "failed to register websocket subscriber", "error", err.Error())
		conn.Close()
		return
	}

	if err := conn.Send(state); err != nil {
		s.log.Warn(ctx, "failed to send initial trip state", "error", err.Error())
	}
}
