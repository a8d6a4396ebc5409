package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wayfarer-go/navigator/config"
	"github.com/wayfarer-go/navigator/internal/adapter/http/handler"
	"github.com/wayfarer-go/navigator/internal/adapter/http/middleware"
	"github.com/wayfarer-go/navigator/pkg/logger"
	wrap "github.com/wayfarer-go/navigator/pkg/logger/wrapper"
)

const serviceName = "navigator"

type API struct {
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware

	addr string
	cfg  config.Config
	log  logger.Logger
}

type handlers struct {
	session *handler.Session
	stream  *handler.Stream
	health  *handler.Health
}

// New builds the navigator HTTP API: session CRUD and reroute routes
// behind bearer-JWT auth, a WebSocket stream behind a hashed stream key,
// and unauthenticated health/metrics/swagger endpoints.
func New(
	cfg config.Config,
	sessionService handler.SessionService,
	stream handler.StreamHub,
	log logger.Logger,
) (*API, error) {
	if sessionService == nil {
		return nil, errors.New("session service is required")
	}
	if stream == nil {
		return nil, errors.New("stream hub is required")
	}

	routes := &handlers{
		session: handler.NewSession(sessionService, log),
		stream:  handler.NewStream(stream, sessionService, log),
		health:  handler.NewHealth(serviceName, log),
	}

	mid := middleware.NewMiddleware(cfg.Auth.JWTSecret, cfg.Auth.WSStreamKey, log)

	api := &API{
		mux:    http.NewServeMux(),
		routes: routes,
		m:      mid,
		addr:   fmt.Sprintf("0.0.0.0:%s", cfg.HTTP.Port),
		cfg:    cfg,
		log:    log,
	}

	api.server = &http.Server{
		Addr:    api.addr,
		Handler: api.mux,
	}

	setupRoutes(api.mux, api.routes, api.m)

	return api, nil
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	a.server.Handler = a.withMiddleware()
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// withMiddleware wraps the mux with the ambient concerns that apply to
// every route; per-route auth is applied in setupRoutes instead, since
// /health, /metrics and /swagger/ must stay reachable unauthenticated.
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(a.m.RequestID(a.m.Metrics(serviceName)(a.m.Logging(a.mux))))
}
