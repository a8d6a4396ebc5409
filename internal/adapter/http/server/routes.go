package server

import (
	"net/http"

	"github.com/wayfarer-go/navigator/internal/adapter/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// setupRoutes wires the five session routes behind bearer-JWT auth, the
// WebSocket stream behind the stream-key check, and the unauthenticated
// health/metrics/swagger endpoints.
func setupRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.HandleFunc("/health", routes.health.HealthCheck)
	mux.HandleFunc("/swagger/", httpSwagger.Handler())
	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("POST /v1/sessions", m.Auth(routes.session.Start))
	mux.Handle("POST /v1/sessions/{id}/locations", m.Auth(routes.session.ReportLocation))
	mux.Handle("POST /v1/sessions/{id}/advance", m.Auth(routes.session.Advance))
	mux.Handle("POST /v1/sessions/{id}/reroute", m.Auth(routes.session.Reroute))
	mux.Handle("GET /v1/sessions/{id}", m.Auth(routes.session.Get))

	mux.Handle("GET /ws/sessions/{id}", m.AuthWebSocket(routes.stream.HandleWebSocket))
}
