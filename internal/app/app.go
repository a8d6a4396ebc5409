// Package app wires the navigator service's concrete adapters together:
// Postgres session storage, a RabbitMQ event broker, a WebSocket stream
// hub, a Valhalla/OSRM-compatible route provider, and the HTTP server
// that fronts all of it.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wayfarer-go/navigator/config"
	"github.com/wayfarer-go/navigator/internal/adapter/http/server"
	"github.com/wayfarer-go/navigator/internal/adapter/navws"
	repo "github.com/wayfarer-go/navigator/internal/adapter/postgres"
	"github.com/wayfarer-go/navigator/internal/adapter/rabbit"
	"github.com/wayfarer-go/navigator/internal/adapter/valhalla"
	"github.com/wayfarer-go/navigator/internal/service/navsession"
	"github.com/wayfarer-go/navigator/pkg/logger"
	"github.com/wayfarer-go/navigator/pkg/postgres"
	pkgrabbit "github.com/wayfarer-go/navigator/pkg/rabbit"
	"github.com/wayfarer-go/navigator/pkg/trm"
	ws "github.com/wayfarer-go/navigator/pkg/wsHub"
)

var ErrServiceNotInitialized = errors.New("service not initialized")

type App struct {
	postgresDB *postgres.PostgreDB
	rabbitMQ   *pkgrabbit.RabbitMQ
	httpServer *server.API

	cfg config.Config
	log logger.Logger
}

// NewApplication builds the full dependency graph: storage, messaging,
// the live stream hub, the route provider, the session service, and
// finally the HTTP server that drives it all.
func NewApplication(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	postgresDB, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	rabbitMQ, err := pkgrabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		postgresDB.Pool.Close()
		return nil, fmt.Errorf("failed to setup rabbitmq: %w", err)
	}

	sessionRepo := repo.NewSessionRepo(postgresDB.Pool)
	eventBroker := rabbit.NewEventBroker(rabbitMQ, log)

	connHub := ws.NewConnHub(log)
	streamHub := navws.NewHub(connHub, log)

	routeProvider := valhalla.NewProvider(cfg.Route.BaseURL, cfg.Route.Costing)

	txManager := trm.New(postgresDB.Pool)

	sessionService := navsession.NewService(sessionRepo, eventBroker, streamHub, routeProvider, txManager, log)
	sessionService.SetRerouteCooldown(cfg.Session.RerouteCooldown)

	httpServer, err := server.New(cfg, sessionService, streamHub, log)
	if err != nil {
		postgresDB.Pool.Close()
		return nil, fmt.Errorf("failed to setup http server: %w", err)
	}

	return &App{
		postgresDB: postgresDB,
		rabbitMQ:   rabbitMQ,
		httpServer: httpServer,
		cfg:        cfg,
		log:        log,
	}, nil
}

// Run starts the HTTP server and blocks until either it fails or the
// process receives SIGINT/SIGTERM, then tears down every adapter.
func (a *App) Run(ctx context.Context) error {
	if a.httpServer == nil {
		return ErrServiceNotInitialized
	}

	errCh := make(chan error, 1)
	a.httpServer.Run(ctx, errCh)
	defer a.close(ctx)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	a.log.Info(ctx, "navigator service started")

	select {
	case err := <-errCh:
		return err
	case sig := <-shutdownCh:
		a.log.Info(ctx, "shutting down navigator service", "signal", sig.String())
		return nil
	}
}

func (a *App) close(ctx context.Context) {
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Warn(ctx, "failed to gracefully close http server", "error", err.Error())
		}
	}

	if a.rabbitMQ != nil {
		if err := a.rabbitMQ.Close(ctx); err != nil {
			a.log.Warn(ctx, "failed to gracefully close rabbitmq", "error", err.Error())
		}
	}

	if a.postgresDB != nil && a.postgresDB.Pool != nil {
		a.postgresDB.Pool.Close()
	}

	a.log.Info(ctx, "navigator service closed")
}
