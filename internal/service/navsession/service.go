package navsession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wayfarer-go/navigator/internal/domain/models"
	"github.com/wayfarer-go/navigator/internal/domain/types"
	"github.com/wayfarer-go/navigator/internal/nav"
	"github.com/wayfarer-go/navigator/pkg/logger"
	wrap "github.com/wayfarer-go/navigator/pkg/logger/wrapper"
	"github.com/wayfarer-go/navigator/pkg/metrics"
	"github.com/wayfarer-go/navigator/pkg/trm"
	"github.com/wayfarer-go/navigator/pkg/uuid"
)

// DefaultRerouteCooldown is the minimum interval between two reroute
// requests for the same session.
const DefaultRerouteCooldown = 5 * time.Second

const metricsService = "navigator"

// Service composes a pure nav.Controller per session with persistence,
// event publishing, and live state push. It never holds route-following
// logic itself; every controller tick is delegated to nav.
type Service struct {
	repo      Repository
	publisher Publisher
	hub       Hub
	route     RouteProvider
	trm       trm.TxManager
	logger    logger.Logger

	rerouteCooldown time.Duration

	mu          sync.Mutex
	sessionLock map[uuid.UUID]*sync.Mutex
}

func NewService(repo Repository, publisher Publisher, hub Hub, route RouteProvider, txm trm.TxManager, log logger.Logger) *Service {
	return &Service{
		repo:            repo,
		publisher:       publisher,
		hub:             hub,
		route:           route,
		trm:             txm,
		logger:          log,
		rerouteCooldown: DefaultRerouteCooldown,
		sessionLock:     make(map[uuid.UUID]*sync.Mutex),
	}
}

// SetRerouteCooldown overrides DefaultRerouteCooldown. Intended to be
// called once during wiring, before the service is driven concurrently.
func (s *Service) SetRerouteCooldown(d time.Duration) {
	if d > 0 {
		s.rerouteCooldown = d
	}
}

// lockFor returns the per-session mutex, creating it on first use. Mirrors
// ConnectionHub's "one mutex behind a map" pattern, keyed by session
// instead of connection.
func (s *Service) lockFor(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.sessionLock[id]
	if !ok {
		lock = &sync.Mutex{}
		s.sessionLock[id] = lock
	}
	return lock
}

// StartSession builds a controller for route/cfg, derives the initial
// TripState from first, and persists both inside one transaction.
func (s *Service) StartSession(ctx context.Context, route models.Route, cfg nav.Config, first models.UserLocation) (*Session, error) {
	ctx = wrap.WithAction(ctx, "start_session")

	ctrl, err := nav.New(route, cfg)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("constructing controller: %w", err))
	}

	state, err := ctrl.InitialState(first)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("deriving initial state: %w", err))
	}

	id, err := uuid.New()
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("generating session id: %w", err))
	}

	sess := &Session{
		ID:        id,
		Route:     route,
		Config:    cfg,
		CreatedAt: time.Now(),
		LastState: state,
	}

	err = s.trm.Do(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, sess)
	})
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: persisting session: %w", types.ErrDatabaseFailed, err))
	}

	metrics.SessionsStartedTotal.WithLabelValues(metricsService).Inc()
	metrics.ActiveSessionsGauge.WithLabelValues(metricsService).Inc()

	return sess, nil
}

// ReportLocation is the per-tick entry point: load, advance the pure
// controller, persist, publish deviation/completion transitions, and push
// the new state to live subscribers.
func (s *Service) ReportLocation(ctx context.Context, sessionID uuid.UUID, loc models.UserLocation) (models.TripState, error) {
	ctx = wrap.WithAction(wrap.WithSessionID(ctx, sessionID.String()), "report_location")

	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return models.TripState{}, wrap.Error(ctx, fmt.Errorf("%w: %w", types.ErrSessionNotFound, err))
	}

	ctrl, err := nav.New(sess.Route, sess.Config)
	if err != nil {
		return models.TripState{}, wrap.Error(ctx, err)
	}

	previous := sess.LastState
	next := ctrl.UpdateUserLocation(previous, loc)

	if err := s.repo.UpdateState(ctx, sessionID, next); err != nil {
		return models.TripState{}, wrap.Error(ctx, fmt.Errorf("persisting state: %w", err))
	}

	metrics.ControllerTicksTotal.WithLabelValues(metricsService).Inc()

	s.publishTransitions(ctx, sessionID, previous, next)
	alreadyEmitted := s.emitInstructions(ctx, sessionID, next)

	s.hub.Push(sessionID, withoutRepeatedInstruction(next, alreadyEmitted))

	return next, nil
}

// GetState returns the last persisted TripState for a session without
// advancing it.
func (s *Service) GetState(ctx context.Context, sessionID uuid.UUID) (models.TripState, error) {
	ctx = wrap.WithAction(wrap.WithSessionID(ctx, sessionID.String()), "get_session_state")

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return models.TripState{}, wrap.Error(ctx, fmt.Errorf("%w: %w", types.ErrSessionNotFound, err))
	}
	return sess.LastState, nil
}

// AdvanceStep forces one step advance regardless of the configured
// step-advance policy.
func (s *Service) AdvanceStep(ctx context.Context, sessionID uuid.UUID) (models.TripState, error) {
	ctx = wrap.WithAction(wrap.WithSessionID(ctx, sessionID.String()), "advance_step")

	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return models.TripState{}, wrap.Error(ctx, fmt.Errorf("%w: %w", types.ErrSessionNotFound, err))
	}

	ctrl, err := nav.New(sess.Route, sess.Config)
	if err != nil {
		return models.TripState{}, wrap.Error(ctx, err)
	}

	previous := sess.LastState
	next := ctrl.AdvanceToNextStep(previous)

	if err := s.repo.UpdateState(ctx, sessionID, next); err != nil {
		return models.TripState{}, wrap.Error(ctx, fmt.Errorf("persisting state: %w", err))
	}

	s.publishTransitions(ctx, sessionID, previous, next)
	s.hub.Push(sessionID, next)

	return next, nil
}

// RequestReroute fetches a fresh route from the configured provider and
// replaces the session's route, subject to a minimum interval between
// requests.
func (s *Service) RequestReroute(ctx context.Context, sessionID uuid.UUID) (models.Route, error) {
	ctx = wrap.WithAction(wrap.WithSessionID(ctx, sessionID.String()), "request_reroute")

	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return models.Route{}, wrap.Error(ctx, fmt.Errorf("%w: %w", types.ErrSessionNotFound, err))
	}

	if !sess.LastRerouteAt.IsZero() && time.Since(sess.LastRerouteAt) < s.rerouteCooldown {
		return models.Route{}, wrap.Error(ctx, types.ErrRerouteCoolingDown)
	}

	loc := s.lastKnownLocation(sess.LastState)
	route, err := s.route.Route(ctx, loc, sess.Route.Waypoints)
	if err != nil {
		metrics.RecordReroute(metricsService, err)
		return models.Route{}, wrap.Error(ctx, fmt.Errorf("%w: %w", types.ErrRouteProviderFailed, err))
	}
	metrics.RecordReroute(metricsService, nil)

	ctrl, err := nav.New(route, sess.Config)
	if err != nil {
		return models.Route{}, wrap.Error(ctx, err)
	}

	state, err := ctrl.InitialState(loc)
	if err != nil {
		return models.Route{}, wrap.Error(ctx, err)
	}

	if err := s.trm.Do(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateRoute(ctx, sessionID, route, state); err != nil {
			return err
		}
		return s.repo.UpdateLastRerouteAt(ctx, sessionID)
	}); err != nil {
		return models.Route{}, wrap.Error(ctx, fmt.Errorf("persisting reroute: %w", err))
	}

	s.hub.Push(sessionID, state)

	return route, nil
}

func (s *Service) publishTransitions(ctx context.Context, sessionID uuid.UUID, previous, next models.TripState) {
	wasOffRoute := previous.Status == models.TripNavigating && previous.Navigating != nil && previous.Navigating.Deviation.IsOffRoute()
	nowOffRoute := next.Status == models.TripNavigating && next.Navigating != nil && next.Navigating.Deviation.IsOffRoute()

	if !wasOffRoute && nowOffRoute {
		metrics.DeviationEventsTotal.WithLabelValues(metricsService).Inc()

		ev := DeviationEvent{
			SessionID:  sessionID,
			DeviationM: next.Navigating.Deviation.DeviationM,
			AtLocation: next.Navigating.SnappedLocation,
			Timestamp:  time.Now(),
		}
		if err := s.publisher.PublishDeviation(ctx, ev); err != nil {
			s.logger.Warn(ctx, "failed to publish deviation event", "error", err.Error())
		}
	}

	if previous.Status != models.TripComplete && next.Status == models.TripComplete {
		metrics.CompletionEventsTotal.WithLabelValues(metricsService).Inc()
		metrics.ActiveSessionsGauge.WithLabelValues(metricsService).Dec()

		ev := CompletionEvent{SessionID: sessionID, Timestamp: time.Now()}
		if err := s.publisher.PublishCompletion(ctx, ev); err != nil {
			s.logger.Warn(ctx, "failed to publish completion event", "error", err.Error())
		}
	}
}

// emitInstructions records the current step's spoken instruction in the
// durable at-most-once ledger the first time it is seen, so a host replay
// or retry never speaks the same utterance twice. It reports whether the
// utterance was already present in the ledger, so the caller can suppress
// resending it to live subscribers.
func (s *Service) emitInstructions(ctx context.Context, sessionID uuid.UUID, state models.TripState) bool {
	if state.Status != models.TripNavigating || state.Navigating == nil || state.Navigating.SpokenInstruction == nil {
		return false
	}

	id := state.Navigating.SpokenInstruction.UtteranceID
	emitted, err := s.repo.HasEmitted(ctx, sessionID, id)
	if err != nil {
		s.logger.Warn(ctx, "failed to check utterance ledger", "error", err.Error())
		return false
	}
	if emitted {
		return true
	}
	if err := s.repo.MarkEmitted(ctx, sessionID, id); err != nil {
		s.logger.Warn(ctx, "failed to record emitted utterance", "error", err.Error())
	}
	return false
}

// withoutRepeatedInstruction strips the spoken instruction from state
// before it goes out to live subscribers when the ledger shows it was
// already emitted, so a reconnecting or lagging subscriber never hears the
// same utterance twice.
func withoutRepeatedInstruction(state models.TripState, alreadyEmitted bool) models.TripState {
	if !alreadyEmitted || state.Status != models.TripNavigating || state.Navigating == nil {
		return state
	}
	navigating := *state.Navigating
	navigating.SpokenInstruction = nil
	return models.Navigating(navigating)
}

func (s *Service) lastKnownLocation(state models.TripState) models.UserLocation {
	if state.Status == models.TripNavigating && state.Navigating != nil {
		return models.UserLocation{Coordinate: state.Navigating.SnappedLocation}
	}
	return models.UserLocation{}
}
