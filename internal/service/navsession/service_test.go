package navsession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wayfarer-go/navigator/internal/domain/models"
	"github.com/wayfarer-go/navigator/internal/domain/types"
	"github.com/wayfarer-go/navigator/internal/nav"
	"github.com/wayfarer-go/navigator/internal/nav/deviation"
	"github.com/wayfarer-go/navigator/internal/nav/stepadvance"
	"github.com/wayfarer-go/navigator/pkg/logger"
	"github.com/wayfarer-go/navigator/pkg/uuid"
)

type fakeRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	emitted  map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sessions: make(map[uuid.UUID]*Session),
		emitted:  make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (r *fakeRepo) Create(ctx context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeRepo) UpdateState(ctx context.Context, id uuid.UUID, state models.TripState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return types.ErrNotFound
	}
	s.LastState = state
	return nil
}

func (r *fakeRepo) UpdateRoute(ctx context.Context, id uuid.UUID, route models.Route, state models.TripState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return types.ErrNotFound
	}
	s.Route = route
	s.LastState = state
	return nil
}

func (r *fakeRepo) UpdateLastRerouteAt(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return types.ErrNotFound
	}
	s.LastRerouteAt = time.Now() // the cooldown check measures time.Since this instant
	return nil
}

func (r *fakeRepo) HasEmitted(ctx context.Context, sessionID, utteranceID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emitted[sessionID][utteranceID], nil
}

func (r *fakeRepo) MarkEmitted(ctx context.Context, sessionID, utteranceID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emitted[sessionID] == nil {
		r.emitted[sessionID] = make(map[uuid.UUID]bool)
	}
	r.emitted[sessionID][utteranceID] = true
	return nil
}

type fakePublisher struct {
	mu          sync.Mutex
	deviations  []DeviationEvent
	completions []CompletionEvent
}

func (p *fakePublisher) PublishDeviation(ctx context.Context, ev DeviationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deviations = append(p.deviations, ev)
	return nil
}

func (p *fakePublisher) PublishCompletion(ctx context.Context, ev CompletionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completions = append(p.completions, ev)
	return nil
}

type fakeHub struct {
	mu     sync.Mutex
	pushed []models.TripState
}

func (h *fakeHub) Push(sessionID uuid.UUID, state models.TripState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pushed = append(h.pushed, state)
}

type fakeRouteProvider struct {
	route models.Route
	err   error
}

func (p *fakeRouteProvider) Route(ctx context.Context, loc models.UserLocation, waypoints []models.Waypoint) (models.Route, error) {
	return p.route, p.err
}

func noopLogger() logger.Logger {
	return logger.InitLogger("navigator-test", logger.LevelError)
}

func coord(lat, lng float64) models.GeographicCoordinate {
	return models.GeographicCoordinate{Lat: lat, Lng: lng}
}

// shortRoute is a single step long enough that one fix near its start
// does not complete the trip but a fix at its end does.
func shortRoute() models.Route {
	geom := []models.GeographicCoordinate{coord(0, 0), coord(0, 0.001)}
	return models.Route{
		Geometry:  geom,
		BBox:      models.BoundingBox{SouthWest: coord(0, 0), NorthEast: coord(0, 0.001)},
		DistanceM: 111,
		Waypoints: []models.Waypoint{
			{Coordinate: coord(0, 0), Kind: models.WaypointBreak},
			{Coordinate: coord(0, 0.001), Kind: models.WaypointBreak},
		},
		Steps: []models.RouteStep{
			{Geometry: geom, DistanceM: 111, Instruction: "head east"},
		},
	}
}

func manualConfig() nav.Config {
	return nav.Config{
		StepAdvance:       stepadvance.ManualConfig(),
		DeviationTracking: deviation.StaticThresholdConfig(10, 25),
	}
}

// autoAdvanceConfig advances off a step once the remaining distance on it
// drops to 1 m or less, so arriving at a route's final coordinate completes it
// without a forced AdvanceStep call.
func autoAdvanceConfig() nav.Config {
	return nav.Config{
		StepAdvance:       stepadvance.DistanceToEndOfStepConfig(1, 50),
		DeviationTracking: deviation.StaticThresholdConfig(10, 25),
	}
}

// fakeTxManager runs fn directly: the fakeRepo above has no real
// transactional semantics to span, so there is nothing to commit or
// roll back.
type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(repo Repository, pub Publisher, hub Hub, route RouteProvider) *Service {
	return NewService(repo, pub, hub, route, fakeTxManager{}, noopLogger())
}

func TestStartSession_PersistsNavigatingSession(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakePublisher{}, &fakeHub{}, &fakeRouteProvider{})

	first := models.UserLocation{Coordinate: coord(0, 0), HorizontalAccuracyM: 5}
	sess, err := svc.StartSession(context.Background(), shortRoute(), manualConfig(), first)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if sess.LastState.Status != models.TripNavigating {
		t.Fatalf("expected a navigating state, got %+v", sess.LastState)
	}

	stored, err := repo.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.ID != sess.ID {
		t.Fatalf("session was not persisted under its own ID")
	}
}

func TestReportLocation_CompletionPublishesEventAndPushesState(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	hub := &fakeHub{}
	svc := newTestService(repo, pub, hub, &fakeRouteProvider{})

	first := models.UserLocation{Coordinate: coord(0, 0), HorizontalAccuracyM: 5}
	sess, err := svc.StartSession(context.Background(), shortRoute(), autoAdvanceConfig(), first)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	// Arriving at the route's only step's end coordinate, with a
	// DistanceToEndOfStep policy, advances off the last step and
	// completes the trip within the same tick.
	final := models.UserLocation{Coordinate: coord(0, 0.001), HorizontalAccuracyM: 5}
	state, err := svc.ReportLocation(context.Background(), sess.ID, final)
	if err != nil {
		t.Fatalf("ReportLocation: %v", err)
	}

	if len(pub.completions) != 1 {
		t.Fatalf("expected exactly one completion event, got %d", len(pub.completions))
	}
	if len(hub.pushed) != 1 {
		t.Fatalf("expected exactly one push to the hub, got %d", len(hub.pushed))
	}
	if hub.pushed[0].Status != state.Status {
		t.Fatalf("pushed state %+v does not match returned state %+v", hub.pushed[0], state)
	}
}

func TestReportLocation_UnknownSessionReturnsNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakePublisher{}, &fakeHub{}, &fakeRouteProvider{})

	missing, err := uuid.New()
	if err != nil {
		t.Fatalf("uuid.New: %v", err)
	}

	_, err = svc.ReportLocation(context.Background(), missing, models.UserLocation{})
	if err == nil {
		t.Fatal("expected an error for an unknown session")
	}
	if !errors.Is(err, types.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRequestReroute_CooldownRejectsSecondImmediateCall(t *testing.T) {
	repo := newFakeRepo()
	newRoute := shortRoute()
	svc := newTestService(repo, &fakePublisher{}, &fakeHub{}, &fakeRouteProvider{route: newRoute})

	first := models.UserLocation{Coordinate: coord(0, 0), HorizontalAccuracyM: 5}
	sess, err := svc.StartSession(context.Background(), shortRoute(), manualConfig(), first)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	if _, err := svc.RequestReroute(context.Background(), sess.ID); err != nil {
		t.Fatalf("first reroute: %v", err)
	}

	_, err = svc.RequestReroute(context.Background(), sess.ID)
	if err == nil {
		t.Fatal("expected the second immediate reroute to be rejected by the cooldown")
	}
}

func TestAdvanceStep_PushesUpdatedState(t *testing.T) {
	repo := newFakeRepo()
	hub := &fakeHub{}
	svc := newTestService(repo, &fakePublisher{}, hub, &fakeRouteProvider{})

	route := models.Route{
		Geometry: []models.GeographicCoordinate{coord(0, 0), coord(0, 0.001), coord(0, 0.002)},
		BBox:     models.BoundingBox{SouthWest: coord(0, 0), NorthEast: coord(0, 0.002)},
		Waypoints: []models.Waypoint{
			{Coordinate: coord(0, 0), Kind: models.WaypointBreak},
			{Coordinate: coord(0, 0.002), Kind: models.WaypointBreak},
		},
		Steps: []models.RouteStep{
			{Geometry: []models.GeographicCoordinate{coord(0, 0), coord(0, 0.001)}, DistanceM: 111},
			{Geometry: []models.GeographicCoordinate{coord(0, 0.001), coord(0, 0.002)}, DistanceM: 111},
		},
	}

	first := models.UserLocation{Coordinate: coord(0, 0), HorizontalAccuracyM: 5}
	sess, err := svc.StartSession(context.Background(), route, manualConfig(), first)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	state, err := svc.AdvanceStep(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("AdvanceStep: %v", err)
	}
	if state.Status != models.TripNavigating || len(state.Navigating.RemainingSteps) != 1 {
		t.Fatalf("expected one remaining step after advancing, got %+v", state)
	}
	if len(hub.pushed) != 1 {
		t.Fatalf("expected AdvanceStep to push once, got %d", len(hub.pushed))
	}
}
