package handler

import (
	"context"
	"net/http"

	"github.com/wayfarer-go/navigator/internal/adapter/http/handler/dto"
	"github.com/wayfarer-go/navigator/internal/domain/models"
	"github.com/wayfarer-go/navigator/internal/nav"
	"github.com/wayfarer-go/navigator/internal/nav/deviation"
	"github.com/wayfarer-go/navigator/internal/nav/stepadvance"
	"github.com/wayfarer-go/navigator/internal/service/navsession"
	"github.com/wayfarer-go/navigator/pkg/logger"
	wrap "github.com/wayfarer-go/navigator/pkg/logger/wrapper"
	"github.com/wayfarer-go/navigator/pkg/uuid"
)

// SessionService is the subset of navsession.Service the HTTP layer drives.
type SessionService interface {
	StartSession(ctx context.Context, route models.Route, cfg nav.Config, first models.UserLocation) (*navsession.Session, error)
	ReportLocation(ctx context.Context, sessionID uuid.UUID, loc models.UserLocation) (models.TripState, error)
	AdvanceStep(ctx context.Context, sessionID uuid.UUID) (models.TripState, error)
	RequestReroute(ctx context.Context, sessionID uuid.UUID) (models.Route, error)
	GetState(ctx context.Context, sessionID uuid.UUID) (models.TripState, error)
}

// defaultNavConfig is used when a StartSessionRequest omits config: a
// modest relative-line-string advance policy paired with a static
// deviation threshold, tuned for pedestrian/vehicle GPS accuracy.
func defaultNavConfig() nav.Config {
	return nav.Config{
		StepAdvance:       stepadvance.RelativeLineStringDistanceConfig(30, 10),
		DeviationTracking: deviation.StaticThresholdConfig(30, 25),
	}
}

type Session struct {
	service SessionService
	log     logger.Logger
}

func NewSession(service SessionService, log logger.Logger) *Session {
	return &Session{service: service, log: log}
}

// Start godoc
// @Summary      Start a navigation session
// @Description  Constructs a controller from a route and config, derives the initial trip state from the first location fix, and persists the session.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Success      201  {object}  dto.StartSessionResponse
// @Router       /v1/sessions [post]
func (h *Session) Start(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "start_session")

	var req dto.StartSessionRequest
	if err := readJSON(w, r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	cfg := defaultNavConfig()
	if req.Config != nil {
		cfg = *req.Config
	}

	sess, err := h.service.StartSession(ctx, req.Route, cfg, req.FirstLocation)
	if err != nil {
		h.log.Error(wrap.ErrorCtx(ctx, err), "failed to start session", err)
		errorResponse(w, statusFor(err), err.Error())
		return
	}

	resp := dto.StartSessionResponse{
		SessionID: sess.ID.String(),
		State:     sess.LastState,
	}

	if err := writeJSON(w, http.StatusCreated, envelope{"session_id": resp.SessionID, "state": resp.State}, nil); err != nil {
		internalErrorResponse(w, err.Error())
		return
	}

	h.log.Info(ctx, "session started", "session_id", resp.SessionID)
}

// ReportLocation godoc
// @Summary      Report a location fix
// @Description  Feeds one UserLocation into the session's controller and returns the resulting TripState.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]models.TripState
// @Router       /v1/sessions/{id}/locations [post]
func (h *Session) ReportLocation(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "report_location")

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var req dto.ReportLocationRequest
	if err := readJSON(w, r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	state, err := h.service.ReportLocation(ctx, id, req.Location)
	if err != nil {
		h.log.Error(wrap.ErrorCtx(ctx, err), "failed to report location", err)
		errorResponse(w, statusFor(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"state": state}, nil); err != nil {
		internalErrorResponse(w, err.Error())
	}
}

// Advance godoc
// @Summary      Force a step advance
// @Description  Advances the session to its next step regardless of the configured step-advance policy.
// @Tags         Sessions
// @Produce      json
// @Success      200  {object}  map[string]models.TripState
// @Router       /v1/sessions/{id}/advance [post]
func (h *Session) Advance(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "advance_step")

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid session id")
		return
	}

	state, err := h.service.AdvanceStep(ctx, id)
	if err != nil {
		h.log.Error(wrap.ErrorCtx(ctx, err), "failed to advance step", err)
		errorResponse(w, statusFor(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"state": state}, nil); err != nil {
		internalErrorResponse(w, err.Error())
	}
}

// Reroute godoc
// @Summary      Request a recomputed route
// @Description  Fetches a fresh route from the configured provider, subject to a minimum interval between requests, and re-derives the trip state.
// @Tags         Sessions
// @Produce      json
// @Success      200  {object}  dto.RerouteResponse
// @Failure      429  {object}  map[string]string
// @Router       /v1/sessions/{id}/reroute [post]
func (h *Session) Reroute(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "request_reroute")

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid session id")
		return
	}

	route, err := h.service.RequestReroute(ctx, id)
	if err != nil {
		h.log.Error(wrap.ErrorCtx(ctx, err), "failed to reroute session", err)
		errorResponse(w, statusFor(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"route": route}, nil); err != nil {
		internalErrorResponse(w, err.Error())
	}
}

// Get godoc
// @Summary      Fetch the last persisted trip state
// @Tags         Sessions
// @Produce      json
// @Success      200  {object}  map[string]models.TripState
// @Router       /v1/sessions/{id} [get]
func (h *Session) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_session")

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid session id")
		return
	}

	state, err := h.service.GetState(ctx, id)
	if err != nil {
		h.log.Error(wrap.ErrorCtx(ctx, err), "failed to fetch session", err)
		errorResponse(w, statusFor(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"state": state}, nil); err != nil {
		internalErrorResponse(w, err.Error())
	}
}
