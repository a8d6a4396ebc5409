// Package navsession is the reference host service: it turns location
// reports into controller ticks, persists TripState snapshots, publishes
// deviation/completion events, and streams live state to WebSocket
// subscribers. None of this lives in the pure nav package; a host is free
// to wire the controller up differently.
package navsession

import (
	"time"

	"github.com/wayfarer-go/navigator/internal/domain/models"
	"github.com/wayfarer-go/navigator/internal/nav"
	"github.com/wayfarer-go/navigator/pkg/uuid"
)

// Session is the persisted row backing one active or finished trip.
type Session struct {
	ID        uuid.UUID
	Route     models.Route
	Config    nav.Config
	CreatedAt time.Time
	LastState models.TripState

	// LastRerouteAt guards the reroute cooldown; zero until the first
	// reroute request.
	LastRerouteAt time.Time
}

// DeviationEvent is published when a session's deviation transitions from
// NoDeviation to OffRoute.
type DeviationEvent struct {
	SessionID  uuid.UUID `json:"session_id"`
	DeviationM float64   `json:"deviation_m"`
	AtLocation models.GeographicCoordinate `json:"at_location"`
	Timestamp  time.Time `json:"timestamp"`
}

// CompletionEvent is published once a session's TripState transitions to
// Complete.
type CompletionEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// EmittedUtterance is a durable delivery record: once ReportLocation has
// pushed a spoken instruction's utterance_id to a session's subscribers,
// later ReportLocation pushes omit it, even across a host restart. The
// states pushed by AdvanceStep and RequestReroute are sent as they are,
// without consulting or updating this ledger.
type EmittedUtterance struct {
	SessionID   uuid.UUID
	UtteranceID uuid.UUID
	EmittedAt   time.Time
}
