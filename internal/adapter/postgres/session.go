package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wayfarer-go/navigator/internal/domain/models"
	"github.com/wayfarer-go/navigator/internal/domain/types"
	"github.com/wayfarer-go/navigator/internal/service/navsession"
	wrap "github.com/wayfarer-go/navigator/pkg/logger/wrapper"
	"github.com/wayfarer-go/navigator/pkg/uuid"
)

// SessionRepo persists navsession.Session rows: route, policy config, and
// the latest TripState snapshot are stored as jsonb so the schema doesn't
// have to mirror the core's value types column by column.
type SessionRepo struct {
	db *pgxpool.Pool
}

func NewSessionRepo(db *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{db: db}
}

var _ navsession.Repository = (*SessionRepo)(nil)

func (r *SessionRepo) Create(ctx context.Context, s *navsession.Session) error {
	const op = "SessionRepo.Create"

	route, err := json.Marshal(s.Route)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: marshal route: %w", op, err))
	}
	cfg, err := json.Marshal(s.Config)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: marshal config: %w", op, err))
	}
	state, err := json.Marshal(s.LastState)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: marshal state: %w", op, err))
	}

	query := `
		INSERT INTO nav_sessions(id, route, config, last_state, created_at)
		VALUES($1, $2, $3, $4, $5);`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query, s.ID, route, cfg, state, s.CreatedAt); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id uuid.UUID) (*navsession.Session, error) {
	const op = "SessionRepo.Get"

	query := `
		SELECT id, route, config, last_state, created_at, last_reroute_at
		FROM nav_sessions
		WHERE id = $1;`

	var (
		sess          navsession.Session
		route, cfg, st []byte
		lastRerouteAt sql.NullTime
	)

	row := TxorDB(ctx, r.db).QueryRow(ctx, query, id)
	if err := row.Scan(&sess.ID, &route, &cfg, &st, &sess.CreatedAt, &lastRerouteAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, types.ErrSessionNotFound
		}
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	if lastRerouteAt.Valid {
		sess.LastRerouteAt = lastRerouteAt.Time
	}

	if err := json.Unmarshal(route, &sess.Route); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: unmarshal route: %w", op, err))
	}
	if err := json.Unmarshal(cfg, &sess.Config); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: unmarshal config: %w", op, err))
	}
	if err := json.Unmarshal(st, &sess.LastState); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: unmarshal state: %w", op, err))
	}

	return &sess, nil
}

func (r *SessionRepo) UpdateState(ctx context.Context, id uuid.UUID, state models.TripState) error {
	const op = "SessionRepo.UpdateState"

	body, err := json.Marshal(state)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: marshal state: %w", op, err))
	}

	query := `UPDATE nav_sessions SET last_state = $2 WHERE id = $1;`
	if _, err := TxorDB(ctx, r.db).Exec(ctx, query, id, body); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return nil
}

func (r *SessionRepo) UpdateRoute(ctx context.Context, id uuid.UUID, route models.Route, state models.TripState) error {
	const op = "SessionRepo.UpdateRoute"

	routeBody, err := json.Marshal(route)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: marshal route: %w", op, err))
	}
	stateBody, err := json.Marshal(state)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: marshal state: %w", op, err))
	}

	query := `UPDATE nav_sessions SET route = $2, last_state = $3 WHERE id = $1;`
	if _, err := TxorDB(ctx, r.db).Exec(ctx, query, id, routeBody, stateBody); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return nil
}

func (r *SessionRepo) UpdateLastRerouteAt(ctx context.Context, id uuid.UUID) error {
	const op = "SessionRepo.UpdateLastRerouteAt"

	query := `UPDATE nav_sessions SET last_reroute_at = now() WHERE id = $1;`
	if _, err := TxorDB(ctx, r.db).Exec(ctx, query, id); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return nil
}

func (r *SessionRepo) HasEmitted(ctx context.Context, sessionID, utteranceID uuid.UUID) (bool, error) {
	const op = "SessionRepo.HasEmitted"

	query := `SELECT EXISTS(SELECT 1 FROM nav_emitted_utterances WHERE session_id = $1 AND utterance_id = $2);`

	var exists bool
	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, sessionID, utteranceID).Scan(&exists); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return false, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return exists, nil
}

func (r *SessionRepo) MarkEmitted(ctx context.Context, sessionID, utteranceID uuid.UUID) error {
	const op = "SessionRepo.MarkEmitted"

	query := `
		INSERT INTO nav_emitted_utterances(session_id, utterance_id, emitted_at)
		VALUES($1, $2, now())
		ON CONFLICT (session_id, utterance_id) DO NOTHING;`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query, sessionID, utteranceID); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return nil
}
