package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/medflow/pos-allocation/internal/allocation/domain"
	"github.com/medflow/pos-allocation/pkg/database"
)

// SessionRepository mirrors POS sessions announced on the event bus
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session cache repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindActiveSession returns the actor's open session with the lowest ID, or nil
func (r *SessionRepository) FindActiveSession(ctx context.Context, actorID int64) (*domain.Session, error) {
	query := `
		SELECT session_id, user_id, config_id, company_id, state, opened_at, closed_at
		FROM pos_session_cache
		WHERE user_id = $1 AND state = $2
		ORDER BY session_id
		LIMIT 1
	`

	var session domain.Session
	if err := r.db.GetContext(ctx, &session, query, actorID, domain.SessionOpened); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, database.LookupError("pos session", err)
	}

	return &session, nil
}

// Upsert records an opened session. A session already marked closed stays closed
// so that a late redelivery of the open event cannot revive it.
func (r *SessionRepository) Upsert(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO pos_session_cache (session_id, user_id, config_id, company_id, state, opened_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (session_id)
		DO UPDATE SET user_id = $2, config_id = $3, company_id = $4, opened_at = $6, updated_at = NOW()
		WHERE pos_session_cache.state <> 'closed'
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.ConfigID, s.CompanyID, domain.SessionOpened, s.OpenedAt,
	)
	return err
}

// Close marks a session closed. A session that was never cached is stored as a
// closed row so that an open event arriving late cannot activate it. It reports
// whether the session was cached before.
func (r *SessionRepository) Close(ctx context.Context, sessionID int64, closedAt time.Time) (bool, error) {
	query := `
		INSERT INTO pos_session_cache (session_id, state, closed_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (session_id)
		DO UPDATE SET state = $2, closed_at = $3, updated_at = NOW()
		RETURNING xmax = 0 AS inserted
	`

	var inserted bool
	if err := r.db.GetContext(ctx, &inserted, query, sessionID, domain.SessionClosed, closedAt); err != nil {
		return false, err
	}

	return !inserted, nil
}
