// Package pgstore keeps Session slots in PostgreSQL, for deployments that
// already run a database and want sessions to survive restarts without Redis.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/kedaara/performance-hub/internal/errors"
	"github.com/kedaara/performance-hub/internal/ports"
)

const (
	upsertSQL = `INSERT INTO sessions (id, data, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`
	loadSQL   = `SELECT data FROM sessions WHERE id = $1 AND expires_at > $2`
	deleteSQL = `DELETE FROM sessions WHERE id = $1`
	purgeSQL  = `DELETE FROM sessions WHERE expires_at <= $1`
)

// SessionStore is a database/sql backed ports.SessionStore. It expects the
// sessions table created by internal/migrate.
type SessionStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a Postgres session store.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

func (s *SessionStore) Save(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	if id == "" {
		return errors.New("session ID cannot be empty")
	}
	if ttl <= 0 {
		return errors.New("session ttl must be positive")
	}
	expiresAt := s.now().Add(ttl).UTC()
	if _, err := s.db.ExecContext(ctx, upsertSQL, id, data, expiresAt); err != nil {
		return fmt.Errorf("save session: %w", apperrors.MapDBError(err))
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, ports.ErrSessionNotFound
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, loadSQL, id, s.now().UTC()).Scan(&data)
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return nil, ports.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", mapped)
	}
	return data, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, deleteSQL, id); err != nil {
		return fmt.Errorf("delete session: %w", apperrors.MapDBError(err))
	}
	return nil
}

// PurgeExpired removes every slot whose expiry has passed and reports how many were removed.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, purgeSQL, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions rows affected: %w", err)
	}
	return n, nil
}

// Ping checks connectivity for readiness probes.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
