package pgstore

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kedaara/performance-hub/internal/errors"
	"github.com/kedaara/performance-hub/internal/ports"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*SessionStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSessionStore(db).WithClock(func() time.Time { return fixedNow }), mock
}

func TestSessionStore_Save(t *testing.T) {
	store, mock := newMockStore(t)
	data := []byte(`{"identifier":"a@x.com","role":"Employee"}`)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WithArgs("sess-1", data, fixedNow.Add(8*time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), "sess-1", data, 8*time.Hour))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_SaveRejectsBadInput(t *testing.T) {
	store, mock := newMockStore(t)
	require.Error(t, store.Save(context.Background(), "", []byte("x"), time.Hour))
	require.Error(t, store.Save(context.Background(), "s", []byte("x"), -time.Second))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_Load(t *testing.T) {
	store, mock := newMockStore(t)
	data := []byte(`{"identifier":"a@x.com","role":"Mentor"}`)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM sessions")).
		WithArgs("sess-1", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(data))

	got, err := store.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, data, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_LoadMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM sessions")).
		WithArgs("gone", fixedNow).
		WillReturnError(sql.ErrNoRows)

	_, err := store.Load(context.Background(), "gone")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	_, err = store.Load(context.Background(), "")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_LoadDatabaseDown(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM sessions")).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.AdminShutdown})

	_, err := store.Load(context.Background(), "sess-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrSessionNotFound)
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestSessionStore_Delete(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs("sess-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Delete(context.Background(), "sess-1"))
	require.NoError(t, store.Delete(context.Background(), ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_PurgeExpired(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE expires_at <= $1")).
		WithArgs(fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
