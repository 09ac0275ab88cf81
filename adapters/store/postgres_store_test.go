package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniverse/walletbridge/core"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func principalRows(t *testing.T, p *core.Principal) *sqlmock.Rows {
	t.Helper()
	prefsJSON, err := json.Marshal(p.Preferences)
	require.NoError(t, err)

	return sqlmock.NewRows([]string{
		"id", "wallet_address", "username", "email", "profile_image", "bio",
		"is_admin", "is_whitelisted", "preferences", "last_active_at", "created_at", "updated_at",
	}).AddRow(p.ID, p.WalletAddress, p.Username, nil, nil, p.Bio,
		p.IsAdmin, p.IsWhitelisted, prefsJSON, p.LastActiveAt, p.CreatedAt, p.UpdatedAt)
}

func TestPostgresCreateMapsUniqueViolation(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO principals").
		WillReturnError(&pq.Error{Code: "23505"})

	err := s.Create(context.Background(), newTestPrincipal("id-1", "0x1234567890abcdef"))
	assert.ErrorIs(t, err, core.ErrDuplicateWallet)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateInsertsRow(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO principals").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Create(context.Background(), newTestPrincipal("id-1", "0x1234567890abcdef"))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByWallet(t *testing.T) {
	s, mock := newMockStore(t)
	want := newTestPrincipal("id-1", "0x1234567890abcdef")

	mock.ExpectQuery("SELECT (.+) FROM principals").
		WithArgs("0x1234567890abcdef").
		WillReturnRows(principalRows(t, want))

	got, err := s.GetByWallet(context.Background(), "0x1234567890abcdef")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Preferences, got.Preferences)
}

func TestPostgresGetByIDNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM principals").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrPrincipalNotFound)
}

func TestPostgresTouchLastActiveMissingPrincipal(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE principals").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.TouchLastActive(context.Background(), "missing", time.Now())
	assert.ErrorIs(t, err, core.ErrPrincipalNotFound)
}

func TestPostgresPingPropagates(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	s := NewPostgresStore(db)

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, s.Ping(context.Background()))
}
