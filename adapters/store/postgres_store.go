package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/aniverse/walletbridge/core"
	"github.com/aniverse/walletbridge/ports"
)

// pqUniqueViolation is the Postgres error code raised when an insert loses
// the race on the wallet_address unique index.
const pqUniqueViolation = "23505"

// PostgresStore implements the PrincipalStore interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed principal store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ ports.PrincipalStore = (*PostgresStore)(nil)

// EnsureSchema creates the principals table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS principals (
			id             UUID PRIMARY KEY,
			wallet_address TEXT NOT NULL UNIQUE,
			username       TEXT NOT NULL,
			email          TEXT,
			profile_image  TEXT,
			bio            TEXT NOT NULL DEFAULT '',
			is_admin       BOOLEAN NOT NULL DEFAULT FALSE,
			is_whitelisted BOOLEAN NOT NULL DEFAULT FALSE,
			preferences    JSONB NOT NULL,
			last_active_at TIMESTAMPTZ NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

const principalColumns = `id, wallet_address, username, email, profile_image, bio,
		is_admin, is_whitelisted, preferences, last_active_at, created_at, updated_at`

// Create inserts a new principal. The wallet_address unique index decides
// the winner under concurrent first logins; the loser observes
// core.ErrDuplicateWallet and falls back to loading the existing record.
func (s *PostgresStore) Create(ctx context.Context, p *core.Principal) error {
	prefsJSON, err := json.Marshal(p.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO principals (`+principalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, p.ID, p.WalletAddress, p.Username, nullString(p.Email), nullString(p.ProfileImage), p.Bio,
		p.IsAdmin, p.IsWhitelisted, prefsJSON, p.LastActiveAt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return core.ErrDuplicateWallet
		}
		return fmt.Errorf("failed to insert principal: %w", err)
	}
	return nil
}

// GetByID retrieves a principal by its ID.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*core.Principal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+principalColumns+`
		FROM principals
		WHERE id = $1
	`, id)
	return scanPrincipal(row)
}

// GetByWallet retrieves a principal by its wallet address.
func (s *PostgresStore) GetByWallet(ctx context.Context, address string) (*core.Principal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+principalColumns+`
		FROM principals
		WHERE wallet_address = $1
	`, address)
	return scanPrincipal(row)
}

// UpdateProfile applies a partial profile edit. Nil fields keep their
// current value.
func (s *PostgresStore) UpdateProfile(ctx context.Context, id string, upd core.ProfileUpdate) (*core.Principal, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE principals
		SET username      = COALESCE($2, username),
		    email         = COALESCE($3, email),
		    bio           = COALESCE($4, bio),
		    profile_image = COALESCE($5, profile_image),
		    updated_at    = $6
		WHERE id = $1
		RETURNING `+principalColumns+`
	`, id, nullStringPtr(upd.Username), nullStringPtr(upd.Email), nullStringPtr(upd.Bio),
		nullStringPtr(upd.ProfileImage), time.Now().UTC())
	return scanPrincipal(row)
}

// UpdatePreferences replaces the principal's preferences.
func (s *PostgresStore) UpdatePreferences(ctx context.Context, id string, prefs core.Preferences) (*core.Principal, error) {
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preferences: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE principals
		SET preferences = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+principalColumns+`
	`, id, prefsJSON, time.Now().UTC())
	return scanPrincipal(row)
}

// SetWhitelisted updates the principal's whitelist flag.
func (s *PostgresStore) SetWhitelisted(ctx context.Context, id string, whitelisted bool) (*core.Principal, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE principals
		SET is_whitelisted = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+principalColumns+`
	`, id, whitelisted, time.Now().UTC())
	return scanPrincipal(row)
}

// TouchLastActive refreshes the principal's last-active timestamp.
func (s *PostgresStore) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE principals
		SET last_active_at = $2
		WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("failed to touch last active: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return core.ErrPrincipalNotFound
	}
	return nil
}

// List returns all principals, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]*core.Principal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+principalColumns+`
		FROM principals
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list principals: %w", err)
	}
	defer rows.Close()

	var result []*core.Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row scanner) (*core.Principal, error) {
	var (
		p            core.Principal
		email        sql.NullString
		profileImage sql.NullString
		prefsRaw     []byte
	)

	err := row.Scan(&p.ID, &p.WalletAddress, &p.Username, &email, &profileImage, &p.Bio,
		&p.IsAdmin, &p.IsWhitelisted, &prefsRaw, &p.LastActiveAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("failed to scan principal: %w", err)
	}

	p.Email = email.String
	p.ProfileImage = profileImage.String
	if len(prefsRaw) > 0 {
		if err := json.Unmarshal(prefsRaw, &p.Preferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
	}
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
