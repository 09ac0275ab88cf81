package ports

import (
	"context"
	"time"

	"github.com/aniverse/walletbridge/core"
)

// PrincipalStore persists principals keyed by a unique wallet address.
type PrincipalStore interface {
	// Create inserts a new principal. core.ErrDuplicateWallet is returned
	// when another principal already holds the wallet address; callers fall
	// back to loading the existing record.
	Create(ctx context.Context, p *core.Principal) error

	GetByID(ctx context.Context, id string) (*core.Principal, error)
	GetByWallet(ctx context.Context, address string) (*core.Principal, error)

	UpdateProfile(ctx context.Context, id string, upd core.ProfileUpdate) (*core.Principal, error)
	UpdatePreferences(ctx context.Context, id string, prefs core.Preferences) (*core.Principal, error)
	SetWhitelisted(ctx context.Context, id string, whitelisted bool) (*core.Principal, error)

	// TouchLastActive refreshes the principal's last-active timestamp.
	TouchLastActive(ctx context.Context, id string, at time.Time) error

	List(ctx context.Context) ([]*core.Principal, error)

	Ping(ctx context.Context) error
}
