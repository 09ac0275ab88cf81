package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/aniverse/walletbridge/core"
)

// IdentitySource is the external wallet provider as seen by the session
// negotiator. Authentication happens out-of-band inside the provider; the
// negotiator only observes the resulting identity.
type IdentitySource interface {
	// Subscribe registers a callback for identity changes. The callback may
	// fire multiple times in quick succession; the returned function
	// unsubscribes it.
	Subscribe(fn func(core.Identity)) (unsubscribe func())

	// RequestLogin asks the provider to start its authentication flow.
	RequestLogin(ctx context.Context) error

	// RequestLogout tears down the provider-side session.
	RequestLogout(ctx context.Context) error

	// Balance returns the wallet's current FLOW balance.
	Balance(ctx context.Context, address string) (decimal.Decimal, error)
}

// CredentialVault is durable client-side storage for the current session
// token. At most one token is stored; establishing a new session overwrites
// the previous one.
type CredentialVault interface {
	// StoreToken persists the token under the vault's fixed key.
	StoreToken(token string) error

	// LoadToken returns the stored token, or core.ErrNoCredential when the
	// vault is empty.
	LoadToken() (string, error)

	// ClearToken removes the stored token. Clearing an empty vault is a
	// no-op.
	ClearToken() error
}
