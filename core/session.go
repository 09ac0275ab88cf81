package core

import "time"

// Session is the verified content of a session token. It binds a principal
// to a client session for a fixed horizon.
type Session struct {
	ID            string    // Token identifier (JTI)
	PrincipalID   string    // Principal the token was issued to
	WalletAddress string    // Wallet address at issuance time
	IssuedAt      time.Time // When the token was issued
	ExpiresAt     time.Time // When the token stops verifying
}

// Expired reports whether the session's horizon has passed at the given
// instant.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Identity is the wallet provider's view of the current user. It is
// ephemeral and valid only for the duration of the provider session.
type Identity struct {
	Address  string
	LoggedIn bool
}
