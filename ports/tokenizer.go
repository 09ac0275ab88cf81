package ports

import "github.com/aniverse/walletbridge/core"

// Tokenizer converts between sessions and opaque signed tokens.
type Tokenizer interface {
	// SessionToToken signs the session into its wire form.
	SessionToToken(session *core.Session) (string, error)

	// TokenToSession verifies a token string and returns the session it
	// carries. core.ErrTokenExpired is returned for a well-formed but
	// expired token, core.ErrInvalidToken for everything else.
	TokenToSession(token string) (*core.Session, error)
}
