package core

import "errors"

var (
	ErrTokenExpired      = errors.New("token has expired")
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidAddress    = errors.New("invalid flow wallet address")
	ErrInvalidUsername   = errors.New("username must be between 3 and 30 characters")
	ErrBioTooLong        = errors.New("bio must be less than 500 characters")
	ErrInvalidTheme      = errors.New("theme must be either light or dark")
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrDuplicateWallet   = errors.New("wallet address already registered")
	ErrNoCredential      = errors.New("no stored credential")
)

// RejectKind classifies why the request gate refused a token. The set is
// closed: every caller must handle each kind.
type RejectKind int

const (
	// RejectMissing means no token was presented.
	RejectMissing RejectKind = iota

	// RejectInvalid means the token failed cryptographic verification.
	RejectInvalid

	// RejectExpired means the token verified but its expiry has passed.
	RejectExpired

	// RejectPrincipalGone means the token verified and is unexpired, but
	// the referenced principal no longer exists.
	RejectPrincipalGone

	// RejectForbidden means the principal authenticated but lacks the
	// privilege the gate requires.
	RejectForbidden
)

func (k RejectKind) String() string {
	switch k {
	case RejectMissing:
		return "missing"
	case RejectInvalid:
		return "invalid"
	case RejectExpired:
		return "expired"
	case RejectPrincipalGone:
		return "principal_gone"
	case RejectForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Code returns the machine-readable reason code sent over the wire.
// PrincipalGone maps to TOKEN_INVALID so a caller cannot distinguish a
// deleted principal from a forged token.
func (k RejectKind) Code() string {
	switch k {
	case RejectMissing:
		return "TOKEN_MISSING"
	case RejectInvalid, RejectPrincipalGone:
		return "TOKEN_INVALID"
	case RejectExpired:
		return "TOKEN_EXPIRED"
	case RejectForbidden:
		return "FORBIDDEN"
	default:
		return "TOKEN_INVALID"
	}
}

// Rejection is a typed gate refusal. It implements error so it can flow
// through ordinary error returns, but carries a closed kind that transports
// map to responses without guessing.
type Rejection struct {
	Kind RejectKind
	Err  error
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return "rejected (" + r.Kind.String() + "): " + r.Err.Error()
	}
	return "rejected (" + r.Kind.String() + ")"
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

// Reject builds a Rejection of the given kind.
func Reject(kind RejectKind, err error) *Rejection {
	return &Rejection{Kind: kind, Err: err}
}

// AsRejection extracts a Rejection from an error chain.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
