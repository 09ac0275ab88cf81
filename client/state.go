package client

import "github.com/aniverse/walletbridge/core"

// State is the negotiator's position in the session lifecycle.
type State int

const (
	// StateDisconnected holds no token and no cached principal.
	StateDisconnected State = iota

	// StateConnecting has exactly one exchange attempt in flight.
	StateConnecting

	// StateConnected holds a persisted token and a cached principal.
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Snapshot is the negotiator's externally visible state. Seq identifies the
// current session epoch: every transition that invalidates in-flight work
// bumps it, and completions carrying a stale Seq are discarded. This is
// what keeps a slow early exchange from overwriting a later, faster one.
type Snapshot struct {
	State         State
	Seq           uint64
	WalletAddress string
	Principal     *core.Principal
	Token         string
}

// Event is a state-machine input. The set is closed.
type Event interface{ isEvent() }

// IdentityChanged reports a change in the wallet provider's current user.
type IdentityChanged struct {
	Identity core.Identity
}

// ConnectRequested is an explicit user request to connect.
type ConnectRequested struct{}

// DisconnectRequested is an explicit user request to log out.
type DisconnectRequested struct{}

// TokenRestored carries a token recovered from durable storage at startup.
type TokenRestored struct {
	Token string
}

// ProviderLoginFailed reports that the identity provider's login flow
// could not complete (dismissed popup, provider unreachable), tagged with
// the epoch the attempt belongs to.
type ProviderLoginFailed struct {
	Seq uint64
	Err error
}

// ExchangeCompleted reports the outcome of the exchange attempt tagged Seq.
type ExchangeCompleted struct {
	Seq       uint64
	Principal *core.Principal
	Token     string
	Err       error
}

// PrincipalRefreshed reports the outcome of a principal fetch for a
// restored session, tagged with the epoch it belongs to.
type PrincipalRefreshed struct {
	Seq       uint64
	Principal *core.Principal
	Err       error
}

// GateRejected reports that the server-side request gate refused the
// current token.
type GateRejected struct {
	Kind core.RejectKind
}

func (IdentityChanged) isEvent()     {}
func (ConnectRequested) isEvent()    {}
func (DisconnectRequested) isEvent() {}
func (TokenRestored) isEvent()       {}
func (ProviderLoginFailed) isEvent() {}
func (ExchangeCompleted) isEvent()   {}
func (PrincipalRefreshed) isEvent()  {}
func (GateRejected) isEvent()        {}

// Effect is a side effect the negotiator must execute after a transition.
type Effect int

const (
	// EffectProviderLogin starts the identity provider's login flow.
	EffectProviderLogin Effect = iota

	// EffectProviderLogout tears down the provider-side session. Issued as
	// a compensating action when the exchange fails, so the provider is
	// never left logged in while the application has no session.
	EffectProviderLogout

	// EffectStartExchange begins an exchange for the snapshot's wallet
	// address, tagged with the snapshot's Seq.
	EffectStartExchange

	// EffectPersistToken mirrors the token into durable storage and scopes
	// the cache to the new principal.
	EffectPersistToken

	// EffectClearSession drops the stored token and all principal-scoped
	// cached data.
	EffectClearSession

	// EffectRefreshPrincipal fetches the principal for a restored token.
	EffectRefreshPrincipal

	// EffectNotifyConnectFailed surfaces a transient, retryable failure.
	EffectNotifyConnectFailed

	// EffectNotifySessionExpired surfaces the "session expired, please
	// reconnect" state, distinct from a failed data fetch.
	EffectNotifySessionExpired
)

// Reduce is the pure transition function: (state, event) -> (state,
// effects). It performs no I/O, which is what makes the lifecycle testable
// without a live provider.
func Reduce(s Snapshot, ev Event) (Snapshot, []Effect) {
	switch ev := ev.(type) {

	case TokenRestored:
		if s.State != StateDisconnected {
			return s, nil
		}
		s.State = StateConnected
		s.Seq++
		s.Token = ev.Token
		return s, []Effect{EffectRefreshPrincipal}

	case ConnectRequested:
		// Idempotent while an attempt is already under way.
		if s.State != StateDisconnected {
			return s, nil
		}
		s.State = StateConnecting
		return s, []Effect{EffectProviderLogin}

	case DisconnectRequested:
		s = disconnected(s)
		return s, []Effect{EffectClearSession, EffectProviderLogout}

	case IdentityChanged:
		if ev.Identity.LoggedIn && ev.Identity.Address != "" {
			s.State = StateConnecting
			s.Seq++
			s.WalletAddress = ev.Identity.Address
			return s, []Effect{EffectStartExchange}
		}
		// Provider reports logged out.
		if s.State == StateDisconnected {
			return s, nil
		}
		s = disconnected(s)
		return s, []Effect{EffectClearSession}

	case ProviderLoginFailed:
		if ev.Seq != s.Seq || s.State != StateConnecting {
			// A successful login already moved the machine on; the stale
			// failure is irrelevant.
			return s, nil
		}
		s = disconnected(s)
		return s, []Effect{EffectNotifyConnectFailed}

	case ExchangeCompleted:
		if ev.Seq != s.Seq || s.State != StateConnecting {
			// Superseded by a later event; discard the late resolution.
			return s, nil
		}
		if ev.Err != nil {
			s = disconnected(s)
			return s, []Effect{EffectClearSession, EffectProviderLogout, EffectNotifyConnectFailed}
		}
		s.State = StateConnected
		s.Principal = ev.Principal
		s.Token = ev.Token
		return s, []Effect{EffectPersistToken}

	case PrincipalRefreshed:
		if ev.Seq != s.Seq || s.State != StateConnected {
			return s, nil
		}
		if ev.Err != nil {
			s = disconnected(s)
			return s, []Effect{EffectClearSession}
		}
		s.Principal = ev.Principal
		s.WalletAddress = ev.Principal.WalletAddress
		return s, []Effect{EffectPersistToken}

	case GateRejected:
		switch ev.Kind {
		case core.RejectForbidden:
			// Insufficient privilege is not a session failure.
			return s, nil
		case core.RejectExpired:
			// Re-exchange rather than presenting a hard error, as long as
			// the provider identity is still known.
			if s.WalletAddress != "" {
				s.State = StateConnecting
				s.Seq++
				s.Principal = nil
				s.Token = ""
				return s, []Effect{EffectClearSession, EffectStartExchange}
			}
			s = disconnected(s)
			return s, []Effect{EffectClearSession, EffectNotifySessionExpired}
		default:
			s = disconnected(s)
			return s, []Effect{EffectClearSession, EffectNotifySessionExpired}
		}
	}

	return s, nil
}

func disconnected(s Snapshot) Snapshot {
	s.State = StateDisconnected
	s.Seq++
	s.WalletAddress = ""
	s.Principal = nil
	s.Token = ""
	return s
}
