package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/aniverse/walletbridge/core"
	"github.com/aniverse/walletbridge/ports"
)

// Notice is a user-facing session event the embedding UI should surface.
type Notice int

const (
	// NoticeConnectFailed is a transient failure; a retry prompt is
	// appropriate.
	NoticeConnectFailed Notice = iota

	// NoticeSessionExpired means the session was force-closed; the user
	// should be asked to reconnect. Distinct from a failed data fetch.
	NoticeSessionExpired
)

// Options configure a Negotiator.
type Options struct {
	// SuggestedUsername derives the display name suggested at exchange
	// time. Nil leaves the choice to the backend.
	SuggestedUsername func(address string) string

	// OnNotice receives user-facing session events. Nil discards them.
	OnNotice func(Notice)

	// ExchangeTimeout bounds each exchange attempt. Zero means
	// DefaultExchangeTimeout.
	ExchangeTimeout time.Duration

	Logger logrus.FieldLogger
}

// Negotiator keeps exactly one derived application session consistent with
// the external identity source. Identity events, exchange completions and
// gate rejections all funnel through a single event loop, so they are
// processed strictly in arrival order; completions are tagged with the
// epoch they belong to and discarded when stale.
type Negotiator struct {
	identity  ports.IdentitySource
	exchanger Exchanger
	vault     ports.CredentialVault
	cache     *SessionCache
	log       logrus.FieldLogger

	suggested func(string) string
	onNotice  func(Notice)
	timeout   time.Duration

	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	mu          sync.RWMutex
	snap        Snapshot
	unsubscribe func()
}

// NewNegotiator creates a negotiator. Start must be called before use.
func NewNegotiator(
	identity ports.IdentitySource,
	exchanger Exchanger,
	credentials ports.CredentialVault,
	opts Options,
) *Negotiator {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	timeout := opts.ExchangeTimeout
	if timeout <= 0 {
		timeout = DefaultExchangeTimeout
	}

	return &Negotiator{
		identity:  identity,
		exchanger: exchanger,
		vault:     credentials,
		cache:     NewSessionCache(),
		log:       log,
		suggested: opts.SuggestedUsername,
		onNotice:  opts.OnNotice,
		timeout:   timeout,
		events:    make(chan Event, 32),
		done:      make(chan struct{}),
	}
}

// Start restores any persisted session, subscribes to the identity source
// and runs the event loop.
func (n *Negotiator) Start() {
	n.wg.Add(1)
	go n.run()

	if token, err := n.vault.LoadToken(); err == nil {
		n.dispatch(TokenRestored{Token: token})
	} else if !errors.Is(err, core.ErrNoCredential) {
		n.log.WithError(err).Warn("failed to restore session token")
	}

	n.unsubscribe = n.identity.Subscribe(func(identity core.Identity) {
		n.dispatch(IdentityChanged{Identity: identity})
	})
}

// Close stops the event loop. In-flight exchange completions are discarded.
func (n *Negotiator) Close() {
	n.once.Do(func() {
		if n.unsubscribe != nil {
			n.unsubscribe()
		}
		close(n.done)
	})
	n.wg.Wait()
}

// Connect asks the identity provider to begin its login flow. Idempotent
// while a connection attempt is already under way.
func (n *Negotiator) Connect() {
	n.dispatch(ConnectRequested{})
}

// Disconnect tears down both the application session and the provider
// session.
func (n *Negotiator) Disconnect() {
	n.dispatch(DisconnectRequested{})
}

// HandleGateRejection feeds a server-side gate refusal into the lifecycle.
// Bind it to the API client so a 401 mid-session becomes a forced logout.
func (n *Negotiator) HandleGateRejection(kind core.RejectKind) {
	n.dispatch(GateRejected{Kind: kind})
}

// Snapshot returns a copy of the current state.
func (n *Negotiator) Snapshot() Snapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.snap
}

// CurrentToken returns the session token, or empty when disconnected.
// Suitable as the API client's per-request credential lookup.
func (n *Negotiator) CurrentToken() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.snap.Token
}

// Principal returns the cached principal, or nil when disconnected.
func (n *Negotiator) Principal() *core.Principal {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.snap.Principal
}

// Cache exposes the principal-scoped session cache.
func (n *Negotiator) Cache() *SessionCache {
	return n.cache
}

// Balance returns the connected wallet's FLOW balance, served from the
// session cache when possible.
func (n *Negotiator) Balance(ctx context.Context) (decimal.Decimal, error) {
	if balance, ok := n.cache.Balance(); ok {
		return balance, nil
	}

	snap := n.Snapshot()
	if snap.State != StateConnected || snap.WalletAddress == "" {
		return decimal.Zero, core.ErrNoCredential
	}

	balance, err := n.identity.Balance(ctx, snap.WalletAddress)
	if err != nil {
		return decimal.Zero, err
	}
	n.cache.SetBalance(balance)
	return balance, nil
}

func (n *Negotiator) dispatch(ev Event) {
	select {
	case n.events <- ev:
	case <-n.done:
	}
}

func (n *Negotiator) run() {
	defer n.wg.Done()

	for {
		select {
		case ev := <-n.events:
			n.handle(ev)
		case <-n.done:
			return
		}
	}
}

func (n *Negotiator) handle(ev Event) {
	n.mu.Lock()
	next, effects := Reduce(n.snap, ev)
	n.snap = next
	n.mu.Unlock()

	for _, effect := range effects {
		n.execute(effect, next)
	}
}

func (n *Negotiator) execute(effect Effect, snap Snapshot) {
	switch effect {
	case EffectProviderLogin:
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
			defer cancel()
			if err := n.identity.RequestLogin(ctx); err != nil {
				n.log.WithError(err).Warn("identity provider login request failed")
				n.dispatch(ProviderLoginFailed{Seq: snap.Seq, Err: err})
			}
		}()

	case EffectProviderLogout:
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
			defer cancel()
			if err := n.identity.RequestLogout(ctx); err != nil {
				n.log.WithError(err).Warn("identity provider logout request failed")
			}
		}()

	case EffectStartExchange:
		go n.exchange(snap.Seq, snap.WalletAddress)

	case EffectPersistToken:
		if err := n.vault.StoreToken(snap.Token); err != nil {
			n.log.WithError(err).Warn("failed to persist session token")
		}
		if snap.Principal != nil {
			n.cache.Scope(snap.Principal.ID)
		}

	case EffectClearSession:
		if err := n.vault.ClearToken(); err != nil {
			n.log.WithError(err).Warn("failed to clear session token")
		}
		n.cache.Clear()

	case EffectRefreshPrincipal:
		go n.refreshPrincipal(snap.Seq, snap.Token)

	case EffectNotifyConnectFailed:
		n.notify(NoticeConnectFailed)

	case EffectNotifySessionExpired:
		n.notify(NoticeSessionExpired)
	}
}

func (n *Negotiator) exchange(seq uint64, address string) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	username := ""
	if n.suggested != nil {
		username = n.suggested(address)
	}

	principal, token, err := n.exchanger.Exchange(ctx, address, username)
	if err != nil {
		n.log.WithError(err).WithField("address", address).Warn("wallet exchange failed")
		n.dispatch(ExchangeCompleted{Seq: seq, Err: err})
		return
	}

	n.dispatch(ExchangeCompleted{Seq: seq, Principal: principal, Token: token})
}

func (n *Negotiator) refreshPrincipal(seq uint64, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	principal, err := n.exchanger.Me(ctx, token)
	if err != nil {
		n.log.WithError(err).Debug("restored session is no longer valid")
		n.dispatch(PrincipalRefreshed{Seq: seq, Err: err})
		return
	}

	n.dispatch(PrincipalRefreshed{Seq: seq, Principal: principal})
}

func (n *Negotiator) notify(notice Notice) {
	if n.onNotice != nil {
		n.onNotice(notice)
	}
}
