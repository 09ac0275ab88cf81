package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniverse/walletbridge/core"
)

func testPrincipal(id string) *core.Principal {
	return &core.Principal{
		ID:            id,
		WalletAddress: "0x1234567890abcdef",
		Username:      "alice",
	}
}

func TestReduceConnectFlow(t *testing.T) {
	s := Snapshot{}

	s, effects := Reduce(s, ConnectRequested{})
	assert.Equal(t, StateConnecting, s.State)
	assert.Equal(t, []Effect{EffectProviderLogin}, effects)

	// Repeated requests while connecting do nothing.
	s, effects = Reduce(s, ConnectRequested{})
	assert.Equal(t, StateConnecting, s.State)
	assert.Empty(t, effects)

	s, effects = Reduce(s, IdentityChanged{Identity: core.Identity{
		Address:  "0x1234567890abcdef",
		LoggedIn: true,
	}})
	assert.Equal(t, StateConnecting, s.State)
	assert.Equal(t, uint64(1), s.Seq)
	assert.Equal(t, "0x1234567890abcdef", s.WalletAddress)
	assert.Equal(t, []Effect{EffectStartExchange}, effects)

	s, effects = Reduce(s, ExchangeCompleted{
		Seq:       s.Seq,
		Principal: testPrincipal("p1"),
		Token:     "tok-1",
	})
	assert.Equal(t, StateConnected, s.State)
	assert.Equal(t, "tok-1", s.Token)
	assert.Equal(t, "p1", s.Principal.ID)
	assert.Equal(t, []Effect{EffectPersistToken}, effects)
}

func TestReduceProviderLoginFailed(t *testing.T) {
	s := Snapshot{}
	s, _ = Reduce(s, ConnectRequested{})
	require.Equal(t, StateConnecting, s.State)

	// The failed login releases the machine so a retry is possible, and
	// the failure is surfaced.
	s, effects := Reduce(s, ProviderLoginFailed{Seq: s.Seq, Err: errors.New("popup dismissed")})
	assert.Equal(t, StateDisconnected, s.State)
	assert.Equal(t, []Effect{EffectNotifyConnectFailed}, effects)

	s, effects = Reduce(s, ConnectRequested{})
	assert.Equal(t, StateConnecting, s.State)
	assert.Equal(t, []Effect{EffectProviderLogin}, effects)
}

func TestReduceStaleProviderLoginFailureDiscarded(t *testing.T) {
	s := Snapshot{}
	s, _ = Reduce(s, ConnectRequested{})
	loginSeq := s.Seq

	// The provider logged in after all; the exchange epoch superseded the
	// pending login attempt.
	s, _ = Reduce(s, IdentityChanged{Identity: core.Identity{Address: "0x1234567890abcdef", LoggedIn: true}})
	require.Equal(t, StateConnecting, s.State)

	next, effects := Reduce(s, ProviderLoginFailed{Seq: loginSeq, Err: errors.New("timeout")})
	assert.Equal(t, s, next)
	assert.Empty(t, effects)
}

func TestReduceStaleExchangeDiscarded(t *testing.T) {
	s := Snapshot{}

	// Wallet A connects, then the user switches to wallet B before A's
	// exchange resolves.
	s, _ = Reduce(s, IdentityChanged{Identity: core.Identity{Address: "0xaaaaaaaaaaaaaaaa", LoggedIn: true}})
	seqA := s.Seq
	s, _ = Reduce(s, IdentityChanged{Identity: core.Identity{Address: "0xbbbbbbbbbbbbbbbb", LoggedIn: true}})
	seqB := s.Seq
	require.NotEqual(t, seqA, seqB)

	// B resolves first.
	s, _ = Reduce(s, ExchangeCompleted{Seq: seqB, Principal: testPrincipal("pB"), Token: "tok-B"})
	require.Equal(t, StateConnected, s.State)

	// A's late completion must not overwrite B's session.
	s, effects := Reduce(s, ExchangeCompleted{Seq: seqA, Principal: testPrincipal("pA"), Token: "tok-A"})
	assert.Empty(t, effects)
	assert.Equal(t, "pB", s.Principal.ID)
	assert.Equal(t, "tok-B", s.Token)
}

func TestReduceExchangeFailureCompensates(t *testing.T) {
	s := Snapshot{}
	s, _ = Reduce(s, IdentityChanged{Identity: core.Identity{Address: "0x1234567890abcdef", LoggedIn: true}})

	s, effects := Reduce(s, ExchangeCompleted{Seq: s.Seq, Err: errors.New("backend down")})
	assert.Equal(t, StateDisconnected, s.State)
	assert.Empty(t, s.Token)
	assert.Nil(t, s.Principal)
	// The provider session is torn down so the two sides cannot diverge.
	assert.Equal(t, []Effect{EffectClearSession, EffectProviderLogout, EffectNotifyConnectFailed}, effects)
}

func TestReduceProviderLogout(t *testing.T) {
	s := connectedSnapshot()

	s, effects := Reduce(s, IdentityChanged{Identity: core.Identity{LoggedIn: false}})
	assert.Equal(t, StateDisconnected, s.State)
	assert.Empty(t, s.Token)
	assert.Equal(t, []Effect{EffectClearSession}, effects)

	// Already disconnected: nothing to do.
	s, effects = Reduce(s, IdentityChanged{Identity: core.Identity{LoggedIn: false}})
	assert.Empty(t, effects)
}

func TestReduceDisconnectRequested(t *testing.T) {
	s := connectedSnapshot()

	s, effects := Reduce(s, DisconnectRequested{})
	assert.Equal(t, StateDisconnected, s.State)
	assert.Equal(t, []Effect{EffectClearSession, EffectProviderLogout}, effects)
}

func TestReduceTokenRestored(t *testing.T) {
	s := Snapshot{}

	s, effects := Reduce(s, TokenRestored{Token: "persisted"})
	assert.Equal(t, StateConnected, s.State)
	assert.Equal(t, "persisted", s.Token)
	assert.Equal(t, []Effect{EffectRefreshPrincipal}, effects)

	s, effects = Reduce(s, PrincipalRefreshed{Seq: s.Seq, Principal: testPrincipal("p1")})
	assert.Equal(t, "p1", s.Principal.ID)
	assert.Equal(t, "0x1234567890abcdef", s.WalletAddress)
	assert.Equal(t, []Effect{EffectPersistToken}, effects)
}

func TestReduceRestoredTokenRejected(t *testing.T) {
	s := Snapshot{}
	s, _ = Reduce(s, TokenRestored{Token: "stale"})

	s, effects := Reduce(s, PrincipalRefreshed{Seq: s.Seq, Err: errors.New("invalid token")})
	assert.Equal(t, StateDisconnected, s.State)
	assert.Empty(t, s.Token)
	assert.Equal(t, []Effect{EffectClearSession}, effects)
}

func TestReduceGateRejected(t *testing.T) {
	t.Run("forbidden is not a session failure", func(t *testing.T) {
		s := connectedSnapshot()
		next, effects := Reduce(s, GateRejected{Kind: core.RejectForbidden})
		assert.Equal(t, s, next)
		assert.Empty(t, effects)
	})

	t.Run("expired re-exchanges while identity is known", func(t *testing.T) {
		s := connectedSnapshot()
		next, effects := Reduce(s, GateRejected{Kind: core.RejectExpired})
		assert.Equal(t, StateConnecting, next.State)
		assert.Equal(t, s.Seq+1, next.Seq)
		assert.Equal(t, s.WalletAddress, next.WalletAddress)
		assert.Equal(t, []Effect{EffectClearSession, EffectStartExchange}, effects)
	})

	t.Run("expired without identity surfaces expiry", func(t *testing.T) {
		s := connectedSnapshot()
		s.WalletAddress = ""
		next, effects := Reduce(s, GateRejected{Kind: core.RejectExpired})
		assert.Equal(t, StateDisconnected, next.State)
		assert.Equal(t, []Effect{EffectClearSession, EffectNotifySessionExpired}, effects)
	})

	t.Run("invalid forces logout", func(t *testing.T) {
		s := connectedSnapshot()
		next, effects := Reduce(s, GateRejected{Kind: core.RejectInvalid})
		assert.Equal(t, StateDisconnected, next.State)
		assert.Nil(t, next.Principal)
		assert.Empty(t, next.Token)
		assert.Equal(t, []Effect{EffectClearSession, EffectNotifySessionExpired}, effects)
	})
}

func connectedSnapshot() Snapshot {
	return Snapshot{
		State:         StateConnected,
		Seq:           3,
		WalletAddress: "0x1234567890abcdef",
		Principal:     testPrincipal("p1"),
		Token:         "tok-1",
	}
}
