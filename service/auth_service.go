package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aniverse/walletbridge/core"
	"github.com/aniverse/walletbridge/ports"
)

const (
	// DefaultTokenTTL is the fixed expiry horizon for session tokens.
	DefaultTokenTTL = 7 * 24 * time.Hour

	// touchTimeout bounds the best-effort last-active refresh.
	touchTimeout = 5 * time.Second
)

// AuthService implements the provisioning half of the wallet session
// bridge: the idempotent exchange, token validation for the request gate,
// and the principal read/update paths.
type AuthService struct {
	store     ports.PrincipalStore
	tokenizer ports.Tokenizer
	events    ports.EventPublisher
	log       logrus.FieldLogger

	tokenTTL time.Duration
	now      func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store ports.PrincipalStore,
	tokenizer ports.Tokenizer,
	events ports.EventPublisher,
	log logrus.FieldLogger,
) *AuthService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthService{
		store:     store,
		tokenizer: tokenizer,
		events:    events,
		log:       log,
		tokenTTL:  DefaultTokenTTL,
		now:       time.Now,
	}
}

// ExchangeResult is the outcome of a successful wallet exchange.
type ExchangeResult struct {
	Principal *core.Principal
	Token     string
	Created   bool
}

// Exchange swaps a wallet address for an application session. A principal
// is lazily provisioned on first contact; later exchanges load the existing
// record and never overwrite its display name or flags. Safe to call
// repeatedly for the same wallet: the only side effects beyond token
// issuance are the last-active refresh and the connect event.
func (s *AuthService) Exchange(ctx context.Context, walletAddress, suggestedUsername string) (*ExchangeResult, error) {
	address, err := core.ParseAddress(walletAddress)
	if err != nil {
		return nil, err
	}
	if suggestedUsername != "" && !core.ValidUsername(suggestedUsername) {
		return nil, core.ErrInvalidUsername
	}

	principal, created, err := s.provision(ctx, address, suggestedUsername)
	if err != nil {
		return nil, err
	}

	// Best-effort: the response must not wait on the timestamp write.
	go s.touchLastActive(principal.ID)

	token, err := s.issueToken(principal)
	if err != nil {
		return nil, err
	}

	if err := s.events.PublishConnected(ctx, principal, created); err != nil {
		s.log.WithError(err).WithField("principal_id", principal.ID).
			Warn("failed to publish connect event")
	}

	return &ExchangeResult{Principal: principal, Token: token, Created: created}, nil
}

// provision loads the principal for the address, creating one if absent.
// Under concurrent first logins the store's unique index decides the
// winner; the loser observes a duplicate and loads the existing record.
func (s *AuthService) provision(ctx context.Context, address, suggestedUsername string) (*core.Principal, bool, error) {
	principal, err := s.store.GetByWallet(ctx, address)
	if err == nil {
		return principal, false, nil
	}
	if !errors.Is(err, core.ErrPrincipalNotFound) {
		return nil, false, fmt.Errorf("failed to look up principal: %w", err)
	}

	username := suggestedUsername
	if username == "" {
		username = core.DefaultUsername(address)
	}

	now := s.now().UTC()
	fresh := &core.Principal{
		ID:            uuid.New().String(),
		WalletAddress: address,
		Username:      username,
		Preferences:   core.DefaultPreferences(),
		LastActiveAt:  now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.store.Create(ctx, fresh)
	if err == nil {
		return fresh, true, nil
	}
	if errors.Is(err, core.ErrDuplicateWallet) {
		existing, loadErr := s.store.GetByWallet(ctx, address)
		if loadErr != nil {
			return nil, false, fmt.Errorf("failed to load principal after duplicate: %w", loadErr)
		}
		return existing, false, nil
	}
	return nil, false, fmt.Errorf("failed to create principal: %w", err)
}

func (s *AuthService) issueToken(principal *core.Principal) (string, error) {
	now := s.now()
	session := &core.Session{
		ID:            uuid.New().String(),
		PrincipalID:   principal.ID,
		WalletAddress: principal.WalletAddress,
		IssuedAt:      now,
		ExpiresAt:     now.Add(s.tokenTTL),
	}

	token, err := s.tokenizer.SessionToToken(session)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return token, nil
}

func (s *AuthService) touchLastActive(principalID string) {
	ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
	defer cancel()

	if err := s.store.TouchLastActive(ctx, principalID, s.now().UTC()); err != nil {
		s.log.WithError(err).WithField("principal_id", principalID).
			Warn("failed to refresh last-active timestamp")
	}
}

// Authenticate verifies a presented token and resolves its principal. Every
// authentication failure is returned as a *core.Rejection; any other error
// is an infrastructure fault (store unreachable) and is reported as such
// rather than disguised as a denial.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*core.Principal, error) {
	if token == "" {
		return nil, core.Reject(core.RejectMissing, nil)
	}

	session, err := s.tokenizer.TokenToSession(token)
	if err != nil {
		if errors.Is(err, core.ErrTokenExpired) {
			return nil, core.Reject(core.RejectExpired, err)
		}
		return nil, core.Reject(core.RejectInvalid, err)
	}

	// Defense against a tokenizer that does not enforce expiry itself.
	if session.Expired(s.now()) {
		return nil, core.Reject(core.RejectExpired, core.ErrTokenExpired)
	}

	principal, err := s.store.GetByID(ctx, session.PrincipalID)
	if err != nil {
		if errors.Is(err, core.ErrPrincipalNotFound) {
			return nil, core.Reject(core.RejectPrincipalGone, err)
		}
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}

	return principal, nil
}

// Me returns the caller's own principal.
func (s *AuthService) Me(ctx context.Context, principalID string) (*core.Principal, error) {
	return s.store.GetByID(ctx, principalID)
}

// UpdateProfile applies a partial profile edit to the caller's principal.
func (s *AuthService) UpdateProfile(ctx context.Context, principalID string, upd core.ProfileUpdate) (*core.Principal, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpdateProfile(ctx, principalID, upd)
}

// UpdatePreferences applies a partial preferences edit to the caller's
// principal.
func (s *AuthService) UpdatePreferences(ctx context.Context, principalID string, upd core.PreferencesUpdate) (*core.Principal, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	principal, err := s.store.GetByID(ctx, principalID)
	if err != nil {
		return nil, err
	}

	return s.store.UpdatePreferences(ctx, principalID, upd.Apply(principal.Preferences))
}

// Logout records the end of a session: refreshes last-active and broadcasts
// the teardown. Token invalidation is client-side; the token itself remains
// cryptographically valid until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, principal *core.Principal) error {
	if err := s.store.TouchLastActive(ctx, principal.ID, s.now().UTC()); err != nil {
		s.log.WithError(err).WithField("principal_id", principal.ID).
			Warn("failed to refresh last-active on logout")
	}

	if err := s.events.PublishLogout(ctx, principal.ID, principal.WalletAddress); err != nil {
		s.log.WithError(err).WithField("principal_id", principal.ID).
			Warn("failed to publish logout event")
	}
	return nil
}

// LookupWallet returns the principal registered for a wallet address.
func (s *AuthService) LookupWallet(ctx context.Context, address string) (*core.Principal, error) {
	normalized, err := core.ParseAddress(address)
	if err != nil {
		return nil, err
	}
	return s.store.GetByWallet(ctx, normalized)
}

// ListPrincipals returns all principals, newest first. Admin only; the
// transport enforces the gate.
func (s *AuthService) ListPrincipals(ctx context.Context) ([]*core.Principal, error) {
	return s.store.List(ctx)
}

// SetWhitelisted updates a principal's whitelist flag. Admin only.
func (s *AuthService) SetWhitelisted(ctx context.Context, principalID string, whitelisted bool) (*core.Principal, error) {
	return s.store.SetWhitelisted(ctx, principalID, whitelisted)
}

// Ping reports backing-store connectivity.
func (s *AuthService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
