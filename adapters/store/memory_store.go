package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aniverse/walletbridge/core"
	"github.com/aniverse/walletbridge/ports"
)

// MemoryStore is an in-memory implementation of the PrincipalStore
// interface, used in tests and single-binary demos.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]*core.Principal
	byWallet map[string]string // wallet address -> principal ID
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]*core.Principal),
		byWallet: make(map[string]string),
	}
}

var _ ports.PrincipalStore = (*MemoryStore)(nil)

// Create inserts a new principal, enforcing wallet address uniqueness.
func (s *MemoryStore) Create(ctx context.Context, p *core.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byWallet[p.WalletAddress]; exists {
		return core.ErrDuplicateWallet
	}

	cp := *p
	s.byID[cp.ID] = &cp
	s.byWallet[cp.WalletAddress] = cp.ID
	return nil
}

// GetByID retrieves a principal by its ID.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*core.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, core.ErrPrincipalNotFound
	}
	cp := *p
	return &cp, nil
}

// GetByWallet retrieves a principal by its wallet address.
func (s *MemoryStore) GetByWallet(ctx context.Context, address string) (*core.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byWallet[address]
	if !ok {
		return nil, core.ErrPrincipalNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

// UpdateProfile applies a partial profile edit.
func (s *MemoryStore) UpdateProfile(ctx context.Context, id string, upd core.ProfileUpdate) (*core.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, core.ErrPrincipalNotFound
	}

	if upd.Username != nil {
		p.Username = *upd.Username
	}
	if upd.Email != nil {
		p.Email = *upd.Email
	}
	if upd.Bio != nil {
		p.Bio = *upd.Bio
	}
	if upd.ProfileImage != nil {
		p.ProfileImage = *upd.ProfileImage
	}
	p.UpdatedAt = time.Now().UTC()

	cp := *p
	return &cp, nil
}

// UpdatePreferences replaces the principal's preferences.
func (s *MemoryStore) UpdatePreferences(ctx context.Context, id string, prefs core.Preferences) (*core.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, core.ErrPrincipalNotFound
	}

	p.Preferences = prefs
	p.UpdatedAt = time.Now().UTC()

	cp := *p
	return &cp, nil
}

// SetWhitelisted updates the principal's whitelist flag.
func (s *MemoryStore) SetWhitelisted(ctx context.Context, id string, whitelisted bool) (*core.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, core.ErrPrincipalNotFound
	}

	p.IsWhitelisted = whitelisted
	p.UpdatedAt = time.Now().UTC()

	cp := *p
	return &cp, nil
}

// TouchLastActive refreshes the principal's last-active timestamp.
func (s *MemoryStore) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return core.ErrPrincipalNotFound
	}
	p.LastActiveAt = at
	return nil
}

// List returns all principals, newest first.
func (s *MemoryStore) List(ctx context.Context) ([]*core.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*core.Principal, 0, len(s.byID))
	for _, p := range s.byID {
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Ping reports the store as always reachable.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Delete removes a principal. Used in tests to simulate a principal that
// disappeared while its token was still in flight.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.byID[id]; ok {
		delete(s.byWallet, p.WalletAddress)
		delete(s.byID, id)
	}
}
