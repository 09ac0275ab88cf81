package vault

import (
	"sync"

	"github.com/aniverse/walletbridge/core"
	"github.com/aniverse/walletbridge/ports"
)

// MemoryVault holds the token in memory. Used in tests.
type MemoryVault struct {
	mu    sync.Mutex
	token string
}

// NewMemoryVault creates an empty in-memory vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{}
}

var _ ports.CredentialVault = (*MemoryVault)(nil)

func (v *MemoryVault) StoreToken(token string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.token = token
	return nil
}

func (v *MemoryVault) LoadToken() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.token == "" {
		return "", core.ErrNoCredential
	}
	return v.token, nil
}

func (v *MemoryVault) ClearToken() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.token = ""
	return nil
}
