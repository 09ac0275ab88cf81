package vault

import (
	"os"
	"path/filepath"

	"github.com/aniverse/walletbridge/core"
	"github.com/aniverse/walletbridge/ports"
)

// tokenFileName is the fixed key the session token is mirrored under so a
// session survives client restarts.
const tokenFileName = "aniverse-token"

// FileVault stores the session token in a file under the user's config
// directory.
type FileVault struct {
	path string
}

// NewFileVault creates a vault rooted at dir. When dir is empty the user's
// config directory is used.
func NewFileVault(dir string) (*FileVault, error) {
	if dir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(configDir, "aniverse")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileVault{path: filepath.Join(dir, tokenFileName)}, nil
}

var _ ports.CredentialVault = (*FileVault)(nil)

// StoreToken persists the token, replacing any previous one.
func (v *FileVault) StoreToken(token string) error {
	return os.WriteFile(v.path, []byte(token), 0o600)
}

// LoadToken returns the stored token.
func (v *FileVault) LoadToken() (string, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", core.ErrNoCredential
		}
		return "", err
	}
	if len(data) == 0 {
		return "", core.ErrNoCredential
	}
	return string(data), nil
}

// ClearToken removes the stored token.
func (v *FileVault) ClearToken() error {
	err := os.Remove(v.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
