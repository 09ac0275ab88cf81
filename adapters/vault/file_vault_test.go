package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniverse/walletbridge/core"
)

func TestFileVaultRoundTrip(t *testing.T) {
	v, err := NewFileVault(t.TempDir())
	require.NoError(t, err)

	_, err = v.LoadToken()
	assert.ErrorIs(t, err, core.ErrNoCredential)

	require.NoError(t, v.StoreToken("token-1"))

	token, err := v.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	// A new session overwrites the previous token.
	require.NoError(t, v.StoreToken("token-2"))
	token, err = v.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)

	require.NoError(t, v.ClearToken())
	_, err = v.LoadToken()
	assert.ErrorIs(t, err, core.ErrNoCredential)

	// Clearing an empty vault is a no-op.
	assert.NoError(t, v.ClearToken())
}

func TestMemoryVault(t *testing.T) {
	v := NewMemoryVault()

	_, err := v.LoadToken()
	assert.ErrorIs(t, err, core.ErrNoCredential)

	require.NoError(t, v.StoreToken("token"))
	token, err := v.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "token", token)

	require.NoError(t, v.ClearToken())
	_, err = v.LoadToken()
	assert.ErrorIs(t, err, core.ErrNoCredential)
}
