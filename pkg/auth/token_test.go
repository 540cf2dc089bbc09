package auth

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestMain(m *testing.M) {
	keyring.MockInit()
	os.Exit(m.Run())
}

func TestSaveToken_Empty(t *testing.T) {
	assert.Error(t, SaveToken(t.TempDir(), ""))
	assert.Error(t, SaveToken(t.TempDir(), "   "))
}

func TestTokenRoundTrip(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, SaveToken(home, "tok_live_abc"))
	t.Cleanup(func() { DeleteToken(home) })

	token, err := GetToken(home)
	require.NoError(t, err)
	assert.Equal(t, "tok_live_abc", token)
}

func TestGetToken_EnvWins(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, SaveToken(home, "stored"))
	t.Cleanup(func() { DeleteToken(home) })

	t.Setenv(envToken, "from_env")

	token, err := GetToken(home)
	require.NoError(t, err)
	assert.Equal(t, "from_env", token)
}

func TestGetToken_FileFallback(t *testing.T) {
	home := t.TempDir()
	keyring.Delete(keyringService, keyringUser)

	require.NoError(t, os.WriteFile(path.Join(home, tokenFileName), []byte("file_token\n"), 0600))
	t.Cleanup(func() { DeleteToken(home) })

	token, err := GetToken(home)
	require.NoError(t, err)
	assert.Equal(t, "file_token", token)
}

func TestGetToken_Missing(t *testing.T) {
	home := t.TempDir()
	keyring.Delete(keyringService, keyringUser)

	_, err := GetToken(home)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestDeleteToken(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, SaveToken(home, "gone"))
	require.NoError(t, DeleteToken(home))

	keyring.Delete(keyringService, keyringUser)
	_, err := GetToken(home)
	assert.ErrorIs(t, err, ErrNoToken)
}
