package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campus", "token")
	store := NewFileTokenStore(path)

	token, err := store.Token()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.SetToken("abc"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err = store.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	// another store on the same file sees the token
	token, err = NewFileTokenStore(path).Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, store.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, store.Clear(), "clearing twice is fine")

	require.NoError(t, store.SetToken("xyz"))
	require.NoError(t, store.SetToken(""))
	token, err = store.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileTokenStore_SetToken_restrictsMode(t *testing.T) {
	tests := []struct {
		name string
		mode os.FileMode
	}{
		{name: "world readable", mode: 0o644},
		{name: "group writable", mode: 0o660},
		{name: "already private", mode: 0o600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "token")
			require.NoError(t, os.WriteFile(path, []byte("old"), tt.mode))
			require.NoError(t, os.Chmod(path, tt.mode))

			require.NoError(t, NewFileTokenStore(path).SetToken("abc"))
			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "abc", string(data))
		})
	}
}

func TestMemoryTokenStore(t *testing.T) {
	store := NewMemoryTokenStore()
	require.NoError(t, store.SetToken("abc"))
	token, _ := store.Token()
	assert.Equal(t, "abc", token)
	require.NoError(t, store.Clear())
	token, _ = store.Token()
	assert.Empty(t, token)
}
