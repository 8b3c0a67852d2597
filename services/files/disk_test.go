package filesvc

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/testutil"
)

var pngHeader = []byte("\x89PNG\x0D\x0A\x1A\x0A")

func newTestStore(t *testing.T, maxSize int64) *DiskStore {
	t.Helper()
	conf := testutil.Config()
	conf.Uploads.Dir = t.TempDir()
	conf.Uploads.MaxSize = maxSize
	store, err := NewDiskStore(conf)
	require.NoError(t, err)
	return store
}

func TestDiskStore_Save(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 64)

	tests := []struct {
		name    string
		content []byte
		wantErr string
	}{
		{name: "png", content: append(append([]byte{}, pngHeader...), "data"...)},
		{name: "not an image", content: []byte("hello world"), wantErr: "only jpeg, png, gif and webp images are allowed"},
		{name: "too large", content: append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...), wantErr: "image is too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := store.Save(ctx, "upload", bytes.NewReader(tt.content))
			if tt.wantErr != "" {
				require.Error(t, err)
				vErr, ok := errors.Cause(err).(*core.ValidationError)
				require.True(t, ok)
				assert.Equal(t, "image", vErr.Fields[0].Field)
				assert.Equal(t, tt.wantErr, vErr.Fields[0].Error)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(url, "/uploads/"))
			assert.True(t, strings.HasSuffix(url, ".png"))

			data, err := os.ReadFile(filepath.Join(store.Dir(), filepath.Base(url)))
			require.NoError(t, err)
			assert.Equal(t, tt.content, data)
		})
	}

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "rejected uploads are removed")
}

func TestDiskStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 1024)

	url, err := store.Save(ctx, "upload", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	assert.NoError(t, store.Delete(ctx, "https://elsewhere.test/x.png"))
	assert.NoError(t, store.Delete(ctx, "/uploads/../../etc/passwd"))
	require.NoError(t, store.Delete(ctx, url))
	_, err = os.Stat(filepath.Join(store.Dir(), filepath.Base(url)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, url), "already deleted")
}
