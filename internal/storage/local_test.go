package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/config"
)

func TestLocalStore_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStore(filepath.Join(root, "uploads"))
	require.NoError(t, err)

	key := NewKey(PrefixBooks, ".pdf")
	payload := []byte("%PDF-1.4 fake body")

	require.NoError(t, store.Save(ctx, key, bytes.NewReader(payload), int64(len(payload)), "application/pdf"))

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	obj, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(obj.Content)
	require.NoError(t, err)
	require.NoError(t, obj.Content.Close())

	assert.Equal(t, payload, data)
	assert.Equal(t, int64(len(payload)), obj.Size)
	assert.Equal(t, "application/pdf", obj.ContentType)

	require.NoError(t, store.Delete(ctx, key))
	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStore_DeleteMissingIsNoop(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "covers/missing.png"))
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "/etc/passwd", "../outside", "books/../../x", `books\x`} {
		err := store.Save(ctx, key, strings.NewReader("x"), 1, "text/plain")
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestLocalStore_SaveCancelledLeavesNoFile(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = store.Save(ctx, "books/a.pdf", strings.NewReader("data"), 4, "application/pdf")
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(root, "books", "a.pdf"))
	assert.True(t, os.IsNotExist(statErr))

	entries, err := os.ReadDir(filepath.Join(root, "books"))
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary upload should be cleaned up")
}

func TestNewKey(t *testing.T) {
	k1 := NewKey(PrefixCovers, "PNG")
	k2 := NewKey(PrefixCovers, ".png")

	assert.True(t, strings.HasPrefix(k1, "covers/"))
	assert.True(t, strings.HasSuffix(k1, ".png"))
	assert.NotEqual(t, k1, k2)
}

func TestFromConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "assets")

	store, err := FromConfig(context.Background(), config.Storage{Backend: config.StorageLocal, Path: dir})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
	assert.DirExists(t, dir)

	_, err = FromConfig(context.Background(), config.Storage{Backend: "tape"})
	assert.ErrorContains(t, err, "unsupported storage backend")

	_, err = FromConfig(context.Background(), config.Storage{Backend: config.StorageMinio})
	assert.Error(t, err)
}
