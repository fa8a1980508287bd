package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salgados/internal/storage"
)

func setupFileStore(t *testing.T) (*storage.FileStore, string) {
	path := filepath.Join(t.TempDir(), "data", "store.json")
	st, err := storage.NewFileStore(path)
	require.NoError(t, err, "file store must be created in an empty directory")
	return st, path
}

func exerciseStore(t *testing.T, st storage.Store) {
	ctx := context.Background()

	_, ok, err := st.Get(ctx, storage.KeyOrders)
	assert.NoError(t, err)
	assert.False(t, ok, "unknown key must be reported absent")

	payload := []byte(`[{"id":"b"},{"id":"a"},{"id":"c"}]`)
	require.NoError(t, st.Set(ctx, storage.KeyOrders, payload))

	got, ok, err := st.Get(ctx, storage.KeyOrders)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, string(payload), string(got), "round-trip must keep content and order")

	require.NoError(t, st.Set(ctx, storage.KeyOrders, []byte(`[]`)))
	got, _, _ = st.Get(ctx, storage.KeyOrders)
	assert.JSONEq(t, `[]`, string(got), "last write wins")

	require.NoError(t, st.Remove(ctx, storage.KeyOrders))
	_, ok, err = st.Get(ctx, storage.KeyOrders)
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, st.Remove(ctx, storage.KeyOrders), "removing an absent key is a no-op")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, storage.NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	st := storage.NewMemoryStore()
	ctx := context.Background()
	v := []byte(`{"deliveryFee":10}`)
	require.NoError(t, st.Set(ctx, storage.KeyAppConfig, v))
	v[2] = 'X'

	got, _, err := st.Get(ctx, storage.KeyAppConfig)
	require.NoError(t, err)
	assert.JSONEq(t, `{"deliveryFee":10}`, string(got))
}

func TestFileStore(t *testing.T) {
	st, _ := setupFileStore(t)
	exerciseStore(t, st)
}

func TestFileStoreSeesWritesFromAnotherHandle(t *testing.T) {
	first, path := setupFileStore(t)
	second, err := storage.NewFileStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, first.Set(ctx, storage.KeyAdminUsers, []byte(`[{"username":"sara"}]`)))

	got, ok, err := second.Get(ctx, storage.KeyAdminUsers)
	require.NoError(t, err)
	assert.True(t, ok, "writes through one handle must be visible to the other on re-read")
	assert.JSONEq(t, `[{"username":"sara"}]`, string(got))
}

func TestFileStoreRejectsNonJSON(t *testing.T) {
	st, _ := setupFileStore(t)
	err := st.Set(context.Background(), "broken", []byte("{not json"))
	assert.Error(t, err)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	_, err := storage.NewFileStore(path)
	assert.Error(t, err)
}
