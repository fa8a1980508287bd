package gormstore_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salgados/internal/storage"
	"salgados/internal/storage/gormstore"
)

func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}
	st, err := gormstore.Open(dsn)
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	require.NoError(t, st.Remove(ctx, storage.KeyCustomMenuItems))
	_, ok, err := st.Get(ctx, storage.KeyCustomMenuItems)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Set(ctx, storage.KeyCustomMenuItems, []byte(`[{"id":1}]`)))
	require.NoError(t, st.Set(ctx, storage.KeyCustomMenuItems, []byte(`[{"id":2}]`)))
	got, ok, err := st.Get(ctx, storage.KeyCustomMenuItems)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`[{"id":2}]`), got)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := gormstore.Open("")
	assert.Error(t, err)
}
