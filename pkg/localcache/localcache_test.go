package localcache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	Key      string  `json:"key"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

func TestLoadList(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key yields empty list", func(t *testing.T) {
		kv := NewMemory()
		items, err := LoadList[line](ctx, kv, GuestCartKey)
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.NotNil(t, items)
	})

	t.Run("corrupt value is discarded", func(t *testing.T) {
		kv := NewMemory()
		require.NoError(t, kv.Set(ctx, GuestCartKey, `[{"key":"product:1",`))

		items, err := LoadList[line](ctx, kv, GuestCartKey)
		require.NoError(t, err)
		assert.Empty(t, items)

		_, err = kv.Get(ctx, GuestCartKey)
		assert.ErrorIs(t, err, ErrMiss)
	})

	t.Run("wrong shape is discarded", func(t *testing.T) {
		kv := NewMemory()
		require.NoError(t, kv.Set(ctx, GuestCartKey, `{"items":"nope"}`))

		items, err := LoadList[line](ctx, kv, GuestCartKey)
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.Empty(t, kv.Keys())
	})

	t.Run("round trip", func(t *testing.T) {
		kv := NewMemory()
		want := []line{{Key: "product:1", Price: 25, Quantity: 2}}
		require.NoError(t, SaveList(ctx, kv, GuestCartKey, want))

		got, err := LoadList[line](ctx, kv, GuestCartKey)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestSaveList_EmptyRemovesKey(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	require.NoError(t, SaveList(ctx, kv, GuestCartKey, []line{{Key: "product:1", Quantity: 1}}))
	require.NoError(t, SaveList[line](ctx, kv, GuestCartKey, nil))

	_, err := kv.Get(ctx, GuestCartKey)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestScopedKey(t *testing.T) {
	assert.Equal(t, "recentlyViewed:guest", ScopedKey(RecentlyViewedBase, ""))
	assert.Equal(t, "sizePreferences:user:42", ScopedKey(SizePreferencesBase, "42"))
}

func TestToken(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()

	tok, err := LoadToken(ctx, kv)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, SaveToken(ctx, kv, "abc"))
	tok, err = LoadToken(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, SaveToken(ctx, kv, ""))
	tok, err = LoadToken(ctx, kv)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestLoadMap_Corrupt(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	require.NoError(t, kv.Set(ctx, "prefs", "not json"))

	m, err := LoadMap[string](ctx, kv, "prefs")
	require.NoError(t, err)
	assert.Empty(t, m)
	assert.Empty(t, kv.Keys())
}

func TestFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")

	f, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Set(ctx, TokenKey, "tok"))
	require.NoError(t, SaveList(ctx, f, GuestCartKey, []line{{Key: "product:7", Quantity: 3}}))

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	tok, err := reopened.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)

	items, err := LoadList[line](ctx, reopened, GuestCartKey)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)

	require.NoError(t, reopened.Delete(ctx, TokenKey))
	_, err = reopened.Get(ctx, TokenKey)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestOpenFile_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o600))

	f, err := OpenFile(path)
	require.NoError(t, err)

	_, err = f.Get(context.Background(), TokenKey)
	assert.ErrorIs(t, err, ErrMiss)
}
