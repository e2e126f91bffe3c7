package cachestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nerdneilsfield/kiosk-translate/pkg/translation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(target, text, value string) translation.CacheEntry {
	return translation.CacheEntry{Key: translation.NewCacheKey(target, "", "", text), Value: value}
}

func TestSaveAndLoadKeepsInsertionOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []translation.CacheEntry{
		entry("zh", "Cart", "购物车"),
		entry("zh", "Checkout", "结账"),
		entry("fr", "Cart", "Panier"),
	}))

	all, err := s.Load(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "购物车", all[0].Value)
	assert.Equal(t, translation.DefaultMimeType, all[0].Key.MimeType)
	assert.Equal(t, "Panier", all[2].Value)

	newest, err := s.Load(ctx, 2)
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, "Checkout", newest[0].Key.Text)
	assert.Equal(t, "fr", newest[1].Key.Target)
}

func TestSaveUpsertKeepsPosition(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []translation.CacheEntry{entry("zh", "A", "1"), entry("zh", "B", "2")}))
	require.NoError(t, s.Save(ctx, []translation.CacheEntry{entry("zh", "A", "one")}))

	all, err := s.Load(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Key.Text)
	assert.Equal(t, "one", all[0].Value)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []translation.CacheEntry{entry("zh", "A", "1"), entry("zh", "B", "2")}))
	require.NoError(t, s.Delete(ctx, []translation.CacheKey{translation.NewCacheKey("zh", "", "", "A")}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, []translation.CacheEntry{entry("ja", "Hello", "こんにちは")}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	all, err := s.Load(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "こんにちは", all[0].Value)
}

func TestEmptyBatchesAreNoops(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Save(context.Background(), nil))
	assert.NoError(t, s.Delete(context.Background(), nil))
}
