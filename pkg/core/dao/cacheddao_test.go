package dao

import (
	"testing"

	"github.com/nspcc-dev/assetdb/pkg/core/state"
	"github.com/nspcc-dev/assetdb/pkg/core/storage"
	"github.com/stretchr/testify/require"
)

func newTestCached(t *testing.T) *Cached {
	cd, err := NewCached(NewSimple(storage.NewMemoryStore()), 4)
	require.NoError(t, err)
	return cd
}

func TestNewCached_BadSize(t *testing.T) {
	_, err := NewCached(NewSimple(storage.NewMemoryStore()), 0)
	require.Error(t, err)
}

func TestCachedReturnsCopies(t *testing.T) {
	cd := newTestCached(t)
	require.NoError(t, PutAsset(cd, 1, newTestAsset(1, "GOLD")))

	a, err := GetAssetByID(cd, 1)
	require.NoError(t, err)
	require.Equal(t, 1, cd.CachedAssets())

	a.CurrentShareSupply = 1000
	b, err := GetAssetByID(cd, 1)
	require.NoError(t, err)
	require.Equal(t, int64(0), b.CurrentShareSupply)
}

func TestCachedInvalidation(t *testing.T) {
	cd := newTestCached(t)
	require.NoError(t, PutAsset(cd, 1, newTestAsset(1, "GOLD")))
	_, err := GetAssetByID(cd, 1)
	require.NoError(t, err)

	upd := newTestAsset(1, "GOLD")
	upd.CurrentShareSupply = 10
	require.NoError(t, PutAsset(cd, 1, upd))
	got, err := GetAssetByID(cd, 1)
	require.NoError(t, err)
	require.Equal(t, int64(10), got.CurrentShareSupply)

	require.NoError(t, DeleteAsset(cd, 1))
	_, err = GetAssetByID(cd, 1)
	require.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestCachedWrapped(t *testing.T) {
	cd := newTestCached(t)
	require.NoError(t, PutAsset(cd, 1, newTestAsset(1, "GOLD")))
	_, err := GetAssetByID(cd, 1)
	require.NoError(t, err)

	wrapped := cd.GetWrapped()
	upd := newTestAsset(1, "SILVER")
	upd.CurrentShareSupply = 10
	require.NoError(t, PutAsset(wrapped, 1, upd))

	// Unpersisted changes are only visible in the wrapped layer.
	got, err := GetAssetByID(cd, 1)
	require.NoError(t, err)
	require.Equal(t, "GOLD", got.Symbol)
	got, err = GetAssetByID(wrapped, 1)
	require.NoError(t, err)
	require.Equal(t, "SILVER", got.Symbol)

	_, err = wrapped.Persist()
	require.NoError(t, err)
	got, err = GetAssetByID(cd, 1)
	require.NoError(t, err)
	require.Equal(t, "SILVER", got.Symbol)
	require.Equal(t, int64(10), got.CurrentShareSupply)
	_, err = GetAssetBySymbol(cd, "GOLD")
	require.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestCachedNestedWrapped(t *testing.T) {
	cd := newTestCached(t)
	require.NoError(t, PutAsset(cd, 1, newTestAsset(1, "GOLD")))

	middle := cd.GetWrapped()
	inner := middle.GetWrapped()
	require.NoError(t, DeleteAsset(inner, 1))
	_, err := inner.Persist()
	require.NoError(t, err)

	// Cache is repopulated from the top-level layer.
	_, err = GetAssetByID(cd, 1)
	require.NoError(t, err)

	_, err = middle.Persist()
	require.NoError(t, err)
	_, err = GetAssetByID(cd, 1)
	require.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestCachedEviction(t *testing.T) {
	cd := newTestCached(t)
	for id := state.AssetID(0); id < 10; id++ {
		require.NoError(t, PutAsset(cd, id, newTestAsset(id, string(rune('A'+id)))))
		_, err := GetAssetByID(cd, id)
		require.NoError(t, err)
	}
	require.Equal(t, 4, cd.CachedAssets())
	for id := state.AssetID(0); id < 10; id++ {
		a, err := GetAssetByID(cd, id)
		require.NoError(t, err)
		require.Equal(t, id, a.ID)
	}
}
