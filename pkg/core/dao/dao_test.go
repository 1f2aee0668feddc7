package dao

import (
	"fmt"
	"testing"

	"github.com/nspcc-dev/assetdb/internal/random"
	"github.com/nspcc-dev/assetdb/pkg/core/state"
	"github.com/nspcc-dev/assetdb/pkg/core/storage"
	"github.com/nspcc-dev/assetdb/pkg/io"
	"github.com/stretchr/testify/require"
)

func TestPutGetAndDecode(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	serializable := &TestSerializable{field: random.String(4)}
	hash := []byte{1}
	require.NoError(t, dao.putWithBuffer(serializable, hash, io.NewBufBinWriter()))

	gotAndDecoded := &TestSerializable{}
	err := dao.GetAndDecode(gotAndDecoded, hash)
	require.NoError(t, err)
	require.Equal(t, serializable, gotAndDecoded)
}

// TestSerializable structure used in testing.
type TestSerializable struct {
	field string
}

func (t *TestSerializable) EncodeBinary(writer *io.BinWriter) {
	writer.WriteString(t.field)
}

func (t *TestSerializable) DecodeBinary(reader *io.BinReader) {
	t.field = reader.ReadString()
}

func TestGetAndDecode_NotExists(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	err := dao.GetAndDecode(&TestSerializable{}, []byte{1})
	require.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestAccounts(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	id := state.AccountID(random.Int(1, 1024))
	require.False(t, dao.AccountExists(id))

	dao.PutAccount(id)
	require.True(t, dao.AccountExists(id))
	require.False(t, dao.AccountExists(id+1))

	dao.DeleteAccount(id)
	require.False(t, dao.AccountExists(id))
}

func TestGetVersion_NoVersion(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	version, err := dao.GetVersion()
	require.Error(t, err)
	require.Equal(t, "", version)
}

func TestGetVersion(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	dao.PutVersion("0.1.0")
	version, err := dao.GetVersion()
	require.NoError(t, err)
	require.Equal(t, "0.1.0", version)
}

func TestSimpleAssets(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	a := newTestAsset(5, "GOLD")
	require.NoError(t, dao.InsertIntoIDMap(a))
	require.NoError(t, dao.InsertIntoSymbolMap(a.Symbol, a.ID))

	got, err := dao.GetFromIDMap(5)
	require.NoError(t, err)
	require.Equal(t, a, got)

	got.CurrentShareSupply++
	again, err := dao.GetFromIDMap(5)
	require.NoError(t, err)
	require.Equal(t, a, again)

	id, err := dao.GetFromSymbolMap("GOLD")
	require.NoError(t, err)
	require.Equal(t, state.AssetID(5), id)

	require.NoError(t, dao.EraseFromSymbolMap("GOLD"))
	_, err = dao.GetFromSymbolMap("GOLD")
	require.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, dao.EraseFromIDMap(5))
	_, err = dao.GetFromIDMap(5)
	require.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestCorruptedSymbolIndex(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	dao.Store.Put(makeSymbolKey("BAD"), []byte{1, 2})
	_, err := dao.GetFromSymbolMap("BAD")
	require.ErrorIs(t, err, ErrCorruptedIndex)
}

func TestListAssets(t *testing.T) {
	backend := storage.NewMemoryStore()
	dao := NewSimple(backend)
	for _, id := range []state.AssetID{300, 7, 1, 65536} {
		require.NoError(t, PutAsset(dao, id, newTestAsset(id, fmt.Sprintf("S%d", id))))
	}
	_, err := dao.Persist()
	require.NoError(t, err)

	// Mixed persisted and cached changes.
	require.NoError(t, DeleteAsset(dao, 7))
	require.NoError(t, PutAsset(dao, 2, newTestAsset(2, "TWO")))
	dao.PutAccount(1)

	var ids []state.AssetID
	require.NoError(t, dao.ListAssets(func(a *state.Asset) bool {
		ids = append(ids, a.ID)
		return true
	}))
	require.Equal(t, []state.AssetID{1, 2, 300, 65536}, ids)

	ids = ids[:0]
	require.NoError(t, dao.ListAssets(func(a *state.Asset) bool {
		ids = append(ids, a.ID)
		return len(ids) < 2
	}))
	require.Equal(t, []state.AssetID{1, 2}, ids)
}

func TestListAssets_Corrupted(t *testing.T) {
	dao := NewSimple(storage.NewMemoryStore())
	dao.Store.Put(makeAssetKey(1), []byte{1, 2, 3})
	err := dao.ListAssets(func(*state.Asset) bool { return true })
	require.Error(t, err)
}

func TestWrappedPersist(t *testing.T) {
	backend := storage.NewMemoryStore()
	dao := NewSimple(backend)
	wrapped := dao.GetWrapped()

	require.NoError(t, PutAsset(wrapped, 5, newTestAsset(5, "A")))
	require.NoError(t, PutAsset(wrapped, 5, newTestAsset(5, "B")))

	// Nothing is visible below until Persist.
	_, err := GetAssetByID(dao, 5)
	require.ErrorIs(t, err, storage.ErrKeyNotFound)
	require.Equal(t, 0, len(dao.GetBatch().Put))

	n, err := wrapped.Persist()
	require.NoError(t, err)
	require.Equal(t, 3, n) // asset, "B" and a tombstone for "A".

	a, err := GetAssetBySymbol(dao, "B")
	require.NoError(t, err)
	require.Equal(t, state.AssetID(5), a.ID)
	_, err = backend.Get(makeAssetKey(5))
	require.ErrorIs(t, err, storage.ErrKeyNotFound)

	_, err = dao.Persist()
	require.NoError(t, err)
	_, err = backend.Get(makeAssetKey(5))
	require.NoError(t, err)
	_, err = backend.Get(makeSymbolKey("A"))
	require.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func newTestAsset(id state.AssetID, symbol string) *state.Asset {
	return &state.Asset{
		ID:                 id,
		Symbol:             symbol,
		Name:               "Asset " + symbol,
		Precision:          100000,
		MaximumShareSupply: 1_000_000_000,
		IssuerAccountID:    state.MarketIssuerID,
	}
}
