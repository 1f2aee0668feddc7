package dao

import (
	"encoding/binary"
	"errors"

	"github.com/nspcc-dev/assetdb/pkg/core/state"
	"github.com/nspcc-dev/assetdb/pkg/core/storage"
	"github.com/nspcc-dev/assetdb/pkg/io"
)

// ErrCorruptedIndex is returned for symbol index entries that can't be
// decoded.
var ErrCorruptedIndex = errors.New("corrupted symbol index entry")

// DAO is a data access object.
type DAO interface {
	AssetStorage
	AccountExists(id state.AccountID) bool
	DeleteAccount(id state.AccountID)
	GetAndDecode(entity io.Serializable, key []byte) error
	GetBatch() *storage.MemBatch
	GetVersion() (string, error)
	GetWrapped() DAO
	ListAssets(f func(*state.Asset) bool) error
	Persist() (int, error)
	Put(entity io.Serializable, key []byte) error
	PutAccount(id state.AccountID)
	PutVersion(v string)
}

// Simple is memCached wrapper around DB, simple DAO implementation.
type Simple struct {
	Store *storage.MemCachedStore
}

// NewSimple creates new simple dao using provided backend store.
func NewSimple(backend storage.Store) *Simple {
	return &Simple{Store: storage.NewMemCachedStore(backend)}
}

// GetBatch returns currently accumulated DB changeset.
func (dao *Simple) GetBatch() *storage.MemBatch {
	return dao.Store.GetBatch()
}

// GetWrapped returns new DAO instance with another layer of wrapped
// MemCachedStore around the current DAO Store.
func (dao *Simple) GetWrapped() DAO {
	return NewSimple(dao.Store)
}

// GetAndDecode performs get operation and decoding with serializable structures.
func (dao *Simple) GetAndDecode(entity io.Serializable, key []byte) error {
	entityBytes, err := dao.Store.Get(key)
	if err != nil {
		return err
	}
	reader := io.NewBinReaderFromBuf(entityBytes)
	entity.DecodeBinary(reader)
	return reader.Err
}

// Put performs put operation with serializable structures.
func (dao *Simple) Put(entity io.Serializable, key []byte) error {
	return dao.putWithBuffer(entity, key, io.NewBufBinWriter())
}

// putWithBuffer performs put operation using buf as a pre-allocated buffer for serialization.
func (dao *Simple) putWithBuffer(entity io.Serializable, key []byte, buf *io.BufBinWriter) error {
	entity.EncodeBinary(buf.BinWriter)
	if buf.Err != nil {
		return buf.Err
	}
	dao.Store.Put(key, buf.Bytes())
	return nil
}

// -- start accounts.

func makeAccountKey(id state.AccountID) []byte {
	key := make([]byte, 5)
	key[0] = byte(storage.STAccount)
	binary.BigEndian.PutUint32(key[1:], uint32(id))
	return key
}

// AccountExists implements state.AccountChecker, it checks for the account
// mark in the store.
func (dao *Simple) AccountExists(id state.AccountID) bool {
	_, err := dao.Store.Get(makeAccountKey(id))
	return err == nil
}

// PutAccount marks the account as existing.
func (dao *Simple) PutAccount(id state.AccountID) {
	dao.Store.Put(makeAccountKey(id), []byte{1})
}

// DeleteAccount drops the account mark.
func (dao *Simple) DeleteAccount(id state.AccountID) {
	dao.Store.Delete(makeAccountKey(id))
}

// -- end accounts.

// -- start assets.

func makeAssetKey(id state.AssetID) []byte {
	key := make([]byte, 5)
	key[0] = byte(storage.STAsset)
	binary.BigEndian.PutUint32(key[1:], uint32(id))
	return key
}

func makeSymbolKey(symbol string) []byte {
	return storage.AppendPrefix(storage.IXAssetSymbol, []byte(symbol))
}

// GetFromIDMap returns the asset as recorded in the store. Every call
// decodes a new independent instance.
func (dao *Simple) GetFromIDMap(id state.AssetID) (*state.Asset, error) {
	a := new(state.Asset)
	err := dao.GetAndDecode(a, makeAssetKey(id))
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetFromSymbolMap returns the ID the symbol is bound to.
func (dao *Simple) GetFromSymbolMap(symbol string) (state.AssetID, error) {
	b, err := dao.Store.Get(makeSymbolKey(symbol))
	if err != nil {
		return 0, err
	}
	if len(b) != 4 {
		return 0, ErrCorruptedIndex
	}
	return state.AssetID(binary.LittleEndian.Uint32(b)), nil
}

// InsertIntoIDMap puts the asset into the primary index.
func (dao *Simple) InsertIntoIDMap(a *state.Asset) error {
	return dao.Put(a, makeAssetKey(a.ID))
}

// InsertIntoSymbolMap binds the symbol to the given ID.
func (dao *Simple) InsertIntoSymbolMap(symbol string, id state.AssetID) error {
	val := make([]byte, 4)
	binary.LittleEndian.PutUint32(val, uint32(id))
	dao.Store.Put(makeSymbolKey(symbol), val)
	return nil
}

// EraseFromIDMap drops the asset from the primary index.
func (dao *Simple) EraseFromIDMap(id state.AssetID) error {
	dao.Store.Delete(makeAssetKey(id))
	return nil
}

// EraseFromSymbolMap drops the symbol binding.
func (dao *Simple) EraseFromSymbolMap(symbol string) error {
	dao.Store.Delete(makeSymbolKey(symbol))
	return nil
}

// ListAssets iterates over all stored assets in ascending ID order until f
// returns false.
func (dao *Simple) ListAssets(f func(*state.Asset) bool) error {
	var err error
	dao.Store.Seek(storage.SeekRange{Prefix: storage.STAsset.Bytes()}, func(k, v []byte) bool {
		a := new(state.Asset)
		r := io.NewBinReaderFromBuf(v)
		a.DecodeBinary(r)
		if r.Err != nil {
			err = r.Err
			return false
		}
		return f(a)
	})
	return err
}

// -- end assets.

// GetVersion attempts to get the current version stored in the
// underlying store.
func (dao *Simple) GetVersion() (string, error) {
	version, err := dao.Store.Get(storage.SYSVersion.Bytes())
	return string(version), err
}

// PutVersion stores the given version in the underlying store.
func (dao *Simple) PutVersion(v string) {
	dao.Store.Put(storage.SYSVersion.Bytes(), []byte(v))
}

// Persist flushes all the changes made into the (supposedly) persistent
// underlying store.
func (dao *Simple) Persist() (int, error) {
	return dao.Store.Persist()
}
