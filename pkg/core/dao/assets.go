package dao

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/assetdb/pkg/core/state"
	"github.com/nspcc-dev/assetdb/pkg/core/storage"
)

// AssetStorage is the set of primitive operations over the two asset
// indices: the primary one (id to record) and the secondary one (symbol to
// id). Lookups return storage.ErrKeyNotFound for missing entries. Backends
// only implement these, index consistency is maintained by GetAssetBySymbol,
// PutAsset and DeleteAsset.
type AssetStorage interface {
	GetFromIDMap(id state.AssetID) (*state.Asset, error)
	GetFromSymbolMap(symbol string) (state.AssetID, error)
	InsertIntoIDMap(a *state.Asset) error
	InsertIntoSymbolMap(symbol string, id state.AssetID) error
	EraseFromIDMap(id state.AssetID) error
	EraseFromSymbolMap(symbol string) error
}

// ErrIDMismatch is returned when the record stored doesn't have the ID it's
// stored under.
var ErrIDMismatch = errors.New("asset ID doesn't match the key")

// GetAssetByID returns the asset with the given ID.
func GetAssetByID(s AssetStorage, id state.AssetID) (*state.Asset, error) {
	return s.GetFromIDMap(id)
}

// GetAssetBySymbol resolves the symbol to the asset ID and returns the
// corresponding asset. Dangling symbol entries are reported as
// storage.ErrKeyNotFound.
func GetAssetBySymbol(s AssetStorage, symbol string) (*state.Asset, error) {
	id, err := s.GetFromSymbolMap(symbol)
	if err != nil {
		return nil, err
	}
	a, err := s.GetFromIDMap(id)
	if err != nil {
		return nil, err
	}
	if a.Symbol != symbol {
		return nil, storage.ErrKeyNotFound
	}
	return a, nil
}

// PutAsset stores the asset under the given ID updating both indices. If
// there is a record with some other symbol at this ID its symbol entry is
// dropped. Symbol uniqueness across different IDs is the caller's concern.
func PutAsset(s AssetStorage, id state.AssetID, a *state.Asset) error {
	if a.ID != id {
		return fmt.Errorf("%w: %d vs %d", ErrIDMismatch, a.ID, id)
	}
	old, err := s.GetFromIDMap(id)
	switch {
	case err == nil:
		if old.Symbol != a.Symbol {
			if err := eraseSymbolOf(s, old.Symbol, id); err != nil {
				return err
			}
		}
	case !errors.Is(err, storage.ErrKeyNotFound):
		return err
	}
	if err := s.InsertIntoIDMap(a); err != nil {
		return err
	}
	return s.InsertIntoSymbolMap(a.Symbol, id)
}

// DeleteAsset removes the asset with the given ID from both indices. It's a
// no-op for missing assets.
func DeleteAsset(s AssetStorage, id state.AssetID) error {
	old, err := s.GetFromIDMap(id)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil
		}
		return err
	}
	if err := s.EraseFromIDMap(id); err != nil {
		return err
	}
	return eraseSymbolOf(s, old.Symbol, id)
}

// eraseSymbolOf drops the symbol entry if it points to id.
func eraseSymbolOf(s AssetStorage, symbol string, id state.AssetID) error {
	cur, err := s.GetFromSymbolMap(symbol)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil
		}
		return err
	}
	if cur != id {
		return nil
	}
	return s.EraseFromSymbolMap(symbol)
}
