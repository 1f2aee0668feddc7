package dao

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/assetdb/pkg/core/state"
)

// Cached is a data access object that mimics DAO, but has an LRU read cache
// for assets. Cached entries are private copies, callers always get their own
// instances.
type Cached struct {
	DAO
	assets *lru.Cache

	// dirty is not nil for wrapped instances only, it holds assets changed
	// in this layer that are to be evicted from the cache on Persist.
	dirty map[state.AssetID]struct{}
	// lowerDirty is the dirty set of the instance this one was wrapped
	// around, nil when it's the top-level one.
	lowerDirty map[state.AssetID]struct{}
}

// NewCached returns new Cached wrapping around given DAO with an asset cache
// of the given size.
func NewCached(d DAO, size int) (*Cached, error) {
	assets, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cached{DAO: d, assets: assets}, nil
}

// GetFromIDMap returns the asset from cache or underlying store.
func (cd *Cached) GetFromIDMap(id state.AssetID) (*state.Asset, error) {
	if cd.dirty == nil {
		if v, ok := cd.assets.Get(id); ok {
			return v.(*state.Asset).Copy(), nil
		}
	}
	a, err := cd.DAO.GetFromIDMap(id)
	if err == nil && cd.dirty == nil {
		cd.assets.Add(id, a.Copy())
	}
	return a, err
}

// InsertIntoIDMap puts the asset into the underlying store and evicts it
// from the cache.
func (cd *Cached) InsertIntoIDMap(a *state.Asset) error {
	cd.invalidate(a.ID)
	return cd.DAO.InsertIntoIDMap(a)
}

// EraseFromIDMap drops the asset from the underlying store and evicts it
// from the cache.
func (cd *Cached) EraseFromIDMap(id state.AssetID) error {
	cd.invalidate(id)
	return cd.DAO.EraseFromIDMap(id)
}

func (cd *Cached) invalidate(id state.AssetID) {
	if cd.dirty != nil {
		cd.dirty[id] = struct{}{}
		return
	}
	cd.assets.Remove(id)
}

// Persist flushes all the changes made into the underlying store and drops
// changed assets from the cache.
func (cd *Cached) Persist() (int, error) {
	n, err := cd.DAO.Persist()
	if err != nil {
		return n, err
	}
	for id := range cd.dirty {
		if cd.lowerDirty != nil {
			cd.lowerDirty[id] = struct{}{}
			continue
		}
		cd.assets.Remove(id)
	}
	if cd.dirty != nil {
		cd.dirty = make(map[state.AssetID]struct{})
	}
	return n, nil
}

// GetWrapped implements DAO interface. The wrapped instance shares the cache,
// but doesn't use it until its changes are persisted.
func (cd *Cached) GetWrapped() DAO {
	return &Cached{
		DAO:        cd.DAO.GetWrapped(),
		assets:     cd.assets,
		dirty:      make(map[state.AssetID]struct{}),
		lowerDirty: cd.dirty,
	}
}

// CachedAssets returns the number of assets currently cached.
func (cd *Cached) CachedAssets() int {
	return cd.assets.Len()
}
