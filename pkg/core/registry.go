package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nspcc-dev/assetdb/pkg/core/dao"
	"github.com/nspcc-dev/assetdb/pkg/core/state"
	"github.com/nspcc-dev/assetdb/pkg/core/storage"
	"go.uber.org/zap"
)

// Version is the version of the storage schema, stored DB is only usable
// if its version matches.
const Version = "0.1.0"

var (
	// ErrAssetNotFound is returned for unknown assets.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrSymbolTaken is returned when the symbol is bound to some other asset.
	ErrSymbolTaken = errors.New("symbol is already taken")
	// ErrIDTaken is returned on attempt to register an asset with an existing ID.
	ErrIDTaken = errors.New("asset ID is already taken")
	// ErrVersionMismatch is returned for DBs with incompatible schema version.
	ErrVersionMismatch = errors.New("storage version mismatch")
)

// Registry manages asset lifecycle. Every change is validated before any
// write and committed to the underlying storage as a single changeset.
// Writers are serialized, readers always get copies.
type Registry struct {
	lock      sync.RWMutex
	dao       dao.DAO
	validator state.Validator
	log       *zap.Logger
	count     int
}

// NewRegistry creates a registry over the given DAO. Issuers are checked
// with accs if it's not nil and with the account marks of d otherwise.
func NewRegistry(d dao.DAO, accs state.AccountChecker, lim state.Limits, log *zap.Logger) (*Registry, error) {
	if log == nil {
		return nil, errors.New("empty logger")
	}
	if accs == nil {
		accs = d
	}
	ver, err := d.GetVersion()
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		d.PutVersion(Version)
		if _, err := d.Persist(); err != nil {
			return nil, fmt.Errorf("failed to store version: %w", err)
		}
		log.Info("initialized new asset storage", zap.String("version", Version))
	case err != nil:
		return nil, fmt.Errorf("failed to get storage version: %w", err)
	case ver != Version:
		return nil, fmt.Errorf("%w: %q, expected %q", ErrVersionMismatch, ver, Version)
	}

	r := &Registry{
		dao:       d,
		validator: state.Validator{Accounts: accs, Limits: lim},
		log:       log,
	}
	err = d.ListAssets(func(*state.Asset) bool {
		r.count++
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count assets: %w", err)
	}
	updateAssetsCountMetric(r.count)
	log.Info("asset registry is ready", zap.Int("assets", r.count))
	return r, nil
}

// Limits returns ledger-wide limits used for validation.
func (r *Registry) Limits() state.Limits {
	return r.validator.Limits
}

// GetByID returns a copy of the asset with the given ID.
func (r *Registry) GetByID(id state.AssetID) (*state.Asset, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return getByID(r.dao, id)
}

// GetBySymbol returns a copy of the asset with the given symbol.
func (r *Registry) GetBySymbol(symbol string) (*state.Asset, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	a, err := dao.GetAssetBySymbol(r.dao, symbol)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrAssetNotFound, symbol)
		}
		return nil, err
	}
	return a, nil
}

// List returns all registered assets ordered by ID.
func (r *Registry) List() ([]*state.Asset, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	res := make([]*state.Asset, 0, r.count)
	err := r.dao.ListAssets(func(a *state.Asset) bool {
		res = append(res, a)
		return true
	})
	return res, err
}

// Count returns the number of registered assets.
func (r *Registry) Count() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.count
}

// Register adds a new asset. Its current supply is reset to zero, both
// ID and symbol must be free.
func (r *Registry) Register(a *state.Asset) (err error) {
	defer func() { updateOpMetric("register", err) }()

	a = a.Copy()
	a.CurrentShareSupply = 0
	if err := r.insert(a); err != nil {
		return err
	}
	r.log.Info("asset registered",
		zap.Int32("id", int32(a.ID)),
		zap.String("symbol", a.Symbol),
		zap.Int64("precision", a.Precision),
		zap.Int64("max_supply", a.MaximumShareSupply))
	return nil
}

// Restore adds an asset exactly as given, supply and fees included. It's
// used to load dumps, the record is validated as a whole before anything is
// written.
func (r *Registry) Restore(a *state.Asset) (err error) {
	defer func() { updateOpMetric("restore", err) }()

	if a == nil {
		return errors.New("nil asset")
	}
	a = a.Copy()
	if err := r.insert(a); err != nil {
		return err
	}
	r.log.Info("asset restored",
		zap.Int32("id", int32(a.ID)),
		zap.String("symbol", a.Symbol),
		zap.Int64("supply", a.CurrentShareSupply))
	return nil
}

func (r *Registry) insert(a *state.Asset) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	w := r.dao.GetWrapped()
	if _, err := w.GetFromIDMap(a.ID); err == nil {
		return fmt.Errorf("%w: %d", ErrIDTaken, a.ID)
	} else if !errors.Is(err, storage.ErrKeyNotFound) {
		return err
	}
	if err := checkSymbolFree(w, a.Symbol, a.ID); err != nil {
		return err
	}
	if err := r.check(a); err != nil {
		return err
	}
	if err := dao.PutAsset(w, a.ID, a); err != nil {
		return err
	}
	if err := r.persist(w); err != nil {
		return err
	}
	r.count++
	updateAssetsCountMetric(r.count)
	return nil
}

// Issue increases the current supply of the asset and returns the updated
// record.
func (r *Registry) Issue(id state.AssetID, amount int64) (res *state.Asset, err error) {
	defer func() { updateOpMetric("issue", err) }()

	res, err = r.modify(id, func(a *state.Asset) error {
		return a.Issue(amount)
	})
	if err != nil {
		return nil, err
	}
	issuedShares.Add(float64(amount))
	r.log.Debug("shares issued",
		zap.Int32("id", int32(id)),
		zap.Int64("amount", amount),
		zap.Int64("supply", res.CurrentShareSupply))
	return res, nil
}

// Burn decreases the current supply of the asset and returns the updated
// record.
func (r *Registry) Burn(id state.AssetID, amount int64) (res *state.Asset, err error) {
	defer func() { updateOpMetric("burn", err) }()

	res, err = r.modify(id, func(a *state.Asset) error {
		return a.Burn(amount)
	})
	if err != nil {
		return nil, err
	}
	burntShares.Add(float64(amount))
	r.log.Debug("shares burnt",
		zap.Int32("id", int32(id)),
		zap.Int64("amount", amount),
		zap.Int64("supply", res.CurrentShareSupply))
	return res, nil
}

// Rename changes the symbol of the asset, the new one must be free.
func (r *Registry) Rename(id state.AssetID, symbol string) (res *state.Asset, err error) {
	defer func() { updateOpMetric("rename", err) }()

	var old string
	res, err = r.modify(id, func(a *state.Asset) error {
		old = a.Symbol
		a.Symbol = symbol
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("asset renamed",
		zap.Int32("id", int32(id)),
		zap.String("old", old),
		zap.String("symbol", symbol))
	return res, nil
}

// Update replaces the stored asset with the given one (matched by ID).
func (r *Registry) Update(upd *state.Asset) (err error) {
	defer func() { updateOpMetric("update", err) }()

	_, err = r.modify(upd.ID, func(a *state.Asset) error {
		*a = *upd.Copy()
		return nil
	})
	if err != nil {
		return err
	}
	r.log.Info("asset updated",
		zap.Int32("id", int32(upd.ID)),
		zap.String("symbol", upd.Symbol))
	return nil
}

// Remove drops the asset from the registry.
func (r *Registry) Remove(id state.AssetID) (err error) {
	defer func() { updateOpMetric("remove", err) }()

	r.lock.Lock()
	defer r.lock.Unlock()
	w := r.dao.GetWrapped()
	a, err := getByID(w, id)
	if err != nil {
		return err
	}
	if err := dao.DeleteAsset(w, id); err != nil {
		return err
	}
	if err := r.persist(w); err != nil {
		return err
	}
	r.count--
	updateAssetsCountMetric(r.count)
	r.log.Info("asset removed",
		zap.Int32("id", int32(id)),
		zap.String("symbol", a.Symbol))
	return nil
}

// AddAccount marks the account as existing in the underlying storage, it's
// only relevant when the registry uses storage account marks.
func (r *Registry) AddAccount(id state.AccountID) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	w := r.dao.GetWrapped()
	w.PutAccount(id)
	if err := r.persist(w); err != nil {
		return err
	}
	r.log.Info("account added", zap.Int32("id", int32(id)))
	return nil
}

// modify applies f to a copy of the stored asset, validates the result and
// commits it.
func (r *Registry) modify(id state.AssetID, f func(a *state.Asset) error) (*state.Asset, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	w := r.dao.GetWrapped()
	a, err := getByID(w, id)
	if err != nil {
		return nil, err
	}
	old := a.Symbol
	if err := f(a); err != nil {
		r.log.Debug("asset change rejected", zap.Int32("id", int32(id)), zap.Error(err))
		return nil, err
	}
	if a.ID != id {
		return nil, fmt.Errorf("%w: %d vs %d", dao.ErrIDMismatch, a.ID, id)
	}
	if a.Symbol != old {
		if err := checkSymbolFree(w, a.Symbol, id); err != nil {
			return nil, err
		}
	}
	if err := r.check(a); err != nil {
		return nil, err
	}
	if err := dao.PutAsset(w, id, a); err != nil {
		return nil, err
	}
	if err := r.persist(w); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Registry) check(a *state.Asset) error {
	err := r.validator.Check(a)
	if err != nil {
		r.log.Debug("asset validation failed", zap.Int32("id", int32(a.ID)), zap.Error(err))
	}
	return err
}

// persist flushes the wrapped layer and then the registry's own one to the
// backing store.
func (r *Registry) persist(w dao.DAO) error {
	if ce := r.log.Check(zap.DebugLevel, "committing changes"); ce != nil {
		b := w.GetBatch()
		ce.Write(zap.Int("put", len(b.Put)), zap.Int("deleted", len(b.Deleted)))
	}
	if _, err := w.Persist(); err != nil {
		return fmt.Errorf("failed to persist changes: %w", err)
	}
	n, err := r.dao.Persist()
	if err != nil {
		r.log.Error("failed to persist to the backing store", zap.Error(err))
		return fmt.Errorf("failed to persist changes: %w", err)
	}
	r.log.Debug("persisted", zap.Int("keys", n))
	return nil
}

func getByID(d dao.DAO, id state.AssetID) (*state.Asset, error) {
	a, err := dao.GetAssetByID(d, id)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrAssetNotFound, id)
		}
		return nil, err
	}
	return a, nil
}

func checkSymbolFree(d dao.DAO, symbol string, id state.AssetID) error {
	other, err := dao.GetAssetBySymbol(d, symbol)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != id:
		return fmt.Errorf("%w: %q is used by asset %d", ErrSymbolTaken, symbol, other.ID)
	}
	return nil
}
