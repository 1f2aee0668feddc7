package core

import (
	"errors"
	"testing"

	"github.com/nspcc-dev/assetdb/pkg/core/dao"
	"github.com/nspcc-dev/assetdb/pkg/core/state"
	"github.com/nspcc-dev/assetdb/pkg/core/storage"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testLimits = state.Limits{
	MaxShareSupply: 1_000_000_000_000_000,
	MaxMarketFee:   10000,
}

type fakeAccounts map[state.AccountID]bool

func (f fakeAccounts) AccountExists(id state.AccountID) bool {
	return f[id]
}

func newTestRegistry(t *testing.T) *Registry {
	d, err := dao.NewCached(dao.NewSimple(storage.NewMemoryStore()), 8)
	require.NoError(t, err)
	r, err := NewRegistry(d, fakeAccounts{42: true}, testLimits, zaptest.NewLogger(t))
	require.NoError(t, err)
	return r
}

func newTestAsset(id state.AssetID, symbol string) *state.Asset {
	return &state.Asset{
		ID:                 id,
		Symbol:             symbol,
		Name:               "Asset " + symbol,
		Precision:          100000,
		MaximumShareSupply: 1_000_000_000,
		TransactionFee:     10,
		IssuerAccountID:    42,
	}
}

func TestNewRegistry(t *testing.T) {
	t.Run("no logger", func(t *testing.T) {
		_, err := NewRegistry(dao.NewSimple(storage.NewMemoryStore()), nil, testLimits, nil)
		require.Error(t, err)
	})
	t.Run("version mismatch", func(t *testing.T) {
		d := dao.NewSimple(storage.NewMemoryStore())
		d.PutVersion("0.0.1")
		_, err := NewRegistry(d, nil, testLimits, zaptest.NewLogger(t))
		require.ErrorIs(t, err, ErrVersionMismatch)
	})
	t.Run("reopen", func(t *testing.T) {
		backend := storage.NewMemoryStore()
		r, err := NewRegistry(dao.NewSimple(backend), fakeAccounts{42: true}, testLimits, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NoError(t, r.Register(newTestAsset(1, "GOLD")))
		require.NoError(t, r.Register(newTestAsset(2, "SILVER")))

		r, err = NewRegistry(dao.NewSimple(backend), fakeAccounts{42: true}, testLimits, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.Equal(t, 2, r.Count())
		require.Equal(t, float64(2), testutil.ToFloat64(assetsCount))
		a, err := r.GetBySymbol("SILVER")
		require.NoError(t, err)
		require.Equal(t, state.AssetID(2), a.ID)
	})
}

func TestRegister(t *testing.T) {
	r := newTestRegistry(t)
	a := newTestAsset(1, "GOLD")
	a.CurrentShareSupply = 500
	okBefore := testutil.ToFloat64(registryOps.WithLabelValues("register", "ok"))
	require.NoError(t, r.Register(a))
	require.Equal(t, okBefore+1, testutil.ToFloat64(registryOps.WithLabelValues("register", "ok")))

	got, err := r.GetByID(1)
	require.NoError(t, err)
	require.Equal(t, int64(0), got.CurrentShareSupply)
	require.Equal(t, int64(500), a.CurrentShareSupply)
	require.Equal(t, 1, r.Count())

	t.Run("ID taken", func(t *testing.T) {
		require.ErrorIs(t, r.Register(newTestAsset(1, "OTHER")), ErrIDTaken)
	})
	t.Run("symbol taken", func(t *testing.T) {
		require.ErrorIs(t, r.Register(newTestAsset(2, "GOLD")), ErrSymbolTaken)
	})
	t.Run("invalid", func(t *testing.T) {
		bad := newTestAsset(3, "BAD")
		bad.Precision = 300
		err := r.Register(bad)
		require.ErrorIs(t, err, state.ErrInvariantViolation)
		var ie *state.InvariantError
		require.True(t, errors.As(err, &ie))
		require.Equal(t, "precision", ie.Field)

		_, err = r.GetByID(3)
		require.ErrorIs(t, err, ErrAssetNotFound)
		_, err = r.GetBySymbol("BAD")
		require.ErrorIs(t, err, ErrAssetNotFound)
	})
	t.Run("unknown issuer", func(t *testing.T) {
		bad := newTestAsset(4, "NOBODY")
		bad.IssuerAccountID = 7
		require.ErrorIs(t, r.Register(bad), state.ErrInvariantViolation)
	})
	require.Equal(t, 1, r.Count())
}

func TestIssueBurn(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(newTestAsset(1, "GOLD")))

	a, err := r.Issue(1, 400)
	require.NoError(t, err)
	require.Equal(t, int64(400), a.CurrentShareSupply)

	_, err = r.Issue(1, 1_000_000_000)
	require.ErrorIs(t, err, state.ErrIssueRejected)
	_, err = r.Issue(1, 0)
	require.ErrorIs(t, err, state.ErrIssueRejected)
	_, err = r.Issue(2, 1)
	require.ErrorIs(t, err, ErrAssetNotFound)

	a, err = r.Burn(1, 150)
	require.NoError(t, err)
	require.Equal(t, int64(250), a.CurrentShareSupply)
	_, err = r.Burn(1, 251)
	require.ErrorIs(t, err, state.ErrBurnRejected)

	got, err := r.GetByID(1)
	require.NoError(t, err)
	require.Equal(t, int64(250), got.CurrentShareSupply)
}

func TestBurnBelowFees(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(newTestAsset(1, "GOLD")))
	_, err := r.Issue(1, 100)
	require.NoError(t, err)

	a, err := r.GetByID(1)
	require.NoError(t, err)
	a.CollectedFees = 80
	require.NoError(t, r.Update(a))

	_, err = r.Burn(1, 50)
	require.ErrorIs(t, err, state.ErrInvariantViolation)
	got, err := r.GetByID(1)
	require.NoError(t, err)
	require.Equal(t, int64(100), got.CurrentShareSupply)
}

func TestRestore(t *testing.T) {
	r := newTestRegistry(t)

	a := newTestAsset(1, "GOLD")
	a.CurrentShareSupply = 500
	a.CollectedFees = 20
	require.NoError(t, r.Restore(a))
	got, err := r.GetByID(1)
	require.NoError(t, err)
	require.Equal(t, a, got)
	require.Equal(t, 1, r.Count())

	t.Run("invalid record is not written", func(t *testing.T) {
		bad := newTestAsset(2, "X")
		bad.MaximumShareSupply = 5
		bad.CurrentShareSupply = 9
		require.ErrorIs(t, r.Restore(bad), state.ErrInvariantViolation)

		_, err := r.GetByID(2)
		require.ErrorIs(t, err, ErrAssetNotFound)
		_, err = r.GetBySymbol("X")
		require.ErrorIs(t, err, ErrAssetNotFound)
		require.Equal(t, 1, r.Count())
	})
	t.Run("taken", func(t *testing.T) {
		require.ErrorIs(t, r.Restore(newTestAsset(1, "OTHER")), ErrIDTaken)
		require.ErrorIs(t, r.Restore(newTestAsset(3, "GOLD")), ErrSymbolTaken)
	})
	t.Run("nil", func(t *testing.T) {
		require.Error(t, r.Restore(nil))
	})
}

func TestRename(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(newTestAsset(1, "GOLD")))
	require.NoError(t, r.Register(newTestAsset(2, "SILVER")))

	a, err := r.Rename(1, "AU")
	require.NoError(t, err)
	require.Equal(t, "AU", a.Symbol)

	_, err = r.GetBySymbol("GOLD")
	require.ErrorIs(t, err, ErrAssetNotFound)
	a, err = r.GetBySymbol("AU")
	require.NoError(t, err)
	require.Equal(t, state.AssetID(1), a.ID)

	_, err = r.Rename(1, "SILVER")
	require.ErrorIs(t, err, ErrSymbolTaken)
	_, err = r.Rename(1, "")
	require.ErrorIs(t, err, state.ErrInvariantViolation)
	_, err = r.Rename(1, "AU")
	require.NoError(t, err)
}

func TestUpdate(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(newTestAsset(1, "GOLD")))

	upd := newTestAsset(1, "GOLD")
	upd.Description = "shiny"
	upd.MarketFee = 20
	require.NoError(t, r.Update(upd))
	got, err := r.GetByID(1)
	require.NoError(t, err)
	require.Equal(t, upd, got)

	upd.MarketFee = testLimits.MaxMarketFee + 1
	require.ErrorIs(t, r.Update(upd), state.ErrInvariantViolation)
	require.ErrorIs(t, r.Update(newTestAsset(9, "NINE")), ErrAssetNotFound)
}

func TestRemove(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(newTestAsset(5, "A")))
	_, err := r.Rename(5, "B")
	require.NoError(t, err)

	require.NoError(t, r.Remove(5))
	_, err = r.GetByID(5)
	require.ErrorIs(t, err, ErrAssetNotFound)
	_, err = r.GetBySymbol("B")
	require.ErrorIs(t, err, ErrAssetNotFound)
	require.Equal(t, 0, r.Count())

	require.ErrorIs(t, r.Remove(5), ErrAssetNotFound)

	// Both ID and symbol are reusable.
	require.NoError(t, r.Register(newTestAsset(5, "B")))
}

func TestList(t *testing.T) {
	r := newTestRegistry(t)
	for _, id := range []state.AssetID{3, 1, 2} {
		require.NoError(t, r.Register(newTestAsset(id, string(rune('A'+id)))))
	}
	as, err := r.List()
	require.NoError(t, err)
	require.Len(t, as, 3)
	for i, a := range as {
		require.Equal(t, state.AssetID(i+1), a.ID)
	}
}

func TestAccountMarks(t *testing.T) {
	d := dao.NewSimple(storage.NewMemoryStore())
	r, err := NewRegistry(d, nil, testLimits, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.ErrorIs(t, r.Register(newTestAsset(1, "GOLD")), state.ErrInvariantViolation)
	require.NoError(t, r.AddAccount(42))
	require.NoError(t, r.Register(newTestAsset(1, "GOLD")))

	market := newTestAsset(2, "MKT")
	market.IssuerAccountID = state.MarketIssuerID
	require.NoError(t, r.Register(market))
}

func TestReturnedCopies(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(newTestAsset(1, "GOLD")))
	a, err := r.GetByID(1)
	require.NoError(t, err)
	a.Symbol = "HACKED"
	a, err = r.GetBySymbol("GOLD")
	require.NoError(t, err)
	require.Equal(t, "GOLD", a.Symbol)
}
