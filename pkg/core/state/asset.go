package state

import (
	"errors"

	"github.com/nspcc-dev/assetdb/pkg/io"
)

// MarketIssuerID is the reserved issuer of market-internal assets, it has no
// accountable issuer account behind it.
const MarketIssuerID AccountID = -2

var (
	// ErrIssueRejected is returned when the requested amount can't be issued.
	ErrIssueRejected = errors.New("issuance rejected")
	// ErrBurnRejected is returned when the requested amount can't be burnt.
	ErrBurnRejected = errors.New("burn rejected")
)

type (
	// AssetID is the numeric identity of an asset.
	AssetID int32
	// AccountID is the numeric identity of an account.
	AccountID int32
)

// PredictionRef links an asset to a prediction market definition. It's
// reserved for future use and must not be set for now.
type PredictionRef struct {
	BaseAssetID AssetID `json:"base_asset_id"`
}

// Amount is some number of shares of the particular asset.
type Amount struct {
	AssetID AssetID `json:"asset_id"`
	Amount  int64   `json:"amount"`
}

// Asset is a fungible asset record. All share amounts are expressed in the
// smallest indivisible units, Precision of them make one whole unit.
type Asset struct {
	ID                 AssetID        `json:"id"`
	Symbol             string         `json:"symbol"`
	Name               string         `json:"name"`
	Description        string         `json:"description,omitempty"`
	Precision          int64          `json:"precision"`
	MaximumShareSupply int64          `json:"maximum_share_supply"`
	CurrentShareSupply int64          `json:"current_share_supply"`
	CollectedFees      int64          `json:"collected_fees"`
	TransactionFee     int64          `json:"transaction_fee"`
	MarketFee          uint16         `json:"market_fee"`
	IssuerAccountID    AccountID      `json:"issuer_account_id"`
	LastProposalID     int32          `json:"last_proposal_id"`
	Prediction         *PredictionRef `json:"prediction,omitempty"`
}

// Copy returns an independent copy of the asset.
func (a *Asset) Copy() *Asset {
	cp := *a
	if a.Prediction != nil {
		p := *a.Prediction
		cp.Prediction = &p
	}
	return &cp
}

// AvailableShares returns the number of shares that can still be issued. It's
// never negative for assets that pass Check.
func (a *Asset) AvailableShares() int64 {
	return a.MaximumShareSupply - a.CurrentShareSupply
}

// CanIssue checks whether the given positive amount can be issued without
// exceeding the maximum supply.
func (a *Asset) CanIssue(amount int64) bool {
	if amount <= 0 {
		return false
	}
	newSupply := a.CurrentShareSupply + amount
	// Signed overflow wraps around, so the sum drops below the current
	// supply in this case.
	return newSupply > a.CurrentShareSupply && newSupply <= a.MaximumShareSupply
}

// CanIssueAmount is the same as CanIssue, but it also checks that the amount
// belongs to this asset.
func (a *Asset) CanIssueAmount(amount Amount) bool {
	if amount.AssetID != a.ID {
		return false
	}
	return a.CanIssue(amount.Amount)
}

// Issue increases the current supply by the given amount. It returns
// ErrIssueRejected and leaves the asset intact if CanIssue fails.
func (a *Asset) Issue(amount int64) error {
	if !a.CanIssue(amount) {
		return ErrIssueRejected
	}
	a.CurrentShareSupply += amount
	return nil
}

// Burn decreases the current supply by the given positive amount. It returns
// ErrBurnRejected and leaves the asset intact if there is not enough shares
// in circulation.
func (a *Asset) Burn(amount int64) error {
	if amount <= 0 || amount > a.CurrentShareSupply {
		return ErrBurnRejected
	}
	a.CurrentShareSupply -= amount
	return nil
}

// EncodeBinary implements the io.Serializable interface.
func (a *Asset) EncodeBinary(bw *io.BinWriter) {
	bw.WriteU32LE(uint32(a.ID))
	bw.WriteString(a.Symbol)
	bw.WriteString(a.Name)
	bw.WriteString(a.Description)
	bw.WriteU64LE(uint64(a.Precision))
	bw.WriteU64LE(uint64(a.MaximumShareSupply))
	bw.WriteU64LE(uint64(a.CurrentShareSupply))
	bw.WriteU64LE(uint64(a.CollectedFees))
	bw.WriteU64LE(uint64(a.TransactionFee))
	bw.WriteU16LE(a.MarketFee)
	bw.WriteU32LE(uint32(a.IssuerAccountID))
	bw.WriteU32LE(uint32(a.LastProposalID))
	bw.WriteBool(a.Prediction != nil)
	if a.Prediction != nil {
		bw.WriteU32LE(uint32(a.Prediction.BaseAssetID))
	}
}

// DecodeBinary implements the io.Serializable interface.
func (a *Asset) DecodeBinary(br *io.BinReader) {
	a.ID = AssetID(br.ReadU32LE())
	a.Symbol = br.ReadString()
	a.Name = br.ReadString()
	a.Description = br.ReadString()
	a.Precision = int64(br.ReadU64LE())
	a.MaximumShareSupply = int64(br.ReadU64LE())
	a.CurrentShareSupply = int64(br.ReadU64LE())
	a.CollectedFees = int64(br.ReadU64LE())
	a.TransactionFee = int64(br.ReadU64LE())
	a.MarketFee = br.ReadU16LE()
	a.IssuerAccountID = AccountID(br.ReadU32LE())
	a.LastProposalID = int32(br.ReadU32LE())
	a.Prediction = nil
	if br.ReadBool() {
		a.Prediction = &PredictionRef{BaseAssetID: AssetID(br.ReadU32LE())}
	}
}
