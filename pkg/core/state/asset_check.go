package state

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation is the base error for all asset record violations,
// use errors.Is to check for it and errors.As with *InvariantError to get
// the details.
var ErrInvariantViolation = errors.New("asset invariant violation")

// AccountChecker is the ledger capability to check issuer accounts.
type AccountChecker interface {
	AccountExists(AccountID) bool
}

// Limits contains ledger-wide asset limits.
type Limits struct {
	// MaxShareSupply is the upper bound for any asset maximum supply.
	MaxShareSupply int64
	// MaxMarketFee is the upper bound for the asset market fee.
	MaxMarketFee uint16
}

// InvariantError describes the first invalid field found in the asset.
type InvariantError struct {
	Field string
	Rule  string
	// Asset is the snapshot of the record that failed the check.
	Asset Asset
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: asset %d (%q): %s %s", ErrInvariantViolation, e.Asset.ID, e.Asset.Symbol, e.Field, e.Rule)
}

// Unwrap makes errors.Is(err, ErrInvariantViolation) work.
func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

func violation(a *Asset, field, rule string) error {
	return &InvariantError{Field: field, Rule: rule, Asset: *a.Copy()}
}

// Check validates the asset against ledger invariants. The issuer account is
// looked up via accs unless it's the base asset (ID 0) or the issuer is
// MarketIssuerID. It returns the first violation found as *InvariantError.
func (a *Asset) Check(accs AccountChecker, lim Limits) error {
	switch {
	case a.ID < 0:
		return violation(a, "id", "must not be negative")
	case len(a.Symbol) == 0:
		return violation(a, "symbol", "must not be empty")
	case len(a.Name) == 0:
		return violation(a, "name", "must not be empty")
	case a.ID != 0 && a.IssuerAccountID != MarketIssuerID && (accs == nil || !accs.AccountExists(a.IssuerAccountID)):
		return violation(a, "issuer_account_id", fmt.Sprintf("refers to unknown account %d", a.IssuerAccountID))
	case !isPowerOfTen(a.Precision):
		return violation(a, "precision", "must be a power of ten")
	case a.MaximumShareSupply < 0 || a.MaximumShareSupply > lim.MaxShareSupply:
		return violation(a, "maximum_share_supply", fmt.Sprintf("must be in [0, %d]", lim.MaxShareSupply))
	case a.CurrentShareSupply < 0 || a.CurrentShareSupply > a.MaximumShareSupply:
		return violation(a, "current_share_supply", "must be in [0, maximum_share_supply]")
	case a.CollectedFees < 0 || a.CollectedFees > a.CurrentShareSupply:
		return violation(a, "collected_fees", "must be in [0, current_share_supply]")
	case a.TransactionFee < 0 || a.TransactionFee > a.MaximumShareSupply:
		return violation(a, "transaction_fee", "must be in [0, maximum_share_supply]")
	case a.MarketFee > lim.MaxMarketFee:
		return violation(a, "market_fee", fmt.Sprintf("must not exceed %d", lim.MaxMarketFee))
	case a.LastProposalID != 0:
		return violation(a, "last_proposal_id", "must be zero")
	case a.Prediction != nil:
		return violation(a, "prediction", "must not be set")
	}
	return nil
}

// Validator checks assets with the given account capability and limits.
type Validator struct {
	Accounts AccountChecker
	Limits   Limits
}

// Check validates the asset, see Asset.Check.
func (v Validator) Check(a *Asset) error {
	return a.Check(v.Accounts, v.Limits)
}

func isPowerOfTen(p int64) bool {
	if p < 1 {
		return false
	}
	for p%10 == 0 {
		p /= 10
	}
	return p == 1
}
