package config

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/assetdb/pkg/config/netmode"
	"github.com/nspcc-dev/assetdb/pkg/core/state"
)

// ProtocolConfiguration represents ledger-wide settings, they must be the
// same for every instance working with the same data.
type ProtocolConfiguration struct {
	Magic netmode.Magic `yaml:"Magic"`
	// MaxShareSupply is the cap for the maximum supply of any asset.
	MaxShareSupply int64 `yaml:"MaxShareSupply"`
	// MaxMarketFee is the cap for asset market fees.
	MaxMarketFee uint16 `yaml:"MaxMarketFee"`
}

// Validate checks ProtocolConfiguration for internal consistency and returns
// error if anything inappropriate found.
func (p *ProtocolConfiguration) Validate() error {
	if p.MaxShareSupply <= 0 {
		return errors.New("MaxShareSupply must be positive")
	}
	if p.MaxMarketFee > DefaultMaxMarketFee {
		return fmt.Errorf("MaxMarketFee can't exceed %d", DefaultMaxMarketFee)
	}
	return nil
}

// Limits returns asset limits defined by the configuration.
func (p *ProtocolConfiguration) Limits() state.Limits {
	return state.Limits{
		MaxShareSupply: p.MaxShareSupply,
		MaxMarketFee:   p.MaxMarketFee,
	}
}
