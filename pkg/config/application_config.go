package config

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/assetdb/pkg/core/storage/dbconfig"
)

// ApplicationConfiguration config specific to the node.
type ApplicationConfiguration struct {
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`

	LogLevel string `yaml:"LogLevel"`
	LogPath  string `yaml:"LogPath"`

	// AssetCacheSize is the number of assets kept in the read cache.
	AssetCacheSize int          `yaml:"AssetCacheSize"`
	Pprof          BasicService `yaml:"Pprof"`
	Prometheus     BasicService `yaml:"Prometheus"`
}

// Validate checks ApplicationConfiguration for internal consistency and
// returns error if anything inappropriate found.
func (a *ApplicationConfiguration) Validate() error {
	if err := a.DBConfiguration.Validate(); err != nil {
		return err
	}
	if a.AssetCacheSize <= 0 {
		return errors.New("AssetCacheSize must be positive")
	}
	for name, s := range map[string]BasicService{"Pprof": a.Pprof, "Prometheus": a.Prometheus} {
		if s.Enabled && len(s.Addresses) == 0 {
			return fmt.Errorf("%s is enabled, but no Addresses specified", name)
		}
	}
	return nil
}
