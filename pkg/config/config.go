package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nspcc-dev/assetdb/pkg/config/netmode"
	"github.com/nspcc-dev/assetdb/pkg/core/storage/dbconfig"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxShareSupply is the default cap for asset maximum supply.
	DefaultMaxShareSupply int64 = 1_000_000_000_000_000
	// DefaultMaxMarketFee is the default cap for asset market fees (100%
	// expressed in hundredths of a percent).
	DefaultMaxMarketFee uint16 = 10000
	// DefaultAssetCacheSize is the default number of cached assets.
	DefaultAssetCacheSize = 1024
)

// Version is the version of the application, set at build time with
// -ldflags "-X github.com/nspcc-dev/assetdb/pkg/config.Version=...".
var Version string

// Config top level struct representing the config
// for the application.
type Config struct {
	ProtocolConfiguration    ProtocolConfiguration    `yaml:"ProtocolConfiguration"`
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Load attempts to load the config from the given
// path for the given netMode.
func Load(path string, netMode netmode.Magic) (Config, error) {
	configPath := filepath.Join(path, fmt.Sprintf("protocol.%s.yml", netMode))
	return LoadFile(configPath)
}

// LoadFile loads config from the provided path.
func LoadFile(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", configPath)
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Unmarshal(configData)
}

// Unmarshal decodes the config from YAML applying defaults for missing
// values and validates the result.
func Unmarshal(data []byte) (Config, error) {
	config := Config{
		ProtocolConfiguration: ProtocolConfiguration{
			MaxShareSupply: DefaultMaxShareSupply,
			MaxMarketFee:   DefaultMaxMarketFee,
		},
		ApplicationConfiguration: ApplicationConfiguration{
			DBConfiguration: dbconfig.DBConfiguration{
				Type: dbconfig.InMemoryDB,
			},
			AssetCacheSize: DefaultAssetCacheSize,
		},
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.ProtocolConfiguration.Validate()
	if err != nil {
		return Config{}, err
	}
	err = config.ApplicationConfiguration.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}
