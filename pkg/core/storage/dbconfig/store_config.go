/*
Package dbconfig contains the storage engine section of the node configuration.
*/
package dbconfig

import (
	"errors"
	"fmt"
)

// Supported DB types.
const (
	LevelDB    = "leveldb"
	BoltDB     = "boltdb"
	InMemoryDB = "inmemory"
)

type (
	// DBConfiguration selects the engine the asset index is kept in. InMemoryDB
	// loses everything on restart and is meant for tests.
	DBConfiguration struct {
		Type           string         `yaml:"Type"`
		LevelDBOptions LevelDBOptions `yaml:"LevelDBOptions"`
		BoltDBOptions  BoltDBOptions  `yaml:"BoltDBOptions"`
	}
	// LevelDBOptions configuration for LevelDB.
	LevelDBOptions struct {
		DataDirectoryPath string `yaml:"DataDirectoryPath"`
		ReadOnly          bool   `yaml:"ReadOnly"`
	}
	// BoltDBOptions configuration for BoltDB.
	BoltDBOptions struct {
		FilePath string `yaml:"FilePath"`
		ReadOnly bool   `yaml:"ReadOnly"`
	}
)

// Validate checks that the engine is known and has its location set.
func (c DBConfiguration) Validate() error {
	switch c.Type {
	case InMemoryDB:
	case LevelDB:
		if c.LevelDBOptions.DataDirectoryPath == "" {
			return errors.New("LevelDB requires DataDirectoryPath")
		}
	case BoltDB:
		if c.BoltDBOptions.FilePath == "" {
			return errors.New("BoltDB requires FilePath")
		}
	default:
		return fmt.Errorf("unknown DB type: %q", c.Type)
	}
	return nil
}
