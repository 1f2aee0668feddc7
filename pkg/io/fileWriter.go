package io

import (
	"fmt"
	"os"
	"path/filepath"
)

// MakeDirForFile makes sure the parent directory of filePath exists, creator
// is only used in the error message.
func MakeDirForFile(filePath string, creator string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return fmt.Errorf("could not create dir for %s: %w", creator, err)
	}
	return nil
}
