// Package validation checks command-line paths before any work starts.
package validation

import (
	"fmt"
	"os"
)

// StatementFile checks that path names a readable, non-empty regular file.
func StatementFile(path string) error {
	if path == "" {
		return fmt.Errorf("input file is required")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking input file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input %s is a directory, use --dir", path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("input %s is not a regular file", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("input file is empty: %s", path)
	}
	return nil
}

// Directory checks that path names an existing directory.
func Directory(path string) error {
	if path == "" {
		return fmt.Errorf("directory is required")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
