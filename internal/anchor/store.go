// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

package anchor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const artifactExt = ".asc"

const dataDirEnv = "GPG_ALIAS_DATA_DIR"

// DataDir returns the anchor storage directory path.
// It checks the GPG_ALIAS_DATA_DIR environment variable first,
// then falls back to the default location under the user's home directory.
func DataDir() (string, error) {
	if dir := os.Getenv(dataDirEnv); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "gpg-alias"), nil
}

// Store keeps one clear-signed anchor artifact per alias in a single
// directory, named <alias>.asc.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// NewDefaultStore creates a Store rooted at the default data directory.
func NewDefaultStore() (*Store, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, err
	}
	return NewStore(dir), nil
}

// Dir returns the storage directory path.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDir creates the storage directory if it does not exist.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create anchor directory: %w", err)
	}
	return nil
}

// validateAlias checks that the alias is safe for use as a filename.
func validateAlias(alias string) error {
	if alias == "" {
		return fmt.Errorf("alias must not be empty")
	}
	if strings.ContainsAny(alias, "/\\") || strings.Contains(alias, "..") {
		return fmt.Errorf("invalid alias %q: must not contain path separators or '..'", alias)
	}
	if alias != filepath.Base(alias) {
		return fmt.Errorf("invalid alias %q: must be a simple filename", alias)
	}
	return nil
}

// Path returns the artifact path for alias.
func (s *Store) Path(alias string) (string, error) {
	if err := validateAlias(alias); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, alias+artifactExt), nil
}

// Exists reports whether an anchor artifact exists for alias.
func (s *Store) Exists(alias string) bool {
	path, err := s.Path(alias)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Read returns the artifact bytes for alias.
func (s *Store) Read(alias string) ([]byte, error) {
	path, err := s.Path(alias)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read anchor for %q: %w", alias, err)
	}
	return data, nil
}

// Write stores the artifact bytes for alias, creating or replacing the
// file with owner-only permissions.
func (s *Store) Write(alias string, data []byte) error {
	path, err := s.Path(alias)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write anchor for %q: %w", alias, err)
	}
	return nil
}

// Remove deletes the artifact for alias.
func (s *Store) Remove(alias string) error {
	path, err := s.Path(alias)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("no anchor found for %q", alias)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove anchor for %q: %w", alias, err)
	}
	return nil
}

// List returns the aliases that have an anchor artifact, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read anchor directory: %w", err)
	}

	var aliases []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if alias, ok := strings.CutSuffix(e.Name(), artifactExt); ok {
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)
	return aliases, nil
}
