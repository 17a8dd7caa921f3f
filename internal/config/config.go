// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-yaml"
)

// FileName is the configuration file name inside the config directory.
const FileName = "gpg-alias.yaml"

const dirEnv = "GPG_ALIAS_CONFIG_DIR"

//go:embed config.example.yaml
var defaultConfig []byte

// Config is the parsed configuration document.
type Config struct {
	Signing Signing           `yaml:"signing"`
	Aliases map[string]string `yaml:"aliases"`
}

// Signing is the signing policy: whether resolved aliases must carry a
// trust anchor, and which key signs new anchors.
type Signing struct {
	Enabled bool     `yaml:"enabled"`
	Key     string   `yaml:"key"`
	Keyring []string `yaml:"keyring"`
}

// Dir returns the configuration directory path.
// It checks the GPG_ALIAS_CONFIG_DIR environment variable first,
// then falls back to gpg-alias under the user's config directory.
func Dir() (string, error) {
	if dir := os.Getenv(dirEnv); dir != "" {
		return dir, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(base, "gpg-alias"), nil
}

// Path returns the configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Bootstrap ensures the configuration file exists, writing the embedded
// default config on first run. It returns the config path and whether
// the file was created.
func Bootstrap() (path string, created bool, err error) {
	dir, err := Dir()
	if err != nil {
		return "", false, err
	}
	path = filepath.Join(dir, FileName)

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("failed to stat config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, defaultConfig, 0o600); err != nil {
		return "", false, fmt.Errorf("failed to write default config: %w", err)
	}
	return path, true, nil
}

// Load reads and parses the configuration file. Unknown fields are an
// error so typos do not silently disable the signing policy.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Signing.Enabled && c.Signing.Key == "" {
		return fmt.Errorf("signing is enabled but signing.key is not set")
	}
	return nil
}

// Resolve returns the key id bound to alias.
func (c *Config) Resolve(alias string) (string, error) {
	keyID, ok := c.Aliases[alias]
	if !ok {
		return "", fmt.Errorf("no alias %q configured", alias)
	}
	return keyID, nil
}

// AliasNames returns the configured alias names in sorted order.
func (c *Config) AliasNames() []string {
	names := make([]string, 0, len(c.Aliases))
	for name := range c.Aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
