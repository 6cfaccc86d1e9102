// Package config loads the desfire-cli YAML configuration file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Reader  ReaderConfig  `yaml:"reader"`
	Keys    KeysConfig    `yaml:"keys"`
	Runtime RuntimeConfig `yaml:"runtime"`
}

type ReaderConfig struct {
	Index       *int   `yaml:"index"`
	Wire        string `yaml:"wire"` // "native" or "iso", default "iso"
	MaxAPDUSize *int   `yaml:"max_apdu_size"`
}

type KeysConfig struct {
	Dir       string `yaml:"dir"` // directory of <slot>.hex files
	AuthKeyNo *int   `yaml:"auth_key_no"`
	Scheme    string `yaml:"scheme"` // "aes", "legacy_des", "iso_3des"
}

type RuntimeConfig struct {
	DeadlineMS      *int   `yaml:"deadline_ms"`
	CmdCounterMode  string `yaml:"cmd_counter_mode"` // "zero" or "per_exchange", default "zero"
}

func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.resolvePaths(path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Reader.Index == nil {
		return fmt.Errorf("config.reader.index is required")
	}
	if *c.Reader.Index < 0 {
		return fmt.Errorf("config.reader.index must be >= 0")
	}
	switch c.Reader.Wire {
	case "", "iso", "native":
	default:
		return fmt.Errorf("config.reader.wire must be \"iso\" or \"native\"")
	}

	if strings.TrimSpace(c.Keys.Dir) == "" {
		return fmt.Errorf("config.keys.dir is required")
	}
	if err := validateReadableDir(c.Keys.Dir, "config.keys.dir"); err != nil {
		return err
	}
	if c.Keys.AuthKeyNo == nil {
		return fmt.Errorf("config.keys.auth_key_no is required")
	}
	if *c.Keys.AuthKeyNo < 0 || *c.Keys.AuthKeyNo > 15 {
		return fmt.Errorf("config.keys.auth_key_no must be 0..15")
	}
	switch c.Keys.Scheme {
	case "aes", "legacy_des", "iso_3des":
	default:
		return fmt.Errorf("config.keys.scheme must be \"aes\", \"legacy_des\" or \"iso_3des\"")
	}

	switch c.Runtime.CmdCounterMode {
	case "", "zero", "per_exchange":
	default:
		return fmt.Errorf("config.runtime.cmd_counter_mode must be \"zero\" or \"per_exchange\"")
	}

	return nil
}

func (c *Config) resolvePaths(configPath string) {
	configDir := filepath.Dir(configPath)
	c.Keys.Dir = resolvePath(configDir, c.Keys.Dir)
}

func resolvePath(baseDir, path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Clean(filepath.Join(baseDir, trimmed))
}

func validateReadableDir(path string, field string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s must point to a directory", field)
	}
	return nil
}
