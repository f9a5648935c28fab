// Package config loads the bfi configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file name inside the user config
// directory.
const FileName = "config.yaml"

// Config mirrors the YAML configuration file. Pointer fields distinguish
// "not set" from zero so command-line defaults can fill the gaps.
type Config struct {
	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Decoding
	Workers       *int  `yaml:"workers"`
	SkipMalformed *bool `yaml:"skip_malformed"`

	// Live capture
	Interface string `yaml:"interface"`
	Filter    string `yaml:"filter"`
	Snaplen   *int   `yaml:"snaplen"`
	BatchSize *int   `yaml:"batch_size"`

	// Output
	OutputFormat string `yaml:"output_format"`

	// Server
	ServerAddress  string `yaml:"server_address"`
	MaxUploadBytes *int64 `yaml:"max_upload_bytes"`
}

// DefaultPath returns $XDG_CONFIG_HOME/bfi/config.yaml (or the platform
// equivalent), or "" if no config directory is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "bfi", FileName)
}

// Load reads and validates the file at path. A missing file yields a zero
// Config and no error; unknown keys are an error.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates YAML configuration data.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the numeric settings that have been set.
func (c Config) Validate() error {
	switch {
	case c.Workers != nil && *c.Workers < 0:
		return fmt.Errorf("workers must be >= 0, got %d", *c.Workers)
	case c.BatchSize != nil && *c.BatchSize < 1:
		return fmt.Errorf("batch_size must be >= 1, got %d", *c.BatchSize)
	case c.Snaplen != nil && *c.Snaplen < 1:
		return fmt.Errorf("snaplen must be >= 1, got %d", *c.Snaplen)
	case c.MaxUploadBytes != nil && *c.MaxUploadBytes < 1:
		return fmt.Errorf("max_upload_bytes must be >= 1, got %d", *c.MaxUploadBytes)
	}
	return nil
}
