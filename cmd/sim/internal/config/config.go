// Package config holds the settings of the sim CLI.
//
// Settings live in a single YAML file under os.UserConfigDir():
//
//	~/Library/Application Support/mobius-sim/settings.yaml   (macOS)
//	~/.config/mobius-sim/settings.yaml                       (Linux)
//	%AppData%/mobius-sim/settings.yaml                       (Windows)
//
// MOBIUS_SIM_CONFIG_DIR overrides the directory. S3 credentials are never
// written to the file; they are read from MOBIUS_SIM_S3_ACCESS_KEY and
// MOBIUS_SIM_S3_SECRET_KEY.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-yaml"

	"github.com/design-automation/mobius-sim-go/pkg/storage"
)

const (
	appDir       = "mobius-sim"
	settingsFile = "settings.yaml"

	EnvConfigDir   = "MOBIUS_SIM_CONFIG_DIR"
	EnvS3AccessKey = "MOBIUS_SIM_S3_ACCESS_KEY"
	EnvS3SecretKey = "MOBIUS_SIM_S3_SECRET_KEY"
)

var ErrUnknownKey = errors.New("config: unknown key")

// Config is the content of settings.yaml.
type Config struct {
	// Dir is the configuration directory. Not stored.
	Dir string `yaml:"-"`

	// Output is the default output format of commands.
	Output string `yaml:"output,omitempty"`

	Archive ArchiveConfig `yaml:"archive,omitempty"`
	S3      S3Config      `yaml:"s3,omitempty"`
}

type ArchiveConfig struct {
	// Dir defaults to {config dir}/archive.
	Dir      string `yaml:"dir,omitempty"`
	InMemory bool   `yaml:"in_memory,omitempty"`
}

type S3Config struct {
	Bucket   string `yaml:"bucket,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// Keys lists the settable keys in display order.
var Keys = []string{
	"output",
	"archive.dir",
	"archive.in_memory",
	"s3.bucket",
	"s3.prefix",
	"s3.region",
	"s3.endpoint",
}

// DefaultDir returns the configuration directory.
func DefaultDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, appDir), nil
}

// Load loads the configuration from the default location.
func Load() (*Config, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(dir)
}

// LoadFrom loads the configuration from dir. A missing settings file
// yields the defaults.
func LoadFrom(dir string) (*Config, error) {
	cfg := &Config{Dir: dir}
	data, err := os.ReadFile(cfg.Path())
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cfg.Path(), err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", cfg.Path(), err)
	}
	return cfg, nil
}

// Path returns the settings file path.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, settingsFile)
}

// Save writes the settings file.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(c.Path(), data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", c.Path(), err)
	}
	return nil
}

// ArchiveDir returns the directory of the archive database.
func (c *Config) ArchiveDir() string {
	if c.Archive.Dir != "" {
		return c.Archive.Dir
	}
	return filepath.Join(c.Dir, "archive")
}

// Storage returns the S3 settings merged with credentials from the
// environment.
func (c *Config) Storage() storage.S3Config {
	return storage.S3Config{
		Bucket:    c.S3.Bucket,
		Prefix:    c.S3.Prefix,
		Region:    c.S3.Region,
		Endpoint:  c.S3.Endpoint,
		AccessKey: os.Getenv(EnvS3AccessKey),
		SecretKey: os.Getenv(EnvS3SecretKey),
	}
}

// Get returns the value of a key as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "output":
		return c.Output, nil
	case "archive.dir":
		return c.Archive.Dir, nil
	case "archive.in_memory":
		return strconv.FormatBool(c.Archive.InMemory), nil
	case "s3.bucket":
		return c.S3.Bucket, nil
	case "s3.prefix":
		return c.S3.Prefix, nil
	case "s3.region":
		return c.S3.Region, nil
	case "s3.endpoint":
		return c.S3.Endpoint, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Set changes a key. It does not save.
func (c *Config) Set(key, value string) error {
	switch key {
	case "output":
		c.Output = value
	case "archive.dir":
		c.Archive.Dir = value
	case "archive.in_memory":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("archive.in_memory: %w", err)
		}
		c.Archive.InMemory = b
	case "s3.bucket":
		c.S3.Bucket = value
	case "s3.prefix":
		c.S3.Prefix = value
	case "s3.region":
		c.S3.Region = value
	case "s3.endpoint":
		c.S3.Endpoint = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return nil
}
