// Package config handles boardwalk configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mpelletier/boardwalk/internal/db/driver"
	"github.com/mpelletier/boardwalk/internal/util"
)

const (
	// Dir is the boardwalk configuration directory.
	Dir = ".boardwalk"
	// ConfigFileName is the config file name within Dir.
	ConfigFileName = "config.yaml"
)

// Backend names for the storage gateway.
const (
	BackendDirect = "direct"
	BackendProxy  = "proxy"
)

// StorageConfig selects the storage backend and its connection details.
type StorageConfig struct {
	// Backend is "direct" (native transactions) or "proxy" (remote batch
	// statement executor).
	Backend string `yaml:"backend"`
	// Dialect is "sqlite" or "postgres".
	Dialect string `yaml:"dialect"`
	// DSN is the database path (sqlite) or connection string (postgres).
	DSN string `yaml:"dsn"`
	// ProxyURL is the remote statement executor endpoint, required when
	// Backend is "proxy".
	ProxyURL string `yaml:"proxy_url"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the boardwalk configuration.
type Config struct {
	Version     int           `yaml:"version"`
	Storage     StorageConfig `yaml:"storage"`
	Server      ServerConfig  `yaml:"server"`
	MultiTenant bool          `yaml:"multi_tenant"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Storage: StorageConfig{
			Backend: BackendDirect,
			Dialect: string(driver.DialectSQLite),
			DSN:     filepath.Join(Dir, "boardwalk.db"),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load loads configuration from the default location, falling back to
// defaults when no config file exists.
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(Dir, ConfigFileName))
}

// LoadFrom loads configuration from a specific path. A missing file is not
// an error; defaults are returned.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves the config to the default location.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(Dir, ConfigFileName))
}

// SaveTo writes the config to a specific path. The write is atomic so a
// crash mid-save never leaves a truncated config behind.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return util.AtomicWriteFile(path, data, 0644)
}

// Init creates the boardwalk directory with a default config file.
func Init(force bool) error {
	path := filepath.Join(Dir, ConfigFileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("boardwalk already initialized (use --force to overwrite)")
		}
	}
	return Default().SaveTo(path)
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendDirect, BackendProxy:
	default:
		return fmt.Errorf("invalid storage backend %q: must be %q or %q",
			c.Storage.Backend, BackendDirect, BackendProxy)
	}

	if _, err := driver.ParseDialect(c.Storage.Dialect); err != nil {
		return fmt.Errorf("invalid storage dialect: %w", err)
	}

	if c.Storage.Backend == BackendProxy && c.Storage.ProxyURL == "" {
		return fmt.Errorf("storage.proxy_url is required when storage.backend is %q", BackendProxy)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}
