package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, BackendDirect, cfg.Storage.Backend)
	assert.Equal(t, "sqlite", cfg.Storage.Dialect)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.MultiTenant)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFrom(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
version: 1
storage:
  backend: proxy
  dialect: postgres
  dsn: postgres://localhost/boardwalk
  proxy_url: http://executor.internal/batch
server:
  addr: ":9090"
multi_tenant: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, BackendProxy, cfg.Storage.Backend)
	assert.Equal(t, "postgres", cfg.Storage.Dialect)
	assert.Equal(t, "http://executor.internal/batch", cfg.Storage.ProxyURL)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.MultiTenant)
}

func TestSaveToRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Server.Addr = ":7070"
	cfg.MultiTenant = true
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	// An invalid config refuses to save.
	cfg.Storage.Backend = "bogus"
	assert.Error(t, cfg.SaveTo(path))
}

func TestLoadFromInvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: ["), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "replicated" },
			wantErr: "invalid storage backend",
		},
		{
			name:    "unknown dialect",
			mutate:  func(c *Config) { c.Storage.Dialect = "oracle" },
			wantErr: "invalid storage dialect",
		},
		{
			name: "proxy without url",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendProxy
				c.Storage.ProxyURL = ""
			},
			wantErr: "proxy_url is required",
		},
		{
			name:    "empty addr",
			mutate:  func(c *Config) { c.Server.Addr = "" },
			wantErr: "server.addr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
