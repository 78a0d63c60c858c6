package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectivePort(t *testing.T) {
	assert.Equal(t, 119, ServerConfig{Host: "h"}.EffectivePort())
	assert.Equal(t, 563, ServerConfig{Host: "h", TLS: true}.EffectivePort())
	assert.Equal(t, 8119, ServerConfig{Host: "h", Port: 8119, TLS: true}.EffectivePort())
	assert.Equal(t, "h:563", ServerConfig{Host: "h", TLS: true}.Addr())
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: news.example.com
  tls: true
  username: file-user
default_group: comp.lang.go
`), 0600))

	t.Setenv("NNTP_USER", "env-user")
	t.Setenv("NNTP_PASS", "env-pass")
	t.Setenv("NNTP_BINARY_GROUP", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "news.example.com", cfg.Server.Host)
	assert.True(t, cfg.Server.TLS)
	assert.Equal(t, "env-user", cfg.Server.Username)
	assert.Equal(t, "env-pass", cfg.Server.Password)
	assert.Equal(t, "comp.lang.go", cfg.DefaultGroup)
	assert.Equal(t, "alt.binaries.test", cfg.DefaultBinaryGroup)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("NNTP_HOST", "envhost")
	t.Setenv("NNTP_PORT", "8563")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "envhost", cfg.Server.Host)
	assert.Equal(t, 8563, cfg.Server.Port)
	assert.Equal(t, "alt.test", cfg.DefaultGroup)
	assert.Equal(t, "primary", cfg.Group.Strategy)
	assert.Equal(t, DefaultRetryConfig(), cfg.Group.Retry)
}

func TestGroupValidate(t *testing.T) {
	t.Run("mismatched priorities", func(t *testing.T) {
		g := GroupConfig{
			Servers:    []ServerConfig{{Host: "a"}, {Host: "b"}},
			Priorities: []int{1},
		}
		err := g.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "priorities")
	})

	t.Run("empty servers rejected", func(t *testing.T) {
		g := GroupConfig{}
		assert.Error(t, g.Validate())
	})

	t.Run("valid", func(t *testing.T) {
		g := GroupConfig{
			Servers:    []ServerConfig{{Host: "a"}, {Host: "b"}},
			Priorities: []int{0, 1},
			Strategy:   "round-robin-healthy",
		}
		assert.NoError(t, g.Validate())
	})
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")
	cfg := &Config{
		Server: ServerConfig{Host: "h", Port: 119},
		Group: GroupConfig{
			Servers:  []ServerConfig{{Host: "h"}},
			Strategy: "primary",
			PoolSize: 2,
			Retry: RetryConfig{
				MaxRetries:        1,
				InitialBackoff:    time.Second,
				MaxBackoff:        time.Minute,
				BackoffMultiplier: 2,
			},
		},
	}
	require.NoError(t, Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server.Host, loaded.Server.Host)
	assert.Equal(t, cfg.Group.Retry.MaxRetries, loaded.Group.Retry.MaxRetries)
}
