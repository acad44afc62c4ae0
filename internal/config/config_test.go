package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadPartialFile(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
log_level = "debug"

store {
  dir    = "/var/lib/pokervals"
  format = "chd"
}

equity {
  turn_weight = 0.5
}

generate {
  sizes            = [6, 7]
  checkpoint_every = 5000
  freeze           = true
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/var/lib/pokervals", cfg.Store.Dir)
	assert.Equal(t, "chd", cfg.Store.Format)
	assert.Equal(t, 4096, cfg.Store.CHDCache)
	assert.Equal(t, 0.5, cfg.Equity.TurnWeight)
	assert.Equal(t, Default().Equity.Workers, cfg.Equity.Workers)
	assert.Equal(t, []int{6, 7}, cfg.Generate.Sizes)
	assert.Equal(t, 5000, cfg.Generate.CheckpointEvery)
	assert.Equal(t, 100000, cfg.Generate.ProgressEvery)
	assert.True(t, cfg.Generate.Freeze)
	assert.Zero(t, cfg.Cache.HandValues)
}

func TestLoadExplicitZeroTurnWeight(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, `
equity {
  turn_weight = 0
  workers     = 3
}
`))
	require.NoError(t, err)
	assert.Zero(t, cfg.Equity.TurnWeight)
	assert.Equal(t, 3, cfg.Equity.Workers)

	cfg, err = Load(writeConfig(t, `
equity {
  workers = 3
}
`))
	require.NoError(t, err)
	assert.Equal(t, Default().Equity.TurnWeight, cfg.Equity.TurnWeight)
}

func TestLoadRejectsBadHCL(t *testing.T) {
	t.Parallel()
	_, err := Load(writeConfig(t, `store { dir = `))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `unknown_attr = 1`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"format", func(c *Config) { c.Store.Format = "csv" }},
		{"turn weight", func(c *Config) { c.Equity.TurnWeight = 1.5 }},
		{"workers", func(c *Config) { c.Equity.Workers = -1 }},
		{"cache", func(c *Config) { c.Cache.Equity = -3 }},
		{"size", func(c *Config) { c.Generate.Sizes = []int{4} }},
		{"checkpoint", func(c *Config) { c.Generate.CheckpointEvery = 0 }},
	}
	for _, testCase := range tests {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
