package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// DefaultFile is the config file looked up when none is given.
const DefaultFile = "pokervals.hcl"

// Config represents the complete pokervals configuration
type Config struct {
	LogLevel string
	Store    Store
	Cache    Cache
	Equity   Equity
	Generate Generate
}

// Store locates the precomputed databases
type Store struct {
	Dir      string `hcl:"dir,optional"`
	Format   string `hcl:"format,optional"`
	CHDCache int    `hcl:"chd_cache,optional"`
}

// Cache sizes the memo tables. Zero means unbounded.
type Cache struct {
	HandValues int `hcl:"hand_values,optional"`
	Equity     int `hcl:"equity,optional"`
}

// Equity tunes the equity engine
type Equity struct {
	TurnWeight float64
	Workers    int
}

// Generate controls database generation
type Generate struct {
	Sizes           []int `hcl:"sizes,optional"`
	CheckpointEvery int   `hcl:"checkpoint_every,optional"`
	ProgressEvery   int   `hcl:"progress_every,optional"`
	Freeze          bool  `hcl:"freeze,optional"`
}

// fileConfig mirrors the HCL layout; every block is optional.
type fileConfig struct {
	LogLevel string      `hcl:"log_level,optional"`
	Store    *Store      `hcl:"store,block"`
	Cache    *Cache      `hcl:"cache,block"`
	Equity   *fileEquity `hcl:"equity,block"`
	Generate *Generate   `hcl:"generate,block"`
}

// fileEquity keeps turn_weight as a pointer so an explicit 0 survives
// defaulting.
type fileEquity struct {
	TurnWeight *float64 `hcl:"turn_weight,optional"`
	Workers    int      `hcl:"workers,optional"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Store: Store{
			Dir:      "data",
			Format:   "sqlite",
			CHDCache: 4096,
		},
		Equity: Equity{
			TurnWeight: 0.75,
			Workers:    runtime.NumCPU(),
		},
		Generate: Generate{
			Sizes:           []int{5, 6, 7},
			CheckpointEvery: 100000,
			ProgressEvery:   100000,
		},
	}
}

// Load loads configuration from an HCL file. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := &Config{LogLevel: fc.LogLevel}
	turnWeightSet := false
	if fc.Store != nil {
		cfg.Store = *fc.Store
	}
	if fc.Cache != nil {
		cfg.Cache = *fc.Cache
	}
	if fc.Equity != nil {
		cfg.Equity.Workers = fc.Equity.Workers
		if fc.Equity.TurnWeight != nil {
			cfg.Equity.TurnWeight = *fc.Equity.TurnWeight
			turnWeightSet = true
		}
	}
	if fc.Generate != nil {
		cfg.Generate = *fc.Generate
	}
	cfg.applyDefaults(turnWeightSet)
	return cfg, nil
}

// applyDefaults fills zero values. Cache sizes stay zero (unbounded) and
// freeze stays off unless set.
func (c *Config) applyDefaults(turnWeightSet bool) {
	d := Default()
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Store.Dir == "" {
		c.Store.Dir = d.Store.Dir
	}
	if c.Store.Format == "" {
		c.Store.Format = d.Store.Format
	}
	if c.Store.CHDCache == 0 {
		c.Store.CHDCache = d.Store.CHDCache
	}
	if !turnWeightSet {
		c.Equity.TurnWeight = d.Equity.TurnWeight
	}
	if c.Equity.Workers == 0 {
		c.Equity.Workers = d.Equity.Workers
	}
	if len(c.Generate.Sizes) == 0 {
		c.Generate.Sizes = d.Generate.Sizes
	}
	if c.Generate.CheckpointEvery == 0 {
		c.Generate.CheckpointEvery = d.Generate.CheckpointEvery
	}
	if c.Generate.ProgressEvery == 0 {
		c.Generate.ProgressEvery = d.Generate.ProgressEvery
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	switch c.Store.Format {
	case "sqlite", "chd", "live":
	default:
		return fmt.Errorf("store: invalid format %q (want sqlite, chd or live)", c.Store.Format)
	}
	if c.Store.CHDCache < 0 {
		return fmt.Errorf("store: chd_cache must not be negative")
	}

	if c.Cache.HandValues < 0 || c.Cache.Equity < 0 {
		return fmt.Errorf("cache: sizes must not be negative")
	}

	if c.Equity.TurnWeight < 0 || c.Equity.TurnWeight > 1 {
		return fmt.Errorf("equity: turn_weight must be between 0 and 1, got %g", c.Equity.TurnWeight)
	}
	if c.Equity.Workers < 0 {
		return fmt.Errorf("equity: workers must not be negative")
	}

	for _, n := range c.Generate.Sizes {
		if n < 5 || n > 7 {
			return fmt.Errorf("generate: hand size must be 5, 6 or 7, got %d", n)
		}
	}
	if c.Generate.CheckpointEvery <= 0 {
		return fmt.Errorf("generate: checkpoint_every must be positive")
	}
	if c.Generate.ProgressEvery <= 0 {
		return fmt.Errorf("generate: progress_every must be positive")
	}

	return nil
}
