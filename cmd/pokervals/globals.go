package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/pokervals/internal/config"
	"github.com/lox/pokervals/internal/equity"
	"github.com/lox/pokervals/internal/ranker"
)

// Globals are flags shared by every command. Command line values override
// the config file.
type Globals struct {
	Config   string `short:"c" default:"pokervals.hcl" help:"Path to HCL configuration file"`
	LogLevel string `short:"l" help:"Log level: debug, info, warn or error (overrides config)"`
	Dir      string `short:"d" help:"Store directory (overrides config)"`
	Format   string `short:"f" help:"Store format: sqlite, chd or live (overrides config)"`
	NoColor  bool   `help:"Disable colored output"`

	stdout io.Writer
	stderr io.Writer
}

func (g *Globals) out() io.Writer {
	if g.stdout == nil {
		return os.Stdout
	}
	return g.stdout
}

func (g *Globals) errOut() io.Writer {
	if g.stderr == nil {
		return os.Stderr
	}
	return g.stderr
}

// load reads the config file, applies flag overrides and builds the logger.
func (g *Globals) load() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.Dir != "" {
		cfg.Store.Dir = g.Dir
	}
	if g.Format != "" {
		cfg.Store.Format = g.Format
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if g.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	return cfg, newLogger(g.errOut(), cfg.LogLevel), nil
}

// engine opens the ranker and wraps it in an equity engine.
func (g *Globals) engine(cfg *config.Config, logger *log.Logger) (*equity.Engine, *ranker.Ranker, error) {
	r, err := ranker.Open(cfg.Store,
		ranker.WithCacheSize(cfg.Cache.HandValues),
		ranker.WithLogger(logger.WithPrefix("ranker")))
	if err != nil {
		return nil, nil, err
	}
	e, err := equity.New(r,
		equity.WithTurnWeight(cfg.Equity.TurnWeight),
		equity.WithWorkers(cfg.Equity.Workers),
		equity.WithCacheSize(cfg.Cache.Equity),
		equity.WithLogger(logger.WithPrefix("equity")))
	if err != nil {
		r.Close()
		return nil, nil, err
	}
	return e, r, nil
}

func newLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{ReportTimestamp: true})
	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

// signalContext is cancelled on interrupt signals.
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
