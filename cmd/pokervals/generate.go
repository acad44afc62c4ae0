package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/muesli/termenv"

	"github.com/lox/pokervals/internal/builder"
	"github.com/lox/pokervals/internal/tui"
)

// GenerateCmd builds the hand value databases, resuming interrupted runs.
type GenerateCmd struct {
	Size   []int `short:"s" help:"Hand sizes to generate (default from config)"`
	Freeze bool  `help:"Freeze each completed database to CHD"`
	Plain  bool  `help:"Log progress lines instead of drawing a progress bar"`
}

func (c *GenerateCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	sizes := cfg.Generate.Sizes
	if len(c.Size) > 0 {
		sizes = c.Size
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	bcfg := builder.Config{
		Dir:             cfg.Store.Dir,
		CheckpointEvery: cfg.Generate.CheckpointEvery,
		ProgressEvery:   cfg.Generate.ProgressEvery,
		Freeze:          cfg.Generate.Freeze || c.Freeze,
	}

	var opts []builder.Option
	var reporter *tui.Reporter
	if !c.Plain && isTerminal(g.errOut()) {
		reporter = tui.NewReporter(g.errOut(), cancel)
		reporter.Start()
		logger = newLogger(reporter, cfg.LogLevel)
		opts = append(opts,
			builder.WithProgress(reporter.Report),
			builder.WithSizeDone(reporter.SizeDone))
	}
	opts = append(opts, builder.WithLogger(logger))

	b, err := builder.New(bcfg, opts...)
	if err != nil {
		if reporter != nil {
			_ = reporter.Close(err)
		}
		return err
	}

	start := time.Now()
	results, runErr := b.Run(ctx, sizes...)
	if reporter != nil {
		if err := reporter.Close(runErr); err != nil {
			logger.Warn("Progress display failed", "error", err)
		}
	}

	printResults(g, results, time.Since(start))
	if errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("generation interrupted, progress saved; run again to resume")
	}
	return runErr
}

// FreezeCmd exports complete sqlite databases to CHD files.
type FreezeCmd struct {
	Size []int `short:"s" help:"Hand sizes to freeze (default from config)"`
}

func (c *FreezeCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	sizes := cfg.Generate.Sizes
	if len(c.Size) > 0 {
		sizes = c.Size
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	b, err := builder.New(builder.Config{
		Dir:             cfg.Store.Dir,
		CheckpointEvery: cfg.Generate.CheckpointEvery,
		ProgressEvery:   cfg.Generate.ProgressEvery,
	}, builder.WithLogger(logger))
	if err != nil {
		return err
	}

	for _, n := range sizes {
		frozen, err := b.Freeze(ctx, n)
		if err != nil {
			return fmt.Errorf("freeze %d-card database: %w", n, err)
		}
		fmt.Fprintln(g.out(), tui.Field(fmt.Sprintf("%d-card", n), fmt.Sprintf("%d entries frozen", frozen)))
	}
	return nil
}

func printResults(g *Globals, results []builder.Result, elapsed time.Duration) {
	if len(results) == 0 {
		return
	}
	w := g.out()
	fmt.Fprintln(w, tui.HeaderStyle.Render("Hand databases"))
	for _, r := range results {
		status := fmt.Sprintf("%d unique from %d combinations", r.Unique, r.Combinations)
		switch {
		case r.Skipped:
			status = fmt.Sprintf("%d unique, already complete", r.Unique)
		case r.Resumed > 0:
			status += fmt.Sprintf(", resumed at %d", r.Resumed)
		}
		if r.Frozen > 0 {
			status += ", frozen"
		}
		fmt.Fprintln(w, tui.Field(fmt.Sprintf("%d-card", r.Size), status))
	}
	fmt.Fprintln(w, tui.Field("elapsed", elapsed.Round(time.Millisecond).String()))
}

// isTerminal reports whether w is a terminal that can draw the progress bar.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return termenv.NewOutput(f).EnvColorProfile() != termenv.Ascii
}
