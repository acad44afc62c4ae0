// Package builder generates the precomputed hand value databases.
//
// Generation walks every n-card combination of the deck in lexicographic
// order, normalizes each hand and stores the value of every new canonical
// index. Progress is committed in batches together with the number of
// combinations processed, so an interrupted run resumes where its last
// checkpoint left off.
package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokervals/internal/cache"
	"github.com/lox/pokervals/internal/fileutil"
	"github.com/lox/pokervals/internal/store"
	"github.com/lox/pokervals/poker"
)

// ErrIncomplete is returned when enumeration finishes without producing the
// expected number of unique indices, or when freezing an unfinished store.
var ErrIncomplete = errors.New("database incomplete")

// Config controls a generation run.
type Config struct {
	Dir             string
	CheckpointEvery int
	ProgressEvery   int
	Freeze          bool
}

// Progress is reported every ProgressEvery combinations.
type Progress struct {
	Size         int
	Processed    uint64
	Total        uint64
	Unique       int // committed unique indices
	Elapsed      time.Duration
	TotalElapsed time.Duration
	LastHand     []poker.Card
	LastValue    poker.HandValue
}

// Percent returns the share of combinations processed.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Processed) * 100 / float64(p.Total)
}

// ProgressFunc receives progress reports.
type ProgressFunc func(Progress)

// Result summarizes one hand size.
type Result struct {
	Size         int
	Combinations uint64
	Unique       int
	Resumed      uint64 // combinations skipped from a previous run
	Skipped      bool   // store was already complete
	Frozen       int    // entries written to the frozen store, if any
	Elapsed      time.Duration
}

// Manifest is written next to a completed store.
type Manifest struct {
	Size         int       `json:"size"`
	Combinations uint64    `json:"combinations"`
	Unique       int       `json:"unique"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Builder generates hand value stores.
type Builder struct {
	cfg      Config
	logger   *log.Logger
	clock    quartz.Clock
	progress ProgressFunc
	sizeDone func(Result)

	deck   []poker.Card
	unique func(n int) int

	runStart time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithClock sets the clock used for elapsed time reporting.
func WithClock(c quartz.Clock) Option {
	return func(b *Builder) { b.clock = c }
}

// WithProgress replaces the default log-based progress reporting.
func WithProgress(fn ProgressFunc) Option {
	return func(b *Builder) { b.progress = fn }
}

// WithSizeDone registers fn to be called by Run after each completed size.
func WithSizeDone(fn func(Result)) Option {
	return func(b *Builder) { b.sizeDone = fn }
}

// New creates a builder.
func New(cfg Config, opts ...Option) (*Builder, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("store dir is required")
	}
	if cfg.CheckpointEvery <= 0 {
		return nil, fmt.Errorf("checkpoint interval must be positive, got %d", cfg.CheckpointEvery)
	}
	if cfg.ProgressEvery <= 0 {
		return nil, fmt.Errorf("progress interval must be positive, got %d", cfg.ProgressEvery)
	}
	b := &Builder{
		cfg:    cfg,
		logger: log.New(os.Stderr),
		clock:  quartz.NewReal(),
		deck:   poker.NewDeck().Cards(),
		unique: poker.UniqueIndices,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.progress == nil {
		b.progress = b.logProgress
	}
	return b, nil
}

// Run generates each requested size in order, stopping at the first error.
func (b *Builder) Run(ctx context.Context, sizes ...int) ([]Result, error) {
	b.runStart = b.clock.Now()
	b.logger.Info("Generating hand databases", "sizes", sizes, "dir", b.cfg.Dir)

	results := make([]Result, 0, len(sizes))
	for _, n := range sizes {
		res, err := b.Generate(ctx, n)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if b.sizeDone != nil {
			b.sizeDone(res)
		}
	}
	return results, nil
}

// Generate fills the store for hand size n, resuming from its last
// checkpoint. A store that already holds every unique index is left alone.
func (b *Builder) Generate(ctx context.Context, n int) (Result, error) {
	if n < 5 || n > 7 {
		return Result{}, fmt.Errorf("hand size must be 5, 6 or 7, got %d", n)
	}
	if b.runStart.IsZero() {
		b.runStart = b.clock.Now()
	}
	start := b.clock.Now()
	total := poker.Binomial(len(b.deck), n)
	unique := b.unique(n)
	res := Result{Size: n, Combinations: total, Unique: unique}

	st, err := store.OpenSQLite(store.SQLitePath(b.cfg.Dir, n), store.ReadWrite)
	if err != nil {
		return res, err
	}
	defer st.Close()

	stored, err := st.Count(ctx)
	if err != nil {
		return res, err
	}
	if stored == unique {
		b.logger.Info("Database already complete", "size", n, "unique", stored)
		res.Skipped = true
		return b.finish(ctx, st, res)
	}

	done, err := st.Counter(ctx)
	if err != nil {
		return res, err
	}
	if done > total {
		return res, fmt.Errorf("store %s records %d processed combinations, more than %d", st.Path(), done, total)
	}
	res.Resumed = done
	if done > 0 {
		b.logger.Info("Resuming generation", "size", n, "processed", done, "stored", stored)
	} else {
		b.logger.Info("Generating hands", "size", n, "combinations", total)
	}

	// Indices seen in this run; cleared for every size.
	memo, err := cache.New[poker.Index, poker.HandValue](0)
	if err != nil {
		return res, err
	}

	comb := poker.NewCombinator(len(b.deck), n)
	if err := comb.Seek(done); err != nil {
		return res, err
	}

	processed := done
	staged := make([]store.Entry, 0, 1024)
	hand := make([]poker.Card, n)
	var last poker.HandValue

	commit := func(ctx context.Context) error {
		inserted, err := st.Checkpoint(ctx, staged, processed)
		if err != nil {
			return fmt.Errorf("checkpoint at %d: %w", processed, err)
		}
		stored += inserted
		staged = staged[:0]
		return nil
	}

	every := uint64(b.cfg.CheckpointEvery)
	report := uint64(b.cfg.ProgressEvery)
	for comb.Next() {
		select {
		case <-ctx.Done():
			if err := commit(context.WithoutCancel(ctx)); err != nil {
				return res, errors.Join(ctx.Err(), err)
			}
			b.logger.Warn("Generation interrupted", "size", n, "processed", processed, "stored", stored)
			return res, ctx.Err()
		default:
		}

		for i, j := range comb.Indices() {
			hand[i] = b.deck[j]
		}
		canon, ix := poker.Normalize(hand)
		v, ok := memo.Get(ix)
		if !ok {
			v, err = evaluate(canon)
			if err != nil {
				return res, fmt.Errorf("evaluate %s: %w", poker.FormatCards(hand), err)
			}
			memo.Put(ix, v)
			staged = append(staged, store.Entry{Index: ix, Value: v})
		}
		last = v
		processed++

		if processed%every == 0 {
			if err := commit(ctx); err != nil {
				return res, err
			}
		}
		if processed%report == 0 {
			now := b.clock.Now()
			b.progress(Progress{
				Size:         n,
				Processed:    processed,
				Total:        total,
				Unique:       stored,
				Elapsed:      now.Sub(start),
				TotalElapsed: now.Sub(b.runStart),
				LastHand:     append([]poker.Card(nil), hand...),
				LastValue:    last,
			})
		}
	}
	if err := commit(ctx); err != nil {
		return res, err
	}

	// Recount from the store rather than trusting the running tally.
	stored, err = st.Count(ctx)
	if err != nil {
		return res, err
	}
	if stored != unique {
		return res, fmt.Errorf("%w: %d-card store has %d unique indices, expected %d", ErrIncomplete, n, stored, unique)
	}
	res.Elapsed = b.clock.Since(start)
	b.logger.Info("Database complete", "size", n, "unique", stored, "elapsed", res.Elapsed.Round(time.Millisecond))
	return b.finish(ctx, st, res)
}

// finish writes the manifest and optionally freezes a complete store.
func (b *Builder) finish(ctx context.Context, st *store.SQLite, res Result) (Result, error) {
	manifest := Manifest{
		Size:         res.Size,
		Combinations: res.Combinations,
		Unique:       res.Unique,
		FinishedAt:   b.clock.Now().UTC(),
	}
	path := store.ManifestPath(b.cfg.Dir, res.Size)
	if res.Skipped {
		var existing Manifest
		if err := fileutil.ReadJSON(path, &existing); err == nil {
			manifest = existing
		}
	}
	if err := fileutil.WriteJSONAtomic(path, manifest, 0o644); err != nil {
		return res, fmt.Errorf("write manifest: %w", err)
	}

	if b.cfg.Freeze {
		chdPath := store.CHDPath(b.cfg.Dir, res.Size)
		if _, err := os.Stat(chdPath); res.Skipped && err == nil {
			return res, nil
		}
		frozen, err := store.Freeze(ctx, st, chdPath)
		if err != nil {
			return res, err
		}
		res.Frozen = frozen
		b.logger.Info("Froze database", "size", res.Size, "entries", frozen)
	}
	return res, nil
}

// Freeze exports a complete sqlite store for hand size n to the CHD format.
func (b *Builder) Freeze(ctx context.Context, n int) (int, error) {
	st, err := store.OpenSQLite(store.SQLitePath(b.cfg.Dir, n), store.ReadOnly)
	if err != nil {
		return 0, err
	}
	defer st.Close()

	stored, err := st.Count(ctx)
	if err != nil {
		return 0, err
	}
	if want := b.unique(n); stored != want {
		return 0, fmt.Errorf("%w: %d-card store has %d of %d unique indices", ErrIncomplete, n, stored, want)
	}
	frozen, err := store.Freeze(ctx, st, store.CHDPath(b.cfg.Dir, n))
	if err != nil {
		return 0, err
	}
	b.logger.Info("Froze database", "size", n, "entries", frozen)
	return frozen, nil
}

// ReadManifest loads the manifest for hand size n from dir.
func ReadManifest(dir string, n int) (Manifest, error) {
	var m Manifest
	err := fileutil.ReadJSON(store.ManifestPath(dir, n), &m)
	return m, err
}

func evaluate(canon []poker.Card) (poker.HandValue, error) {
	if len(canon) == 5 {
		return poker.EvaluateFive(canon)
	}
	return poker.BestOf(canon)
}

func (b *Builder) logProgress(p Progress) {
	b.logger.Info(fmt.Sprintf("%.0f%% of %d-card hands complete", p.Percent(), p.Size),
		"processed", p.Processed,
		"unique", p.Unique,
		"elapsed", fmt.Sprintf("%.2fm", p.Elapsed.Minutes()),
		"total", fmt.Sprintf("%.2fm", p.TotalElapsed.Minutes()))
	b.logger.Info("Last hand", "cards", poker.FormatCards(p.LastHand), "value", p.LastValue.String())
}
