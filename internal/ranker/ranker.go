// Package ranker answers hand value queries for 5, 6 and 7 cards.
//
// Five card hands are evaluated directly. Six and seven card hands are
// normalized to their canonical index and read from a precomputed store.
// Every answer is memoized by canonical index.
package ranker

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/lox/pokervals/internal/cache"
	"github.com/lox/pokervals/internal/config"
	"github.com/lox/pokervals/internal/store"
	"github.com/lox/pokervals/poker"
)

// ErrMissingEntry reports a canonical index absent from a store that
// should contain it. It signals a damaged or incomplete database.
var ErrMissingEntry = errors.New("hand not in database")

// MissingEntryError carries the hand that could not be found.
type MissingEntryError struct {
	Cards     []poker.Card
	Canonical []poker.Card
	Index     poker.Index
}

func (e *MissingEntryError) Error() string {
	return fmt.Sprintf("%s: %s, canonical %s, <%s>",
		ErrMissingEntry, poker.FormatCards(e.Cards), poker.FormatCards(e.Canonical), e.Index)
}

// Is matches ErrMissingEntry.
func (e *MissingEntryError) Is(target error) bool {
	return target == ErrMissingEntry
}

// Ranker maps hands to hand values.
type Ranker struct {
	six, seven store.Reader
	memo       *cache.Memo[poker.Index, poker.HandValue]
	logger     *log.Logger
	closers    []io.Closer
}

// Option configures a Ranker.
type Option func(*options)

type options struct {
	cacheSize int
	logger    *log.Logger
}

// WithCacheSize bounds the memo; 0 leaves it unbounded.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a ranker over already opened stores. The ranker does not
// take ownership of them.
func New(six, seven store.Reader, opts ...Option) (*Ranker, error) {
	if six == nil || seven == nil {
		return nil, fmt.Errorf("six and seven card stores are required")
	}
	o := options{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}
	memo, err := cache.New[poker.Index, poker.HandValue](o.cacheSize)
	if err != nil {
		return nil, err
	}
	return &Ranker{six: six, seven: seven, memo: memo, logger: o.logger}, nil
}

// Open opens the six and seven card stores described by cfg and returns a
// ranker that closes them on Close.
func Open(cfg config.Store, opts ...Option) (*Ranker, error) {
	format := store.Format(cfg.Format)
	six, err := store.Open(format, cfg.Dir, 6, cfg.CHDCache)
	if err != nil {
		return nil, fmt.Errorf("open 6-card store: %w", err)
	}
	seven, err := store.Open(format, cfg.Dir, 7, cfg.CHDCache)
	if err != nil {
		six.Close()
		return nil, fmt.Errorf("open 7-card store: %w", err)
	}
	r, err := New(six, seven, opts...)
	if err != nil {
		six.Close()
		seven.Close()
		return nil, err
	}
	r.closers = []io.Closer{six, seven}
	r.logger.Debug("Opened hand stores", "format", format, "dir", cfg.Dir)
	return r, nil
}

// Close releases stores opened by Open.
func (r *Ranker) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Rank returns the value of the best five card hand among 5 to 7 cards.
func (r *Ranker) Rank(cards []poker.Card) (poker.HandValue, error) {
	if err := poker.ValidateCards(cards, 5, 7); err != nil {
		return 0, err
	}
	canon, ix := poker.Normalize(cards)
	if v, ok := r.memo.Get(ix); ok {
		return v, nil
	}

	var v poker.HandValue
	var err error
	switch len(cards) {
	case 5:
		v, err = poker.EvaluateFive(canon)
	case 6:
		v, err = r.lookup(r.six, cards, canon, ix)
	case 7:
		v, err = r.lookup(r.seven, cards, canon, ix)
	}
	if err != nil {
		return 0, err
	}
	r.memo.Put(ix, v)
	return v, nil
}

func (r *Ranker) lookup(s store.Reader, cards, canon []poker.Card, ix poker.Index) (poker.HandValue, error) {
	v, ok, err := s.Lookup(ix)
	if err != nil {
		return 0, err
	}
	if !ok {
		missing := &MissingEntryError{
			Cards:     append([]poker.Card(nil), cards...),
			Canonical: canon,
			Index:     ix,
		}
		r.logger.Error("Hand missing from database", "cards", poker.FormatCards(cards), "index", ix.String())
		return 0, missing
	}
	return v, nil
}

// Stats returns memo counters.
func (r *Ranker) Stats() cache.Stats {
	return r.memo.Stats()
}
