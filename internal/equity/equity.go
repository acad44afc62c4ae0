// Package equity estimates how often a hand wins by enumerating the cards
// still to come.
package equity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokervals/internal/cache"
	"github.com/lox/pokervals/poker"
)

// DefaultTurnWeight is the weight given to the turn outcome by Weighted.
const DefaultTurnWeight = 0.75

// ErrInvalidQuery reports malformed equity input.
var ErrInvalidQuery = errors.New("invalid equity query")

// Ranker values 5 to 7 card hands.
type Ranker interface {
	Rank(cards []poker.Card) (poker.HandValue, error)
}

// Engine runs equity queries against a Ranker.
type Engine struct {
	ranker     Ranker
	turnWeight float64
	workers    int
	cacheSize  int
	memo       *cache.Memo[string, float64]
	logger     *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTurnWeight sets the turn weight used by Equity.
func WithTurnWeight(w float64) Option {
	return func(e *Engine) { e.turnWeight = w }
}

// WithWorkers sets how many turn cards are enumerated concurrently.
// Values of 1 or less run sequentially.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithCacheSize bounds the weighted equity memo; 0 leaves it unbounded.
func WithCacheSize(n int) Option {
	return func(e *Engine) { e.cacheSize = n }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine.
func New(r Ranker, opts ...Option) (*Engine, error) {
	if r == nil {
		return nil, fmt.Errorf("ranker is required")
	}
	e := &Engine{
		ranker:     r,
		turnWeight: DefaultTurnWeight,
		workers:    1,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.turnWeight < 0 || e.turnWeight > 1 {
		return nil, fmt.Errorf("turn weight must be between 0 and 1, got %g", e.turnWeight)
	}
	memo, err := cache.New[string, float64](e.cacheSize)
	if err != nil {
		return nil, err
	}
	e.memo = memo
	return e, nil
}

// Stats returns counters of the weighted equity memo.
func (e *Engine) Stats() cache.Stats {
	return e.memo.Stats()
}

// StreetCounts classifies every possible opponent holding against the hero
// on the current board.
type StreetCounts struct {
	Ahead  int // holdings the hero beats
	Behind int // holdings that beat the hero
	Tied   int
}

// Total returns the number of holdings counted.
func (c StreetCounts) Total() int {
	return c.Ahead + c.Behind + c.Tied
}

// WinProbability is the chance of beating n random opponents right now,
// (Ahead/Total)^n.
func (c StreetCounts) WinProbability(n int) (float64, error) {
	return PrWinNow(c, n)
}

// PrWinNow returns (Ahead/Total)^opponents.
func PrWinNow(c StreetCounts, opponents int) (float64, error) {
	total := c.Total()
	if total <= 0 {
		return 0, fmt.Errorf("%w: no opponent holdings counted", ErrInvalidQuery)
	}
	if opponents < 1 {
		return 0, fmt.Errorf("%w: need at least one opponent, got %d", ErrInvalidQuery, opponents)
	}
	p := float64(c.Ahead) / float64(total)
	out := 1.0
	for i := 0; i < opponents; i++ {
		out *= p
	}
	return out, nil
}

// NHands counts the two card holdings that beat, lose to, or tie the hero
// on a board of 3 to 5 cards.
func (e *Engine) NHands(hero, board []poker.Card) (StreetCounts, error) {
	if err := validate(hero, nil, board, 3, 5, false); err != nil {
		return StreetCounts{}, err
	}
	mine, err := e.ranker.Rank(concat(hero, board))
	if err != nil {
		return StreetCounts{}, err
	}

	deck := poker.Remaining(hero, board).Cards()
	opp := make([]poker.Card, 2, 2+len(board))
	var counts StreetCounts
	var rankErr error
	poker.ForEachCombination(len(deck), 2, func(idx []int) bool {
		opp = append(opp[:0], deck[idx[0]], deck[idx[1]])
		opp = append(opp, board...)
		theirs, err := e.ranker.Rank(opp)
		if err != nil {
			rankErr = err
			return false
		}
		switch {
		case theirs > mine:
			counts.Behind++
		case theirs < mine:
			counts.Ahead++
		default:
			counts.Tied++
		}
		return true
	})
	if rankErr != nil {
		return StreetCounts{}, rankErr
	}
	e.logger.Debug("nhands", "hero", poker.FormatCards(hero), "board", poker.FormatCards(board),
		"ahead", counts.Ahead, "behind", counts.Behind, "tied", counts.Tied)
	return counts, nil
}

// Showdown scores a complete five card board: 1 when the hero beats every
// opponent, 0.5 on a tie with the best opponent, 0 otherwise.
func (e *Engine) Showdown(hero []poker.Card, opponents [][]poker.Card, board []poker.Card) (float64, error) {
	if err := validate(hero, opponents, board, 5, 5, true); err != nil {
		return 0, err
	}
	return e.outcome(hero, opponents, board)
}

// Compare returns the exact equity of the hero against the opponents by
// enumerating every completion of the board. A full board is scored by
// Showdown.
func (e *Engine) Compare(ctx context.Context, hero []poker.Card, opponents [][]poker.Card, board []poker.Card) (float64, error) {
	if err := validate(hero, opponents, board, 0, 5, true); err != nil {
		return 0, err
	}
	if len(board) == 5 {
		return e.outcome(hero, opponents, board)
	}

	deck := poker.Remaining(append(concat(hero, board), flatten(opponents)...)).Cards()
	need := 5 - len(board)

	// Split on the first dealt card; each branch enumerates the rest.
	t, err := e.fanOut(ctx, len(deck), func(i int) (tally, error) {
		var t tally
		full := make([]poker.Card, len(board), 5)
		copy(full, board)
		full = append(full, deck[i])
		rest := deck[i+1:]
		var err error
		poker.ForEachCombination(len(rest), need-1, func(idx []int) bool {
			b := full[:len(board)+1]
			for _, j := range idx {
				b = append(b, rest[j])
			}
			var w float64
			if w, err = e.outcome(hero, opponents, b); err != nil {
				return false
			}
			t.riverWins += w
			t.rivers++
			return true
		})
		return t, err
	})
	if err != nil {
		return 0, err
	}
	if t.rivers == 0 {
		return 0, fmt.Errorf("%w: no board completions", ErrInvalidQuery)
	}
	eq := t.riverWins / float64(t.rivers)
	e.logger.Debug("compare", "hero", poker.FormatCards(hero), "opponents", formatOpponents(opponents),
		"board", poker.FormatCards(board), "equity", eq)
	return eq, nil
}

// Weighted blends the chance of being ahead after the turn with the chance
// of being ahead after the river on a three card board:
//
//	turnWeight*P(turn) + (1-turnWeight)*P(river)
//
// Results are memoized on the normalized query.
func (e *Engine) Weighted(ctx context.Context, hero []poker.Card, opponents [][]poker.Card, board []poker.Card, turnWeight float64) (float64, error) {
	if err := validate(hero, opponents, board, 3, 3, true); err != nil {
		return 0, err
	}
	if turnWeight < 0 || turnWeight > 1 {
		return 0, fmt.Errorf("%w: turn weight %g outside [0, 1]", ErrInvalidQuery, turnWeight)
	}

	key := queryKey(hero, opponents, board, turnWeight)
	if eq, ok := e.memo.Get(key); ok {
		return eq, nil
	}

	deck := poker.Remaining(append(concat(hero, board), flatten(opponents)...)).Cards()
	t, err := e.fanOut(ctx, len(deck), func(i int) (tally, error) {
		var t tally
		turn := deck[i]
		withTurn := append(concat(board, nil), turn)
		if turnWeight > 0 {
			w, err := e.outcome(hero, opponents, withTurn)
			if err != nil {
				return t, err
			}
			t.turnWins += w
		}
		t.turns++

		withRiver := append(withTurn, poker.Card{})
		for _, river := range deck[i+1:] {
			withRiver[4] = river
			w, err := e.outcome(hero, opponents, withRiver)
			if err != nil {
				return t, err
			}
			t.riverWins += w
			t.rivers++
		}
		return t, nil
	})
	if err != nil {
		return 0, err
	}

	eq := t.turnWins/float64(t.turns)*turnWeight + t.riverWins/float64(t.rivers)*(1-turnWeight)
	e.memo.Put(key, eq)
	e.logger.Debug("weighted", "hero", poker.FormatCards(hero), "opponents", formatOpponents(opponents),
		"board", poker.FormatCards(board), "turn", t.turnWins/float64(t.turns),
		"river", t.riverWins/float64(t.rivers), "equity", eq)
	return eq, nil
}

// Equity is the entry point for callers: on the flop it returns Weighted
// with the engine's turn weight, otherwise Compare.
func (e *Engine) Equity(ctx context.Context, hero []poker.Card, opponents [][]poker.Card, board []poker.Card) (float64, error) {
	if len(board) == 3 {
		return e.Weighted(ctx, hero, opponents, board, e.turnWeight)
	}
	return e.Compare(ctx, hero, opponents, board)
}

// ProbBeat returns the fraction of ways to complete cards to seven that
// beat enemy. cards must hold 5 to 7 distinct cards.
func (e *Engine) ProbBeat(cards []poker.Card, enemy poker.HandValue) (float64, error) {
	if err := poker.ValidateCards(cards, 5, 7); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	deck := poker.Remaining(cards).Cards()
	hand := make([]poker.Card, len(cards), 7)
	copy(hand, cards)

	wins, total := 0, 0
	var beatErr error
	poker.ForEachCombination(len(deck), 7-len(cards), func(idx []int) bool {
		h := hand[:len(cards)]
		for _, j := range idx {
			h = append(h, deck[j])
		}
		ok, err := poker.Beats(h, enemy)
		if err != nil {
			beatErr = err
			return false
		}
		if ok {
			wins++
		}
		total++
		return true
	})
	if beatErr != nil {
		return 0, beatErr
	}
	e.logger.Debug("prbeat", "cards", poker.FormatCards(cards), "enemy", enemy.String(), "wins", wins, "total", total)
	return float64(wins) / float64(total), nil
}

// tally accumulates outcomes for one branch of an enumeration.
type tally struct {
	turnWins, riverWins float64
	turns, rivers       int
}

func (t *tally) add(o tally) {
	t.turnWins += o.turnWins
	t.riverWins += o.riverWins
	t.turns += o.turns
	t.rivers += o.rivers
}

// fanOut runs branch for 0..n-1 and sums the results in index order, so the
// total is identical whether branches run sequentially or concurrently.
func (e *Engine) fanOut(ctx context.Context, n int, branch func(i int) (tally, error)) (tally, error) {
	parts := make([]tally, n)
	if e.workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return tally{}, err
			}
			t, err := branch(i)
			if err != nil {
				return tally{}, err
			}
			parts[i] = t
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.workers)
		for i := 0; i < n; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				t, err := branch(i)
				if err != nil {
					return err
				}
				parts[i] = t
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return tally{}, err
		}
	}

	var total tally
	for _, p := range parts {
		total.add(p)
	}
	return total, nil
}

// outcome scores the hero against the best opponent on board.
func (e *Engine) outcome(hero []poker.Card, opponents [][]poker.Card, board []poker.Card) (float64, error) {
	mine, err := e.ranker.Rank(concat(hero, board))
	if err != nil {
		return 0, err
	}
	var best poker.HandValue
	for _, opp := range opponents {
		v, err := e.ranker.Rank(concat(opp, board))
		if err != nil {
			return 0, err
		}
		if v > best {
			best = v
		}
	}
	switch {
	case mine > best:
		return 1, nil
	case mine < best:
		return 0, nil
	}
	return 0.5, nil
}

func validate(hero []poker.Card, opponents [][]poker.Card, board []poker.Card, minBoard, maxBoard int, needOpponents bool) error {
	if len(hero) != 2 {
		return fmt.Errorf("%w: hero needs exactly 2 cards, got %d", ErrInvalidQuery, len(hero))
	}
	if needOpponents && len(opponents) == 0 {
		return fmt.Errorf("%w: at least one opponent is required", ErrInvalidQuery)
	}
	for i, opp := range opponents {
		if len(opp) != 2 {
			return fmt.Errorf("%w: opponent %d needs exactly 2 cards, got %d", ErrInvalidQuery, i+1, len(opp))
		}
	}
	if len(board) < minBoard || len(board) > maxBoard {
		if minBoard == maxBoard {
			return fmt.Errorf("%w: board needs exactly %d cards, got %d", ErrInvalidQuery, minBoard, len(board))
		}
		return fmt.Errorf("%w: board needs %d to %d cards, got %d", ErrInvalidQuery, minBoard, maxBoard, len(board))
	}
	all := append(concat(hero, board), flatten(opponents)...)
	if err := poker.ValidateCards(all, len(all), len(all)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return nil
}

func concat(a, b []poker.Card) []poker.Card {
	out := make([]poker.Card, 0, len(a)+len(b)+2)
	out = append(out, a...)
	return append(out, b...)
}

func flatten(groups [][]poker.Card) []poker.Card {
	var out []poker.Card
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// queryKey is independent of card order within each group and of the
// order of opponents.
func queryKey(hero []poker.Card, opponents [][]poker.Card, board []poker.Card, turnWeight float64) string {
	sorted := func(cards []poker.Card) string {
		c := append([]poker.Card(nil), cards...)
		poker.SortCards(c)
		return poker.FormatCards(c)
	}
	opps := make([]string, len(opponents))
	for i, o := range opponents {
		opps[i] = sorted(o)
	}
	sort.Strings(opps)

	var b strings.Builder
	b.WriteString(sorted(hero))
	b.WriteByte('|')
	b.WriteString(strings.Join(opps, ","))
	b.WriteByte('|')
	b.WriteString(sorted(board))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(turnWeight, 'g', -1, 64))
	return b.String()
}

func formatOpponents(opponents [][]poker.Card) string {
	parts := make([]string, len(opponents))
	for i, o := range opponents {
		parts[i] = poker.FormatCards(o)
	}
	return "[" + strings.Join(parts, "], [") + "]"
}
