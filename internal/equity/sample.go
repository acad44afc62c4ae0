package equity

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lox/pokervals/internal/randutil"
	"github.com/lox/pokervals/poker"
)

// Sample estimates equity by dealing samples random completions of the
// board instead of enumerating all of them. The result is repeatable for a
// given seed and worker count.
func (e *Engine) Sample(ctx context.Context, hero []poker.Card, opponents [][]poker.Card, board []poker.Card, samples int, seed int64) (float64, error) {
	if err := validate(hero, opponents, board, 0, 5, true); err != nil {
		return 0, err
	}
	if samples <= 0 {
		return 0, fmt.Errorf("%w: samples must be positive, got %d", ErrInvalidQuery, samples)
	}
	if len(board) == 5 {
		return e.outcome(hero, opponents, board)
	}

	excluded := append(concat(hero, board), flatten(opponents)...)
	need := 5 - len(board)
	if n := poker.Remaining(excluded).CardsRemaining(); n < need {
		return 0, fmt.Errorf("%w: %d cards left to complete the board, need %d", ErrInvalidQuery, n, need)
	}

	workers := max(e.workers, 1)
	workers = min(workers, samples)
	streams := randutil.Streams(seed, workers)
	wins := make([]float64, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		n := samples / workers
		if w < samples%workers {
			n++
		}
		g.Go(func() error {
			deck := poker.Remaining(excluded)
			full := make([]poker.Card, len(board), 5)
			copy(full, board)
			for i := 0; i < n; i++ {
				if i%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				deck.Shuffle(streams[w])
				b := append(full[:len(board)], deck.Deal(need)...)
				o, err := e.outcome(hero, opponents, b)
				if err != nil {
					return err
				}
				wins[w] += o
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total float64
	for _, w := range wins {
		total += w
	}
	eq := total / float64(samples)
	e.logger.Debug("sample", "hero", poker.FormatCards(hero), "opponents", formatOpponents(opponents),
		"board", poker.FormatCards(board), "samples", samples, "equity", eq)
	return eq, nil
}
