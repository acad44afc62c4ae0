package equity

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokervals/internal/ranker"
	"github.com/lox/pokervals/internal/store"
	"github.com/lox/pokervals/poker"
)

const tolerance = 1e-9

func cards(s string) []poker.Card { return poker.MustParseCards(s) }

func opps(hands ...string) [][]poker.Card {
	out := make([][]poker.Card, len(hands))
	for i, h := range hands {
		out[i] = cards(h)
	}
	return out
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	r, err := ranker.New(store.Live{}, store.Live{})
	require.NoError(t, err)
	e, err := New(r, opts...)
	require.NoError(t, err)
	return e
}

// countingRanker counts Rank calls.
type countingRanker struct {
	Ranker
	mu    sync.Mutex
	calls int
}

func (c *countingRanker) Rank(cs []poker.Card) (poker.HandValue, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.Ranker.Rank(cs)
}

func TestNewRejectsBadOptions(t *testing.T) {
	t.Parallel()
	r, err := ranker.New(store.Live{}, store.Live{})
	require.NoError(t, err)

	_, err = New(nil)
	assert.Error(t, err)
	_, err = New(r, WithTurnWeight(1.5))
	assert.Error(t, err)
	_, err = New(r, WithCacheSize(-1))
	assert.Error(t, err)
}

func TestNHands(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	tests := []struct {
		name  string
		hero  string
		board string
		want  StreetCounts
	}{
		{"top pair on flop", "As Kc", "Kd 7s 2c", StreetCounts{Ahead: 1044, Behind: 31, Tied: 6}},
		{"middle pair on flop", "3d 9c", "9d 7s 2c", StreetCounts{Ahead: 945, Behind: 130, Tied: 6}},
		{"top pair on river", "As Kc", "Kd 7s 2c 5h 9d", StreetCounts{Ahead: 874, Behind: 110, Tied: 6}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := e.NHands(cards(tc.hero), cards(tc.board))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, int(poker.Binomial(52-2-len(cards(tc.board)), 2)), got.Total())
		})
	}
}

func TestPrWinNow(t *testing.T) {
	t.Parallel()
	c := StreetCounts{Ahead: 1044, Behind: 31, Tied: 6}

	one, err := PrWinNow(c, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1044.0/1081.0, one, tolerance)

	three, err := c.WinProbability(3)
	require.NoError(t, err)
	assert.InDelta(t, one*one*one, three, tolerance)

	_, err = PrWinNow(StreetCounts{}, 1)
	assert.ErrorIs(t, err, ErrInvalidQuery)
	_, err = PrWinNow(c, 0)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestShowdown(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	board := cards("5d 4d 2h As Ks")

	lose, err := e.Showdown(cards("Ac 3c"), opps("3h 6c"), board)
	require.NoError(t, err)
	assert.Equal(t, 0.0, lose)

	win, err := e.Showdown(cards("3h 6c"), opps("Ac 3c"), board)
	require.NoError(t, err)
	assert.Equal(t, 1.0, win)

	// Both play the board's ace-king with the same straight.
	tie, err := e.Showdown(cards("3h 6c"), opps("3s 6d"), board)
	require.NoError(t, err)
	assert.Equal(t, 0.5, tie)

	_, err = e.Showdown(cards("Ac 3c"), opps("3h 6c"), board[:4])
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestCompare(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	tests := []struct {
		name      string
		hero      string
		opponents []string
		board     string
		want      float64
	}{
		{"river decided", "Ac 3c", []string{"3h 6c"}, "5d 4d 2h As Ks", 0},
		{"turn", "Th 8h", []string{"Td 2c"}, "4d 6h Tc 9s", 0.863636363636},
		{"turn reversed", "Td 2c", []string{"Th 8h"}, "4d 6h Tc 9s", 0.136363636364},
		{"flop unweighted", "Th 8h", []string{"Td 2c"}, "4d 6h Tc", 0.825757575758},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := e.Compare(ctx, cards(tc.hero), opps(tc.opponents...), cards(tc.board))
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-11)
		})
	}
}

func TestCompareSymmetric(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t, WithWorkers(4))
	a, b := cards("Kh Th"), cards("Td Ac")
	board := cards("4d 6h Tc 2s")

	ab, err := e.Compare(ctx, a, [][]poker.Card{b}, board)
	require.NoError(t, err)
	ba, err := e.Compare(ctx, b, [][]poker.Card{a}, board)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ab+ba, tolerance)
}

func TestCompareSymmetricPreflop(t *testing.T) {
	if testing.Short() {
		t.Skip("enumerates every five-card board")
	}
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t, WithWorkers(8))
	a, b := cards("As Kd"), cards("Qh Qc")

	ab, err := e.Compare(ctx, a, [][]poker.Card{b}, nil)
	require.NoError(t, err)
	ba, err := e.Compare(ctx, b, [][]poker.Card{a}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ab+ba, 1e-9)
	assert.InDelta(t, 0.428352, ab, 1e-6)
}

func TestWeighted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	board := "4d 6h Tc"
	tests := []struct {
		name      string
		hero      string
		opponents []string
		weight    float64
		want      float64
	}{
		{"behind to top pair", "Kh Th", []string{"Td Ac"}, 0.75, 0.093181818182},
		{"ahead of weak kicker", "Th 8h", []string{"Td 2c"}, 0.75, 0.906439393939},
		{"against a draw", "Th 8h", []string{"5c 7c"}, 0.75, 0.806818181818},
		{"two opponents", "Th 8h", []string{"5c 7c", "Td 2c"}, 0.75, 0.709163898117},
		{"river only", "Th 8h", []string{"Td 2c"}, 0, 0.825757575758},
		{"turn only", "Th 8h", []string{"Td 2c"}, 1, 14.0 / 15.0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := e.Weighted(ctx, cards(tc.hero), opps(tc.opponents...), cards(board), tc.weight)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-11)
		})
	}
}

func TestWeightedZeroMatchesCompare(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	hero, o, board := cards("Kh Th"), opps("Td Ac", "9s 9d"), cards("4d 6h Tc")

	w, err := e.Weighted(ctx, hero, o, board, 0)
	require.NoError(t, err)
	c, err := e.Compare(ctx, hero, o, board)
	require.NoError(t, err)
	assert.InDelta(t, c, w, tolerance)
}

func TestWeightedParallelMatchesSequential(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	seq := newEngine(t, WithWorkers(1))
	par := newEngine(t, WithWorkers(8))
	hero, o, board := cards("Th 8h"), opps("5c 7c", "Td 2c"), cards("4d 6h Tc")

	a, err := seq.Weighted(ctx, hero, o, board, 0.75)
	require.NoError(t, err)
	b, err := par.Weighted(ctx, hero, o, board, 0.75)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	ca, err := seq.Compare(ctx, hero, o, board[:3])
	require.NoError(t, err)
	cb, err := par.Compare(ctx, hero, o, board[:3])
	require.NoError(t, err)
	assert.Equal(t, ca, cb)
}

func TestWeightedMemoizes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	inner, err := ranker.New(store.Live{}, store.Live{})
	require.NoError(t, err)
	counter := &countingRanker{Ranker: inner}
	e, err := New(counter)
	require.NoError(t, err)

	first, err := e.Weighted(ctx, cards("Th 8h"), opps("5c 7c", "Td 2c"), cards("4d 6h Tc"), 0.75)
	require.NoError(t, err)
	calls := counter.calls
	require.NotZero(t, calls)

	// Reordered cards and opponents hit the same entry.
	second, err := e.Weighted(ctx, cards("8h Th"), opps("2c Td", "7c 5c"), cards("Tc 4d 6h"), 0.75)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, calls, counter.calls)

	// A different weight is a different query.
	_, err = e.Weighted(ctx, cards("Th 8h"), opps("5c 7c", "Td 2c"), cards("4d 6h Tc"), 0.5)
	require.NoError(t, err)
	assert.Greater(t, counter.calls, calls)

	stats := e.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, 2, stats.Size)
}

func TestEquityDispatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t, WithTurnWeight(1))
	hero, o := cards("Th 8h"), opps("Td 2c")

	flop, err := e.Equity(ctx, hero, o, cards("4d 6h Tc"))
	require.NoError(t, err)
	assert.InDelta(t, 14.0/15.0, flop, 1e-11)

	turn, err := e.Equity(ctx, hero, o, cards("4d 6h Tc 9s"))
	require.NoError(t, err)
	assert.InDelta(t, 0.863636363636, turn, 1e-11)
}

func TestProbBeat(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	tests := []struct {
		name  string
		cards string
		enemy poker.HandValue
		want  float64
	}{
		{"two pair from five", "As Kc Kd 7s 2c", poker.TwoPair | 0xdd77e, 256.0 / 1081.0},
		{"two pair from six", "As Kc Kd 7s 2c 9h", poker.TwoPair | 0xdd772, 11.0 / 46.0},
		{"already ahead", "As Kc Kd 7s 2c", poker.OnePair | 0xddc83, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := e.ProbBeat(cards(tc.cards), tc.enemy)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, tolerance)
		})
	}

	seven := cards("As Kc Kd 7s 2c 9h 3d")
	v, err := poker.BestOf(seven)
	require.NoError(t, err)
	got, err := e.ProbBeat(seven, v)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got, "a hand never strictly beats itself")

	_, err = e.ProbBeat(cards("As Kc Kd 7s"), v)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestInvalidQueries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	tests := []struct {
		name      string
		hero      string
		opponents [][]poker.Card
		board     string
	}{
		{"hero one card", "As", opps("Kd Kh"), "2c 3c 4c"},
		{"no opponents", "As Ad", nil, "2c 3c 4c"},
		{"opponent three cards", "As Ad", [][]poker.Card{cards("Kd Kh Ks")}, "2c 3c 4c"},
		{"duplicate card", "As Ad", opps("As Kh"), "2c 3c 4c"},
		{"board too long", "As Ad", opps("Kd Kh"), "2c 3c 4c 5c 6c 7c"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := e.Compare(ctx, cards(tc.hero), tc.opponents, cards(tc.board))
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}

	_, err := e.Weighted(ctx, cards("As Ad"), opps("Kd Kh"), cards("2c 3c 4c 5c"), 0.75)
	assert.ErrorIs(t, err, ErrInvalidQuery)
	_, err = e.Weighted(ctx, cards("As Ad"), opps("Kd Kh"), cards("2c 3c 4c"), -0.1)
	assert.ErrorIs(t, err, ErrInvalidQuery)
	_, err = e.NHands(cards("As Ad"), cards("2c 3c"))
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestCompareCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, workers := range []int{1, 4} {
		e := newEngine(t, WithWorkers(workers))
		_, err := e.Compare(ctx, cards("As Ad"), opps("Kd Kh"), nil)
		assert.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
	}
}

func TestSample(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t, WithWorkers(4))
	hero, o, board := cards("Th 8h"), opps("Td 2c"), cards("4d 6h Tc")

	exact, err := e.Compare(ctx, hero, o, board)
	require.NoError(t, err)

	a, err := e.Sample(ctx, hero, o, board, 4000, 99)
	require.NoError(t, err)
	b, err := e.Sample(ctx, hero, o, board, 4000, 99)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed and workers must repeat")
	assert.InDelta(t, exact, a, 0.05)

	river, err := e.Sample(ctx, cards("Ac 3c"), opps("3h 6c"), cards("5d 4d 2h As Ks"), 10, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, river)

	_, err = e.Sample(ctx, hero, o, board, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}
