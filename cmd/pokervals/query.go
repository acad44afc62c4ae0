package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lox/pokervals/internal/tui"
	"github.com/lox/pokervals/poker"
)

// RankCmd prints hand values.
type RankCmd struct {
	Hands []string `arg:"" help:"Hands of 5 to 7 cards, e.g. 'As Kc Kd 7s 2c'" required:"true"`
}

func (c *RankCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	_, r, err := g.engine(cfg, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	w := g.out()
	for _, h := range c.Hands {
		cards, err := poker.ParseCards(h)
		if err != nil {
			return fmt.Errorf("hand %q: %w", h, err)
		}
		v, err := r.Rank(cards)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s  %s  %s\n", tui.FormatCards(cards), tui.ValueStyle.Render(v.String()), tui.LabelStyle.Render(v.Category().String()))
	}
	return nil
}

// NHandsCmd classifies every opponent holding against a hand.
type NHandsCmd struct {
	Hero      string `short:"H" required:"" help:"Hero hole cards, e.g. 'As Kc'"`
	Board     string `short:"b" required:"" help:"Board of 3 to 5 cards"`
	Opponents int    `short:"n" default:"1" help:"Number of opponents for the win-now probability"`
}

func (c *NHandsCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	e, r, err := g.engine(cfg, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	hero, board, err := parseHeroBoard(c.Hero, c.Board)
	if err != nil {
		return err
	}
	counts, err := e.NHands(hero, board)
	if err != nil {
		return err
	}
	p, err := counts.WinProbability(c.Opponents)
	if err != nil {
		return err
	}

	w := g.out()
	fmt.Fprintln(w, tui.Field("hand", tui.FormatCards(hero)+"  |  "+tui.FormatCards(board)))
	fmt.Fprintln(w, tui.Field("ahead", strconv.Itoa(counts.Ahead)))
	fmt.Fprintln(w, tui.Field("behind", strconv.Itoa(counts.Behind)))
	fmt.Fprintln(w, tui.Field("tied", strconv.Itoa(counts.Tied)))
	fmt.Fprintln(w, tui.Field("win now", fmt.Sprintf("%.6f vs %d", p, c.Opponents)))
	return nil
}

// EquityCmd computes exact equity against known hands.
type EquityCmd struct {
	Hero       string   `short:"H" required:"" help:"Hero hole cards, e.g. 'Th 8h'"`
	Opponent   []string `short:"o" required:"" help:"Opponent hole cards, repeat for each opponent"`
	Board      string   `short:"b" help:"Board of 0 to 5 cards"`
	TurnWeight *float64 `short:"w" help:"Turn weight for flop boards (default from config)"`
	Unweighted bool     `help:"Enumerate to the river even on the flop"`
}

func (c *EquityCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	e, r, err := g.engine(cfg, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	hero, opponents, board, err := parseQuery(c.Hero, c.Opponent, c.Board)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	start := time.Now()
	var eq float64
	method := "exact"
	switch {
	case len(board) == 3 && c.Unweighted:
		eq, err = e.Compare(ctx, hero, opponents, board)
	case len(board) == 3 && c.TurnWeight != nil:
		method = fmt.Sprintf("turn weight %g", *c.TurnWeight)
		eq, err = e.Weighted(ctx, hero, opponents, board, *c.TurnWeight)
	default:
		if len(board) == 3 {
			method = fmt.Sprintf("turn weight %g", cfg.Equity.TurnWeight)
		}
		eq, err = e.Equity(ctx, hero, opponents, board)
	}
	if err != nil {
		return err
	}
	printEquity(g, hero, opponents, board, eq, method, time.Since(start))
	return nil
}

// SampleCmd estimates equity by Monte Carlo sampling.
type SampleCmd struct {
	Hero     string   `short:"H" required:"" help:"Hero hole cards"`
	Opponent []string `short:"o" required:"" help:"Opponent hole cards, repeat for each opponent"`
	Board    string   `short:"b" help:"Board of 0 to 5 cards"`
	Samples  int      `short:"i" default:"100000" help:"Number of random boards"`
	Seed     *int64   `help:"Random seed for reproducible results"`
}

func (c *SampleCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	e, r, err := g.engine(cfg, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	hero, opponents, board, err := parseQuery(c.Hero, c.Opponent, c.Board)
	if err != nil {
		return err
	}
	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}
	logger.Debug("Sampling", "seed", seed, "samples", c.Samples)

	ctx, cancel := signalContext(logger)
	defer cancel()

	start := time.Now()
	eq, err := e.Sample(ctx, hero, opponents, board, c.Samples, seed)
	if err != nil {
		return err
	}
	printEquity(g, hero, opponents, board, eq, fmt.Sprintf("%d samples, seed %d", c.Samples, seed), time.Since(start))
	return nil
}

// ProbBeatCmd reports how often a partial hand improves past a value.
type ProbBeatCmd struct {
	Cards string `short:"C" required:"" help:"5 to 7 cards held so far"`
	Enemy string `short:"e" required:"" help:"Hand value to beat, as a number (0x020dd77e) or 5 to 7 cards"`
}

func (c *ProbBeatCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	e, r, err := g.engine(cfg, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	cards, err := poker.ParseCards(c.Cards)
	if err != nil {
		return fmt.Errorf("cards: %w", err)
	}
	enemy, err := parseEnemy(c.Enemy, r.Rank)
	if err != nil {
		return err
	}
	p, err := e.ProbBeat(cards, enemy)
	if err != nil {
		return err
	}

	w := g.out()
	fmt.Fprintln(w, tui.Field("cards", tui.FormatCards(cards)))
	fmt.Fprintln(w, tui.Field("to beat", enemy.String()))
	fmt.Fprintln(w, tui.Field("probability", fmt.Sprintf("%.6f", p)))
	return nil
}

func printEquity(g *Globals, hero []poker.Card, opponents [][]poker.Card, board []poker.Card, eq float64, method string, elapsed time.Duration) {
	w := g.out()
	fmt.Fprintln(w, tui.Field("hero", tui.FormatCards(hero)))
	for i, o := range opponents {
		fmt.Fprintln(w, tui.Field(fmt.Sprintf("opponent %d", i+1), tui.FormatCards(o)))
	}
	if len(board) > 0 {
		fmt.Fprintln(w, tui.Field("board", tui.FormatCards(board)))
	}
	fmt.Fprintln(w, tui.Field("equity", tui.SuccessStyle.Render(fmt.Sprintf("%.6f", eq))))
	fmt.Fprintln(w, tui.Field("method", method))
	fmt.Fprintln(w, tui.Field("elapsed", elapsed.Round(time.Millisecond).String()))
}

func parseHeroBoard(heroStr, boardStr string) ([]poker.Card, []poker.Card, error) {
	hero, err := poker.ParseCards(heroStr)
	if err != nil {
		return nil, nil, fmt.Errorf("hero: %w", err)
	}
	board, err := poker.ParseCards(boardStr)
	if err != nil {
		return nil, nil, fmt.Errorf("board: %w", err)
	}
	return hero, board, nil
}

func parseQuery(heroStr string, oppStrs []string, boardStr string) ([]poker.Card, [][]poker.Card, []poker.Card, error) {
	hero, board, err := parseHeroBoard(heroStr, boardStr)
	if err != nil {
		return nil, nil, nil, err
	}
	opponents := make([][]poker.Card, len(oppStrs))
	for i, s := range oppStrs {
		opponents[i], err = poker.ParseCards(s)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opponent %d: %w", i+1, err)
		}
	}
	return hero, opponents, board, nil
}

// parseEnemy accepts a raw hand value or a hand to rank.
func parseEnemy(s string, rank func([]poker.Card) (poker.HandValue, error)) (poker.HandValue, error) {
	if v, err := strconv.ParseUint(s, 0, 32); err == nil {
		return poker.HandValue(v), nil
	}
	cards, err := poker.ParseCards(s)
	if err != nil {
		return 0, fmt.Errorf("enemy must be a hand value or cards: %w", err)
	}
	return rank(cards)
}
