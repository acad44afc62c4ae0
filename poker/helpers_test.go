package poker

import (
	"math/rand/v2"

	"github.com/lox/pokervals/internal/randutil"
)

func testRand(seed int64) *rand.Rand {
	return randutil.New(seed)
}

// randomHand draws n distinct cards from a shuffled deck.
func randomHand(rng *rand.Rand, n int) []Card {
	d := NewDeck()
	d.Shuffle(rng)
	out := make([]Card, n)
	copy(out, d.Deal(n))
	return out
}
