package poker

import "fmt"

// EvaluateFive computes the hand value of exactly five distinct cards.
func EvaluateFive(cards []Card) (HandValue, error) {
	if err := ValidateCards(cards, 5, 5); err != nil {
		return 0, err
	}
	var h [5]Card
	copy(h[:], cards)
	return evaluateFive(h), nil
}

func evaluateFive(h [5]Card) HandValue {
	sortFive(&h)

	var counts [Ace + 1]uint8
	for _, c := range h {
		counts[c.Rank]++
	}

	// Most and second-most frequent ranks; scanning from the top keeps the
	// higher rank first among equal counts.
	var most, second uint8
	var mostRank, secondRank Rank
	for r := Ace; r >= Two; r-- {
		n := counts[r]
		switch {
		case n > most:
			second, secondRank = most, mostRank
			most, mostRank = n, r
		case n > second:
			second, secondRank = n, r
		}
	}

	switch {
	case most == 4:
		return pack(FourOfAKind, mostRank, mostRank, mostRank, mostRank, secondRank)
	case most == 3 && second == 2:
		return pack(FullHouse, mostRank, mostRank, mostRank, secondRank, secondRank)
	}

	flush := isFlush(&h)
	straight := isStraight(&h)
	if flush || straight {
		flag := Straight
		switch {
		case flush && straight:
			flag = StraightFlush
		case flush:
			flag = Flush
		}
		if straight && h[4].Rank == Ace && h[0].Rank == Two {
			return pack(flag, Five, Four, Three, Two, LowAce)
		}
		return pack(flag, h[4].Rank, h[3].Rank, h[2].Rank, h[1].Rank, h[0].Rank)
	}

	switch {
	case most == 3:
		k := kickersExcluding(&h, mostRank, mostRank)
		return pack(ThreeOfAKind, mostRank, mostRank, mostRank, k[0], k[1])
	case most == 2 && second == 2:
		hi, lo := mostRank, secondRank
		if lo > hi {
			hi, lo = lo, hi
		}
		k := kickersExcluding(&h, hi, lo)
		return pack(TwoPair, hi, hi, lo, lo, k[0])
	case most == 2:
		k := kickersExcluding(&h, mostRank, mostRank)
		return pack(OnePair, mostRank, mostRank, k[0], k[1], k[2])
	}
	return pack(0, h[4].Rank, h[3].Rank, h[2].Rank, h[1].Rank, h[0].Rank)
}

func sortFive(h *[5]Card) {
	for i := 1; i < len(h); i++ {
		c := h[i]
		j := i - 1
		for j >= 0 && c.Less(h[j]) {
			h[j+1] = h[j]
			j--
		}
		h[j+1] = c
	}
}

func isFlush(h *[5]Card) bool {
	for _, c := range h[1:] {
		if c.Suit != h[0].Suit {
			return false
		}
	}
	return true
}

// isStraight expects h sorted ascending; the wheel sorts as 2-3-4-5-A.
func isStraight(h *[5]Card) bool {
	r0 := h[0].Rank
	if h[1].Rank != r0+1 || h[2].Rank != r0+2 || h[3].Rank != r0+3 {
		return false
	}
	return h[4].Rank == r0+4 || (h[4].Rank == Ace && r0 == Two)
}

// kickersExcluding returns the ranks not equal to a or b, highest first.
func kickersExcluding(h *[5]Card, a, b Rank) [3]Rank {
	var out [3]Rank
	n := 0
	for i := len(h) - 1; i >= 0 && n < len(out); i-- {
		if r := h[i].Rank; r != a && r != b {
			out[n] = r
			n++
		}
	}
	return out
}

var (
	subsets6 = subsetTable(6)
	subsets7 = subsetTable(7)
)

func subsetTable(n int) [][5]uint8 {
	var table [][5]uint8
	ForEachCombination(n, 5, func(idx []int) bool {
		var s [5]uint8
		for i, v := range idx {
			s[i] = uint8(v)
		}
		table = append(table, s)
		return true
	})
	return table
}

func subsetsFor(n int) [][5]uint8 {
	switch n {
	case 5:
		return [][5]uint8{{0, 1, 2, 3, 4}}
	case 6:
		return subsets6
	case 7:
		return subsets7
	}
	panic(fmt.Sprintf("poker: no subset table for %d cards", n))
}

// BestOf returns the best five-card hand value among 5, 6 or 7 cards.
func BestOf(cards []Card) (HandValue, error) {
	if err := ValidateCards(cards, 5, 7); err != nil {
		return 0, err
	}
	return bestOf(cards), nil
}

// bestOf assumes validated input.
func bestOf(cards []Card) HandValue {
	var best HandValue
	var h [5]Card
	for _, s := range subsetsFor(len(cards)) {
		for i, j := range s {
			h[i] = cards[j]
		}
		if v := evaluateFive(h); v > best {
			best = v
		}
	}
	return best
}

// Beats reports whether any five-card subset of cards is strictly better
// than toBeat. Enumeration stops at the first such subset.
func Beats(cards []Card, toBeat HandValue) (bool, error) {
	if err := ValidateCards(cards, 5, 7); err != nil {
		return false, err
	}
	var h [5]Card
	for _, s := range subsetsFor(len(cards)) {
		for i, j := range s {
			h[i] = cards[j]
		}
		if evaluateFive(h) > toBeat {
			return true, nil
		}
	}
	return false, nil
}
