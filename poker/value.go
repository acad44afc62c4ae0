package poker

import (
	"fmt"
	"strings"
)

// HandValue is a 32-bit poker hand value. A larger value is always an equal
// or better hand, so plain integer comparison ranks hands.
//
// Bits 31-24 carry exactly one category flag (none for high card). Bits
// 19-0 hold five 4-bit tie-break ranks, most significant first.
type HandValue uint32

const (
	StraightFlush HandValue = 1 << (31 - iota)
	FourOfAKind
	FullHouse
	Flush
	Straight
	ThreeOfAKind
	TwoPair
	OnePair
)

const kickerMask HandValue = 0x000FFFFF

// Category enumerates the categories of poker hands ordered from weakest to strongest.
type Category uint8

const (
	CategoryHighCard Category = iota
	CategoryPair
	CategoryTwoPair
	CategoryThreeOfAKind
	CategoryStraight
	CategoryFlush
	CategoryFullHouse
	CategoryFourOfAKind
	CategoryStraightFlush
)

var categoryFlags = [...]struct {
	flag HandValue
	cat  Category
	name string
}{
	{StraightFlush, CategoryStraightFlush, "STRAIGHTFLUSH"},
	{FourOfAKind, CategoryFourOfAKind, "FOUROFAKIND"},
	{FullHouse, CategoryFullHouse, "FULLHOUSE"},
	{Flush, CategoryFlush, "FLUSH"},
	{Straight, CategoryStraight, "STRAIGHT"},
	{ThreeOfAKind, CategoryThreeOfAKind, "THREEOFAKIND"},
	{TwoPair, CategoryTwoPair, "TWOPAIR"},
	{OnePair, CategoryPair, "ONEPAIR"},
}

// String returns a human-readable category name.
func (c Category) String() string {
	switch c {
	case CategoryHighCard:
		return "High Card"
	case CategoryPair:
		return "Pair"
	case CategoryTwoPair:
		return "Two Pair"
	case CategoryThreeOfAKind:
		return "Three of a Kind"
	case CategoryStraight:
		return "Straight"
	case CategoryFlush:
		return "Flush"
	case CategoryFullHouse:
		return "Full House"
	case CategoryFourOfAKind:
		return "Four of a Kind"
	case CategoryStraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// Category returns the hand category encoded in the flag bits.
func (v HandValue) Category() Category {
	for _, f := range categoryFlags {
		if v&f.flag != 0 {
			return f.cat
		}
	}
	return CategoryHighCard
}

// Kickers returns the packed tie-break nibbles (bits 19-0).
func (v HandValue) Kickers() uint32 {
	return uint32(v & kickerMask)
}

// Compare returns 1 if v beats o, -1 if o beats v, 0 for a tie.
func (v HandValue) Compare(o HandValue) int {
	switch {
	case v > o:
		return 1
	case v < o:
		return -1
	}
	return 0
}

// String renders the diagnostic form, e.g. "00010000 0xe8654 FLUSH".
func (v HandValue) String() string {
	var b strings.Builder
	for bit := 31; bit >= 24; bit-- {
		if v&(1<<bit) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	fmt.Fprintf(&b, " %#x", v.Kickers())
	for _, f := range categoryFlags {
		if v&f.flag != 0 {
			b.WriteByte(' ')
			b.WriteString(f.name)
		}
	}
	return b.String()
}

// pack packs five ranks most significant first under the category flag.
func pack(flag HandValue, r0, r1, r2, r3, r4 Rank) HandValue {
	return flag |
		HandValue(r0)<<16 |
		HandValue(r1)<<12 |
		HandValue(r2)<<8 |
		HandValue(r3)<<4 |
		HandValue(r4)
}
