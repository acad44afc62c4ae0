package poker

import (
	"encoding/binary"
	"fmt"
)

// Index is the canonical byte-string key of a hand: one byte per card,
// rank<<4 | (suit-1), over the normalized hand. Hands that differ only by a
// suit relabeling that preserves their value share an Index.
type Index string

// Cards decodes the index back into the canonical cards it was built from.
func (ix Index) Cards() []Card {
	cards := make([]Card, len(ix))
	for i := 0; i < len(ix); i++ {
		b := ix[i]
		cards[i] = Card{Rank: Rank(b >> 4), Suit: Suit(b&0x0f) + 1}
	}
	return cards
}

// Key packs the index bytes big-endian into a uint64. Indices are at most
// seven bytes, so the mapping is injective for a fixed hand size.
func (ix Index) Key() uint64 {
	var buf [8]byte
	copy(buf[8-len(ix):], ix)
	return binary.BigEndian.Uint64(buf[:])
}

// String renders the index as hex.
func (ix Index) String() string {
	return fmt.Sprintf("%x", string(ix))
}

// Canonicalize relabels the suits of a hand that must already be sorted
// ascending. The result is in input order, not re-sorted.
//
// Five and six card hands label suits by first appearance. Seven card
// hands holding five or more cards of one suit keep that suit under a
// single label and give every other card its own label, since only the
// flush suit can matter. Other seven card hands cycle labels 1..4 by
// position: no flush is possible, so suits carry no information.
func Canonicalize(sorted []Card) []Card {
	out := make([]Card, len(sorted))
	if len(sorted) == 7 {
		if fs, ok := flushSuit(sorted); ok {
			var label, flushLabel Suit
			for i, c := range sorted {
				switch {
				case c.Suit != fs:
					label++
					out[i] = Card{Rank: c.Rank, Suit: label}
				case flushLabel == 0:
					label++
					flushLabel = label
					fallthrough
				default:
					out[i] = Card{Rank: c.Rank, Suit: flushLabel}
				}
			}
			return out
		}
		for i, c := range sorted {
			out[i] = Card{Rank: c.Rank, Suit: Suit(i%4) + 1}
		}
		return out
	}

	var labels [Spades + 1]Suit
	var next Suit
	for i, c := range sorted {
		if labels[c.Suit] == 0 {
			next++
			labels[c.Suit] = next
		}
		out[i] = Card{Rank: c.Rank, Suit: labels[c.Suit]}
	}
	return out
}

func flushSuit(cards []Card) (Suit, bool) {
	var counts [Spades + 1]int
	for _, c := range cards {
		counts[c.Suit]++
	}
	for s := Clubs; s <= Spades; s++ {
		if counts[s] >= 5 {
			return s, true
		}
	}
	return 0, false
}

// Normalize sorts, canonicalizes and re-sorts a hand, returning the
// canonical cards and their index. The input slice is not modified.
func Normalize(cards []Card) ([]Card, Index) {
	sorted := make([]Card, len(cards))
	copy(sorted, cards)
	SortCards(sorted)
	canon := Canonicalize(sorted)
	SortCards(canon)
	return canon, indexOf(canon)
}

func indexOf(cards []Card) Index {
	buf := make([]byte, len(cards))
	for i, c := range cards {
		buf[i] = byte(c.Rank)<<4 | byte(c.Suit-1)
	}
	return Index(buf)
}

// Combinations returns the number of raw n-card combinations of a deck.
func Combinations(n int) uint64 {
	return Binomial(DeckSize, n)
}

// UniqueIndices returns the number of distinct canonical indices for hands
// of n cards, or 0 for unsupported sizes.
func UniqueIndices(n int) int {
	switch n {
	case 5:
		return 160537
	case 6:
		return 1250964
	case 7:
		return 210080
	}
	return 0
}
