package poker

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidCards reports malformed card input: wrong count, out-of-range
// rank or suit, or duplicates.
var ErrInvalidCards = errors.New("invalid cards")

// Rank is a card rank from Two (2) to Ace (14).
type Rank uint8

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// LowAce is the value an ace takes in the tie-break nibbles of a wheel straight.
const LowAce Rank = 1

// Suit is a card suit from Clubs (1) to Spades (4).
type Suit uint8

const (
	Clubs Suit = iota + 1
	Diamonds
	Hearts
	Spades
)

const (
	rankChars = "??23456789TJQKA"
	suitChars = "?cdhs"
)

// String returns the single character form of the rank.
func (r Rank) String() string {
	if r < Two || r > Ace {
		return "?"
	}
	return string(rankChars[r])
}

// String returns the single character form of the suit.
func (s Suit) String() string {
	if s < Clubs || s > Spades {
		return "?"
	}
	return string(suitChars[s])
}

// Card is an immutable (rank, suit) pair.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a card.
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// Valid reports whether the rank and suit are in range.
func (c Card) Valid() bool {
	return c.Rank >= Two && c.Rank <= Ace && c.Suit >= Clubs && c.Suit <= Spades
}

// Less orders cards ascending by rank, then suit.
func (c Card) Less(o Card) bool {
	if c.Rank != o.Rank {
		return c.Rank < o.Rank
	}
	return c.Suit < o.Suit
}

// String returns the card in "Ah" form.
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// SortCards sorts cards in place, ascending by rank then suit.
func SortCards(cards []Card) {
	sort.Slice(cards, func(i, j int) bool { return cards[i].Less(cards[j]) })
}

// FormatCards renders cards as space separated tokens, e.g. "Ah Kc 2d".
func FormatCards(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// ParseCard parses a two character card such as "Ah" or "tc".
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("%w: card %q must be two characters", ErrInvalidCards, s)
	}
	rank, err := parseRank(s[0])
	if err != nil {
		return Card{}, err
	}
	suit, err := parseSuit(s[1])
	if err != nil {
		return Card{}, err
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// ParseCards parses a card list. Tokens may be space separated ("Ah Kc")
// or concatenated ("AhKc").
func ParseCards(s string) ([]Card, error) {
	compact := strings.Join(strings.Fields(s), "")
	if len(compact)%2 != 0 {
		return nil, fmt.Errorf("%w: invalid card string length %d", ErrInvalidCards, len(compact))
	}
	cards := make([]Card, 0, len(compact)/2)
	for i := 0; i < len(compact); i += 2 {
		c, err := ParseCard(compact[i : i+2])
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i/2, err)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards parses cards and panics on error (for tests)
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(fmt.Sprintf("failed to parse cards '%s': %v", s, err))
	}
	return cards
}

func parseRank(c byte) (Rank, error) {
	switch c {
	case 'A', 'a':
		return Ace, nil
	case 'K', 'k':
		return King, nil
	case 'Q', 'q':
		return Queen, nil
	case 'J', 'j':
		return Jack, nil
	case 'T', 't':
		return Ten, nil
	}
	if c >= '2' && c <= '9' {
		return Rank(c - '0'), nil
	}
	return 0, fmt.Errorf("%w: unknown rank '%c'", ErrInvalidCards, c)
}

func parseSuit(c byte) (Suit, error) {
	switch c {
	case 'c', 'C':
		return Clubs, nil
	case 'd', 'D':
		return Diamonds, nil
	case 'h', 'H':
		return Hearts, nil
	case 's', 'S':
		return Spades, nil
	}
	return 0, fmt.Errorf("%w: unknown suit '%c'", ErrInvalidCards, c)
}

// ValidateCards checks that cards holds between min and max valid, distinct
// cards.
func ValidateCards(cards []Card, min, max int) error {
	if len(cards) < min || len(cards) > max {
		if min == max {
			return fmt.Errorf("%w: need exactly %d cards, got %d", ErrInvalidCards, min, len(cards))
		}
		return fmt.Errorf("%w: need %d to %d cards, got %d", ErrInvalidCards, min, max, len(cards))
	}
	var seen CardSet
	for _, c := range cards {
		if !c.Valid() {
			return fmt.Errorf("%w: card out of range (rank %d, suit %d)", ErrInvalidCards, c.Rank, c.Suit)
		}
		if seen.Contains(c) {
			return fmt.Errorf("%w: duplicate card %s", ErrInvalidCards, c)
		}
		seen.Add(c)
	}
	return nil
}

// CardSet is a bitset of cards; bit index = (rank-2)*4 + (suit-1).
type CardSet uint64

func cardBit(c Card) CardSet {
	return 1 << (uint(c.Rank-Two)*4 + uint(c.Suit-Clubs))
}

// NewCardSet creates a CardSet from card slices.
func NewCardSet(groups ...[]Card) CardSet {
	var cs CardSet
	for _, g := range groups {
		for _, c := range g {
			cs.Add(c)
		}
	}
	return cs
}

// Add adds a card to the set.
func (cs *CardSet) Add(c Card) {
	*cs |= cardBit(c)
}

// Contains reports whether the card is in the set.
func (cs CardSet) Contains(c Card) bool {
	return cs&cardBit(c) != 0
}
