package poker

import (
	"math/rand/v2"
)

// DeckSize is the number of cards in a standard deck.
const DeckSize = 52

// fullDeck holds the 52 cards in enumeration order: rank 2..14 outer, suit 1..4 inner.
var fullDeck = func() [DeckSize]Card {
	var d [DeckSize]Card
	i := 0
	for rank := Two; rank <= Ace; rank++ {
		for suit := Clubs; suit <= Spades; suit++ {
			d[i] = NewCard(rank, suit)
			i++
		}
	}
	return d
}()

// Deck represents a standard 52-card deck
type Deck struct {
	cards []Card
	next  int
}

// NewDeck creates an unshuffled deck in enumeration order. Any combination
// drawn from it by ascending position is already sorted.
func NewDeck() *Deck {
	cards := make([]Card, DeckSize)
	copy(cards, fullDeck[:])
	return &Deck{cards: cards}
}

// Remaining returns a deck without the excluded cards, preserving
// enumeration order.
func Remaining(excluded ...[]Card) *Deck {
	used := NewCardSet(excluded...)
	cards := make([]Card, 0, DeckSize)
	for _, c := range fullDeck {
		if !used.Contains(c) {
			cards = append(cards, c)
		}
	}
	return &Deck{cards: cards}
}

// Cards returns the undealt cards.
func (d *Deck) Cards() []Card {
	return d.cards[d.next:]
}

// Shuffle shuffles the deck using Fisher-Yates
func (d *Deck) Shuffle(rng *rand.Rand) {
	d.next = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal deals n cards from the deck
func (d *Deck) Deal(n int) []Card {
	if d.next+n > len(d.cards) {
		return nil
	}
	cards := d.cards[d.next : d.next+n]
	d.next += n
	return cards
}

// CardsRemaining returns the number of cards left in the deck
func (d *Deck) CardsRemaining() int {
	return len(d.cards) - d.next
}
