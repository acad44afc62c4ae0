package tui

import (
	"strings"

	"github.com/lox/pokervals/poker"
)

// FormatCards renders cards with hearts and diamonds in red.
func FormatCards(cards []poker.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		style := BlackCardStyle
		if c.Suit == poker.Hearts || c.Suit == poker.Diamonds {
			style = RedCardStyle
		}
		parts[i] = style.Render(c.String())
	}
	return strings.Join(parts, " ")
}

// Field renders an aligned "label value" line.
func Field(label, value string) string {
	return LabelStyle.Width(12).Render(label) + " " + ValueStyle.Render(value)
}
