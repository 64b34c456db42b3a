// internal/cards/cards.go
package cards

import "fmt"

// Suit constants follow the server's encoding (0-3).
const (
	Spades   = 0
	Clubs    = 1
	Diamonds = 2
	Hearts   = 3
)

// Rank constants for face cards. The server deals ranks 2..14; rank 14 is
// the ace and is shown as rank 1 (first sprite column) at presentation time.
const (
	Ace   = 1
	Jack  = 11
	Queen = 12
	King  = 13

	// AceHigh is the ace as it arrives on the wire.
	AceHigh = 14
)

var suitGlyphs = [...]string{"♠", "♣", "♦", "♥"}

var rankNames = map[int]string{
	Ace: "A", 10: "10", Jack: "J", Queen: "Q", King: "K", AceHigh: "A",
}

// Card is a single playing card as received from the server.
type Card struct {
	Rank int `json:"rank"`
	Suit int `json:"suit"`
}

// Valid reports whether the card can be rendered at all. Ranks 1..14 are
// acceptable (14 aliases the ace); suits must be 0..3.
func (c Card) Valid() bool {
	return c.Rank >= 1 && c.Rank <= AceHigh && c.Suit >= Spades && c.Suit <= Hearts
}

// String renders the card compactly, e.g. "A♠" or "10♦". Invalid cards
// render as "??" so a bad card in a list is visible without breaking layout.
func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	name, ok := rankNames[c.Rank]
	if !ok {
		name = fmt.Sprintf("%d", c.Rank)
	}
	return name + suitGlyphs[c.Suit]
}
