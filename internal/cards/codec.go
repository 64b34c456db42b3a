// internal/cards/codec.go
package cards

import "errors"

// ErrInvalidCard is returned by Encode for a rank or suit outside the
// renderable range. Callers skip the offending card and keep rendering its
// siblings; an invalid card is never fatal to a batch.
var ErrInvalidCard = errors.New("cards: invalid rank or suit")

// Size selects one of the three sprite-sheet tiers.
type Size int

const (
	SizeSmall Size = iota
	SizeMedium
	SizeLarge
)

// sheet describes one sprite-sheet resource and its cell dimensions.
type sheet struct {
	name   string
	width  int
	height int
}

var sheets = [...]sheet{
	SizeSmall:  {"cards-small.png", 24, 40},
	SizeMedium: {"cards-medium.png", 45, 75},
	SizeLarge:  {"cards-large.png", 75, 125},
}

// Sprite is the presentation coordinate for one card: the sheet resource,
// its cell dimensions, and the background offsets selecting the card's cell.
type Sprite struct {
	Sheet  string
	Width  int
	Height int
	X      int
	Y      int
}

// Encode maps a (rank, suit) pair to its sprite-sheet position for the given
// size tier. The suit selects a sheet quadrant; the rank selects the column
// within it. Rank 14 is normalized to 1 (the ace occupies the first column).
// Deterministic and side-effect free; any rank outside 1..14 or suit outside
// 0..3 yields ErrInvalidCard.
func Encode(rank, suit int, size Size) (Sprite, error) {
	if size < SizeSmall || size > SizeLarge {
		size = SizeLarge
	}
	sh := sheets[size]

	x, y := 0, 0
	switch suit {
	case Spades:
		x -= sh.width
		y -= sh.height
	case Clubs:
		y -= sh.height
	case Diamonds:
		x -= sh.width
	case Hearts:
	default:
		return Sprite{}, ErrInvalidCard
	}

	if rank == AceHigh {
		rank = 1
	}
	if rank < 1 || rank > King {
		return Sprite{}, ErrInvalidCard
	}
	x -= (rank-1)*2*sh.width + sh.width

	return Sprite{Sheet: sh.name, Width: sh.width, Height: sh.height, X: x, Y: y}, nil
}
