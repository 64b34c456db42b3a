// internal/state/hand.go
package state

import (
	"github.com/sirupsen/logrus"

	"pokerview/internal/cards"
	"pokerview/internal/protocol"
)

// Variant distinguishes the two game families the server deals.
type Variant int

const (
	VariantNone Variant = iota
	VariantDraw          // five cards per seat, exchange round
	VariantCommunity     // two cards per seat, shared board
)

func variantOf(gameType string) Variant {
	if gameType == protocol.GameTypeTraditional {
		return VariantDraw
	}
	return VariantCommunity
}

// Score-category labels, indexed by the category ordinal of the wire Score.
// The two variants disagree on the order of Flush and Full house.
var drawCategories = []string{
	"Highest card", "Pair", "Double pair", "Three of a kind", "Straight",
	"Full house", "Flush", "Four of a kind", "Straight flush",
}

var communityCategories = []string{
	"Highest card", "Pair", "Double pair", "Three of a kind", "Straight",
	"Flush", "Full house", "Four of a kind", "Straight flush",
}

// SeatCards is one player's cards as visible to the local client: either a
// placeholder count of face-down backs, or a revealed sequence with a score.
type SeatCards struct {
	Count    int
	Revealed []cards.Card
	Score    *protocol.Score
}

// Pot is an amount of currency at stake, possibly one of several side pots.
type Pot struct {
	Money int
}

// Hand holds the current game: variant, per-seat cards and visibility, pots,
// bets, shared cards and dealer. It is a state machine over the hand
// lifecycle, driven by the event sub-tag of game-update messages.
type Hand struct {
	GameID       string
	Variant      Variant
	CardsPerSeat int
	DealerID     string
	SharedCards  []cards.Card
	Pots         []Pot
	Bets         map[string]int
	Folded       map[string]bool
	Cards        map[string]*SeatCards
	Categories   []string

	// Concluded marks the post-winner-designation display state: the board
	// is frozen for the showdown result and cleared by the next game-over.
	Concluded bool

	localID string
	room    *Room
	logger  *logrus.Logger

	// RenderFn receives the hand after every state change.
	RenderFn func(h *Hand)

	// AnimateExchangeFn is invoked for a cards-change event: a visual cue
	// that a player exchanged count cards. No card identity changes.
	AnimateExchangeFn func(playerID string, count int)
}

func NewHand(localID string, room *Room, logger *logrus.Logger) *Hand {
	h := &Hand{localID: localID, room: room, logger: logger}
	h.reset()
	return h
}

// Active reports whether a hand is currently being played (or frozen for
// display after a winner designation).
func (h *Hand) Active() bool {
	return h.GameID != ""
}

// CategoryLabel resolves a score category ordinal against the current
// variant's label table.
func (h *Hand) CategoryLabel(category int) string {
	if category < 0 || category >= len(h.Categories) {
		return ""
	}
	return h.Categories[category]
}

// reset restores the neutral/empty shape the hand has before any new-game.
func (h *Hand) reset() {
	h.GameID = ""
	h.Variant = VariantNone
	h.CardsPerSeat = 0
	h.DealerID = ""
	h.SharedCards = nil
	h.Pots = nil
	h.Bets = map[string]int{}
	h.Folded = map[string]bool{}
	h.Cards = map[string]*SeatCards{}
	h.Categories = nil
	h.Concluded = false
}

// Reset returns the hand to neutral and renders, for session teardown.
func (h *Hand) Reset() {
	h.reset()
	h.render()
}

// ApplyNewGame resets the hand and seeds it from the new-game event. The
// per-seat card count and label table are fixed here for the hand's life.
func (h *Hand) ApplyNewGame(msg protocol.NewGame) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	h.reset()
	h.GameID = msg.GameID
	h.Variant = variantOf(msg.GameType)
	if h.Variant == VariantDraw {
		h.CardsPerSeat = 5
		h.Categories = drawCategories
	} else {
		h.CardsPerSeat = 2
		h.Categories = communityCategories
	}
	h.DealerID = msg.DealerID

	for _, p := range msg.Players {
		h.Cards[p.ID] = &SeatCards{Count: h.CardsPerSeat}
	}

	h.logger.WithFields(logrus.Fields{
		"game":   h.GameID,
		"type":   msg.GameType,
		"dealer": h.DealerID,
	}).Info("new game")

	h.render()
	return nil
}

// ApplyCardsAssignment reveals the local player's own cards and score; for
// any other target it only refreshes the face-down placeholder count. Other
// players' ranks and suits are never disclosed by this event.
func (h *Hand) ApplyCardsAssignment(msg protocol.CardsAssignment) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	sc := h.Cards[msg.Target]
	if sc == nil {
		sc = &SeatCards{}
		h.Cards[msg.Target] = sc
	}
	sc.Count = h.CardsPerSeat

	if msg.Target == h.localID {
		sc.Revealed = msg.Cards
		score := msg.Score
		sc.Score = &score
	}

	h.render()
	return nil
}

// ApplyFold marks a player as folded. The player keeps their seat.
func (h *Hand) ApplyFold(msg protocol.PlayerEvent) {
	if msg.Player.ID == "" {
		return
	}
	h.Folded[msg.Player.ID] = true
	h.render()
}

// ApplyBet refreshes the bettor's money/name snapshot and replaces the full
// bets mapping from the message. The mapping is never merged.
func (h *Hand) ApplyBet(msg protocol.BetEvent) {
	h.room.UpdatePlayer(msg.Player)

	bets := make(map[string]int, len(msg.Bets))
	for id, amount := range msg.Bets {
		bets[id] = int(amount)
	}
	h.Bets = bets
	h.render()
}

// ApplyPotsUpdate replaces money snapshots and the pots sequence, and clears
// the bets mapping unconditionally: the bets have moved into the pots.
func (h *Hand) ApplyPotsUpdate(msg protocol.PotsUpdate) {
	for _, p := range msg.Players {
		h.room.UpdatePlayer(p)
	}
	pots := make([]Pot, 0, len(msg.Pots))
	for _, pot := range msg.Pots {
		pots = append(pots, Pot{Money: int(pot.Money)})
	}
	h.Pots = pots
	h.Bets = map[string]int{}
	h.render()
}

// ApplyCardsChange relays the exchange animation cue. The event carries only
// a count; no observer-visible card identity changes.
func (h *Hand) ApplyCardsChange(msg protocol.CardsChangeEvent) {
	if h.AnimateExchangeFn != nil && msg.Player.ID != "" {
		h.AnimateExchangeFn(msg.Player.ID, msg.NumCards)
	}
}

// ApplySharedCards appends to the community board. Prior entries are never
// replaced. Draw games have no board; a stray event is logged and dropped.
func (h *Hand) ApplySharedCards(msg protocol.SharedCards) {
	if h.Variant == VariantDraw {
		h.logger.Warn("shared-cards event in a draw game, ignoring")
		return
	}
	h.SharedCards = append(h.SharedCards, msg.Cards...)
	h.render()
}

// ApplyWinnerDesignation settles a pot: players and pots are replaced, then
// the hand freezes in its concluded display state. The board is cleared by
// the next game-over, not here.
func (h *Hand) ApplyWinnerDesignation(msg protocol.WinnerDesignation) {
	for _, p := range msg.Players {
		h.room.UpdatePlayer(p)
	}
	pots := make([]Pot, 0, len(msg.Pots))
	for _, pot := range msg.Pots {
		pots = append(pots, Pot{Money: int(pot.Money)})
	}
	h.Pots = pots
	h.Concluded = true

	h.logger.WithFields(logrus.Fields{
		"game":    h.GameID,
		"winners": msg.Pot.WinnerIDs,
	}).Info("winner designated")

	h.render()
}

// ApplyShowdown reveals every listed player's cards and score, unlike
// cards-assignment which reveals the local player's only.
func (h *Hand) ApplyShowdown(msg protocol.Showdown) {
	for id, revealed := range msg.Players {
		sc := h.Cards[id]
		if sc == nil {
			sc = &SeatCards{Count: h.CardsPerSeat}
			h.Cards[id] = sc
		}
		sc.Revealed = revealed.Cards
		score := revealed.Score
		sc.Score = &score
	}
	h.render()
}

// ApplyGameOver resets the hand to its neutral state.
func (h *Hand) ApplyGameOver() {
	h.Reset()
}

func (h *Hand) render() {
	if h.RenderFn != nil {
		h.RenderFn(h)
	}
}
