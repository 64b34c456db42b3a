// internal/protocol/inbound.go
package protocol

import (
	"fmt"
	"time"

	"pokerview/internal/cards"
)

// RoomUpdate is the full room snapshot. player_ids is the seat order, with
// an empty entry for a vacant seat; players maps occupant ids to their
// snapshots. can_start is the server's readiness signal.
type RoomUpdate struct {
	PlayerIDs    []string          `json:"player_ids"`
	Players      map[string]Player `json:"players"`
	CanStart     bool              `json:"can_start"`
	ReadyPlayers []string          `json:"ready_players"`
}

// Validate checks the structural requirements of a room snapshot. A snapshot
// that fails validation must be discarded wholesale, leaving prior state
// untouched.
func (m RoomUpdate) Validate() error {
	if m.PlayerIDs == nil {
		return fmt.Errorf("room-update: player_ids missing")
	}
	if m.Players == nil {
		return fmt.Errorf("room-update: players missing")
	}
	for _, id := range m.PlayerIDs {
		if id == "" {
			continue // empty seat
		}
		if _, ok := m.Players[id]; !ok {
			return fmt.Errorf("room-update: seated player %s has no snapshot", id)
		}
	}
	return nil
}

// PlayerAdded announces a new occupant. The server attaches the fresh room
// snapshot so the client can re-reconcile instead of patching incrementally.
type PlayerAdded struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	RoomUpdate
}

// PlayerRemoved announces a departed occupant; a room-update follows.
type PlayerRemoved struct {
	PlayerID string `json:"player_id"`
}

// Connect and Disconnect are informational lifecycle notices.
type Connect struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// ErrorNotice carries a human-readable server error for the status feed.
type ErrorNotice struct {
	Error string `json:"error"`
}

// Pot is one pot (or side pot) at stake.
type Pot struct {
	Money      float64  `json:"money"`
	PlayerIDs  []string `json:"player_ids"`
	WinnerIDs  []string `json:"winner_ids,omitempty"`
	MoneySplit float64  `json:"money_split,omitempty"`
}

// Score is a revealed hand's strength: a category ordinal (whose label set
// depends on the game variant) and the cards that produced it.
type Score struct {
	Category int          `json:"category"`
	Cards    []cards.Card `json:"cards"`
}

// NewGame starts a hand. game_type selects the variant: "traditional" deals
// five cards per seat, anything else is a community-card game with two.
type NewGame struct {
	GameID     string   `json:"game_id"`
	GameType   string   `json:"game_type"`
	Players    []Player `json:"players"`
	DealerID   string   `json:"dealer_id"`
	BigBlind   float64  `json:"big_blind"`
	SmallBlind float64  `json:"small_blind"`
}

func (m NewGame) Validate() error {
	if m.GameID == "" {
		return fmt.Errorf("new-game: game_id missing")
	}
	if len(m.Players) == 0 {
		return fmt.Errorf("new-game: players missing")
	}
	if m.DealerID == "" {
		return fmt.Errorf("new-game: dealer_id missing")
	}
	return nil
}

// CardsAssignment privately reveals the target player's cards and score.
// Observers other than the target only ever learn the card count.
type CardsAssignment struct {
	Target string       `json:"target"`
	Cards  []cards.Card `json:"cards"`
	Score  Score        `json:"score"`
}

func (m CardsAssignment) Validate() error {
	if m.Target == "" {
		return fmt.Errorf("cards-assignment: target missing")
	}
	return nil
}

// PlayerEvent covers fold and dead-player, which carry only the player.
type PlayerEvent struct {
	Player Player `json:"player"`
}

// BetEvent reports a placed bet along with the updated bets mapping, which
// replaces the previous mapping wholesale.
type BetEvent struct {
	Player  Player             `json:"player"`
	Bet     float64            `json:"bet"`
	BetType string             `json:"bet_type"`
	Bets    map[string]float64 `json:"bets"`
}

// PotsUpdate replaces the pots sequence and player money snapshots. Bets are
// implicitly cleared: they have been collected into the pots.
type PotsUpdate struct {
	Pots    []Pot             `json:"pots"`
	Players map[string]Player `json:"players"`
}

// CardsChangeEvent reports how many cards a player exchanged. It carries a
// count only; other observers never learn the discarded identities.
type CardsChangeEvent struct {
	Player   Player `json:"player"`
	NumCards int    `json:"num_cards"`
}

// SharedCards appends to the community board; it never replaces prior cards.
type SharedCards struct {
	Cards []cards.Card `json:"cards"`
}

// WinnerDesignation settles one pot and freezes the board for display until
// the following game-over resets it.
type WinnerDesignation struct {
	Pot     Pot               `json:"pot"`
	Pots    []Pot             `json:"pots"`
	Players map[string]Player `json:"players"`
}

// ShowdownHand is one player's revealed cards and score at showdown.
type ShowdownHand struct {
	Cards []cards.Card `json:"cards"`
	Score Score        `json:"score"`
}

// Showdown reveals every remaining player's hand.
type Showdown struct {
	Players map[string]ShowdownHand `json:"players"`
}

// PlayerAction grants one player a time-bounded opportunity to act.
//
// For bets, min_bet/max_bet bound the amount; min_score, when present, means
// the variant requires a prior qualifying score to open (the fold control
// reads "pass"); allowed_to_bet gates whether the player may act at all this
// round. timeout_date is absolute server time in TimeoutLayout.
type PlayerAction struct {
	Action       string             `json:"action"`
	Player       Player             `json:"player"`
	MinBet       float64            `json:"min_bet"`
	MaxBet       float64            `json:"max_bet"`
	MinScore     *int               `json:"min_score,omitempty"`
	AllowedToBet *bool              `json:"allowed_to_bet,omitempty"`
	Bets         map[string]float64 `json:"bets,omitempty"`
	Timeout      int                `json:"timeout"`
	TimeoutDate  string             `json:"timeout_date"`
}

func (m PlayerAction) Validate() error {
	if m.Action != ActionBet && m.Action != ActionCardsChange {
		return fmt.Errorf("player-action: unknown action %q", m.Action)
	}
	if m.Player.ID == "" {
		return fmt.Errorf("player-action: player missing")
	}
	return nil
}

// Deadline parses the absolute timeout timestamp.
func (m PlayerAction) Deadline() (time.Time, error) {
	t, err := time.Parse(TimeoutLayout, m.TimeoutDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("player-action: bad timeout_date %q: %w", m.TimeoutDate, err)
	}
	return t, nil
}

// CanBet reports whether the player may place a numeric bet this round.
// Absent flags default to permissive, matching the server's behavior.
func (m PlayerAction) CanBet() bool {
	return m.AllowedToBet == nil || *m.AllowedToBet
}

// RequiresScore reports whether the variant demands a prior qualifying score,
// which turns the fold control into "pass".
func (m PlayerAction) RequiresScore() bool {
	return m.MinScore != nil
}
