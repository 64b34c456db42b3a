// internal/protocol/outbound.go
package protocol

// Bet amount sentinels: -1 folds (or passes, in variants with a qualifying
// score), 0 checks.
const (
	BetFold  = -1
	BetCheck = 0
)

// Join identifies the local player to the server after the socket opens.
type Join struct {
	MessageType MessageType `json:"message_type"`
	PlayerID    string      `json:"player_id"`
	PlayerName  string      `json:"player_name"`
	PlayerMoney float64     `json:"player_money"`
}

func NewJoin(id, name string, money float64) Join {
	return Join{MessageType: TypeJoin, PlayerID: id, PlayerName: name, PlayerMoney: money}
}

// Bet submits a bet amount in response to a bet action window.
type Bet struct {
	MessageType MessageType `json:"message_type"`
	Bet         int         `json:"bet"`
}

func NewBet(amount int) Bet {
	return Bet{MessageType: TypeBet, Bet: amount}
}

// CardsChange submits the discard indices selected during a card-exchange
// window. Indices are positions within the local player's hand.
type CardsChange struct {
	MessageType MessageType `json:"message_type"`
	Cards       []int       `json:"cards"`
}

func NewCardsChange(discards []int) CardsChange {
	return CardsChange{MessageType: TypeCardsChange, Cards: discards}
}

// Pong answers a server keepalive ping. No payload beyond the tag.
type Pong struct {
	MessageType MessageType `json:"message_type"`
}

func NewPong() Pong {
	return Pong{MessageType: TypePong}
}

// StartGame votes to start a hand while the room is joinable.
type StartGame struct {
	MessageType MessageType `json:"message_type"`
}

func NewStartGame() StartGame {
	return StartGame{MessageType: TypeStartGame}
}
