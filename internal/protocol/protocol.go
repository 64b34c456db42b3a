// internal/protocol/protocol.go
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType is the top-level discriminant of every wire message.
type MessageType string

// Inbound (server -> client) and outbound (client -> server) message tags.
const (
	TypeJoin          MessageType = "join"
	TypeJoinSuccess   MessageType = "join-success"
	TypeConnect       MessageType = "connect"
	TypeDisconnect    MessageType = "disconnect"
	TypeRoomUpdate    MessageType = "room-update"
	TypePlayerAdded   MessageType = "player-added"
	TypePlayerRemoved MessageType = "player-removed"
	TypeGameUpdate    MessageType = "game-update"
	TypePing          MessageType = "ping"
	TypePong          MessageType = "pong"
	TypeError         MessageType = "error"
	TypeBet           MessageType = "bet"
	TypeCardsChange   MessageType = "cards-change"
	TypeStartGame     MessageType = "start-game"
)

// GameEvent is the nested discriminant carried by game-update messages.
type GameEvent string

const (
	EventNewGame           GameEvent = "new-game"
	EventCardsAssignment   GameEvent = "cards-assignment"
	EventGameOver          GameEvent = "game-over"
	EventFold              GameEvent = "fold"
	EventBet               GameEvent = "bet"
	EventPotsUpdate        GameEvent = "pots-update"
	EventPlayerAction      GameEvent = "player-action"
	EventDeadPlayer        GameEvent = "dead-player"
	EventCardsChange       GameEvent = "cards-change"
	EventSharedCards       GameEvent = "shared-cards"
	EventWinnerDesignation GameEvent = "winner-designation"
	EventShowdown          GameEvent = "showdown"
	EventPing              GameEvent = "ping"
	EventPong              GameEvent = "pong"
)

// Game type values sent with new-game events.
const (
	GameTypeTraditional = "traditional"
	GameTypeTexasHoldem = "texas-holdem"
)

// Player actions carried by player-action events.
const (
	ActionBet         = "bet"
	ActionCardsChange = "cards-change"
)

// TimeoutLayout is the layout of the timeout_date field on player-action
// events, e.g. "2025-03-14 21:04:05+0000".
const TimeoutLayout = "2006-01-02 15:04:05-0700"

// Head carries the two discriminants of an inbound message. The rest of the
// payload is decoded into an event-specific struct once the tags are known.
type Head struct {
	MessageType MessageType `json:"message_type"`
	Event       GameEvent   `json:"event"`
}

// DecodeHead extracts the discriminants from a raw inbound message.
func DecodeHead(data []byte) (Head, error) {
	var h Head
	if err := json.Unmarshal(data, &h); err != nil {
		return Head{}, fmt.Errorf("protocol: undecodable message: %w", err)
	}
	if h.MessageType == "" {
		return Head{}, fmt.Errorf("protocol: message_type missing")
	}
	return h, nil
}

// Player is a player snapshot as it appears inside inbound payloads.
//
// The server is inconsistent about key names: room snapshots use
// player_id/player_name/player_money while game events use id/name/money.
// Both spellings are accepted, preferring the player_* form when present.
type Player struct {
	ID    string
	Name  string
	Money float64
}

func (p *Player) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Money       float64 `json:"money"`
		PlayerID    string  `json:"player_id"`
		PlayerName  string  `json:"player_name"`
		PlayerMoney float64 `json:"player_money"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ID = raw.ID
	p.Name = raw.Name
	p.Money = raw.Money
	if raw.PlayerID != "" {
		p.ID = raw.PlayerID
	}
	if raw.PlayerName != "" {
		p.Name = raw.PlayerName
	}
	if raw.PlayerMoney != 0 {
		p.Money = raw.PlayerMoney
	}
	return nil
}
