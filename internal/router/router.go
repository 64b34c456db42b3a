// internal/router/router.go
package router

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"pokerview/internal/protocol"
	"pokerview/internal/state"
)

// Recorder receives every decodable inbound message, e.g. for the Redis
// event journal. Recording failures never affect dispatch.
type Recorder interface {
	Record(ctx context.Context, messageType, event string, payload []byte) error
}

// Router dispatches an inbound message to the session's models based on its
// outer tag and, for game updates, the nested event tag. Unknown tags are
// logged and ignored; malformed payloads abort only that update and leave
// prior state untouched.
type Router struct {
	session *state.Session
	logger  *logrus.Logger

	// SendFn emits outgoing messages (the keepalive pong). Wired to the
	// connection by the owner.
	SendFn func(msg any) error

	// Journal, when set, records each inbound message.
	Journal Recorder
}

func New(session *state.Session, logger *logrus.Logger) *Router {
	return &Router{session: session, logger: logger}
}

// Dispatch routes one raw inbound message. It runs to completion before the
// next message is read, so effects are FIFO per connection.
func (r *Router) Dispatch(ctx context.Context, data []byte) {
	head, err := protocol.DecodeHead(data)
	if err != nil {
		r.logger.Warnf("dropping message: %v", err)
		return
	}

	if r.Journal != nil {
		if err := r.Journal.Record(ctx, string(head.MessageType), string(head.Event), data); err != nil {
			r.logger.Debugf("journal record failed: %v", err)
		}
	}

	switch head.MessageType {
	case protocol.TypePing:
		r.sendPong()

	case protocol.TypePong:
		r.logger.Debug("pong received")

	case protocol.TypeConnect:
		var msg protocol.Connect
		if !r.decode(data, &msg, head.MessageType) {
			return
		}
		r.session.Status.Push("Connection established with poker server.")
		r.logger.Infof("connected as %s (%s)", msg.PlayerName, msg.PlayerID)

	case protocol.TypeJoinSuccess:
		r.session.Status.Push("Successfully joined the room.")

	case protocol.TypeDisconnect:
		r.session.Status.Push("Disconnected from poker server.")

	case protocol.TypeRoomUpdate:
		var msg protocol.RoomUpdate
		if !r.decode(data, &msg, head.MessageType) {
			return
		}
		if err := r.session.Room.Reconcile(msg); err != nil {
			// One user-visible line; prior seats stay as they were.
			r.session.Status.Push("Error: invalid room update message.")
			r.logger.Warnf("room-update rejected: %v", err)
		}

	case protocol.TypePlayerAdded:
		var msg protocol.PlayerAdded
		if !r.decode(data, &msg, head.MessageType) {
			return
		}
		if err := r.session.Room.PlayerAdded(msg); err != nil {
			r.session.Status.Push("Error: invalid room update message.")
			r.logger.Warnf("player-added rejected: %v", err)
		}

	case protocol.TypePlayerRemoved:
		var msg protocol.PlayerRemoved
		if !r.decode(data, &msg, head.MessageType) {
			return
		}
		r.session.Room.PlayerRemoved(msg)

	case protocol.TypeGameUpdate:
		r.dispatchGame(head.Event, data)

	case protocol.TypeError:
		var msg protocol.ErrorNotice
		if !r.decode(data, &msg, head.MessageType) {
			return
		}
		r.session.Status.Push(msg.Error)

	default:
		r.logger.Warnf("unknown message type %q, ignoring", head.MessageType)
	}
}

// dispatchGame handles the nested event tag of a game-update. Whatever the
// event carries, any pending action window is canceled first: a new update
// supersedes the window regardless of who it addresses.
func (r *Router) dispatchGame(event protocol.GameEvent, data []byte) {
	r.session.Controller.Reset()

	switch event {
	case protocol.EventNewGame:
		var msg protocol.NewGame
		if !r.decode(data, &msg, "game-update/new-game") {
			return
		}
		if err := r.session.Hand.ApplyNewGame(msg); err != nil {
			r.session.Status.Push("Error: invalid game update message.")
			r.logger.Warnf("new-game rejected: %v", err)
		}

	case protocol.EventCardsAssignment:
		var msg protocol.CardsAssignment
		if !r.decode(data, &msg, "game-update/cards-assignment") {
			return
		}
		if err := r.session.Hand.ApplyCardsAssignment(msg); err != nil {
			r.logger.Warnf("cards-assignment rejected: %v", err)
		}

	case protocol.EventFold, protocol.EventDeadPlayer:
		var msg protocol.PlayerEvent
		if !r.decode(data, &msg, "game-update/fold") {
			return
		}
		r.session.Hand.ApplyFold(msg)

	case protocol.EventBet:
		var msg protocol.BetEvent
		if !r.decode(data, &msg, "game-update/bet") {
			return
		}
		r.session.Hand.ApplyBet(msg)

	case protocol.EventPotsUpdate:
		var msg protocol.PotsUpdate
		if !r.decode(data, &msg, "game-update/pots-update") {
			return
		}
		r.session.Hand.ApplyPotsUpdate(msg)

	case protocol.EventCardsChange:
		var msg protocol.CardsChangeEvent
		if !r.decode(data, &msg, "game-update/cards-change") {
			return
		}
		r.session.Hand.ApplyCardsChange(msg)

	case protocol.EventSharedCards:
		var msg protocol.SharedCards
		if !r.decode(data, &msg, "game-update/shared-cards") {
			return
		}
		r.session.Hand.ApplySharedCards(msg)

	case protocol.EventWinnerDesignation:
		var msg protocol.WinnerDesignation
		if !r.decode(data, &msg, "game-update/winner-designation") {
			return
		}
		r.session.Hand.ApplyWinnerDesignation(msg)

	case protocol.EventShowdown:
		var msg protocol.Showdown
		if !r.decode(data, &msg, "game-update/showdown") {
			return
		}
		r.session.Hand.ApplyShowdown(msg)

	case protocol.EventGameOver:
		r.session.Hand.ApplyGameOver()

	case protocol.EventPlayerAction:
		var msg protocol.PlayerAction
		if !r.decode(data, &msg, "game-update/player-action") {
			return
		}
		if err := r.session.Controller.HandleAction(msg); err != nil {
			r.logger.Warnf("player-action rejected: %v", err)
		}

	case protocol.EventPing:
		r.sendPong()

	case protocol.EventPong:
		r.logger.Debug("pong event received")

	default:
		// Forward-compatibility: new server events must not break old clients.
		r.logger.Warnf("unknown game event %q, ignoring", event)
	}
}

// decode unmarshals one payload, logging and dropping the update on failure.
func (r *Router) decode(data []byte, dst any, tag any) bool {
	if err := json.Unmarshal(data, dst); err != nil {
		r.logger.Warnf("malformed %v payload, dropping: %v", tag, err)
		return false
	}
	return true
}

func (r *Router) sendPong() {
	if r.SendFn == nil {
		return
	}
	if err := r.SendFn(protocol.NewPong()); err != nil {
		r.logger.Warnf("failed to send pong: %v", err)
	}
}
