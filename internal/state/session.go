// internal/state/session.go
package state

import (
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"pokerview/internal/auth"
)

// Session is the per-connection context: the local player identity and the
// one set of models a connection owns. It replaces any ambient shared state;
// every component reads the local identity from here, never from the
// presentation layer. Constructed at connection-open, torn down at close.
type Session struct {
	Identity auth.Identity

	Room       *Room
	Hand       *Hand
	Controller *Controller
	Status     *StatusFeed

	logger *logrus.Logger
}

// NewSession builds the model set for one connection. The room and hand are
// mutated only on the connection's read loop; the controller additionally
// accepts submits from the user-input goroutine and guards its own fields.
func NewSession(identity auth.Identity, roomID string, clock clockwork.Clock, logger *logrus.Logger) *Session {
	room := NewRoom(roomID, logger)
	hand := NewHand(identity.PlayerID, room, logger)
	ctrl := NewController(identity.PlayerID, clock, logger)
	ctrl.HandSizeFn = func() int { return hand.CardsPerSeat }

	return &Session{
		Identity:   identity,
		Room:       room,
		Hand:       hand,
		Controller: ctrl,
		Status:     NewStatusFeed(),
		logger:     logger,
	}
}

// Teardown restores every model to neutral. Called on connection close;
// there is no session resumption, a reconnect starts over with join.
func (s *Session) Teardown() {
	s.Controller.Reset()
	s.Hand.Reset()
	s.Room.Reset()
	s.logger.Info("session torn down")
}
