// internal/state/room.go
package state

import (
	"github.com/sirupsen/logrus"

	"pokerview/internal/protocol"
)

// Player is the model-side snapshot of a seated player. Money arrives as a
// float on the wire but is presented as a whole amount.
type Player struct {
	ID    string
	Name  string
	Money int
}

// Seat is a fixed ordinal position at the table. Occupant is nil for an
// empty seat. Seat order is server-defined and stable for the room's life.
type Seat struct {
	Index    int
	Occupant *Player
}

// Room holds the seat list and room identity. It is rebuilt wholesale on
// every room snapshot: server pushes are not guaranteed gap-free, so an
// idempotent full replace avoids diverging from a missed incremental update.
type Room struct {
	ID           string
	Seats        []Seat
	Joinable     bool
	ReadyPlayers []string

	logger *logrus.Logger

	// RenderFn receives the full seat list and the joinable flag after every
	// apply. Nil disables rendering.
	RenderFn func(seats []Seat, joinable bool)
}

func NewRoom(roomID string, logger *logrus.Logger) *Room {
	return &Room{ID: roomID, logger: logger}
}

// Reconcile replaces the entire seat sequence from a snapshot. There is no
// incremental seat patching. Invalid snapshots leave prior state untouched.
func (r *Room) Reconcile(msg protocol.RoomUpdate) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	seats := make([]Seat, 0, len(msg.PlayerIDs))
	for i, id := range msg.PlayerIDs {
		seat := Seat{Index: i}
		if id != "" {
			p := msg.Players[id]
			seat.Occupant = &Player{ID: p.ID, Name: p.Name, Money: int(p.Money)}
			if seat.Occupant.ID == "" {
				seat.Occupant.ID = id
			}
		}
		seats = append(seats, seat)
	}
	r.Seats = seats
	r.Joinable = msg.CanStart
	r.ReadyPlayers = msg.ReadyPlayers

	r.logger.WithFields(logrus.Fields{
		"room":     r.ID,
		"seats":    len(r.Seats),
		"joinable": r.Joinable,
	}).Debug("room reconciled")

	r.render()
	return nil
}

// PlayerAdded handles a single-player join delta. The model never patches a
// seat in place: the event is logged and, since the server attaches a fresh
// snapshot, the room is re-reconciled from it.
func (r *Room) PlayerAdded(msg protocol.PlayerAdded) error {
	r.logger.Infof("player added: %s", msg.PlayerName)
	if msg.PlayerIDs == nil {
		r.render()
		return nil
	}
	return r.Reconcile(msg.RoomUpdate)
}

// PlayerRemoved logs a departure and re-renders. The authoritative seat list
// arrives with the next room snapshot.
func (r *Room) PlayerRemoved(msg protocol.PlayerRemoved) {
	r.logger.Infof("player removed: %s", msg.PlayerID)
	r.render()
}

// UpdatePlayer refreshes the money/name snapshot of a seated player from a
// game event. The seat layout itself is untouched.
func (r *Room) UpdatePlayer(p protocol.Player) {
	for i := range r.Seats {
		if occ := r.Seats[i].Occupant; occ != nil && occ.ID == p.ID {
			occ.Name = p.Name
			occ.Money = int(p.Money)
			return
		}
	}
}

// Occupant returns the seated player with the given id, or nil.
func (r *Room) Occupant(playerID string) *Player {
	for i := range r.Seats {
		if occ := r.Seats[i].Occupant; occ != nil && occ.ID == playerID {
			return occ
		}
	}
	return nil
}

// Reset clears the room on teardown.
func (r *Room) Reset() {
	r.Seats = nil
	r.Joinable = false
	r.ReadyPlayers = nil
	r.render()
}

func (r *Room) render() {
	if r.RenderFn != nil {
		r.RenderFn(r.Seats, r.Joinable)
	}
}
