// internal/router/router_test.go
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"pokerview/internal/auth"
	"pokerview/internal/protocol"
	"pokerview/internal/state"
)

const localID = "local"

func testRouter(t *testing.T) (*Router, *state.Session, *logtest.Hook, *[]any) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.WarnLevel)

	session := state.NewSession(
		auth.Identity{PlayerID: localID, Name: "You"},
		"room-1", clockwork.NewFakeClock(), logger,
	)
	r := New(session, logger)
	sent := &[]any{}
	r.SendFn = func(msg any) error {
		*sent = append(*sent, msg)
		return nil
	}
	session.Controller.SendFn = r.SendFn
	return r, session, hook, sent
}

func roomUpdateJSON() []byte {
	return []byte(`{
		"message_type": "room-update",
		"player_ids": ["local", "p2"],
		"players": {
			"local": {"player_id": "local", "player_name": "You", "player_money": 1000},
			"p2": {"player_id": "p2", "player_name": "Bob", "player_money": 1000}
		},
		"can_start": false
	}`)
}

func newGameJSON() []byte {
	return []byte(`{
		"message_type": "game-update",
		"event": "new-game",
		"game_id": "g1",
		"game_type": "texas_holdem",
		"dealer_id": "p2",
		"players": [
			{"id": "local", "name": "You", "money": 1000},
			{"id": "p2", "name": "Bob", "money": 1000}
		]
	}`)
}

func TestDispatchRoomUpdate(t *testing.T) {
	r, session, _, _ := testRouter(t)
	r.Dispatch(context.Background(), roomUpdateJSON())

	if len(session.Room.Seats) != 2 {
		t.Fatalf("expected 2 seats, got %d", len(session.Room.Seats))
	}
	if occ := session.Room.Occupant("p2"); occ == nil || occ.Name != "Bob" {
		t.Errorf("p2 not seated: %+v", occ)
	}
}

// TestDispatchMalformedRoomUpdate checks a structurally invalid snapshot
// leaves prior state untouched and produces exactly one warning.
func TestDispatchMalformedRoomUpdate(t *testing.T) {
	r, session, hook, _ := testRouter(t)
	r.Dispatch(context.Background(), roomUpdateJSON())
	hook.Reset()

	r.Dispatch(context.Background(), []byte(`{
		"message_type": "room-update",
		"players": {}
	}`))

	if len(session.Room.Seats) != 2 {
		t.Errorf("prior seats must survive a rejected snapshot, got %d", len(session.Room.Seats))
	}
	if len(hook.Entries) != 1 {
		t.Errorf("expected exactly one log line, got %d", len(hook.Entries))
	}
	lines := session.Status.Lines()
	if len(lines) == 0 || lines[0] != "Error: invalid room update message." {
		t.Errorf("expected status feed error line, got %v", lines)
	}
}

func TestDispatchUndecodableMessage(t *testing.T) {
	r, session, hook, _ := testRouter(t)
	r.Dispatch(context.Background(), roomUpdateJSON())
	hook.Reset()

	r.Dispatch(context.Background(), []byte(`{not json`))
	r.Dispatch(context.Background(), []byte(`{"event":"bet"}`))

	if len(session.Room.Seats) != 2 {
		t.Errorf("undecodable input must not touch state")
	}
	if len(hook.Entries) != 2 {
		t.Errorf("expected one warning per dropped message, got %d", len(hook.Entries))
	}
}

func TestDispatchUnknownTagsIgnored(t *testing.T) {
	r, session, _, _ := testRouter(t)
	r.Dispatch(context.Background(), roomUpdateJSON())

	r.Dispatch(context.Background(), []byte(`{"message_type":"telemetry"}`))
	r.Dispatch(context.Background(), []byte(`{"message_type":"game-update","event":"replay-hint"}`))

	if len(session.Room.Seats) != 2 {
		t.Errorf("unknown tags must not touch state")
	}
}

func TestDispatchPingPong(t *testing.T) {
	r, _, _, sent := testRouter(t)
	r.Dispatch(context.Background(), []byte(`{"message_type":"ping"}`))
	r.Dispatch(context.Background(), []byte(`{"message_type":"game-update","event":"ping"}`))

	if len(*sent) != 2 {
		t.Fatalf("expected two pongs, got %d messages", len(*sent))
	}
	for _, msg := range *sent {
		if _, ok := msg.(protocol.Pong); !ok {
			t.Errorf("expected pong, got %+v", msg)
		}
	}
}

// TestGameUpdateCancelsActionWindow checks any game-update event forces the
// controller to idle before its own effect is applied.
func TestGameUpdateCancelsActionWindow(t *testing.T) {
	r, session, _, _ := testRouter(t)
	r.Dispatch(context.Background(), roomUpdateJSON())
	r.Dispatch(context.Background(), newGameJSON())

	r.Dispatch(context.Background(), []byte(`{
		"message_type": "game-update",
		"event": "player-action",
		"action": "bet",
		"player": {"id": "local", "name": "You", "money": 1000},
		"min_bet": 10, "max_bet": 500, "timeout": 30,
		"timeout_date": "2025-03-14 21:04:05+0000"
	}`))
	if session.Controller.State() != state.BetPending {
		t.Fatalf("expected bet-pending, got %v", session.Controller.State())
	}

	// An unrelated event supersedes the window.
	r.Dispatch(context.Background(), []byte(`{
		"message_type": "game-update",
		"event": "fold",
		"player": {"id": "p2"}
	}`))
	if session.Controller.State() != state.Idle {
		t.Errorf("game-update must cancel the window, got %v", session.Controller.State())
	}
	if !session.Hand.Folded["p2"] {
		t.Errorf("the event's own effect must still apply")
	}
}

func TestGameUpdateLifecycle(t *testing.T) {
	r, session, _, _ := testRouter(t)
	r.Dispatch(context.Background(), roomUpdateJSON())
	r.Dispatch(context.Background(), newGameJSON())

	if !session.Hand.Active() || session.Hand.CardsPerSeat != 2 {
		t.Fatalf("new-game not applied: %+v", session.Hand)
	}

	r.Dispatch(context.Background(), []byte(`{
		"message_type": "game-update",
		"event": "cards-assignment",
		"target": "local",
		"cards": [{"rank": 14, "suit": 3}, {"rank": 5, "suit": 0}],
		"score": {"category": 0, "cards": []}
	}`))
	if sc := session.Hand.Cards[localID]; sc == nil || len(sc.Revealed) != 2 {
		t.Fatalf("local cards not revealed: %+v", session.Hand.Cards[localID])
	}

	r.Dispatch(context.Background(), []byte(`{
		"message_type": "game-update",
		"event": "shared-cards",
		"cards": [{"rank": 2, "suit": 0}, {"rank": 9, "suit": 1}, {"rank": 11, "suit": 2}]
	}`))
	if len(session.Hand.SharedCards) != 3 {
		t.Fatalf("flop not applied: %v", session.Hand.SharedCards)
	}

	r.Dispatch(context.Background(), []byte(`{
		"message_type": "game-update",
		"event": "winner-designation",
		"pot": {"money": 300, "player_ids": ["local", "p2"], "winner_ids": ["p2"]},
		"pots": [],
		"players": {"p2": {"id": "p2", "name": "Bob", "money": 1300}}
	}`))
	if !session.Hand.Concluded {
		t.Fatalf("winner-designation must freeze the hand")
	}

	r.Dispatch(context.Background(), []byte(`{"message_type":"game-update","event":"game-over"}`))
	if session.Hand.Active() || session.Hand.Concluded {
		t.Errorf("game-over must reset the hand")
	}
}

func TestDispatchErrorNotice(t *testing.T) {
	r, session, _, _ := testRouter(t)
	r.Dispatch(context.Background(), []byte(`{"message_type":"error","error":"Room is full."}`))

	lines := session.Status.Lines()
	if len(lines) == 0 || lines[0] != "Room is full." {
		t.Errorf("server error must reach the status feed, got %v", lines)
	}
}

type captureRecorder struct {
	types  []string
	events []string
	fail   bool
}

func (c *captureRecorder) Record(_ context.Context, messageType, event string, _ []byte) error {
	c.types = append(c.types, messageType)
	c.events = append(c.events, event)
	if c.fail {
		return fmt.Errorf("journal down")
	}
	return nil
}

func TestDispatchRecordsJournal(t *testing.T) {
	r, _, _, _ := testRouter(t)
	rec := &captureRecorder{}
	r.Journal = rec

	r.Dispatch(context.Background(), roomUpdateJSON())
	r.Dispatch(context.Background(), newGameJSON())

	if len(rec.types) != 2 || rec.types[0] != "room-update" || rec.types[1] != "game-update" {
		t.Errorf("journal types wrong: %v", rec.types)
	}
	if rec.events[1] != "new-game" {
		t.Errorf("journal event wrong: %v", rec.events)
	}
}

// TestJournalFailureDoesNotBlockDispatch checks a failing recorder degrades
// to a debug log; the update still applies.
func TestJournalFailureDoesNotBlockDispatch(t *testing.T) {
	r, session, _, _ := testRouter(t)
	r.Journal = &captureRecorder{fail: true}

	r.Dispatch(context.Background(), roomUpdateJSON())
	if len(session.Room.Seats) != 2 {
		t.Errorf("dispatch must proceed despite journal failure")
	}
}

func TestDispatchConnectNotices(t *testing.T) {
	r, session, _, _ := testRouter(t)
	payload, _ := json.Marshal(map[string]any{
		"message_type": "connect",
		"player_id":    localID,
		"player_name":  "You",
	})
	r.Dispatch(context.Background(), payload)
	r.Dispatch(context.Background(), []byte(`{"message_type":"join-success"}`))

	lines := session.Status.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 status lines, got %v", lines)
	}
	// Newest first.
	if lines[0] != "Successfully joined the room." {
		t.Errorf("unexpected head line %q", lines[0])
	}
}
