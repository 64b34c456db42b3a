// internal/state/interaction_test.go
package state

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"pokerview/internal/protocol"
)

func testController(t *testing.T) (*Controller, *clockwork.FakeClock, *[]any) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	c := NewController(localID, clock, testLogger())
	sent := &[]any{}
	c.SendFn = func(msg any) error {
		*sent = append(*sent, msg)
		return nil
	}
	return c, clock, sent
}

func betAction(playerID string, timeout int) protocol.PlayerAction {
	return protocol.PlayerAction{
		Action:  protocol.ActionBet,
		Player:  protocol.Player{ID: playerID},
		MinBet:  10,
		MaxBet:  500,
		Timeout: timeout,
	}
}

// TestSubmitBetFold opens a bet window with bounds {10, 500} and folds: one
// outgoing bet message with amount -1, then back to idle.
func TestSubmitBetFold(t *testing.T) {
	c, _, sent := testController(t)
	if err := c.HandleAction(betAction(localID, 30)); err != nil {
		t.Fatalf("handle action failed: %v", err)
	}
	if c.State() != BetPending {
		t.Fatalf("expected bet-pending, got %v", c.State())
	}

	if err := c.SubmitBet(protocol.BetFold); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(*sent) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(*sent))
	}
	bet, ok := (*sent)[0].(protocol.Bet)
	if !ok || bet.Bet != -1 {
		t.Errorf("expected bet -1, got %+v", (*sent)[0])
	}
	if c.State() != Idle {
		t.Errorf("submit must return to idle, got %v", c.State())
	}
}

func TestSubmitBetBounds(t *testing.T) {
	c, _, sent := testController(t)
	if err := c.HandleAction(betAction(localID, 30)); err != nil {
		t.Fatalf("handle action failed: %v", err)
	}

	if err := c.SubmitBet(5); err == nil {
		t.Errorf("bet below minimum must be rejected")
	}
	if err := c.SubmitBet(600); err == nil {
		t.Errorf("bet above maximum must be rejected")
	}
	if c.State() != BetPending {
		t.Fatalf("rejected submits must keep the window open, got %v", c.State())
	}
	// Sentinels bypass the bounds.
	if err := c.SubmitBet(protocol.BetCheck); err != nil {
		t.Fatalf("check should be allowed: %v", err)
	}
	if len(*sent) != 1 {
		t.Errorf("only the check should have been sent, got %d messages", len(*sent))
	}
}

func TestSubmitBetOutsideWindow(t *testing.T) {
	c, _, sent := testController(t)
	if err := c.SubmitBet(100); err != ErrNoActionWindow {
		t.Errorf("expected ErrNoActionWindow, got %v", err)
	}
	if len(*sent) != 0 {
		t.Errorf("nothing may be sent without a window")
	}
}

// TestGatedPlayerMayOnlyCheck checks allowed_to_bet=false restricts the
// submit to the passive acknowledgement.
func TestGatedPlayerMayOnlyCheck(t *testing.T) {
	c, _, sent := testController(t)
	gated := false
	msg := betAction(localID, 30)
	msg.AllowedToBet = &gated
	if err := c.HandleAction(msg); err != nil {
		t.Fatalf("handle action failed: %v", err)
	}

	if err := c.SubmitBet(100); err == nil {
		t.Errorf("gated player must not place a numeric bet")
	}
	if err := c.SubmitBet(protocol.BetFold); err == nil {
		t.Errorf("gated player must not fold either")
	}
	if err := c.SubmitBet(protocol.BetCheck); err != nil {
		t.Fatalf("gated player must still acknowledge: %v", err)
	}
	if len(*sent) != 1 {
		t.Errorf("expected one message, got %d", len(*sent))
	}
}

// TestActionForOtherPlayer checks a window granted to someone else shows the
// countdown but never transitions the local machine.
func TestActionForOtherPlayer(t *testing.T) {
	c, _, _ := testController(t)
	var countdownFor string
	c.CountdownFn = func(playerID string, _ time.Time) {
		countdownFor = playerID
	}

	if err := c.HandleAction(betAction("p2", 30)); err != nil {
		t.Fatalf("handle action failed: %v", err)
	}
	if countdownFor != "p2" {
		t.Errorf("countdown should show for p2, got %q", countdownFor)
	}
	if c.State() != Idle {
		t.Errorf("other player's window must not open the local machine, got %v", c.State())
	}
}

// TestResetCancelsWindow checks any later game event closes the window via
// Reset: the pending submit is rejected afterwards.
func TestResetCancelsWindow(t *testing.T) {
	c, _, sent := testController(t)
	cleared := 0
	c.ClearFn = func() { cleared++ }

	if err := c.HandleAction(betAction(localID, 30)); err != nil {
		t.Fatalf("handle action failed: %v", err)
	}
	c.Reset()

	if c.State() != Idle {
		t.Fatalf("reset must return to idle, got %v", c.State())
	}
	if cleared == 0 {
		t.Errorf("reset must invoke the clear hook")
	}
	if err := c.SubmitBet(100); err != ErrNoActionWindow {
		t.Errorf("expected ErrNoActionWindow after reset, got %v", err)
	}
	if len(*sent) != 0 {
		t.Errorf("nothing may be sent after the window closed")
	}
}

// TestCountdownExpiry advances the fake clock past the relative timeout and
// expects the expiry hook; the window itself stays open, expiry is display
// only and the server resolves the timeout.
func TestCountdownExpiry(t *testing.T) {
	c, clock, _ := testController(t)
	expired := make(chan string, 1)
	c.ExpireFn = func(playerID string) { expired <- playerID }

	if err := c.HandleAction(betAction(localID, 30)); err != nil {
		t.Fatalf("handle action failed: %v", err)
	}

	clock.Advance(29 * time.Second)
	select {
	case id := <-expired:
		t.Fatalf("expired early for %s", id)
	default:
	}

	clock.Advance(2 * time.Second)
	select {
	case id := <-expired:
		if id != localID {
			t.Errorf("expired for %s, want %s", id, localID)
		}
	case <-time.After(time.Second):
		t.Fatal("expiry hook never fired")
	}
	if c.State() != BetPending {
		t.Errorf("expiry must not close the window, got %v", c.State())
	}
}

func TestResetStopsCountdown(t *testing.T) {
	c, clock, _ := testController(t)
	expired := make(chan string, 1)
	c.ExpireFn = func(playerID string) { expired <- playerID }

	if err := c.HandleAction(betAction(localID, 30)); err != nil {
		t.Fatalf("handle action failed: %v", err)
	}
	c.Reset()

	clock.Advance(time.Minute)
	select {
	case id := <-expired:
		t.Fatalf("canceled countdown still fired for %s", id)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestAbsoluteDeadlinePreferred checks timeout_date wins over the relative
// timeout when it parses.
func TestAbsoluteDeadlinePreferred(t *testing.T) {
	c, clock, _ := testController(t)
	var deadline time.Time
	c.CountdownFn = func(_ string, d time.Time) { deadline = d }

	msg := betAction(localID, 30)
	msg.TimeoutDate = "2025-03-14 21:04:05+0000"
	if err := c.HandleAction(msg); err != nil {
		t.Fatalf("handle action failed: %v", err)
	}
	want := time.Date(2025, 3, 14, 21, 4, 5, 0, time.UTC)
	if !deadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", deadline, want)
	}

	// A garbled date falls back to now + timeout.
	msg.TimeoutDate = "not a date"
	if err := c.HandleAction(msg); err != nil {
		t.Fatalf("handle action failed: %v", err)
	}
	want = clock.Now().Add(30 * time.Second)
	if !deadline.Equal(want) {
		t.Errorf("fallback deadline = %v, want %v", deadline, want)
	}
}

func TestSubmitCardsChange(t *testing.T) {
	c, _, sent := testController(t)
	c.HandSizeFn = func() int { return 5 }

	msg := protocol.PlayerAction{
		Action:  protocol.ActionCardsChange,
		Player:  protocol.Player{ID: localID},
		Timeout: 30,
	}
	if err := c.HandleAction(msg); err != nil {
		t.Fatalf("handle action failed: %v", err)
	}
	if c.State() != CardsChangePending {
		t.Fatalf("expected cards-change-pending, got %v", c.State())
	}

	if err := c.SubmitCardsChange([]int{0, 5}); err == nil {
		t.Errorf("index beyond the hand must be rejected")
	}
	if err := c.SubmitCardsChange([]int{1, 1}); err == nil {
		t.Errorf("duplicate indices must be rejected")
	}
	if err := c.SubmitCardsChange([]int{0, 3, 4}); err != nil {
		t.Fatalf("valid exchange failed: %v", err)
	}

	if len(*sent) != 1 {
		t.Fatalf("expected one message, got %d", len(*sent))
	}
	cc, ok := (*sent)[0].(protocol.CardsChange)
	if !ok || len(cc.Cards) != 3 {
		t.Errorf("expected cards-change with 3 indices, got %+v", (*sent)[0])
	}
	if c.State() != Idle {
		t.Errorf("submit must return to idle, got %v", c.State())
	}
}

// TestConcurrentSubmitsAndEvents drives submits from one goroutine while
// events open and close the window on another, the way the stdin reader and
// the read loop interleave at runtime. Submits may hit an open or a closed
// window; either outcome is fine, the controller just has to stay coherent.
func TestConcurrentSubmitsAndEvents(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewController(localID, clock, testLogger())
	var sendMu sync.Mutex
	var sent []any
	c.SendFn = func(msg any) error {
		sendMu.Lock()
		sent = append(sent, msg)
		sendMu.Unlock()
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			if err := c.HandleAction(betAction(localID, 30)); err != nil {
				t.Errorf("handle action failed: %v", err)
				return
			}
			c.Reset()
		}
	}()

	for i := 0; i < 200; i++ {
		_ = c.SubmitBet(protocol.BetCheck)
		_ = c.State()
		_ = c.Prompt()
	}
	<-done

	c.Reset()
	if c.State() != Idle {
		t.Errorf("expected idle after final reset, got %v", c.State())
	}
	sendMu.Lock()
	defer sendMu.Unlock()
	for _, msg := range sent {
		if bet, ok := msg.(protocol.Bet); !ok || bet.Bet != protocol.BetCheck {
			t.Errorf("unexpected outgoing message %+v", msg)
		}
	}
}

func TestSubmitCardsChangeKeepAll(t *testing.T) {
	c, _, sent := testController(t)
	c.HandSizeFn = func() int { return 5 }

	msg := protocol.PlayerAction{
		Action:  protocol.ActionCardsChange,
		Player:  protocol.Player{ID: localID},
		Timeout: 30,
	}
	if err := c.HandleAction(msg); err != nil {
		t.Fatalf("handle action failed: %v", err)
	}
	if err := c.SubmitCardsChange(nil); err != nil {
		t.Fatalf("keeping all cards failed: %v", err)
	}
	if len(*sent) != 1 {
		t.Errorf("expected one message, got %d", len(*sent))
	}
}
