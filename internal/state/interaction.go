// internal/state/interaction.go
package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"pokerview/internal/protocol"
)

// ActionState is the local player's action machine state.
type ActionState int

const (
	Idle ActionState = iota
	BetPending
	CardsChangePending
)

func (s ActionState) String() string {
	switch s {
	case BetPending:
		return "bet-pending"
	case CardsChangePending:
		return "cards-change-pending"
	default:
		return "idle"
	}
}

// ErrNoActionWindow is returned when a submit arrives outside the matching
// pending state: the window was never granted, or a later event canceled it.
var ErrNoActionWindow = errors.New("state: no action window pending")

// BetPrompt carries everything the render layer needs to offer bet controls.
//
// RequiresScore changes the fold control's label to "pass" (variants with a
// minimum qualifying score). CanBet is the server's gate on acting at all
// this round; when false only a passive acknowledgement control is offered.
type BetPrompt struct {
	MinBet        int
	MaxBet        int
	RequiresScore bool
	CanBet        bool
	Deadline      time.Time
}

// ExchangePrompt asks the render layer to offer discard selection.
type ExchangePrompt struct {
	CardCount int
	Deadline  time.Time
}

// Controller is the local player's action state machine. A player-action
// event addressed to the local player opens a window; the next inbound
// game-update of any kind, or a local submit, closes it.
//
// Submits arrive from the user-input goroutine while events arrive from the
// connection's read loop, so the action fields are mutex-guarded. Hooks run
// with the lock held and must not call back into the controller.
//
// The clock is injected so deadline countdowns are testable; in production
// use clockwork.NewRealClock(). Timer callbacks are display-only and must
// not touch model state.
type Controller struct {
	localID string
	clock   clockwork.Clock
	logger  *logrus.Logger

	mu     sync.Mutex
	state  ActionState
	prompt BetPrompt
	timer  clockwork.Timer

	// HandSizeFn reports the local player's current card count, bounding
	// exchange indices. Nil skips the bound check.
	HandSizeFn func() int

	// SendFn emits an outgoing wire message. Sends are fire-and-forget; the
	// submit paths reset to idle without waiting for acknowledgement.
	SendFn func(msg any) error

	// Render hooks. All optional.
	PromptBetFn      func(p BetPrompt)
	PromptExchangeFn func(p ExchangePrompt)
	CountdownFn      func(playerID string, deadline time.Time)
	ExpireFn         func(playerID string)
	ClearFn          func()
}

func NewController(localID string, clock clockwork.Clock, logger *logrus.Logger) *Controller {
	return &Controller{localID: localID, clock: clock, logger: logger}
}

// State returns the current action state.
func (c *Controller) State() ActionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Prompt returns the bounds of the current bet window.
func (c *Controller) Prompt() BetPrompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt
}

// Reset cancels any active countdown and returns to idle. Called before
// every inbound game-update is applied, and after a local submit.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.state != Idle {
		c.logger.Debugf("action window canceled while %s", c.state)
	}
	c.state = Idle
	c.prompt = BetPrompt{}
	if c.ClearFn != nil {
		c.ClearFn()
	}
}

// HandleAction processes a player-action event. The countdown display runs
// for whichever player was granted the window; state transitions happen only
// when the window is addressed to the local player.
func (c *Controller) HandleAction(msg protocol.PlayerAction) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	deadline, err := msg.Deadline()
	if err != nil {
		// Fall back to the relative timeout so the countdown still runs.
		c.logger.Warnf("unparseable timeout_date, using relative timeout: %v", err)
		deadline = c.clock.Now().Add(time.Duration(msg.Timeout) * time.Second)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.startCountdownLocked(msg.Player.ID, deadline)

	if msg.Player.ID != c.localID {
		return nil
	}

	switch msg.Action {
	case protocol.ActionBet:
		c.state = BetPending
		c.prompt = BetPrompt{
			MinBet:        int(msg.MinBet),
			MaxBet:        int(msg.MaxBet),
			RequiresScore: msg.RequiresScore(),
			CanBet:        msg.CanBet(),
			Deadline:      deadline,
		}
		if c.PromptBetFn != nil {
			c.PromptBetFn(c.prompt)
		}
	case protocol.ActionCardsChange:
		c.state = CardsChangePending
		if c.PromptExchangeFn != nil {
			c.PromptExchangeFn(ExchangePrompt{CardCount: c.handSize(), Deadline: deadline})
		}
	}
	return nil
}

// SubmitBet emits one bet message and optimistically resets to idle. The
// sentinel -1 folds (or passes), 0 checks; anything else must lie within the
// window's bounds. A gated player may only acknowledge with 0.
func (c *Controller) SubmitBet(amount int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != BetPending {
		return ErrNoActionWindow
	}
	if !c.prompt.CanBet && amount != protocol.BetCheck {
		return fmt.Errorf("state: not allowed to bet this round")
	}
	if amount != protocol.BetFold && amount != protocol.BetCheck &&
		(amount < c.prompt.MinBet || amount > c.prompt.MaxBet) {
		return fmt.Errorf("state: bet %d outside bounds [%d, %d]", amount, c.prompt.MinBet, c.prompt.MaxBet)
	}
	if err := c.send(protocol.NewBet(amount)); err != nil {
		return err
	}
	c.resetLocked()
	return nil
}

// SubmitCardsChange emits one cards-change message carrying the selected
// discard indices and resets to idle.
func (c *Controller) SubmitCardsChange(discards []int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CardsChangePending {
		return ErrNoActionWindow
	}
	seen := map[int]bool{}
	limit := c.handSize()
	for _, idx := range discards {
		if idx < 0 || (limit > 0 && idx >= limit) {
			return fmt.Errorf("state: discard index %d out of range", idx)
		}
		if seen[idx] {
			return fmt.Errorf("state: duplicate discard index %d", idx)
		}
		seen[idx] = true
	}
	if err := c.send(protocol.NewCardsChange(discards)); err != nil {
		return err
	}
	c.resetLocked()
	return nil
}

func (c *Controller) startCountdownLocked(playerID string, deadline time.Time) {
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.CountdownFn != nil {
		c.CountdownFn(playerID, deadline)
	}
	remaining := deadline.Sub(c.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	// Expiry is visual only; the server resolves timeouts authoritatively.
	c.timer = c.clock.AfterFunc(remaining, func() {
		if c.ExpireFn != nil {
			c.ExpireFn(playerID)
		}
	})
}

func (c *Controller) handSize() int {
	if c.HandSizeFn == nil {
		return 0
	}
	return c.HandSizeFn()
}

func (c *Controller) send(msg any) error {
	if c.SendFn == nil {
		return fmt.Errorf("state: no send function configured")
	}
	return c.SendFn(msg)
}
