// cmd/pokerview/render.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"

	"pokerview/internal/cards"
	"pokerview/internal/protocol"
	"pokerview/internal/state"
)

const faceDown = "▓▓"

// termRenderer prints the table state with pterm. It only reads the models
// it is handed; all hooks run synchronously on the connection's read loop.
type termRenderer struct {
	session *state.Session
	send    func(msg any) error
}

func newTermRenderer(s *state.Session, send func(msg any) error) *termRenderer {
	tr := &termRenderer{session: s, send: send}

	s.Room.RenderFn = tr.renderRoom
	s.Hand.RenderFn = tr.renderHand
	s.Hand.AnimateExchangeFn = func(playerID string, count int) {
		pterm.Info.Printfln("%s exchanged %d card(s)", tr.playerName(playerID), count)
	}
	s.Status.ChangedFn = func(lines []string) {
		if len(lines) > 0 {
			pterm.Println(pterm.Gray("· " + lines[0]))
		}
	}

	ctrl := s.Controller
	ctrl.PromptBetFn = tr.promptBet
	ctrl.PromptExchangeFn = tr.promptExchange
	ctrl.CountdownFn = func(playerID string, deadline time.Time) {
		pterm.Printfln("%s to act (%.0fs)", tr.playerName(playerID), time.Until(deadline).Seconds())
	}
	ctrl.ExpireFn = func(playerID string) {
		pterm.Warning.Printfln("time is up for %s", tr.playerName(playerID))
	}
	ctrl.ClearFn = func() {}

	return tr
}

func (tr *termRenderer) renderRoom(seats []state.Seat, joinable bool) {
	rows := pterm.TableData{{"Seat", "Player", "Money"}}
	for _, seat := range seats {
		if seat.Occupant == nil {
			rows = append(rows, []string{strconv.Itoa(seat.Index), "(empty seat)", ""})
			continue
		}
		name := seat.Occupant.Name
		if seat.Occupant.ID == tr.session.Identity.PlayerID {
			name = "You"
		}
		rows = append(rows, []string{
			strconv.Itoa(seat.Index), name, "$" + strconv.Itoa(seat.Occupant.Money),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	if joinable {
		pterm.Info.Println("room is ready, type 's' to vote start")
	}
}

func (tr *termRenderer) renderHand(h *state.Hand) {
	if !h.Active() {
		return
	}

	var b strings.Builder
	for _, seat := range tr.session.Room.Seats {
		if seat.Occupant == nil {
			continue
		}
		id := seat.Occupant.ID
		fmt.Fprintf(&b, "%-12s %s", tr.playerName(id), tr.cardString(h.Cards[id]))
		if id == h.DealerID {
			b.WriteString("  [dealer]")
		}
		if h.Folded[id] {
			b.WriteString("  [folded]")
		}
		if bet, ok := h.Bets[id]; ok && bet > 0 {
			fmt.Fprintf(&b, "  bet $%d", bet)
		}
		if sc := h.Cards[id]; sc != nil && sc.Score != nil {
			if label := h.CategoryLabel(sc.Score.Category); label != "" {
				fmt.Fprintf(&b, "  (%s)", label)
			}
		}
		b.WriteString("\n")
	}
	if len(h.SharedCards) > 0 {
		fmt.Fprintf(&b, "board: %s\n", joinCards(h.SharedCards))
	}
	for i, pot := range h.Pots {
		fmt.Fprintf(&b, "pot %d: $%d\n", i, pot.Money)
	}
	if h.Concluded {
		b.WriteString("--- hand concluded ---\n")
	}

	box := pterm.DefaultBox.WithTitle(pterm.LightYellow("|TABLE|")).WithTitleTopCenter()
	box.Println(strings.TrimRight(b.String(), "\n"))
}

// cardString renders a seat's cards: revealed identities when known,
// face-down backs otherwise. Invalid cards are skipped, not fatal.
func (tr *termRenderer) cardString(sc *state.SeatCards) string {
	if sc == nil {
		return ""
	}
	if len(sc.Revealed) > 0 {
		return joinCards(sc.Revealed)
	}
	return strings.TrimSpace(strings.Repeat(faceDown+" ", sc.Count))
}

func joinCards(cc []cards.Card) string {
	parts := make([]string, 0, len(cc))
	for _, c := range cc {
		if !c.Valid() {
			continue
		}
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " ")
}

func (tr *termRenderer) promptBet(p state.BetPrompt) {
	if !p.CanBet {
		pterm.Info.Println("you cannot bet this round, type 'c' to acknowledge")
		return
	}
	foldLabel := "fold"
	if p.RequiresScore {
		foldLabel = "pass"
	}
	pterm.Info.Printfln("your turn: bet %d-%d, 'c' to check, 'f' to %s", p.MinBet, p.MaxBet, foldLabel)
}

func (tr *termRenderer) promptExchange(p state.ExchangePrompt) {
	if p.CardCount <= 0 {
		pterm.Info.Println("exchange cards: 'x' to keep all")
		return
	}
	pterm.Info.Printfln("exchange cards: enter indices 0-%d separated by commas, or 'x' to keep all", p.CardCount-1)
}

func (tr *termRenderer) playerName(playerID string) string {
	if playerID == tr.session.Identity.PlayerID {
		return "You"
	}
	if p := tr.session.Room.Occupant(playerID); p != nil {
		return p.Name
	}
	return playerID
}

// readCommands parses stdin commands and routes them to the controller.
// Submits outside an action window are rejected by the controller itself.
func readCommands(ctx context.Context, s *state.Session, send func(msg any) error, logger *logrus.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var err error
		switch {
		case line == "s":
			err = send(protocol.NewStartGame())
		case line == "f":
			err = s.Controller.SubmitBet(protocol.BetFold)
		case line == "c":
			err = s.Controller.SubmitBet(protocol.BetCheck)
		case line == "x":
			err = s.Controller.SubmitCardsChange(nil)
		case s.Controller.State() == state.CardsChangePending:
			var discards []int
			discards, err = parseIndices(line)
			if err == nil {
				err = s.Controller.SubmitCardsChange(discards)
			}
		default:
			var amount int
			amount, err = strconv.Atoi(line)
			if err != nil {
				err = fmt.Errorf("unrecognized command %q", line)
			} else {
				err = s.Controller.SubmitBet(amount)
			}
		}
		if err != nil {
			logger.Warnf("command rejected: %v", err)
		}
	}
}

func parseIndices(line string) ([]int, error) {
	parts := strings.Split(line, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("bad index %q", part)
		}
		out = append(out, idx)
	}
	return out, nil
}
