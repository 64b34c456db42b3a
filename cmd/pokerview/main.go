// cmd/pokerview/main.go
package main

import (
	"context"
	"os"
	"os/signal"

	_ "github.com/joho/godotenv/autoload"
	"github.com/jonboulle/clockwork"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"

	"pokerview/internal/auth"
	"pokerview/internal/client"
	"pokerview/internal/journal"
	"pokerview/internal/router"
	"pokerview/internal/state"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(os.Getenv("POKER_LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	}

	serverURL := getEnv("POKER_SERVER_URL", "ws://localhost:8000")
	roomID := os.Getenv("POKER_ROOM_ID")
	if roomID == "" {
		logger.Fatal("POKER_ROOM_ID is required")
	}

	// Local identity: a server-issued token if we have one, otherwise an
	// ephemeral guest.
	token := os.Getenv("POKER_AUTH_TOKEN")
	var identity auth.Identity
	if token != "" {
		var err error
		identity, err = auth.FromToken(token)
		if err != nil {
			logger.Fatalf("invalid POKER_AUTH_TOKEN: %v", err)
		}
	} else {
		identity = auth.Guest(os.Getenv("POKER_PLAYER_NAME"))
	}

	session := state.NewSession(identity, roomID, clockwork.NewRealClock(), logger)
	r := router.New(session, logger)

	// Optional Redis event journal for the historian.
	if os.Getenv("REDIS_ADDR") != "" {
		j, err := journal.Connect(roomID)
		if err != nil {
			logger.Warnf("journal disabled: %v", err)
		} else {
			defer j.Close()
			r.Journal = j
		}
	}

	cl := client.New(client.Config{
		ServerURL: serverURL,
		RoomID:    roomID,
		AuthToken: token,
		Session:   session,
		Router:    r,
		Logger:    logger,
	})

	newTermRenderer(session, cl.Send)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pterm.DefaultHeader.Printfln("pokerview | room %s | playing as %s", roomID, identity.Name)

	if err := cl.Connect(ctx); err != nil {
		logger.Fatalf("connect failed: %v", err)
	}
	defer cl.Close()

	go readCommands(ctx, session, cl.Send, logger)

	if err := cl.ReadLoop(ctx); err != nil {
		logger.Errorf("connection lost: %v", err)
		os.Exit(1)
	}
}

func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}
