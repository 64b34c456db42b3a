// internal/client/client.go
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"pokerview/internal/protocol"
	"pokerview/internal/router"
	"pokerview/internal/state"
)

// Status is the connection lifecycle state.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusJoined
)

// writeTimeout bounds a single outgoing send.
const writeTimeout = 5 * time.Second

// Config holds everything needed to open one table connection.
type Config struct {
	// ServerURL is the base ws:// or wss:// address of the poker server.
	ServerURL string

	// RoomID is the server-assigned room identifier.
	RoomID string

	// AuthToken, when set, is attached as the auth_token cookie on the
	// upgrade request. Without it the server treats the join as a guest.
	AuthToken string

	Session *state.Session
	Router  *router.Router
	Logger  *logrus.Logger
}

// Client owns the transport lifecycle for one room: dial, join handshake,
// keepalive replies, read loop, and teardown on close. It never reconnects;
// a new session starts over with a fresh join.
//
// Send and Status are safe to call from other goroutines; the user-input
// reader sends while the read loop owns the connection.
type Client struct {
	cfg    Config
	logger *logrus.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	status Status
}

func New(cfg Config) *Client {
	c := &Client{cfg: cfg, logger: cfg.Logger}
	// Outgoing sends from the router (pong) and the action controller flow
	// through the same connection.
	cfg.Router.SendFn = c.Send
	cfg.Session.Controller.SendFn = c.Send
	return c
}

// Status returns the lifecycle state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// connection returns the current connection handle, or nil.
func (c *Client) connection() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// roomChannel is the server-side channel naming scheme for table sockets.
func roomChannel(roomID string) string {
	return url.PathEscape("texas_holdem_" + roomID)
}

// Connect dials the room's socket and performs the join handshake,
// identifying the local player. The connection is ready for ReadLoop on
// return.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return fmt.Errorf("client: already connected")
	}
	c.status = StatusConnecting
	c.mu.Unlock()

	target := fmt.Sprintf("%s/ws/Services/%s/", strings.TrimRight(c.cfg.ServerURL, "/"), roomChannel(c.cfg.RoomID))

	opts := &websocket.DialOptions{}
	if c.cfg.AuthToken != "" {
		header := http.Header{}
		header.Set("Cookie", "auth_token="+c.cfg.AuthToken)
		opts.HTTPHeader = header
	}

	conn, _, err := websocket.Dial(ctx, target, opts)
	if err != nil {
		c.mu.Lock()
		c.status = StatusDisconnected
		c.mu.Unlock()
		return fmt.Errorf("client: dial %s: %w", target, err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.logger.Infof("connected to %s", target)

	id := c.cfg.Session.Identity
	if err := c.Send(protocol.NewJoin(id.PlayerID, id.Name, id.Money)); err != nil {
		conn.Close(websocket.StatusInternalError, "join failed")
		c.mu.Lock()
		c.conn = nil
		c.status = StatusDisconnected
		c.mu.Unlock()
		return fmt.Errorf("client: join: %w", err)
	}

	c.mu.Lock()
	c.status = StatusJoined
	c.mu.Unlock()
	c.cfg.Session.Status.Push("Connected :)")
	return nil
}

// ReadLoop reads inbound messages and hands them to the router until the
// connection closes or the context is canceled. Each handler runs to
// completion before the next read, giving FIFO ordering of effects. On exit
// the session is torn down; connection loss is terminal for the session.
func (c *Client) ReadLoop(ctx context.Context) error {
	conn := c.connection()
	if conn == nil {
		return fmt.Errorf("client: not connected")
	}
	defer c.teardown()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				c.logger.Info("connection closed by peer")
				return nil
			case strings.Contains(err.Error(), "context canceled"):
				c.logger.Info("read loop canceled")
				return nil
			default:
				c.logger.Warnf("read error: %v (status: %d)", err, status)
				return err
			}
		}

		if msgType != websocket.MessageText {
			c.logger.Warnf("ignoring non-text message type %d", msgType)
			continue
		}

		c.logger.Debugf("received: %s", data)
		c.cfg.Router.Dispatch(ctx, data)
	}
}

// Send marshals and writes one outgoing message. Sends are fire-and-forget:
// the protocol is push-based and no acknowledgement is awaited.
func (c *Client) Send(msg any) error {
	conn := c.connection()
	if conn == nil {
		return fmt.Errorf("client: not connected")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("client: marshal: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("client: write: %w", err)
	}
	return nil
}

// Close shuts the connection down deliberately from the local side.
func (c *Client) Close() {
	if conn := c.connection(); conn != nil {
		conn.Close(websocket.StatusNormalClosure, "client closing")
	}
}

// teardown discards the connection handle and resets the local models to
// neutral. The user learns about it through the status feed; no automatic
// reconnect is attempted.
func (c *Client) teardown() {
	c.mu.Lock()
	c.conn = nil
	c.status = StatusDisconnected
	c.mu.Unlock()
	c.cfg.Session.Status.Push("Disconnected :(")
	c.cfg.Session.Teardown()
}
