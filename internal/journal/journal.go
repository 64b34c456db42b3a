// internal/journal/journal.go
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list receiving table event records.
const DefaultQueueName = "pokerview_events"

// TableEventRecord is one received table event, queued for the historian.
type TableEventRecord struct {
	SessionID   uuid.UUID       `json:"session_id"`
	RoomID      string          `json:"room_id"`
	Seq         int             `json:"seq"`
	MessageType string          `json:"message_type"`
	Event       string          `json:"event,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	Timestamp   int64           `json:"timestamp"`
}

// Journal pushes every received table event onto a Redis queue so sessions
// can be replayed or analyzed offline. One Journal serves one session.
type Journal struct {
	rdb       *redis.Client
	queue     string
	sessionID uuid.UUID
	roomID    string
	seq       int
}

// Connect builds a Journal from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
//   - JOURNAL_QUEUE_NAME (default DefaultQueueName)
func Connect(roomID string) (*Journal, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("journal: redis at %s: %w", addr, err)
	}

	return &Journal{
		rdb:       rdb,
		queue:     getEnv("JOURNAL_QUEUE_NAME", DefaultQueueName),
		sessionID: uuid.New(),
		roomID:    roomID,
	}, nil
}

// Record serializes one inbound message and pushes it onto the queue. This
// does not block dispatch beyond a quick network send.
func (j *Journal) Record(ctx context.Context, messageType, event string, payload []byte) error {
	j.seq++
	rec := TableEventRecord{
		SessionID:   j.sessionID,
		RoomID:      j.roomID,
		Seq:         j.seq,
		MessageType: messageType,
		Event:       event,
		Payload:     json.RawMessage(payload),
		Timestamp:   time.Now().UnixMilli(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("journal: marshal record: %w", err)
	}
	if err := j.rdb.RPush(ctx, j.queue, data).Err(); err != nil {
		return fmt.Errorf("journal: rpush: %w", err)
	}
	return nil
}

// Close releases the Redis client.
func (j *Journal) Close() error {
	return j.rdb.Close()
}

func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
