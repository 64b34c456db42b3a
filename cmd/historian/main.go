// cmd/historian is an asynchronous service that pops table event records
// from the Redis journal queue and persists them to PostgreSQL for replay
// and analysis.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"pokerview/internal/journal"
)

// HistorianService encapsulates the Redis + DB logic for capturing table
// events in batches.
type HistorianService struct {
	redisClient *redis.Client
	db          *pgxpool.Pool
	batchSize   int
	flushDelay  time.Duration

	batchMu  sync.Mutex
	batch    []journal.TableEventRecord
	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewHistorianService constructs a HistorianService from environment
// variables or defaults.
func NewHistorianService() *HistorianService {
	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	flushMs := getEnvInt("HISTORIAN_FLUSH_MS", 500)

	rdb := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		DB:   getEnvInt("REDIS_DB", 0),
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &HistorianService{
		redisClient: rdb,
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		batch:       make([]journal.TableEventRecord, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run connects to the database and starts the pop and drain loops.
func (hs *HistorianService) Run() {
	hs.db = connectDB()

	records := make(chan journal.TableEventRecord)
	go hs.popRedisLoop(records)
	go hs.drainLoop(records)

	log.Println("pokerview-historian service started.")
	<-hs.ctx.Done()
	hs.flushBatchToDB()
	log.Println("pokerview-historian shutting down.")
}

// popRedisLoop blocks on BLPop and feeds decoded records to the drain loop.
// Keeping the blocking pop on its own goroutine means the flush ticker is
// never starved by a pop that sits waiting for work.
func (hs *HistorianService) popRedisLoop(records chan<- journal.TableEventRecord) {
	queueName := getEnv("JOURNAL_QUEUE_NAME", journal.DefaultQueueName)

	for {
		// BLPop with a short timeout so shutdown is handled promptly.
		res, err := hs.redisClient.BLPop(hs.ctx, 3*time.Second, queueName).Result()
		if err != nil {
			if hs.ctx.Err() != nil {
				return
			}
			if !errors.Is(err, redis.Nil) {
				log.Printf("[ERROR] BLPop: %v", err)
			}
			continue
		}
		if len(res) < 2 {
			continue
		}

		var rec journal.TableEventRecord
		if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
			log.Printf("invalid event record: %v", err)
			continue
		}

		select {
		case records <- rec:
		case <-hs.ctx.Done():
			return
		}
	}
}

// drainLoop accumulates popped records into the batch and flushes on size
// (via appendToBatch) or on the flush interval.
func (hs *HistorianService) drainLoop(records <-chan journal.TableEventRecord) {
	ticker := time.NewTicker(hs.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-hs.ctx.Done():
			return

		case <-ticker.C:
			hs.flushBatchToDB()

		case rec := <-records:
			hs.appendToBatch(rec)
		}
	}
}

// appendToBatch adds a record and flushes when the threshold is reached.
func (hs *HistorianService) appendToBatch(rec journal.TableEventRecord) {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()

	hs.batch = append(hs.batch, rec)
	if len(hs.batch) >= hs.batchSize {
		hs.flushLocked()
	}
}

// flushBatchToDB flushes the current batch in a single transaction.
func (hs *HistorianService) flushBatchToDB() {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	hs.flushLocked()
}

func (hs *HistorianService) flushLocked() {
	if len(hs.batch) == 0 {
		return
	}
	batchCopy := make([]journal.TableEventRecord, len(hs.batch))
	copy(batchCopy, hs.batch)
	hs.batch = hs.batch[:0]

	ctx := context.Background()
	err := beginTxFunc(ctx, hs.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batchCopy {
			if err := insertTableEventTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertTableEventTx: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[ERROR] flush: %v", err)
	} else {
		log.Printf("Flushed %d events to DB.", len(batchCopy))
	}
}

// insertTableEventTx inserts a single event record into the table_events
// table, upserting the session row first.
func insertTableEventTx(ctx context.Context, tx pgx.Tx, rec journal.TableEventRecord) error {
	upsertSessionQ := `
		INSERT INTO sessions (id, room_id, started_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertSessionQ, rec.SessionID, rec.RoomID); err != nil {
		return err
	}

	insertQ := `
		INSERT INTO table_events (
			session_id, seq, message_type, event, payload, received_at
		) VALUES ($1, $2, $3, $4, $5, to_timestamp($6::double precision / 1000))
	`
	_, err := tx.Exec(ctx, insertQ,
		rec.SessionID, rec.Seq, rec.MessageType, rec.Event, []byte(rec.Payload), rec.Timestamp,
	)
	return err
}

// beginTxFunc starts a transaction, calls f, and commits or rolls back.
func beginTxFunc(ctx context.Context, pool *pgxpool.Pool, txOptions pgx.TxOptions, f func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}
	if err := f(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx rollback error: %v; original error: %w", rbErr, err)
		}
		return err
	}
	return tx.Commit(ctx)
}

// connectDB opens the pgx pool from the standard postgres env vars.
func connectDB() *pgxpool.Pool {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		os.Getenv("PG_PORT"),
		os.Getenv("PG_DATABASE"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		log.Fatalf("unable to parse pgx config: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		log.Fatalf("unable to create pgx pool: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("db ping error: %v", err)
	}
	return pool
}

// Stop gracefully stops the historian service.
func (hs *HistorianService) Stop() {
	hs.cancelFn()
}

func main() {
	hs := NewHistorianService()
	go hs.Run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	<-sigChan
	hs.Stop()
	log.Println("Historian shutdown complete.")
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
