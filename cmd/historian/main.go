// cmd/historian/main.go is an asynchronous historian service that pops draft
// action records from a Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mpetras/castdraft/internal/cache"
	"github.com/mpetras/castdraft/internal/database"
)

// HistorianService reads draft action records from Redis and writes them to
// the draft_actions table in batches.
type HistorianService struct {
	redisClient *redis.Client
	queueName   string
	batchSize   int
	flushDelay  time.Duration
	log         *logrus.Logger

	batchMu  sync.Mutex
	batch    []cache.ActionRecord
	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewHistorianService constructs a HistorianService from environment
// variables or defaults.
func NewHistorianService(logger *logrus.Logger) *HistorianService {
	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	flushMs := getEnvInt("HISTORIAN_FLUSH_MS", 500)

	rdb := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &HistorianService{
		redisClient: rdb,
		queueName:   getEnv("ACTION_QUEUE_NAME", cache.DefaultQueueName),
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		log:         logger,
		batch:       make([]cache.ActionRecord, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run starts the queue reader and blocks until Stop is called. A periodic
// flush bounds how long a partial batch can sit in memory.
func (hs *HistorianService) Run() {
	go hs.readRedisLoop()

	hs.log.Info("castdraft-historian service started")
	<-hs.ctx.Done()
	hs.flushBatchLocked()
	hs.log.Info("castdraft-historian shutting down")
}

// Stop cancels the service context.
func (hs *HistorianService) Stop() {
	hs.cancelFn()
}

// readRedisLoop continuously uses BLPop to retrieve records from the queue.
func (hs *HistorianService) readRedisLoop() {
	ticker := time.NewTicker(hs.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-hs.ctx.Done():
			return

		case <-ticker.C:
			hs.flushBatchLocked()

		default:
			// BLPop with a short timeout so context cancellation is noticed.
			res, err := hs.redisClient.BLPop(hs.ctx, 3*time.Second, hs.queueName).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && hs.ctx.Err() == nil {
					hs.log.Errorf("BLPop: %v", err)
				}
				continue
			}
			if len(res) < 2 {
				continue
			}

			// res[0] is the queue name and res[1] the payload.
			var record cache.ActionRecord
			if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
				hs.log.Warnf("invalid action record: %v", err)
				continue
			}
			hs.appendToBatch(record)
		}
	}
}

// appendToBatch adds a record and flushes when the threshold is reached.
func (hs *HistorianService) appendToBatch(record cache.ActionRecord) {
	hs.batchMu.Lock()
	full := false
	hs.batch = append(hs.batch, record)
	if len(hs.batch) >= hs.batchSize {
		full = true
	}
	hs.batchMu.Unlock()

	if full {
		hs.flushBatchLocked()
	}
}

// flushBatchLocked writes the pending batch in one transaction.
func (hs *HistorianService) flushBatchLocked() {
	hs.batchMu.Lock()
	if len(hs.batch) == 0 {
		hs.batchMu.Unlock()
		return
	}
	batchCopy := make([]cache.ActionRecord, len(hs.batch))
	copy(batchCopy, hs.batch)
	hs.batch = hs.batch[:0]
	hs.batchMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := pgx.BeginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
		INSERT INTO draft_actions (room_id, action_type, player_id, contestant_id, amount, occurred_at)
		VALUES ($1, $2, $3, $4, $5, to_timestamp($6::double precision / 1000))
		`
		for _, rec := range batchCopy {
			if _, err := tx.Exec(ctx, q,
				rec.RoomID, rec.ActionType, rec.PlayerID, rec.ContestantID, rec.Amount, rec.Timestamp,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		hs.log.Errorf("failed to flush %d actions: %v", len(batchCopy), err)
		return
	}
	hs.log.Debugf("flushed %d actions to db", len(batchCopy))
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func main() {
	logger := logrus.New()
	if os.Getenv("CASTDRAFT_DEBUG") != "" {
		logger.SetLevel(logrus.DebugLevel)
	}

	if err := database.ConnectDB(); err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer database.DB.Close()

	hs := NewHistorianService(logger)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		<-sigs
		hs.Stop()
	}()

	hs.Run()
}
