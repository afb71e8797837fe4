// internal/cache/redis.go
package cache

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

// Rdb is the global Redis client. Connect it once at application startup.
// When nil, action publishing is skipped.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name for draft action records.
var DefaultQueueName = "castdraft_actions"

// Action types recorded to the audit queue.
const (
	ActionBidAccepted       = "bid_accepted"
	ActionContestantDrafted = "contestant_drafted"
	ActionAuctionPassed     = "auction_passed"
)

// ActionRecord holds the minimal info the historian worker needs to archive
// one draft action.
type ActionRecord struct {
	RoomID       string     `json:"room_id"`
	ActionType   string     `json:"action_type"`
	PlayerID     *uuid.UUID `json:"player_id,omitempty"`
	ContestantID *uuid.UUID `json:"contestant_id,omitempty"`
	Amount       int        `json:"amount"`
	Timestamp    int64      `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client with environment
// variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishDraftAction serializes the record to JSON and pushes it onto the
// action queue for the historian.
func PublishDraftAction(ctx context.Context, record ActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}

	queueName := getEnv("ACTION_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
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
