package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Alexus55/DrawingImposter2/game"
	"github.com/Alexus55/DrawingImposter2/util"
	"github.com/redis/go-redis/v9"
)

const (
	// HistoryLimit is how many results are kept per room.
	HistoryLimit = 50
	HistoryTTL   = 12 * time.Hour
)

// Archive stores the results of finished rounds per room code.
type Archive interface {
	Record(ctx context.Context, code string, result game.RoundResult) error
	History(ctx context.Context, code string) ([]game.RoundResult, error)
}

type RedisArchive struct {
	rdb *redis.Client
}

func NewRedisArchive(rdb *redis.Client) *RedisArchive {
	return &RedisArchive{rdb: rdb}
}

// Record appends result to the room's history, keeps only the newest
// HistoryLimit entries and refreshes the expiry.
func (a *RedisArchive) Record(ctx context.Context, code string, result game.RoundResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	key := util.GetResultsKey(code)

	_, err = a.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, -HistoryLimit, -1)
		pipe.Expire(ctx, key, HistoryTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording result of %s round %d: %w", code, result.Round, err)
	}

	return nil
}

// History returns the archived results of a room, oldest first. An unknown
// room has an empty history.
func (a *RedisArchive) History(ctx context.Context, code string) ([]game.RoundResult, error) {
	raw, err := a.rdb.LRange(ctx, util.GetResultsKey(code), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading history of %s: %w", code, err)
	}

	results := make([]game.RoundResult, 0, len(raw))
	for _, item := range raw {
		var result game.RoundResult
		if err := json.Unmarshal([]byte(item), &result); err != nil {
			return nil, fmt.Errorf("decoding history of %s: %w", code, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// Ping checks the redis connection.
func (a *RedisArchive) Ping(ctx context.Context) error {
	return a.rdb.Ping(ctx).Err()
}
