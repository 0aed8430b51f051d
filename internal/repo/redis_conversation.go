package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/otrade-bot/server/internal/core/error"
	"github.com/otrade-bot/server/internal/order"
	logx "github.com/otrade-bot/server/pkg/logger"
)

type RedisConversationStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisConversationStore(rdb redis.Cmdable, ttl time.Duration) *RedisConversationStore {
	return &RedisConversationStore{rdb: rdb, ttl: ttl}
}

func (r *RedisConversationStore) logKey(sessionID string) string {
	return fmt.Sprintf("session:%s:messages", sessionID)
}

func (r *RedisConversationStore) AppendTurn(ctx context.Context, sessionID string, turn order.Turn) error {
	b, err := json.Marshal(turn)
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to marshal turn")
		return fmt.Errorf("marshal turn: %w", err)
	}
	key := r.logKey(sessionID)

	// append turn
	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push turn to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on conversation key")
		}
	}
	return nil
}

func (r *RedisConversationStore) History(ctx context.Context, sessionID string, limit int) ([]order.Turn, error) {
	key := r.logKey(sessionID)

	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	rows, err := r.rdb.LRange(ctx, key, start, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []order.Turn{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation history from redis")
		return nil, errx.WrapRedis(err)
	}

	turns := make([]order.Turn, 0, len(rows))
	for i, s := range rows {
		var t order.Turn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			logx.Warn().Err(err).Str("session_id", sessionID).Int("index", i).Msg("skipping unreadable turn")
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (r *RedisConversationStore) Archive(ctx context.Context, sessionID string) error {
	key := r.logKey(sessionID)
	archived := fmt.Sprintf("%s:archived:%d", key, time.Now().UTC().UnixNano())

	err := r.rdb.Rename(ctx, key, archived).Err()
	if err != nil {
		// renaming a missing log is a no-op reset
		if errors.Is(err, redis.Nil) || isNoSuchKey(err) {
			return nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to archive conversation log")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationStore) Count(ctx context.Context, sessionID string) (int, error) {
	n, err := r.rdb.LLen(ctx, r.logKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to get turn count from redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

func isNoSuchKey(err error) bool {
	return err != nil && err.Error() == "ERR no such key"
}

var _ order.ConversationStore = (*RedisConversationStore)(nil)
