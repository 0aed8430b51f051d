// Package repo provides Redis-backed and in-memory implementations of the
// order store contracts. Records are atomic at the single-key level; nothing
// here is transactional across keys.
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

type RedisSessionStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisSessionStore(rdb redis.Cmdable, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionStore) stateKey(sessionID string) string {
	return fmt.Sprintf("session:%s:state", sessionID)
}

func (r *RedisSessionStore) Load(ctx context.Context, sessionID string) (*order.State, error) {
	raw, err := r.rdb.Get(ctx, r.stateKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to load session state from redis")
		return nil, errx.WrapRedis(err)
	}

	var s order.State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		// corrupted state is recovered as a fresh session, never fatal
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("unreadable session state, treating as new session")
		return nil, nil
	}
	if s.SessionID == "" {
		s.SessionID = sessionID
	}
	return &s, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, state *order.State) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	if err := r.rdb.Set(ctx, r.stateKey(state.SessionID), b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("session_id", state.SessionID).Msg("failed to save session state to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, r.stateKey(sessionID)).Err(); err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to delete session state from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ order.SessionStore = (*RedisSessionStore)(nil)
