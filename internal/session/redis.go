package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{
		client: client,
		ttl:    ttl,
	}
}

// RedisStateStore keeps each session state as one JSON value. A zero ttl
// keeps values forever.
type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (r RedisStateStore) Load(ctx context.Context, sessionID string) (*State, error) {
	data, err := r.client.Get(ctx, stateKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal session state failed: %w: %v", ErrCorruptState, err)
	}
	return &state, nil
}

func (r RedisStateStore) Save(ctx context.Context, sessionID string, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state failed: %w", err)
	}

	if err := r.client.Set(ctx, stateKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisStateStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, stateKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func stateKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", Namespace, sessionID)
}
