package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/n1rocket/go-profile-validity/internal/domain"
)

// RedisStore keeps each session's notices in a Redis hash keyed by message id
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store on client. Keys are prefix+sid.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(sid string) string {
	return s.prefix + sid
}

// Append implements Store
func (s *RedisStore) Append(ctx context.Context, sid string, notice domain.Notice) (Message, error) {
	if sid == "" {
		return Message{}, ErrNoSession
	}

	msg := NewMessage(notice)
	payload, err := json.Marshal(msg)
	if err != nil {
		return Message{}, fmt.Errorf("encode session message: %w", err)
	}

	key := s.key(sid)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, msg.ID, payload)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return Message{}, fmt.Errorf("append session message: %w", err)
	}

	return msg, nil
}

// Drain implements Store
func (s *RedisStore) Drain(ctx context.Context, sid string) ([]Message, error) {
	if sid == "" {
		return nil, ErrNoSession
	}

	key := s.key(sid)
	var all *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		all = pipe.HGetAll(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drain session messages: %w", err)
	}

	out := make([]Message, 0, len(all.Val()))
	for id, raw := range all.Val() {
		var msg Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, fmt.Errorf("decode session message %s: %w", id, err)
		}
		out = append(out, msg)
	}
	sortMessages(out)
	return out, nil
}

// Ping checks the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ Store = (*RedisStore)(nil)
