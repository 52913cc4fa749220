package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/suPer8Hu/mockai/internal/session"
)

const keyPrefix = "mockai:session:"

// Store keeps each session history as a capped redis list. Redis expires idle
// keys on its own, so SweepExpired has nothing to do.
type Store struct {
	rdb      *redis.Client
	capacity int
	ttl      time.Duration
}

func New(addr, password string, db int, capacity int, ttl time.Duration) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewWithClient(rdb, capacity, ttl)
}

func NewWithClient(rdb *redis.Client, capacity int, ttl time.Duration) *Store {
	if capacity <= 0 {
		capacity = session.DefaultCapacity
	}
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &Store{rdb: rdb, capacity: capacity, ttl: ttl}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redisstore: ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func key(id string) string { return keyPrefix + id }

func (s *Store) Touch(ctx context.Context, id string) error {
	// EXPIRE on a missing key is a no-op; the list appears on first Append.
	if err := s.rdb.Expire(ctx, key(id), s.ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: touch %s: %w", id, err)
	}
	return nil
}

func (s *Store) SweepExpired(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *Store) Append(ctx context.Context, id string, turn session.Turn) error {
	b, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	k := key(id)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, k, b)
		pipe.LTrim(ctx, k, int64(-s.capacity), -1)
		pipe.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: append %s: %w", id, err)
	}
	return nil
}

func (s *Store) History(ctx context.Context, id string) ([]session.Turn, error) {
	raw, err := s.rdb.LRange(ctx, key(id), 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redisstore: history %s: %w", id, err)
	}
	turns := make([]session.Turn, 0, len(raw))
	for _, r := range raw {
		var t session.Turn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			return nil, fmt.Errorf("redisstore: decode turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}
