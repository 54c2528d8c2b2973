package redisstore

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultMaxLoginFailures = 5
	DefaultLoginWindow      = 15 * time.Minute
)

// Store keeps short-lived counters in Redis. Currently: failed login
// attempts per email.
type Store struct {
	rdb         *redis.Client
	maxFailures int64
	window      time.Duration
}

func New(addr, password string, db int) *Store {
	return NewWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))
}

func NewWithClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, maxFailures: DefaultMaxLoginFailures, window: DefaultLoginWindow}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func loginKey(email string) string {
	return "login:fail:" + strings.ToLower(strings.TrimSpace(email))
}

// LoginBlocked reports whether email has reached the failure limit within
// the current window.
func (s *Store) LoginBlocked(ctx context.Context, email string) (bool, error) {
	n, err := s.rdb.Get(ctx, loginKey(email)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= s.maxFailures, nil
}

// RecordLoginFailure increments the failure counter. The window starts at the
// first failure; the key is created with its TTL in the same transaction as
// the increment, so a counter never outlives its window.
func (s *Store) RecordLoginFailure(ctx context.Context, email string) (int64, error) {
	key := loginKey(email)
	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, s.window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *Store) ResetLoginFailures(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, loginKey(email)).Err()
}
