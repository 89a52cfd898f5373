package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// LockName is the Redis lock shared by every cron worker replica.
const LockName = "cron-worker"

// Lock coordinates exclusive cron cycles across replicas.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name string) string
}

// RedisLock is a SETNX lock whose value identifies the holder. The TTL must
// outlast one cycle so a crashed worker frees the lock on its own.
type RedisLock struct {
	client lockStore
	key    string
	ttl    time.Duration
	holder string
}

func NewRedisLock(client lockStore, name string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if name == "" {
		return nil, errors.New("lock name is required")
	}
	if ttl <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}
	return &RedisLock{client: client, key: client.LockKey(name), ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	holder := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, holder, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if ok {
		l.holder = holder
	}
	return ok, nil
}

// Release deletes the key only while this worker still holds it.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.holder == "" {
		return nil
	}
	holder := l.holder
	l.holder = ""

	current, err := l.client.Get(ctx, l.key)
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		return fmt.Errorf("read lock holder: %w", err)
	case current != holder:
		return nil
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}
