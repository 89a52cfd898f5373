package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bayancosmetic/storefront/pkg/logger"
)

// ErrInvalidSession is returned for a missing or malformed cart session id.
var ErrInvalidSession = errors.New("invalid cart session id")

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// NormalizeSessionID trims and validates the X-Cart-Session value.
func NormalizeSessionID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if !sessionIDPattern.MatchString(id) {
		return "", ErrInvalidSession
	}
	return id, nil
}

// SessionStore persists carts keyed by browser session.
type SessionStore interface {
	// Load returns an empty cart when nothing is stored for the session.
	Load(ctx context.Context, sessionID string) (*Cart, error)
	// Save bumps the cart revision and persists it.
	Save(ctx context.Context, sessionID string, c *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps carts in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]Snapshot)}
}

func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot, ok := m.carts[sessionID]
	if !ok {
		return New(), nil
	}
	return FromSnapshot(snapshot), nil
}

func (m *MemoryStore) Save(ctx context.Context, sessionID string, c *Cart) error {
	c.bumpRevision()
	snapshot := c.Snapshot()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[sessionID] = snapshot
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

type redisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// RedisStore keeps each cart as a JSON snapshot with a sliding TTL.
type RedisStore struct {
	client redisClient
	ttl    time.Duration
	logg   *logger.Logger
}

func NewRedisStore(client redisClient, ttl time.Duration, logg *logger.Logger) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &RedisStore{client: client, ttl: ttl, logg: logg}, nil
}

// Load discards snapshots it cannot read or whose schema version it does not
// know, returning an empty cart instead.
func (r *RedisStore) Load(ctx context.Context, sessionID string) (*Cart, error) {
	raw, err := r.client.Get(ctx, r.client.CartKey(sessionID))
	if errors.Is(err, redis.Nil) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		r.warn(ctx, sessionID, "cart.snapshot_unreadable discarded")
		return New(), nil
	}
	if snapshot.SchemaVersion != SchemaVersion {
		r.warn(r.withField(ctx, "schema_version", snapshot.SchemaVersion), sessionID, "cart.snapshot_version_unknown discarded")
		return New(), nil
	}
	return FromSnapshot(snapshot), nil
}

func (r *RedisStore) Save(ctx context.Context, sessionID string, c *Cart) error {
	c.bumpRevision()
	payload, err := json.Marshal(c.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := r.client.Set(ctx, r.client.CartKey(sessionID), string(payload), r.ttl); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.client.CartKey(sessionID)); err != nil {
		return fmt.Errorf("redis delete cart: %w", err)
	}
	return nil
}

func (r *RedisStore) withField(ctx context.Context, key string, value any) context.Context {
	if r.logg == nil {
		return ctx
	}
	return r.logg.WithField(ctx, key, value)
}

func (r *RedisStore) warn(ctx context.Context, sessionID, msg string) {
	if r.logg == nil {
		return
	}
	r.logg.Warn(r.logg.WithSessionID(ctx, sessionID), msg)
}
