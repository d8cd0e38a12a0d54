package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/simp-lee/hireline/internal/domain"
)

// Persisted is the durable form of an authenticated session.
type Persisted struct {
	AccessToken string          `json:"accessToken"`
	User        domain.Identity `json:"user"`
}

// Storage keeps the session across process restarts.
// Load returns (nil, nil) when nothing is stored.
type Storage interface {
	Load(ctx context.Context) (*Persisted, error)
	Save(ctx context.Context, p Persisted) error
	Clear(ctx context.Context) error
}

// MemoryStorage is a Storage that lives only as long as the process.
type MemoryStorage struct {
	mu sync.Mutex
	p  *Persisted
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(_ context.Context) (*Persisted, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.p == nil {
		return nil, nil
	}
	cp := *m.p
	return &cp, nil
}

func (m *MemoryStorage) Save(_ context.Context, p Persisted) error {
	m.mu.Lock()
	m.p = &p
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Clear(_ context.Context) error {
	m.mu.Lock()
	m.p = nil
	m.mu.Unlock()
	return nil
}

// FileStorage persists the session as a JSON file readable only by the owner.
type FileStorage struct {
	path string
}

// NewFileStorage creates a FileStorage writing to path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load(_ context.Context) (*Persisted, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var p Persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	if p.AccessToken == "" {
		return nil, nil
	}
	return &p, nil
}

func (f *FileStorage) Save(_ context.Context, p Persisted) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session directory %q: %w", dir, err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (f *FileStorage) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// RedisClient is the subset of Redis operations RedisStorage needs.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ErrRedisNil is returned by RedisClient.Get for a missing key.
var ErrRedisNil = redis.Nil

// goRedisClient adapts *redis.Client to RedisClient.
type goRedisClient struct {
	rdb *redis.Client
}

// NewGoRedisClient wraps a go-redis client.
func NewGoRedisClient(rdb *redis.Client) RedisClient {
	return &goRedisClient{rdb: rdb}
}

func (g *goRedisClient) Get(ctx context.Context, key string) (string, error) {
	return g.rdb.Get(ctx, key).Result()
}

func (g *goRedisClient) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return g.rdb.Set(ctx, key, value, ttl).Err()
}

func (g *goRedisClient) Del(ctx context.Context, keys ...string) error {
	return g.rdb.Del(ctx, keys...).Err()
}

// NewRedisClient parses redisURL, connects and pings.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// RedisStorage keeps the session under a single Redis key.
type RedisStorage struct {
	client RedisClient
	key    string
	ttl    time.Duration
}

// RedisStorageOption configures a RedisStorage.
type RedisStorageOption func(*RedisStorage)

// WithKey sets the Redis key.
func WithKey(key string) RedisStorageOption {
	return func(s *RedisStorage) { s.key = key }
}

// WithTTL sets the key expiry. Zero keeps the key until cleared.
func WithTTL(ttl time.Duration) RedisStorageOption {
	return func(s *RedisStorage) { s.ttl = ttl }
}

// NewRedisStorage creates a Redis-backed Storage.
func NewRedisStorage(client RedisClient, opts ...RedisStorageOption) *RedisStorage {
	s := &RedisStorage{
		client: client,
		key:    "hireline:session",
		ttl:    7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStorage) Load(ctx context.Context) (*Persisted, error) {
	data, err := s.client.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrRedisNil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var p Persisted
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &p, nil
}

func (s *RedisStorage) Save(ctx context.Context, p Persisted) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key, string(data), s.ttl); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStorage) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
