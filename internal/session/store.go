// Package session stores analysis snapshots keyed by opaque session ids with
// TTL expiry. Redis-backed when configured, with an in-memory fallback for
// single-instance deployments.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pias-analytics/pias-backend/internal/config"
	"github.com/pias-analytics/pias-backend/internal/domain"
)

const (
	sessionKeyPrefix  = "session:analysis:"
	defaultSessionTTL = 24 * time.Hour
)

// Store persists analysis snapshots per session. Entries expire after the
// configured TTL; reads of expired or unknown ids return
// domain.ErrSessionNotFound.
type Store interface {
	Save(ctx context.Context, id string, snapshot *domain.Snapshot) error
	Load(ctx context.Context, id string) (*domain.Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// New builds a Redis-backed store when a Redis address is configured,
// otherwise the in-memory store.
func New(cfg config.SessionConfig) (Store, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	if cfg.RedisURL == "" && cfg.RedisHost == "" {
		return NewMemoryStore(ttl), nil
	}

	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &redisStore{client: client, ttl: ttl}, nil
}

func buildRedisOptions(cfg config.SessionConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (s *redisStore) Save(ctx context.Context, id string, snapshot *domain.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode session snapshot: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+id, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *redisStore) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode session snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

type memoryEntry struct {
	snapshot  *domain.Snapshot
	expiresAt time.Time
}

// memoryStore is a TTL map guarded by a mutex. Expired entries are dropped
// lazily on read.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory session store with the given TTL.
func NewMemoryStore(ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *memoryStore) Save(_ context.Context, id string, snapshot *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryEntry{snapshot: snapshot, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *memoryStore) Load(_ context.Context, id string) (*domain.Snapshot, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, id)
		s.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	return entry.snapshot, nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
