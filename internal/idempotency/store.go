// Package idempotency remembers responses to mutating requests so a retried
// request with the same Idempotency-Key is answered without re-executing it.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("idempotency key not found")
	ErrHashMismatch = errors.New("idempotency key body mismatch")
	ErrInProgress   = errors.New("idempotency key in progress")
)

const (
	redisKeyPrefix = "idempotency"
	pollInterval   = 50 * time.Millisecond
)

type Record struct {
	Key         string
	RequestHash string
	Status      int
	Body        []byte
	ContentType string
	ServedBy    string
}

// Store reserves keys, records final responses and replays them.
type Store interface {
	Lookup(ctx context.Context, key, requestHash string) (*Record, error)
	Reserve(ctx context.Context, key, requestHash string) (bool, error)
	Finalize(ctx context.Context, key, requestHash string, status int, body []byte, contentType string) (*Record, error)
	Release(ctx context.Context, key string) error
	WaitForCompletion(ctx context.Context, key, requestHash string) (*Record, error)
}

type envelope struct {
	Key         string `json:"key"`
	Hash        string `json:"hash"`
	InProgress  bool   `json:"in_progress"`
	Status      int    `json:"status"`
	Body        []byte `json:"body"`
	ContentType string `json:"content_type"`
}

func (e envelope) record(requestHash, servedBy string) (*Record, error) {
	if e.Hash != requestHash {
		return nil, ErrHashMismatch
	}
	if e.InProgress {
		return nil, ErrInProgress
	}
	return &Record{
		Key:         e.Key,
		RequestHash: e.Hash,
		Status:      e.Status,
		Body:        e.Body,
		ContentType: e.ContentType,
		ServedBy:    servedBy,
	}, nil
}

// RedisStore keeps reservations and responses in Redis with a TTL.
type RedisStore struct {
	redis redis.Cmdable
	ttl   time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: client, ttl: ttl}
}

func (s *RedisStore) Lookup(ctx context.Context, key, requestHash string) (*Record, error) {
	val, err := s.redis.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup idempotency key: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(val, &env); err != nil {
		zap.L().Warn("corrupt idempotency record", zap.String("key", key), zap.Error(err))
		return nil, ErrNotFound
	}
	return env.record(requestHash, "redis")
}

// Reserve claims key for the caller. It returns false when another request
// already holds or completed it.
func (s *RedisStore) Reserve(ctx context.Context, key, requestHash string) (bool, error) {
	payload, err := json.Marshal(envelope{Key: key, Hash: requestHash, InProgress: true})
	if err != nil {
		return false, fmt.Errorf("marshal idempotency reservation: %w", err)
	}
	ok, err := s.redis.SetNX(ctx, redisKey(key), payload, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Finalize(ctx context.Context, key, requestHash string, status int, body []byte, contentType string) (*Record, error) {
	env := envelope{
		Key:         key,
		Hash:        requestHash,
		Status:      status,
		Body:        body,
		ContentType: contentType,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal idempotency record: %w", err)
	}
	if err := s.redis.Set(ctx, redisKey(key), payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("finalize idempotency key: %w", err)
	}
	return env.record(requestHash, "redis")
}

// Release drops a reservation so the request can be retried.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func (s *RedisStore) WaitForCompletion(ctx context.Context, key, requestHash string) (*Record, error) {
	return waitForCompletion(ctx, s, key, requestHash)
}

// maxSweepInterval bounds how long expired memory entries can linger.
const maxSweepInterval = time.Minute

// MemoryStore is the single-process fallback used when Redis is not configured.
// Expired entries are swept from Reserve at most once per sweep interval.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	entries   map[string]memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

type memoryEntry struct {
	env     envelope
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Lookup(_ context.Context, key, requestHash string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return nil, ErrNotFound
	}
	return e.env.record(requestHash, "memory")
}

func (s *MemoryStore) Reserve(_ context.Context, key, requestHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.entries[key] = memoryEntry{
		env:     envelope{Key: key, Hash: requestHash, InProgress: true},
		expires: s.now().Add(s.ttl),
	}
	return true, nil
}

func (s *MemoryStore) Finalize(_ context.Context, key, requestHash string, status int, body []byte, contentType string) (*Record, error) {
	env := envelope{Key: key, Hash: requestHash, Status: status, Body: body, ContentType: contentType}
	s.mu.Lock()
	s.entries[key] = memoryEntry{env: env, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return env.record(requestHash, "memory")
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) WaitForCompletion(ctx context.Context, key, requestHash string) (*Record, error) {
	return waitForCompletion(ctx, s, key, requestHash)
}

// live must be called with mu held.
func (s *MemoryStore) live(key string) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if s.ttl > 0 && s.now().After(e.expires) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

// sweep drops every expired entry. Must be called with mu held.
func (s *MemoryStore) sweep() {
	if s.ttl <= 0 {
		return
	}
	now := s.now()
	if now.Sub(s.lastSweep) < min(s.ttl, maxSweepInterval) {
		return
	}
	s.lastSweep = now
	for key, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, key)
		}
	}
}

func waitForCompletion(ctx context.Context, s Store, key, requestHash string) (*Record, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		rec, err := s.Lookup(ctx, key, requestHash)
		if err == nil {
			return rec, nil
		}
		if errors.Is(err, ErrInProgress) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-ticker.C:
				continue
			}
		}
		return nil, err
	}
}

func redisKey(key string) string {
	return fmt.Sprintf("%s:%s", redisKeyPrefix, key)
}
