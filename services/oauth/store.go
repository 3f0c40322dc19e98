package oauthsvc

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/Smarcastic/studesq-mvp/core"
)

var nowFunc = time.Now // mockable

// Store holds short lived string values: OAuth states and provider sessions.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns ok=false when key is missing or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Take gets then deletes key atomically.
	Take(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, key string) error
}

type redisStore struct {
	client redis.UniversalClient
	prefix string
}

var _ Store = (*redisStore)(nil)

func NewRedisStore(client redis.UniversalClient, prefix string) Store {
	return &redisStore{client: client, prefix: prefix}
}

func (s *redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.Wrap(s.client.Set(ctx, s.prefix+key, value, ttl).Err(), "setting redis key")
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "getting redis key")
	}
	return val, true, nil
}

func (s *redisStore) Take(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.GetDel(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "taking redis key")
	}
	return val, true, nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return errors.Wrap(s.client.Del(ctx, s.prefix+key).Err(), "deleting redis key")
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type memoryStore struct {
	entries map[string]memoryEntry
	mutex   sync.Mutex
}

var _ Store = (*memoryStore)(nil)

// NewMemoryStore returns a process local Store. Expired entries are dropped on access.
func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[string]memoryEntry)}
}

func (s *memoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: nowFunc().Add(ttl)}
	return nil
}

// lookup must be called with the mutex held.
func (s *memoryStore) lookup(key string) (string, bool) {
	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	if !nowFunc().Before(e.expiresAt) {
		delete(s.entries, key)
		return "", false
	}
	return e.value, true
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	val, ok := s.lookup(key)
	return val, ok, nil
}

func (s *memoryStore) Take(_ context.Context, key string) (string, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	val, ok := s.lookup(key)
	delete(s.entries, key)
	return val, ok, nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.entries, key)
	return nil
}

// NewStore returns a redis Store when a redis address is configured, a memory Store otherwise.
// The returned func releases the store's resources.
func NewStore(ctx context.Context, conf *core.Config) (Store, func(), error) {
	if conf.Redis.Addr == "" {
		return NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, errors.Wrap(err, "pinging redis")
	}
	return NewRedisStore(client, "studesq:oauth:"), func() { _ = client.Close() }, nil
}
