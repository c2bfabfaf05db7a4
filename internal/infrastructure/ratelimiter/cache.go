package ratelimiter

import (
	"errors"
	"sync"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// GetterSetter abstracts the bucket-state store so a shared cache can be
// swapped in without touching the limiter.
type GetterSetter interface {
	Get(key string) (int64, error)
	SetWithExpiration(key string, value int64, expiration time.Duration) error
}

type inMemoryEntry struct {
	value     int64
	expiresAt time.Time
}

type InMemory struct {
	cache map[string]inMemoryEntry
	mu    sync.RWMutex
}

func NewInMemory() *InMemory {
	return &InMemory{
		cache: make(map[string]inMemoryEntry),
	}
}

func (i *InMemory) Get(key string) (int64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	entry, ok := i.cache[key]
	if !ok {
		return 0, ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return 0, ErrCacheMiss
	}
	return entry.value, nil
}

func (i *InMemory) SetWithExpiration(key string, value int64, expiration time.Duration) error {
	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = time.Now().Add(expiration)
	}

	i.mu.Lock()
	i.cache[key] = inMemoryEntry{value: value, expiresAt: expiresAt}
	i.mu.Unlock()

	return nil
}
