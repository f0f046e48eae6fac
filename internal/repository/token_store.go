package repository

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenStore 设备令牌的本地键值存储，值为已加密串
type TokenStore interface {
	Get(ctx context.Context, deviceID string) (string, error)
	Set(ctx context.Context, deviceID, sealed string, expiresAt time.Time) error
	Delete(ctx context.Context, deviceID string) error
}

type memoryEntry struct {
	sealed    string
	expiresAt time.Time
}

type MemoryTokenStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryTokenStore) Get(_ context.Context, deviceID string) (string, error) {
	s.mu.RLock()
	e, ok := s.entries[deviceID]
	s.mu.RUnlock()
	if !ok {
		return "", ErrTokenNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, deviceID)
		s.mu.Unlock()
		return "", ErrTokenNotFound
	}
	return e.sealed, nil
}

func (s *MemoryTokenStore) Set(_ context.Context, deviceID, sealed string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[deviceID] = memoryEntry{sealed: sealed, expiresAt: expiresAt}
	return nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, deviceID)
	return nil
}

// Pinger 可探活的存储
type Pinger interface {
	Ping(ctx context.Context) error
}

// Purger 可批量清理过期令牌的存储；redis 依赖 TTL 无需清理
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PingStore 存储未实现 Pinger 时视为可用
func PingStore(ctx context.Context, store TokenStore) error {
	if p, ok := store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *MemoryTokenStore) PurgeExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var n int64
	for id, e := range s.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}
