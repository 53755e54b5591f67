package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryLimiter — процесс-локальный лимитер для одиночного инстанса.
// Просроченные ключи удаляются лениво при обращении.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string, limit int64, window time.Duration) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.entries[key]
	if !ok || !e.resetAt.After(now) {
		e = &memoryEntry{count: 1, resetAt: now.Add(window)}
		m.entries[key] = e
		return Result{OK: true, Remaining: limit - 1, ResetAt: e.resetAt}, nil
	}

	if e.count >= limit {
		// Не инкрементируем сверх лимита, чтобы счётчик не рос бесконечно.
		return Result{OK: false, Remaining: 0, ResetAt: e.resetAt}, nil
	}

	e.count++
	return Result{OK: true, Remaining: limit - e.count, ResetAt: e.resetAt}, nil
}

func (m *MemoryLimiter) Peek(_ context.Context, key string, limit int64, window time.Duration) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.entries[key]
	if !ok || !e.resetAt.After(now) {
		if ok {
			delete(m.entries, key)
		}
		return Result{OK: true, Remaining: limit, ResetAt: now.Add(window)}, nil
	}

	if e.count >= limit {
		return Result{OK: false, Remaining: 0, ResetAt: e.resetAt}, nil
	}
	return Result{OK: true, Remaining: limit - e.count, ResetAt: e.resetAt}, nil
}
