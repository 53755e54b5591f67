package ratelimit

import (
	"context"
	"time"
)

type Result struct {
	OK        bool
	Remaining int64
	ResetAt   time.Time
}

// Limiter — счётчик попыток в окне по произвольному строковому ключу.
// Ключ собирает вызывающая сторона (ip+действие, tracking+ip для локаутов).
// Peek сообщает то же решение, что и Allow, но не тратит попытку.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (Result, error)
	Peek(ctx context.Context, key string, limit int64, window time.Duration) (Result, error)
}
