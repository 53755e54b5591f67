package cache

import (
	"context"
	"time"
)

// BytesCache — кэш "как есть" для готовых JSON-рендеров.
// Кэш best-effort: ошибки чтения/записи не должны ронять запрос.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
