package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Cache stores JSON encoded read models. A miss is reported as found=false
// with a nil error.
type Cache interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

const (
	ProductKeyPrefix = "product"
	OrderKeyPrefix   = "order"
)

func Key(prefix string, id string) string {
	return prefix + ":" + id
}

func ProductKey(id uuid.UUID) string {
	return Key(ProductKeyPrefix, id.String())
}

func OrderKey(id uuid.UUID) string {
	return Key(OrderKeyPrefix, id.String())
}
