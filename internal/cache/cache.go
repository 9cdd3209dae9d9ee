// Package cache defines the fast, disposable key-value collaborator that
// fronts the durable store. Implementations hold string-serialized payloads
// with a time-to-live and must tolerate being dropped or rebuilt at any time;
// they are never the source of truth.
package cache

import (
	"context"
	"time"
)

// Store is the cache collaborator contract. Get reports a miss with ok=false
// and reserves the error return for infrastructure failures; callers are
// expected to degrade to the durable store on error rather than fail the
// request.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
