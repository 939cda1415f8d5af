// Package kv is a small key-value abstraction over the session-scoped state
// this service keeps outside postgres: carts, checkout sessions and
// anti-forgery tokens. Backing it with redis keeps multi-instance
// deployments coherent; tests use the in-memory implementation.
package kv

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("kv: key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
