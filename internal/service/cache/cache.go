// Package cache stores encoded prediction responses for a short time.
package cache

import (
	"context"
	"strings"
	"time"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Key joins parts with ':'. Empty parts are kept so positions stay stable.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
