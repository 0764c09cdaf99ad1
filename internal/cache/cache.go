// Package cache stores rendered dashboard results keyed by snapshot
// content and query parameters. Values are opaque bytes.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache is a byte cache. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Options selects and tunes a cache backend.
type Options struct {
	Backend    string // "memory" (default), "redis" or "none"
	RedisURL   string
	TTL        time.Duration
	MaxEntries int
	Prefix     string
}

// pingTimeout bounds the startup reachability check of a redis backend.
const pingTimeout = 2 * time.Second

// New builds the backend named in opts. A redis backend must answer a ping.
func New(opts Options) (Cache, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "memory":
		return NewMemory(opts.MaxEntries, opts.TTL), nil
	case "redis":
		r, err := NewRedis(opts.RedisURL, opts.Prefix, opts.TTL)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		if err := r.Ping(ctx); err != nil {
			r.Close()
			return nil, fmt.Errorf("redis cache unreachable: %w", err)
		}
		return r, nil
	case "none", "off":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// Key joins parts into a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error         { return nil }
func (Nop) Close() error                                      { return nil }
