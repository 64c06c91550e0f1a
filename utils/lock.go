package utils

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Lease is a short-lived advisory lock backed by Redis SETNX. It keeps
// overlapping reminder ticks from double-scanning the same leads. With
// a nil client it always grants the lease, which matches the legacy
// unguarded behavior.
type Lease struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewLease(client *redis.Client, key string, ttl time.Duration) *Lease {
	return &Lease{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

// Acquire returns true if this process now holds the lease. The TTL
// bounds the hold time so a crashed holder cannot wedge the scheduler.
func (l *Lease) Acquire(ctx context.Context) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	return l.client.SetNX(ctx, l.key, time.Now().Unix(), l.ttl).Result()
}

// Release drops the lease early; letting the TTL expire is also fine.
func (l *Lease) Release(ctx context.Context) error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Del(ctx, l.key).Err()
}
