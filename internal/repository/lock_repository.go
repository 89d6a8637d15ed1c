package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another worker owns the lock.
var ErrLockHeld = errors.New("lock held by another worker")

// LockRepository hands out short-lived Redis locks.
type LockRepository struct {
	locker *redislock.Client
}

// NewLockRepository wraps a Redis client. A nil client yields a repository
// whose locks always succeed, which suits single-process deployments.
func NewLockRepository(client *redis.Client) *LockRepository {
	if client == nil {
		return &LockRepository{}
	}
	return &LockRepository{locker: redislock.New(client)}
}

// Obtain acquires key for ttl and returns the release function.
func (r *LockRepository) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if r.locker == nil {
		return func(context.Context) error { return nil }, nil
	}
	lock, err := r.locker.Obtain(ctx, "lock:"+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockHeld
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		return nil
	}, nil
}
