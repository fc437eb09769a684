package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fortuna/accolade/internal/logger"
)

const lockKey = "lock:ingest"

// Locker serializes ingestion runs. Acquire returns ErrRunInProgress when the
// lock is already held.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// MutexLocker serializes runs within one process.
type MutexLocker struct {
	mu sync.Mutex
}

// Acquire implements Locker.
func (l *MutexLocker) Acquire(context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	return l.mu.Unlock, nil
}

// LockStore is the Redis side of a distributed lock.
type LockStore interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// RedisLocker serializes runs across every replica sharing a Redis.
type RedisLocker struct {
	store LockStore
	ttl   time.Duration
	log   *logger.Logger
}

// NewRedisLocker builds a lock that expires after ttl if never released.
func NewRedisLocker(store LockStore, ttl time.Duration, log *logger.Logger) *RedisLocker {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisLocker{store: store, ttl: ttl, log: log}
}

// Acquire implements Locker.
func (l *RedisLocker) Acquire(ctx context.Context) (func(), error) {
	token, ok, err := l.store.TryLock(ctx, lockKey, l.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRunInProgress
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.store.Unlock(ctx, lockKey, token); err != nil {
			l.log.WithError(err).Warn("failed to release ingestion lock")
		}
	}, nil
}
