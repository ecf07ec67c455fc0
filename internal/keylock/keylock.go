// Package keylock provides per-key mutual exclusion for mutating operations.
//
// The remote row and folder backends offer no transactions or locking, so
// every mutation that reads a position and writes it back must run as a
// single critical section. Locks are scoped by an arbitrary string key
// (table name, folder composite key); operations on different keys proceed
// concurrently.
package keylock

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrLockTimeout is returned when a lock cannot be acquired within the
// configured timeout. Callers may retry.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// Set manages one lock per string key. Locks are created lazily and kept
// for the lifetime of the Set; the key space here is small and fixed
// (table names plus per-owner folder keys).
type Set struct {
	// Timeout bounds lock acquisition. Zero means wait until ctx is done.
	Timeout time.Duration

	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// NewSet creates a lock set with the given acquisition timeout.
func NewSet(timeout time.Duration) *Set {
	return &Set{
		Timeout: timeout,
		locks:   make(map[string]*semaphore.Weighted),
	}
}

func (s *Set) lock(key string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = semaphore.NewWeighted(1)
		s.locks[key] = l
	}
	return l
}

// WithLock runs fn while holding the lock for key. At most one fn runs per
// key at a time. fn must not call WithLock for the same key.
func (s *Set) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l := s.lock(key)
	acquireCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	if err := l.Acquire(acquireCtx, 1); err != nil {
		if acquireCtx.Err() != nil && ctx.Err() == nil {
			return ErrLockTimeout
		}
		return err
	}
	defer l.Release(1)
	return fn(ctx)
}
