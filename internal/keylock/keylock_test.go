package keylock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWithLockSerializesSameKey(t *testing.T) {
	s := NewSet(0)
	ctx := context.Background()

	var mu sync.Mutex
	inFlight := 0
	maxInFlight := 0

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithLock(ctx, "users", func(context.Context) error {
				mu.Lock()
				inFlight++
				if inFlight > maxInFlight {
					maxInFlight = inFlight
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("WithLock: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxInFlight != 1 {
		t.Errorf("expected at most 1 in-flight critical section, observed %d", maxInFlight)
	}
}

func TestWithLockDifferentKeysRunConcurrently(t *testing.T) {
	s := NewSet(0)
	ctx := context.Background()

	aInside := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = s.WithLock(ctx, "a", func(context.Context) error {
			close(aInside)
			<-release
			return nil
		})
	}()

	<-aInside
	done := make(chan error, 1)
	go func() {
		done <- s.WithLock(ctx, "b", func(context.Context) error { return nil })
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WithLock(b): %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("lock on key b blocked behind key a")
	}
	close(release)
}

func TestWithLockTimeout(t *testing.T) {
	s := NewSet(10 * time.Millisecond)
	ctx := context.Background()

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.WithLock(ctx, "users", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err := s.WithLock(ctx, "users", func(context.Context) error {
		t.Error("critical section ran despite timeout")
		return nil
	})
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
	close(release)
}

func TestWithLockPropagatesCallerCancellation(t *testing.T) {
	s := NewSet(time.Minute)

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.WithLock(context.Background(), "users", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.WithLock(ctx, "users", func(context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	close(release)
}

func TestWithLockReturnsFnError(t *testing.T) {
	s := NewSet(0)
	sentinel := errors.New("boom")
	err := s.WithLock(context.Background(), "k", func(context.Context) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected fn error, got %v", err)
	}
}
