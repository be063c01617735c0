package redis

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLockAcquireRelease(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	lock := client.NewLock("resource", LockOption{TTL: 200 * time.Millisecond, RetryTimes: 1, RetryDelay: 10 * time.Millisecond})
	if err := lock.Acquire(ctx); err != nil {
		t.Fatalf("acquire lock: %v", err)
	}

	lock2 := client.NewLock("resource", LockOption{TTL: 200 * time.Millisecond, RetryTimes: 1, RetryDelay: 10 * time.Millisecond})
	if err := lock2.Acquire(ctx); !errors.Is(err, ErrLockFailed) {
		t.Fatalf("expected ErrLockFailed, got: %v", err)
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release lock: %v", err)
	}

	if err := lock2.Acquire(ctx); err != nil {
		t.Fatalf("acquire lock after release: %v", err)
	}
}

func TestLockReleaseOnlyByOwner(t *testing.T) {
	client, server := newTestClientWithServer(t)
	ctx := context.Background()

	lock := client.NewLock("owned", LockOption{TTL: time.Second, RetryTimes: 1, RetryDelay: 10 * time.Millisecond})
	if err := lock.Acquire(ctx); err != nil {
		t.Fatalf("acquire lock: %v", err)
	}

	// 模拟锁过期后被他人持有
	server.FastForward(2 * time.Second)
	other := client.NewLock("owned", LockOption{TTL: time.Second, RetryTimes: 1, RetryDelay: 10 * time.Millisecond})
	if err := other.Acquire(ctx); err != nil {
		t.Fatalf("acquire expired lock: %v", err)
	}

	if err := lock.Release(ctx); !errors.Is(err, ErrUnlockFailed) {
		t.Fatalf("stale holder released someone else's lock: %v", err)
	}
	if err := other.Release(ctx); err != nil {
		t.Fatalf("owner release: %v", err)
	}
}

func TestLockExtend(t *testing.T) {
	client, server := newTestClientWithServer(t)
	ctx := context.Background()

	lock := client.NewLock("extend", LockOption{TTL: time.Second, RetryTimes: 1, RetryDelay: 10 * time.Millisecond})
	if err := lock.Acquire(ctx); err != nil {
		t.Fatalf("acquire lock: %v", err)
	}

	if err := lock.Extend(ctx, 5*time.Second); err != nil {
		t.Fatalf("extend: %v", err)
	}

	server.FastForward(2 * time.Second)
	exists, err := client.Exists(ctx, lock.key)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists == 0 {
		t.Fatalf("extended lock expired early")
	}
}

func TestSlugLocker(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	locker := NewSlugLocker(client)
	release, err := locker.Acquire(ctx, "slug:account:acme", time.Second)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// 同一个 key 被占用
	if _, err := locker.Acquire(ctx, "slug:account:acme", time.Second); !errors.Is(err, ErrLockFailed) {
		t.Fatalf("expected ErrLockFailed, got %v", err)
	}

	release()
	release2, err := locker.Acquire(ctx, "slug:account:acme", time.Second)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}
