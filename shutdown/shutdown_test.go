package shutdown

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/worklane/worklane/logger"
)

func TestShutdownHookTimeout(t *testing.T) {
	m := NewManager(ManagerParams{
		Logger: logger.NewNop(),
		Config: &Config{
			Timeout:     time.Second,
			HookTimeout: 50 * time.Millisecond,
		},
	})

	var fastCalled atomic.Bool

	m.RegisterHookWithPriority("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, PriorityNormal)
	m.RegisterHookWithPriority("fast", func(ctx context.Context) error {
		fastCalled.Store(true)
		return nil
	}, PriorityNormal)

	start := time.Now()
	m.Shutdown(context.Background())
	elapsed := time.Since(start)

	if !fastCalled.Load() {
		t.Fatalf("fast hook not executed")
	}
	if elapsed > 500*time.Millisecond {
		t.Fatalf("shutdown took too long: %v", elapsed)
	}
}

func TestShutdownPriorityOrder(t *testing.T) {
	m := NewManager(ManagerParams{Logger: logger.NewNop()})

	var order []string
	record := func(name string) Hook {
		return func(ctx context.Context) error {
			order = append(order, name)
			return nil
		}
	}

	m.RegisterHookWithPriority("storage", record("storage"), PriorityStorage)
	m.RegisterHookWithPriority("ingress", record("ingress"), PriorityIngress)
	m.RegisterHookWithPriority("deliver", record("deliver"), PriorityDeliver)

	m.Shutdown(context.Background())

	if len(order) != 3 || order[0] != "ingress" || order[1] != "deliver" || order[2] != "storage" {
		t.Fatalf("unexpected hook order: %v", order)
	}
	if !m.IsShutdown() {
		t.Fatalf("manager should report shutdown")
	}
}

func TestShutdownIdempotent(t *testing.T) {
	m := NewManager(ManagerParams{Logger: logger.NewNop()})

	var calls atomic.Int32
	m.RegisterHook("once", func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	m.Shutdown(context.Background())
	m.Shutdown(context.Background())

	if calls.Load() != 1 {
		t.Fatalf("hooks should run exactly once, got %d", calls.Load())
	}
}
