package redis

import (
	"context"
	"testing"
	"time"
)

func TestClientCacheOps(t *testing.T) {
	client, server := newTestClientWithServer(t)
	ctx := context.Background()

	if err := client.Set(ctx, "k1", "v1", 2*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, err := client.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "v1" {
		t.Fatalf("unexpected value: %s", val)
	}

	exists, err := client.Exists(ctx, "k1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists != 1 {
		t.Fatalf("unexpected exists: %d", exists)
	}

	server.FastForward(3 * time.Second)
	exists, err = client.Exists(ctx, "k1")
	if err != nil {
		t.Fatalf("exists after expire: %v", err)
	}
	if exists != 0 {
		t.Fatalf("expected expired key")
	}
}

func TestClientSetNX(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	ok, err := client.SetNX(ctx, "nx", "first", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first setnx: ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, "nx", "second", time.Minute)
	if err != nil {
		t.Fatalf("second setnx: %v", err)
	}
	if ok {
		t.Fatalf("setnx overwrote existing key")
	}

	if err := client.Del(ctx, "nx"); err != nil {
		t.Fatalf("del: %v", err)
	}
	ok, err = client.SetNX(ctx, "nx", "third", time.Minute)
	if err != nil || !ok {
		t.Fatalf("setnx after del: ok=%v err=%v", ok, err)
	}
}
