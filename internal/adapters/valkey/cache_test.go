package valkey_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	vk "github.com/valkey-io/valkey-go"

	"github.com/samirrijal/mapboot/internal/adapters/valkey"
)

func newCache(t *testing.T) (*valkey.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := vk.NewClient(vk.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	c := valkey.NewWithClient(client, "mapboot:")
	t.Cleanup(c.Close)
	return c, mr
}

func TestCache_SetGet(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "transform:a", []byte(`{"x":1}`), 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.Get(ctx, "transform:a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"x":1}` {
		t.Errorf("unexpected value %q", got)
	}
	if !mr.Exists("mapboot:transform:a") {
		t.Error("expected prefixed key in store")
	}
	if ttl := mr.TTL("mapboot:transform:a"); ttl != 60*time.Second {
		t.Errorf("expected ttl 60s, got %v", ttl)
	}
}

func TestCache_Expiry(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 1)
	mr.FastForward(2 * time.Second)

	if _, err := c.Get(ctx, "k"); !errors.Is(err, valkey.ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}
}

func TestCache_Delete(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, valkey.ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}
}

func TestCache_Ping(t *testing.T) {
	c, _ := newCache(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
