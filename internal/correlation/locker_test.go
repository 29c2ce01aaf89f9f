package correlation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	internalErrors "notification-service/internal/errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })
	return rc
}

func lockers(t *testing.T) map[string]Locker {
	return map[string]Locker{
		"keyed": NewKeyedMutex(),
		"redis": NewRedisLocker(newRedisClient(t), 5*time.Second),
	}
}

func TestLockerExcludesSameKey(t *testing.T) {
	for name, locker := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			unlock, err := locker.Lock(context.Background(), "order:1")
			if err != nil {
				t.Fatalf("Lock failed: %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			if _, err := locker.Lock(ctx, "order:1"); !errors.Is(err, internalErrors.ErrLockTimeout) {
				t.Errorf("Expected ErrLockTimeout while held, got %v", err)
			}

			// other keys are independent
			unlockOther, err := locker.Lock(context.Background(), "order:2")
			if err != nil {
				t.Fatalf("Lock on other key failed: %v", err)
			}
			unlockOther()

			unlock()
			unlock() // second call is a no-op

			unlock, err = locker.Lock(context.Background(), "order:1")
			if err != nil {
				t.Fatalf("Lock after release failed: %v", err)
			}
			unlock()
		})
	}
}

func TestKeyedMutexForgetsReleasedKeys(t *testing.T) {
	k := NewKeyedMutex()
	unlock, err := k.Lock(context.Background(), "order:1")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	unlock()

	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.locks) != 0 {
		t.Errorf("Expected no retained keys, got %d", len(k.locks))
	}
}

func TestRedisRefundIndex(t *testing.T) {
	ctx := context.Background()
	index := NewRedisRefundIndex(newRedisClient(t), systemName)

	if _, ok, err := index.Get(ctx, "r1"); err != nil || ok {
		t.Fatalf("Expected miss, got ok=%v err=%v", ok, err)
	}
	if err := index.Put(ctx, "r1", 42); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	id, ok, err := index.Get(ctx, "r1")
	if err != nil || !ok || id != 42 {
		t.Errorf("got (%d, %v, %v), want (42, true, nil)", id, ok, err)
	}
}

func TestRefundIndexKeepsLowestOrder(t *testing.T) {
	indexes := map[string]RefundIndex{
		"memory": NewMemoryRefundIndex(),
		"redis":  NewRedisRefundIndex(newRedisClient(t), systemName),
	}

	for name, index := range indexes {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, orderID := range []int64{9, 4, 7} {
				if err := index.Put(ctx, "dup", orderID); err != nil {
					t.Fatalf("Put failed: %v", err)
				}
			}

			id, ok, err := index.Get(ctx, "dup")
			if err != nil || !ok || id != 4 {
				t.Errorf("got (%d, %v, %v), want (4, true, nil)", id, ok, err)
			}
		})
	}
}

func TestRedisLockerLogsFailedRelease(t *testing.T) {
	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rc.Close() })

	unlock, err := NewRedisLocker(rc, time.Minute).Lock(context.Background(), "order:1")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	mr.Close()
	unlock()

	if !strings.Contains(logs.String(), "failed to release order lock") {
		t.Errorf("Expected a logged release failure, got %q", logs.String())
	}
}
