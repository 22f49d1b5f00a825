package redis

import (
	"context"
	"testing"
	"time"
)

func TestSettlementLockExcludesSecondWorker(t *testing.T) {
	client, _ := newMiniredisClient(t)

	ctx := context.Background()
	first := NewSettlementLock(client, time.Minute)
	second := NewSettlementLock(client, time.Minute)

	ok, err := first.TryLock(ctx, "tx-1")
	if err != nil || !ok {
		t.Fatalf("expected first lock, got ok=%v err=%v", ok, err)
	}

	ok, err = second.TryLock(ctx, "tx-1")
	if err != nil || ok {
		t.Fatalf("expected second lock to fail, got ok=%v err=%v", ok, err)
	}

	ok, err = second.TryLock(ctx, "tx-2")
	if err != nil || !ok {
		t.Fatalf("expected lock on other transaction, got ok=%v err=%v", ok, err)
	}

	if err := first.Unlock(ctx, "tx-1"); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}

	ok, err = second.TryLock(ctx, "tx-1")
	if err != nil || !ok {
		t.Fatalf("expected lock after release, got ok=%v err=%v", ok, err)
	}
}

func TestSettlementLockUnlockKeepsForeignLock(t *testing.T) {
	client, mr := newMiniredisClient(t)

	ctx := context.Background()
	stale := NewSettlementLock(client, time.Second)
	owner := NewSettlementLock(client, time.Minute)

	if ok, err := stale.TryLock(ctx, "tx-1"); err != nil || !ok {
		t.Fatalf("expected lock, got ok=%v err=%v", ok, err)
	}

	mr.FastForward(2 * time.Second)

	if ok, err := owner.TryLock(ctx, "tx-1"); err != nil || !ok {
		t.Fatalf("expected takeover after expiry, got ok=%v err=%v", ok, err)
	}

	if err := stale.Unlock(ctx, "tx-1"); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}

	if !mr.Exists(owner.prefix + "tx-1") {
		t.Fatalf("stale worker must not release the new owner's lock")
	}
}

func TestSettlementLockStoreDown(t *testing.T) {
	client, mr := newMiniredisClient(t)
	lock := NewSettlementLock(client, time.Minute)
	mr.Close()

	if ok, err := lock.TryLock(context.Background(), "tx-1"); err == nil || ok {
		t.Fatalf("expected error while redis is down, got ok=%v err=%v", ok, err)
	}
}
