package redis

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// unlockScript deletes the lock only while it still carries our token, so
// a worker whose lock expired cannot release a lock taken over by another.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SettlementLock implements usecase.SettlementGuard with one Redis key per
// transaction.
type SettlementLock struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	token  string
}

// NewSettlementLock creates a lock whose keys expire after ttl.
func NewSettlementLock(client redis.UniversalClient, ttl time.Duration) *SettlementLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SettlementLock{
		client: client,
		prefix: "settlement:lock:",
		ttl:    ttl,
		token:  ulid.Make().String(),
	}
}

// TryLock returns false when another worker holds the lock.
func (l *SettlementLock) TryLock(ctx context.Context, transactionID string) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+transactionID, l.token, l.ttl).Result()
}

// Unlock releases the lock if this worker still owns it.
func (l *SettlementLock) Unlock(ctx context.Context, transactionID string) error {
	return unlockScript.Run(ctx, l.client, []string{l.prefix + transactionID}, l.token).Err()
}
