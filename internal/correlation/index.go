package correlation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-redis/redis/v8"
)

// RefundIndex maps refund ids to the order that issued them. When several
// orders carry the same refund id, Put keeps the lowest order id so the index
// agrees with the ascending record scan.
type RefundIndex interface {
	Get(ctx context.Context, refundID string) (orderID int64, ok bool, err error)
	Put(ctx context.Context, refundID string, orderID int64) error
}

type MemoryRefundIndex struct {
	mu      sync.RWMutex
	entries map[string]int64
}

func NewMemoryRefundIndex() *MemoryRefundIndex {
	return &MemoryRefundIndex{entries: make(map[string]int64)}
}

func (m *MemoryRefundIndex) Get(_ context.Context, refundID string) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.entries[refundID]
	return id, ok, nil
}

func (m *MemoryRefundIndex) Put(_ context.Context, refundID string, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.entries[refundID]; ok && current <= orderID {
		return nil
	}
	m.entries[refundID] = orderID
	return nil
}

var putLowestScript = redis.NewScript(`
local current = redis.call("HGET", KEYS[1], ARGV[1])
if current == false or tonumber(ARGV[2]) < tonumber(current) then
	redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
	return 1
end
return 0`)

// RedisRefundIndex keeps the index in a single hash.
type RedisRefundIndex struct {
	rc  *redis.Client
	key string
}

func NewRedisRefundIndex(rc *redis.Client, systemName string) *RedisRefundIndex {
	return &RedisRefundIndex{rc: rc, key: "refunds:" + systemName}
}

func (r *RedisRefundIndex) Get(ctx context.Context, refundID string) (int64, bool, error) {
	v, err := r.rc.HGet(ctx, r.key, refundID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading refund index: %w", err)
	}
	orderID, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("malformed refund index entry %s: %w", refundID, err)
	}
	return orderID, true, nil
}

func (r *RedisRefundIndex) Put(ctx context.Context, refundID string, orderID int64) error {
	err := putLowestScript.Run(ctx, r.rc, []string{r.key}, refundID, orderID).Err()
	if err != nil {
		return fmt.Errorf("writing refund index: %w", err)
	}
	return nil
}
