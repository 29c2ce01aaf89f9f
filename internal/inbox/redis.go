package inbox

import (
	"context"
	"notification-service/internal/dtos"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

const (
	processedKey = "notifications:processed"
	claimPrefix  = "notifications:claimed:"
)

type RedisInbox struct {
	rc       *redis.Client
	claimTTL time.Duration
}

func NewRedisInbox(rc *redis.Client, claimTTL time.Duration) *RedisInbox {
	return &RedisInbox{
		rc:       rc,
		claimTTL: claimTTL,
	}
}

func (ri *RedisInbox) Claim(ctx context.Context, notificationID string) (bool, error) {
	return ri.rc.SetNX(ctx, claimPrefix+notificationID, time.Now().UTC().Format(time.RFC3339Nano), ri.claimTTL).Result()
}

func (ri *RedisInbox) Release(ctx context.Context, notificationID string) error {
	return ri.rc.Del(ctx, claimPrefix+notificationID).Err()
}

func (ri *RedisInbox) Record(ctx context.Context, e dtos.InboxEntry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return ri.rc.ZAdd(ctx, processedKey, &redis.Z{
		Score:  float64(e.ReceivedAt.UnixMilli()),
		Member: payload,
	}).Err()
}

func (ri *RedisInbox) Summary(ctx context.Context, f dtos.NotificationSummaryFilters) (*dtos.NotificationSummary, error) {
	minScore, maxScore := "-inf", "+inf"
	if !f.From.IsZero() {
		minScore = strconv.FormatInt(f.From.UnixMilli(), 10)
	}
	if !f.To.IsZero() {
		maxScore = strconv.FormatInt(f.To.UnixMilli(), 10)
	}

	summary := dtos.NewNotificationSummary()
	const batchSize = 10000
	var offset int64 = 0

	for {
		members, err := ri.rc.ZRangeByScore(ctx, processedKey, &redis.ZRangeBy{
			Min:    minScore,
			Max:    maxScore,
			Offset: offset,
			Count:  batchSize,
		}).Result()
		if err != nil {
			return nil, err
		}

		for _, member := range members {
			var e dtos.InboxEntry
			if err := json.Unmarshal([]byte(member), &e); err != nil {
				continue
			}
			summary.Add(e)
		}

		offset += int64(len(members))
		if len(members) < batchSize {
			break
		}
	}

	return summary, nil
}

func (ri *RedisInbox) Clear(ctx context.Context) error {
	keys := []string{processedKey}

	iter := ri.rc.Scan(ctx, 0, claimPrefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	return ri.rc.Del(ctx, keys...).Err()
}
