package attributes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps one hash per (entity kind, key); fields are "<entityID>:<storeID>".
type RedisStore struct {
	rc *redis.Client
}

func NewRedisStore(rc *redis.Client) *RedisStore {
	return &RedisStore{rc: rc}
}

func (s *RedisStore) hashKey(entityKind, key string) string {
	return fmt.Sprintf("attributes:%s:%s", entityKind, key)
}

func field(entityID int64, storeID int) string {
	return strconv.FormatInt(entityID, 10) + ":" + strconv.Itoa(storeID)
}

func (s *RedisStore) Get(ctx context.Context, entity Entity, key string, storeID int) (string, bool, error) {
	value, err := s.rc.HGet(ctx, s.hashKey(entity.Kind, key), field(entity.ID, storeID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading attribute %s: %w", key, err)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, entity Entity, key, value string, storeID int) error {
	if err := s.rc.HSet(ctx, s.hashKey(entity.Kind, key), field(entity.ID, storeID), value).Err(); err != nil {
		return fmt.Errorf("writing attribute %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) ListByKey(ctx context.Context, key, entityKind string) ([]Attribute, error) {
	all, err := s.rc.HGetAll(ctx, s.hashKey(entityKind, key)).Result()
	if err != nil {
		return nil, fmt.Errorf("listing attribute %s: %w", key, err)
	}

	out := make([]Attribute, 0, len(all))
	for f, value := range all {
		idPart, storePart, found := strings.Cut(f, ":")
		if !found {
			return nil, fmt.Errorf("malformed attribute field %q under %s", f, key)
		}
		entityID, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed attribute field %q under %s: %w", f, key, err)
		}
		storeID, err := strconv.Atoi(storePart)
		if err != nil {
			return nil, fmt.Errorf("malformed attribute field %q under %s: %w", f, key, err)
		}
		out = append(out, Attribute{EntityID: entityID, StoreID: storeID, Value: value})
	}
	sortAttributes(out)
	return out, nil
}
