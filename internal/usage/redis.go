package usage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"ask-api/internal/shared"

	"github.com/redis/go-redis/v9"
)

const (
	fieldLastRequestDate = "lastRequestDate"
	fieldRequestCount    = "requestCount"
)

var errDateChanged = errors.New("last request date changed")

// RedisStore keeps each record in a hash at usage:{userID}
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "usage:"}
}

func (r *RedisStore) key(userID string) string {
	return r.prefix + userID
}

func (r *RedisStore) Get(ctx context.Context, userID string) (*shared.UsageRecord, error) {
	vals, err := r.client.HGetAll(ctx, r.key(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil
	}
	rec := &shared.UsageRecord{UserID: userID, LastRequestDate: vals[fieldLastRequestDate]}
	if raw, ok := vals[fieldRequestCount]; ok {
		rec.RequestCount, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s for %s: %w", fieldRequestCount, userID, err)
		}
	}
	return rec, nil
}

func (r *RedisStore) Set(ctx context.Context, rec shared.UsageRecord) error {
	return r.client.HSet(ctx, r.key(rec.UserID),
		fieldLastRequestDate, rec.LastRequestDate,
		fieldRequestCount, rec.RequestCount,
	).Err()
}

func (r *RedisStore) Increment(ctx context.Context, userID string, delta int64) error {
	key := r.key(userID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrRecordNotFound
	}
	return r.client.HIncrBy(ctx, key, fieldRequestCount, delta).Err()
}

func (r *RedisStore) SetIfDate(ctx context.Context, rec shared.UsageRecord, expectedDate string) (bool, error) {
	key := r.key(rec.UserID)
	txf := func(tx *redis.Tx) error {
		cur, err := tx.HGet(ctx, key, fieldLastRequestDate).Result()
		if err == redis.Nil {
			cur = ""
		} else if err != nil {
			return err
		}
		if cur != expectedDate {
			return errDateChanged
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldLastRequestDate, rec.LastRequestDate,
				fieldRequestCount, rec.RequestCount,
			)
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, txf, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errDateChanged), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, err
	}
}
