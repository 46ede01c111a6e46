package countstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisCountPrefix string = "xposter/count/"

// Buckets older than this are dead weight; two days covers any timezone
// skew around the boundary.
const redisCountTTL = 48 * time.Hour

// RedisCountStore makes the daily accounting survive restarts.
type RedisCountStore struct {
	Client *redis.Client
}

var _ CountStore = (*RedisCountStore)(nil)

func NewRedisCountStore(redisURL string) (*RedisCountStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisCountStore{Client: rdb}, nil
}

func (s *RedisCountStore) GetCount(ctx context.Context, name, day string) (int, error) {
	key := redisCountPrefix + bucketKey(name, day)
	c, err := s.Client.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return c, nil
}

func (s *RedisCountStore) Increment(ctx context.Context, name, day string) error {
	// set the count and its expiry in a single redis round-trip
	multi := s.Client.Pipeline()
	key := redisCountPrefix + bucketKey(name, day)
	multi.Incr(ctx, key)
	multi.Expire(ctx, key, redisCountTTL)
	_, err := multi.Exec(ctx)
	return err
}

// TryReserve increments first and backs out if the result landed over the
// limit. INCR is atomic, so two racing reservations cannot both win the last
// slot.
func (s *RedisCountStore) TryReserve(ctx context.Context, name, day string, limit int) (bool, error) {
	key := redisCountPrefix + bucketKey(name, day)

	multi := s.Client.Pipeline()
	incr := multi.Incr(ctx, key)
	multi.Expire(ctx, key, redisCountTTL)
	if _, err := multi.Exec(ctx); err != nil {
		return false, err
	}

	if incr.Val() > int64(limit) {
		if err := s.Client.Decr(ctx, key).Err(); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *RedisCountStore) Release(ctx context.Context, name, day string) error {
	key := redisCountPrefix + bucketKey(name, day)
	return s.Client.Decr(ctx, key).Err()
}
