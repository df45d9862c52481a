package api

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard/domain"
)

const createKeyPrefix = "taskboard:create"

// RedisDeduper claims the Idempotency-Key of a task creation request per
// target column. A claim lives for ttl; the stored value is the claim time.
type RedisDeduper struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisDeduper(client redis.Cmdable, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

// createKey is taskboard:create:<column>:<idempotency key>.
func createKey(column domain.ColumnID, key string) string {
	return createKeyPrefix + ":" + string(column) + ":" + key
}

func (r *RedisDeduper) Claim(ctx context.Context, column domain.ColumnID, key string) (bool, error) {
	claimedAt := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return r.client.SetNX(ctx, createKey(column, key), claimedAt, r.ttl).Result()
}

func (r *RedisDeduper) Release(ctx context.Context, column domain.ColumnID, key string) error {
	return r.client.Del(ctx, createKey(column, key)).Err()
}
