package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	takeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

	incrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)
)

// RedisOTPStore keeps one-time codes under plain keys with a Redis TTL, so
// every instance sees the same codes.
type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func (r *RedisOTPStore) Put(ctx context.Context, key, code string, ttl time.Duration) error {
	return r.client.Set(ctx, key, code, ttl).Err()
}

func (r *RedisOTPStore) Get(ctx context.Context, key string) (string, bool, error) {
	code, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return code, true, nil
}

func (r *RedisOTPStore) Take(ctx context.Context, key, code string) (bool, error) {
	n, err := takeScript.Run(ctx, r.client, []string{key}, code).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisOTPStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return incrScript.Run(ctx, r.client, []string{key}, ttl.Milliseconds()).Int64()
}

func (r *RedisOTPStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
