package sessionrepo

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	errs "github.com/acheron-labs/voidmarket/internal/errors"
)

const redisKeyPrefix = "voidmarket:token:"

// RedisRepo stores session tokens in Redis with a TTL matching the expected
// access-token lifetime. Expiry is not tracked client-side beyond that; a
// stale token simply starts drawing 401s from the resource server.
type RedisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepo(client *redis.Client, ttl time.Duration) *RedisRepo {
	return &RedisRepo{client: client, ttl: ttl}
}

func (r *RedisRepo) Set(sessionID, accessToken string) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}
	if accessToken == "" {
		return errors.New("accessToken cannot be empty")
	}

	ctx, cancel := r.opContext()
	defer cancel()
	if err := r.client.Set(ctx, redisKeyPrefix+sessionID, accessToken, r.ttl).Err(); err != nil {
		return errs.Wrapf(err, "redis set")
	}
	return nil
}

func (r *RedisRepo) Get(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("sessionID cannot be empty")
	}

	ctx, cancel := r.opContext()
	defer cancel()
	token, err := r.client.Get(ctx, redisKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", errs.ErrNoSession
	}
	if err != nil {
		return "", errs.Wrapf(err, "redis get")
	}
	return token, nil
}

func (r *RedisRepo) Clear(sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}

	ctx, cancel := r.opContext()
	defer cancel()
	if err := r.client.Del(ctx, redisKeyPrefix+sessionID).Err(); err != nil {
		return errs.Wrapf(err, "redis del")
	}
	return nil
}

func (r *RedisRepo) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
