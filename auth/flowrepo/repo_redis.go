package flowrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	errs "github.com/acheron-labs/voidmarket/internal/errors"
)

const redisKeyPrefix = "voidmarket:pending:"

// RedisRepo stores pending logins in Redis with a TTL, so abandoned login
// attempts expire on their own.
type RedisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepo(client *redis.Client, ttl time.Duration) *RedisRepo {
	return &RedisRepo{client: client, ttl: ttl}
}

func (r *RedisRepo) Upsert(sessionID string, pending *PendingLogin) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}
	if pending == nil {
		return errors.New("pending cannot be nil")
	}

	data, err := json.Marshal(pending)
	if err != nil {
		return errs.Wrapf(err, "marshal pending login")
	}

	ctx, cancel := r.opContext()
	defer cancel()
	if err := r.client.Set(ctx, redisKeyPrefix+sessionID, data, r.ttl).Err(); err != nil {
		return errs.Wrapf(err, "redis set")
	}
	return nil
}

// Consume uses GETDEL so read-once holds even with concurrent callers.
func (r *RedisRepo) Consume(sessionID string) (*PendingLogin, error) {
	if sessionID == "" {
		return nil, errors.New("sessionID cannot be empty")
	}

	ctx, cancel := r.opContext()
	defer cancel()
	data, err := r.client.GetDel(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errs.ErrNoPendingLogin
	}
	if err != nil {
		return nil, errs.Wrapf(err, "redis getdel")
	}

	var pending PendingLogin
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, errs.Wrapf(err, "unmarshal pending login")
	}
	return &pending, nil
}

func (r *RedisRepo) Delete(sessionID string) error {
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
