package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sundayezeilo/wxcounter/internal/config"
)

var _ Store = (*Redis)(nil)

// Redis keeps one list element per record under a single key. RPUSH, LLEN
// and DEL are each atomic on the server.
type Redis struct {
	client  *redis.Client
	key     string
	stamper stamper
}

// NewRedis wraps client; records live under key.
func NewRedis(client *redis.Client, key string) *Redis {
	return &Redis{client: client, key: key, stamper: defaultStamper()}
}

// OpenRedis dials the configured server and pings it.
func OpenRedis(ctx context.Context, c config.RedisConfig) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", c.Addr, err)
	}

	return NewRedis(client, c.Key), nil
}

// EnsureSchema only checks reachability; lists need no declaration.
func (r *Redis) EnsureSchema(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return mapError("store.redis.EnsureSchema", err, nil)
	}
	return nil
}

func (r *Redis) Append(ctx context.Context) error {
	const op = "store.redis.Append"

	rec, err := r.stamper.stamp()
	if err != nil {
		return mapError(op, err, func(error) bool { return true })
	}
	// v7 ids embed the creation time, so the element alone is the audit entry
	if err := r.client.RPush(ctx, r.key, rec.ID.String()).Err(); err != nil {
		return mapError(op, err, isRedisRejection)
	}
	return nil
}

func (r *Redis) Count(ctx context.Context) (int64, error) {
	n, err := r.client.LLen(ctx, r.key).Result()
	if err != nil {
		return 0, mapError("store.redis.Count", err, isRedisRejection)
	}
	return n, nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return mapError("store.redis.Clear", err, isRedisRejection)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// isRedisRejection matches replies the server sent back as errors, such as
// WRONGTYPE when the key holds something other than a list.
func isRedisRejection(err error) bool {
	var rErr redis.Error
	return errors.As(err, &rErr)
}
