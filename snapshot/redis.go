// Package snapshot mirrors the reconciled collections into Redis so other
// processes can read the fleet state without talking to the fleet server.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps client. Keys are namespaced under prefix; a positive
// ttl lets snapshots lapse when the monitor stops writing.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "antmonitor"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) dataKey(kind string) string {
	return fmt.Sprintf("%s:snapshot:%s", r.prefix, kind)
}

func (r *RedisStore) updatedKey(kind string) string {
	return fmt.Sprintf("%s:snapshot:%s:updated", r.prefix, kind)
}

func (r *RedisStore) kindsKey() string {
	return r.prefix + ":snapshots"
}

// Put stores an already encoded snapshot for kind.
func (r *RedisStore) Put(ctx context.Context, kind string, data []byte, at time.Time) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.dataKey(kind), data, r.ttl)
	pipe.Set(ctx, r.updatedKey(kind), at.UTC().Format(time.RFC3339Nano), r.ttl)
	pipe.SAdd(ctx, r.kindsKey(), kind)
	_, err := pipe.Exec(ctx)
	return err
}

// Get decodes the snapshot for kind into out. It reports false when no
// snapshot is stored.
func (r *RedisStore) Get(ctx context.Context, kind string, out any) (bool, time.Time, error) {
	data, err := r.client.Get(ctx, r.dataKey(kind)).Bytes()
	if err == redis.Nil {
		return false, time.Time{}, nil
	}
	if err != nil {
		return false, time.Time{}, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, time.Time{}, err
	}
	var at time.Time
	if s, err := r.client.Get(ctx, r.updatedKey(kind)).Result(); err == nil {
		at, _ = time.Parse(time.RFC3339Nano, s)
	}
	return true, at, nil
}

func (r *RedisStore) Kinds(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, r.kindsKey()).Result()
}

func (r *RedisStore) Remove(ctx context.Context, kind string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.dataKey(kind), r.updatedKey(kind))
	pipe.SRem(ctx, r.kindsKey(), kind)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) FlushAll(ctx context.Context) error {
	kinds, err := r.Kinds(ctx)
	if err != nil {
		return err
	}
	for _, k := range kinds {
		r.Remove(ctx, k)
	}
	return r.client.Del(ctx, r.kindsKey()).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
