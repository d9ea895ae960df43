package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/likes-go/internal/likes"
)

// likeScript records +1 for the pair unless the membership field already
// holds a row ID. KEYS: slice hash, membership hash. ARGV: item, pair field,
// row ID, tombstone.
var likeScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[2], ARGV[1])
if current and current ~= ARGV[4] then
	return -1
end
redis.call('HINCRBY', KEYS[1], ARGV[2], 1)
redis.call('HSET', KEYS[2], ARGV[1], ARGV[3])
return 1
`)

// unlikeScript records -1 for the pair unless the membership field is absent
// or a tombstone. KEYS: slice hash, membership hash. ARGV: item, pair field,
// tombstone.
var unlikeScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[2], ARGV[1])
if (not current) or current == ARGV[3] then
	return -1
end
redis.call('HINCRBY', KEYS[1], ARGV[2], -1)
redis.call('HDEL', KEYS[2], ARGV[1])
return 1
`)

const scanCount = 100

// RedisStore keeps the time-sliced event log and the membership hashes in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed fast store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Like(ctx context.Context, slice likes.TimeSlice, pair likes.Pair, rowID string) (likes.ToggleResult, error) {
	keys := []string{slice.Key(), likes.UserLikeKey(pair.UserID)}

	n, err := likeScript.Run(ctx, r.client, keys, pair.ItemID.String(), pair.Field(), rowID, likes.Tombstone).Int()
	if err != nil {
		return likes.Fail, fmt.Errorf("like script: %w", err)
	}

	return likes.ToggleResult(n), nil
}

func (r *RedisStore) Unlike(ctx context.Context, slice likes.TimeSlice, pair likes.Pair) (likes.ToggleResult, error) {
	keys := []string{slice.Key(), likes.UserLikeKey(pair.UserID)}

	n, err := unlikeScript.Run(ctx, r.client, keys, pair.ItemID.String(), pair.Field(), likes.Tombstone).Int()
	if err != nil {
		return likes.Fail, fmt.Errorf("unlike script: %w", err)
	}

	return likes.ToggleResult(n), nil
}

func (r *RedisStore) Drain(ctx context.Context, slice likes.TimeSlice) (map[string]string, error) {
	return r.client.HGetAll(ctx, slice.Key()).Result()
}

func (r *RedisStore) Delete(ctx context.Context, slice likes.TimeSlice) error {
	return r.client.Del(ctx, slice.Key()).Err()
}

func (r *RedisStore) Slices(ctx context.Context) ([]likes.TimeSlice, error) {
	var out []likes.TimeSlice

	iter := r.client.Scan(ctx, 0, likes.TempLikeKeyPrefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		if slice, ok := likes.SliceFromKey(iter.Val()); ok {
			out = append(out, slice)
		}
	}

	if err := iter.Err(); err != nil {
		return nil, err
	}

	// SCAN may return a key more than once.
	slices.Sort(out)

	return slices.Compact(out), nil
}

func (r *RedisStore) HashGet(ctx context.Context, key, field string) (string, bool, error) {
	value, err := r.client.HGet(ctx, key, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, err
	}

	return value, true, nil
}

func (r *RedisStore) SetMembership(ctx context.Context, hashKey, field, value string) error {
	return r.client.HSet(ctx, hashKey, field, value).Err()
}

func (r *RedisStore) FillMembership(ctx context.Context, hashKey, field, value string) (bool, error) {
	return r.client.HSetNX(ctx, hashKey, field, value).Result()
}

// Ping checks connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

var (
	_ likes.EventLog   = (*RedisStore)(nil)
	_ likes.Membership = (*RedisStore)(nil)
)
