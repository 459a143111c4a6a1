package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Nil is returned by read commands when the key does not exist.
const Nil = redis.Nil

// Z mirrors a sorted set member with its score.
type Z = redis.Z

type RedisConfig struct {
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
}

type Redis struct {
	conn *redis.Client
}

func NewRedis(cfg RedisConfig) (*Redis, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &Redis{conn: conn}, nil
}

// NewRedisWithClient wraps an existing client. Used by tests.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{conn: client}
}

func (r *Redis) HealthCheck(ctx context.Context) error {
	return r.conn.Ping(ctx).Err()
}

func (r *Redis) GetClient() *redis.Client {
	return r.conn
}

func (r *Redis) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// Get retrieves a value by key.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	return r.conn.Get(ctx, key).Result()
}

// Set sets a key-value pair with an expiration. Zero expiration means no TTL.
func (r *Redis) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	return r.conn.Set(ctx, key, value, expiration).Err()
}

// SetNX sets key to value only when the key does not exist yet.
// Returns true when the key was set by this call.
func (r *Redis) SetNX(ctx context.Context, key, value string, expiration time.Duration) (bool, error) {
	return r.conn.SetNX(ctx, key, value, expiration).Result()
}

// Delete removes keys.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	return r.conn.Del(ctx, keys...).Err()
}

// Exists returns how many of the given keys exist.
func (r *Redis) Exists(ctx context.Context, keys ...string) (int64, error) {
	return r.conn.Exists(ctx, keys...).Result()
}

// Expire sets a TTL on an existing key.
func (r *Redis) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return r.conn.Expire(ctx, key, expiration).Err()
}

// SAdd adds members to a set.
func (r *Redis) SAdd(ctx context.Context, key string, members ...interface{}) error {
	return r.conn.SAdd(ctx, key, members...).Err()
}

// SMembers returns all members of a set.
func (r *Redis) SMembers(ctx context.Context, key string) ([]string, error) {
	return r.conn.SMembers(ctx, key).Result()
}

// SIsMember reports whether member belongs to the set at key.
func (r *Redis) SIsMember(ctx context.Context, key string, member interface{}) (bool, error) {
	return r.conn.SIsMember(ctx, key, member).Result()
}

// SRem removes members from a set.
func (r *Redis) SRem(ctx context.Context, key string, members ...interface{}) error {
	return r.conn.SRem(ctx, key, members...).Err()
}

// SCard returns the number of elements in a set.
func (r *Redis) SCard(ctx context.Context, key string) (int64, error) {
	return r.conn.SCard(ctx, key).Result()
}

// ZAdd adds members with scores to a sorted set.
func (r *Redis) ZAdd(ctx context.Context, key string, members ...Z) error {
	return r.conn.ZAdd(ctx, key, members...).Err()
}

// ZRevRangeWithScores returns members ordered by score descending,
// inclusive of both offsets.
func (r *Redis) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]Z, error) {
	return r.conn.ZRevRangeWithScores(ctx, key, start, stop).Result()
}

// ZRevRangeByScoreWithScores returns members with scores in (min, max],
// ordered descending, limited to count entries.
func (r *Redis) ZRevRangeByScoreWithScores(ctx context.Context, key, min, max string, count int64) ([]Z, error) {
	return r.conn.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min:   min,
		Max:   max,
		Count: count,
	}).Result()
}

// ZScore returns the score of member in the sorted set at key.
func (r *Redis) ZScore(ctx context.Context, key, member string) (float64, error) {
	return r.conn.ZScore(ctx, key, member).Result()
}

// ZRevRank returns the descending rank of member in the sorted set at key.
func (r *Redis) ZRevRank(ctx context.Context, key, member string) (int64, error) {
	return r.conn.ZRevRank(ctx, key, member).Result()
}

// ZCard returns the number of members in a sorted set.
func (r *Redis) ZCard(ctx context.Context, key string) (int64, error) {
	return r.conn.ZCard(ctx, key).Result()
}

// ZRem removes members from a sorted set.
func (r *Redis) ZRem(ctx context.Context, key string, members ...interface{}) error {
	return r.conn.ZRem(ctx, key, members...).Err()
}
