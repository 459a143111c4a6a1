package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/redis"
)

// RedisCache adapts the shared Redis wrapper to the domain cache port.
type RedisCache struct {
	redis *redis.Redis
}

func NewRedisCache(r *redis.Redis) domain.Cache {
	return &RedisCache{redis: r}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.redis.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.redis.Set(ctx, key, value, ttl)
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Delete(ctx, keys...)
}

func (c *RedisCache) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.redis.SetNX(ctx, key, value, ttl)
}

func (c *RedisCache) AddToSet(ctx context.Context, key string, members []string, ttl time.Duration) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := c.redis.SAdd(ctx, key, args...); err != nil {
		return err
	}
	if ttl > 0 {
		return c.redis.Expire(ctx, key, ttl)
	}
	return nil
}

func (c *RedisCache) SetMembers(ctx context.Context, key string) ([]string, error) {
	return c.redis.SMembers(ctx, key)
}

func (c *RedisCache) IsSetMember(ctx context.Context, key, member string) (bool, error) {
	return c.redis.SIsMember(ctx, key, member)
}

func (c *RedisCache) RemoveFromSet(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return c.redis.SRem(ctx, key, args...)
}

func (c *RedisCache) AddToSortedSet(ctx context.Context, key string, entries []domain.ScoredMember, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}
	zs := make([]redis.Z, len(entries))
	for i, e := range entries {
		zs[i] = redis.Z{Score: e.Score, Member: e.Member}
	}
	if err := c.redis.ZAdd(ctx, key, zs...); err != nil {
		return err
	}
	if ttl > 0 {
		return c.redis.Expire(ctx, key, ttl)
	}
	return nil
}

func (c *RedisCache) RevRangeSorted(ctx context.Context, key string, start, stop int64) ([]domain.ScoredMember, error) {
	zs, err := c.redis.ZRevRangeWithScores(ctx, key, start, stop)
	if err != nil {
		return nil, err
	}
	return toScoredMembers(zs), nil
}

// RevRangeByScore returns entries strictly below maxExclusive, highest first.
func (c *RedisCache) RevRangeByScore(ctx context.Context, key string, maxExclusive float64, count int64) ([]domain.ScoredMember, error) {
	max := "(" + strconv.FormatFloat(maxExclusive, 'f', -1, 64)
	zs, err := c.redis.ZRevRangeByScoreWithScores(ctx, key, "-inf", max, count)
	if err != nil {
		return nil, err
	}
	return toScoredMembers(zs), nil
}

func (c *RedisCache) SortedSetSize(ctx context.Context, key string) (int64, error) {
	return c.redis.ZCard(ctx, key)
}

// SortedSetRevRank returns the descending rank of member, reporting false
// when the member is not in the set.
func (c *RedisCache) SortedSetRevRank(ctx context.Context, key, member string) (int64, bool, error) {
	rank, err := c.redis.ZRevRank(ctx, key, member)
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rank, true, nil
}

func toScoredMembers(zs []redis.Z) []domain.ScoredMember {
	members := make([]domain.ScoredMember, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		members = append(members, domain.ScoredMember{Member: member, Score: z.Score})
	}
	return members
}
