package leaderboard

import (
	"context"
	"errors"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/redis"
	"github.com/MindFlowInteractive/quest-social-api/shared/resilience"
)

// RedisLeaderboard reads the platform's leaderboard sorted sets. Calls run
// behind a circuit breaker so a degraded leaderboard cannot stall
// recommendation scoring.
type RedisLeaderboard struct {
	redis   *redis.Redis
	breaker *resilience.CircuitBreaker
}

func NewRedisLeaderboard(r *redis.Redis, breaker *resilience.CircuitBreaker) domain.LeaderboardSource {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("leaderboard"))
	}
	return &RedisLeaderboard{redis: r, breaker: breaker}
}

func metricKey(metric string) string {
	return "leaderboard:" + metric
}

func (l *RedisLeaderboard) GetUserScore(ctx context.Context, userID domain.UserID, metric string) (*domain.LeaderboardScore, error) {
	var entry *domain.LeaderboardScore

	err := l.breaker.Execute(ctx, func(ctx context.Context) error {
		key := metricKey(metric)

		score, err := l.redis.ZScore(ctx, key, userID)
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		rank, err := l.redis.ZRevRank(ctx, key, userID)
		if errors.Is(err, redis.Nil) {
			rank = -1
			err = nil
		}
		if err != nil {
			return err
		}

		entry = &domain.LeaderboardScore{UserID: userID, Score: score, Rank: rank + 1}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (l *RedisLeaderboard) GetTopScores(ctx context.Context, metric string, limit int) ([]*domain.LeaderboardScore, error) {
	var entries []*domain.LeaderboardScore

	err := l.breaker.Execute(ctx, func(ctx context.Context) error {
		zs, err := l.redis.ZRevRangeWithScores(ctx, metricKey(metric), 0, int64(limit-1))
		if err != nil {
			return err
		}

		entries = make([]*domain.LeaderboardScore, 0, len(zs))
		for i, z := range zs {
			member, ok := z.Member.(string)
			if !ok {
				continue
			}
			entries = append(entries, &domain.LeaderboardScore{
				UserID: member,
				Score:  z.Score,
				Rank:   int64(i + 1),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
