package service

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/logging"
	"github.com/MindFlowInteractive/quest-social-api/shared/metrics"
)

// SkillMetric is the leaderboard metric used for proximity scoring.
const SkillMetric = "global_score"

// candidateHops is the graph distance of every generated candidate; the
// pool is built from friends-of-friends only.
const candidateHops = 2

const defaultRecommendationLimit = 10

// RecommendationService generates 2-hop candidates and scores them with the
// weighted signal combination.
type RecommendationService struct {
	friendships domain.FriendshipRepository
	leaderboard domain.LeaderboardSource
	signals     domain.SignalSource
	cache       domain.Cache
	logger      *logging.Logger
	metrics     *metrics.Metrics
}

func NewRecommendationService(
	friendships domain.FriendshipRepository,
	leaderboard domain.LeaderboardSource,
	signals domain.SignalSource,
	cache domain.Cache,
	logger *logging.Logger,
	m *metrics.Metrics,
) *RecommendationService {
	return &RecommendationService{
		friendships: friendships,
		leaderboard: leaderboard,
		signals:     signals,
		cache:       cache,
		logger:      logger,
		metrics:     m,
	}
}

// GetRecommendations serves the cached list when one exists and recomputes
// otherwise. The cache is refreshed by the worker whenever the friend graph
// changes, so most reads never touch the graph.
func (s *RecommendationService) GetRecommendations(ctx context.Context, userID domain.UserID, limit int) ([]domain.FriendRecommendation, error) {
	if limit <= 0 {
		limit = defaultRecommendationLimit
	}

	cached, found, err := s.cache.Get(ctx, domain.RecommendationsKey(userID))
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("recommendations cache read failed")
	}
	if found {
		var recommendations []domain.FriendRecommendation
		if err := json.Unmarshal([]byte(cached), &recommendations); err == nil {
			if len(recommendations) > limit {
				recommendations = recommendations[:limit]
			}
			return recommendations, nil
		}
	}

	recommendations, err := s.GenerateRecommendations(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	s.cacheRecommendations(ctx, userID, recommendations)
	return recommendations, nil
}

// WarmRecommendations recomputes and caches the list for one user. Failures
// leave the previous cache entry in place.
func (s *RecommendationService) WarmRecommendations(ctx context.Context, userID domain.UserID) error {
	recommendations, err := s.GenerateRecommendations(ctx, userID, defaultRecommendationLimit)
	if err != nil {
		return err
	}
	s.cacheRecommendations(ctx, userID, recommendations)
	return nil
}

// GenerateRecommendationsBatch computes lists for many users in one call, for
// offline warming jobs. A failure for one user skips that user.
func (s *RecommendationService) GenerateRecommendationsBatch(ctx context.Context, userIDs []domain.UserID, limit int) (map[domain.UserID][]domain.FriendRecommendation, error) {
	result := make(map[domain.UserID][]domain.FriendRecommendation, len(userIDs))
	for _, userID := range userIDs {
		recommendations, err := s.GenerateRecommendations(ctx, userID, limit)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).
				WithField("user_id", userID).
				Warn("recommendation generation failed")
			continue
		}
		result[userID] = recommendations
		s.cacheRecommendations(ctx, userID, recommendations)
	}
	return result, nil
}

func (s *RecommendationService) cacheRecommendations(ctx context.Context, userID domain.UserID, recommendations []domain.FriendRecommendation) {
	payload, err := json.Marshal(recommendations)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, domain.RecommendationsKey(userID), string(payload), domain.RecommendationsCacheTTL); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("recommendations cache write failed")
	}
}

// GenerateRecommendations returns up to limit candidates sorted by composite
// score descending.
func (s *RecommendationService) GenerateRecommendations(ctx context.Context, userID domain.UserID, limit int) ([]domain.FriendRecommendation, error) {
	if limit <= 0 {
		limit = defaultRecommendationLimit
	}

	friendIDs, err := s.friendships.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(friendIDs) == 0 {
		return nil, nil
	}

	directFriends := make(map[domain.UserID]struct{}, len(friendIDs))
	for _, id := range friendIDs {
		directFriends[id] = struct{}{}
	}

	secondHop, err := s.friendships.ListFriendIDsBatch(ctx, friendIDs)
	if err != nil {
		return nil, err
	}

	// Connection count per candidate doubles as the mutual-friend count:
	// each connecting friend is by construction a friend of both sides.
	connections := make(map[domain.UserID]int)
	for _, friendsOfFriend := range secondHop {
		for _, candidate := range friendsOfFriend {
			if candidate == userID {
				continue
			}
			if _, direct := directFriends[candidate]; direct {
				continue
			}
			connections[candidate]++
		}
	}
	if len(connections) == 0 {
		return nil, nil
	}

	userScore := s.lookupScore(ctx, userID)

	recommendations := make([]domain.FriendRecommendation, 0, len(connections))
	for candidate, mutualCount := range connections {
		signals := domain.RecommendationSignals{
			MutualFriendsCount: mutualCount,
			HopCount:           candidateHops,
			SkillProximity:     domain.NeutralSkillProximity,
		}

		if shared, err := s.signals.SharedInterestsCount(ctx, userID, candidate); err == nil {
			signals.SharedInterestsCount = shared
		}
		if recency, err := s.signals.InteractionRecency(ctx, userID, candidate); err == nil {
			signals.InteractionRecency = recency
		}

		if userScore != nil {
			if candidateScore := s.lookupScore(ctx, candidate); candidateScore != nil {
				signals.SkillProximity = domain.SkillProximity(userScore.Score, candidateScore.Score)
			}
		}

		recommendations = append(recommendations, domain.ScoreRecommendation(candidate, signals))
	}

	sort.Slice(recommendations, func(i, j int) bool {
		if recommendations[i].Score != recommendations[j].Score {
			return recommendations[i].Score > recommendations[j].Score
		}
		return recommendations[i].UserID < recommendations[j].UserID
	})

	if len(recommendations) > limit {
		recommendations = recommendations[:limit]
	}

	s.metrics.RecommendationsServed.Inc()
	return recommendations, nil
}

// lookupScore returns nil when the leaderboard has no entry or is degraded;
// scoring then falls back to the neutral proximity.
func (s *RecommendationService) lookupScore(ctx context.Context, userID domain.UserID) *domain.LeaderboardScore {
	score, err := s.leaderboard.GetUserScore(ctx, userID, SkillMetric)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Debug("leaderboard lookup failed")
		return nil
	}
	return score
}
