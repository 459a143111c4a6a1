package service

import (
	"context"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/logging"
	"github.com/MindFlowInteractive/quest-social-api/shared/metrics"
)

// FriendshipService owns the friendship graph: edge removal, paginated and
// cached friend reads, and mutual-friend queries.
type FriendshipService struct {
	friendships domain.FriendshipRepository
	cache       domain.Cache
	publisher   domain.EventPublisher
	logger      *logging.Logger
	metrics     *metrics.Metrics
}

func NewFriendshipService(
	friendships domain.FriendshipRepository,
	cache domain.Cache,
	publisher domain.EventPublisher,
	logger *logging.Logger,
	m *metrics.Metrics,
) *FriendshipService {
	return &FriendshipService{
		friendships: friendships,
		cache:       cache,
		publisher:   publisher,
		logger:      logger,
		metrics:     m,
	}
}

// RemoveFriend soft-deletes every edge between the two users. At least one
// direction must exist.
func (s *FriendshipService) RemoveFriend(ctx context.Context, userID, friendID domain.UserID) error {
	if userID == friendID {
		return domain.NewInvalidInputError("friend_id", "cannot unfriend self")
	}

	removed, err := s.friendships.DeletePair(ctx, userID, friendID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return domain.ErrFriendshipNotFound
	}

	s.metrics.FriendshipsRemoved.Inc()
	s.logger.WithContext(ctx).
		WithFields(map[string]interface{}{"user_id": userID, "friend_id": friendID}).
		Info("friendship removed")

	if err := s.publisher.Publish(ctx, domain.NewFriendRemovedEvent(userID, friendID)); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("failed to publish friend removed event")
	} else {
		s.metrics.EventsPublished.WithLabelValues(domain.EventFriendRemoved).Inc()
	}

	return nil
}

// GetFriends returns a page of the user's outbound edges.
func (s *FriendshipService) GetFriends(ctx context.Context, userID domain.UserID, limit, offset int) ([]*domain.Friendship, error) {
	return s.friendships.ListFriends(ctx, userID, limit, offset)
}

// GetFriendCount reports the size of the user's friend set.
func (s *FriendshipService) GetFriendCount(ctx context.Context, userID domain.UserID) (int, error) {
	ids, err := s.GetFriendSet(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// IsFriend answers a single membership question through the cached friend
// set, falling back to the store when the cache is unavailable.
func (s *FriendshipService) IsFriend(ctx context.Context, userID, friendID domain.UserID) (bool, error) {
	friendSet, err := s.GetFriendSet(ctx, userID)
	if err != nil {
		return s.friendships.IsFriend(ctx, userID, friendID)
	}
	for _, id := range friendSet {
		if id == friendID {
			return true, nil
		}
	}
	return false, nil
}

// GetFriendSet returns the user's friend IDs, repopulating the cached
// membership set on miss.
func (s *FriendshipService) GetFriendSet(ctx context.Context, userID domain.UserID) ([]domain.UserID, error) {
	key := domain.FriendSetKey(userID)

	members, err := s.cache.SetMembers(ctx, key)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("friend set cache read failed")
	} else if len(members) > 0 {
		s.metrics.CacheHits.WithLabelValues("friend_set").Inc()
		return members, nil
	}
	s.metrics.CacheMisses.WithLabelValues("friend_set").Inc()

	ids, err := s.friendships.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		if err := s.cache.AddToSet(ctx, key, ids, domain.FriendSetCacheTTL); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("friend set cache write failed")
		}
	}

	return ids, nil
}

// CheckFriendshipsBatch amortizes one friend-set read across all candidates.
func (s *FriendshipService) CheckFriendshipsBatch(ctx context.Context, userID domain.UserID, candidateIDs []domain.UserID) (map[domain.UserID]bool, error) {
	friendSet, err := s.GetFriendSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	members := make(map[domain.UserID]struct{}, len(friendSet))
	for _, id := range friendSet {
		members[id] = struct{}{}
	}

	result := make(map[domain.UserID]bool, len(candidateIDs))
	for _, candidate := range candidateIDs {
		_, ok := members[candidate]
		result[candidate] = ok
	}
	return result, nil
}

// GetMutualFriendsCount counts the graph intersection in the store.
func (s *FriendshipService) GetMutualFriendsCount(ctx context.Context, userID1, userID2 domain.UserID) (int, error) {
	return s.friendships.CountMutualFriends(ctx, userID1, userID2)
}

// GetMutualFriendsIDs lists the intersection, capped at limit.
func (s *FriendshipService) GetMutualFriendsIDs(ctx context.Context, userID1, userID2 domain.UserID, limit int) ([]domain.UserID, error) {
	return s.friendships.ListMutualFriendIDs(ctx, userID1, userID2, limit)
}
