package test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/logging"
	"github.com/MindFlowInteractive/quest-social-api/shared/metrics"
)

// Shared across all suites; prometheus collectors register once per binary.
var (
	testLogger  = logging.NewLogger(logging.DefaultConfig("social-service-test"))
	testMetrics = metrics.NewMetrics("test", "social_service")
)

// stubLimiter is a rate limiter with a fixed answer.
type stubLimiter struct {
	allow bool
}

func (s stubLimiter) Allow(userID, operation string) bool {
	return s.allow
}

// MockFriendRequestRepository is a mock implementation of FriendRequestRepository
type MockFriendRequestRepository struct {
	mock.Mock
}

func (m *MockFriendRequestRepository) Create(ctx context.Context, request *domain.FriendRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockFriendRequestRepository) Update(ctx context.Context, request *domain.FriendRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockFriendRequestRepository) GetByID(ctx context.Context, id string) (*domain.FriendRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FriendRequest), args.Error(1)
}

func (m *MockFriendRequestRepository) FindPendingByPair(ctx context.Context, fromUserID, toUserID domain.UserID) (*domain.FriendRequest, error) {
	args := m.Called(ctx, fromUserID, toUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FriendRequest), args.Error(1)
}

func (m *MockFriendRequestRepository) ListInbound(ctx context.Context, userID domain.UserID, limit, offset int) ([]*domain.FriendRequest, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FriendRequest), args.Error(1)
}

func (m *MockFriendRequestRepository) ListOutbound(ctx context.Context, userID domain.UserID, limit, offset int) ([]*domain.FriendRequest, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FriendRequest), args.Error(1)
}

func (m *MockFriendRequestRepository) CountPendingOutbound(ctx context.Context, userID domain.UserID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockFriendRequestRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFriendRequestRepository) AcceptWithFriendships(ctx context.Context, requests []*domain.FriendRequest, edges []*domain.Friendship) error {
	args := m.Called(ctx, requests, edges)
	return args.Error(0)
}

// MockFriendshipRepository is a mock implementation of FriendshipRepository
type MockFriendshipRepository struct {
	mock.Mock
}

func (m *MockFriendshipRepository) CreatePair(ctx context.Context, edges []*domain.Friendship) error {
	args := m.Called(ctx, edges)
	return args.Error(0)
}

func (m *MockFriendshipRepository) DeletePair(ctx context.Context, userID, friendID domain.UserID) (int, error) {
	args := m.Called(ctx, userID, friendID)
	return args.Int(0), args.Error(1)
}

func (m *MockFriendshipRepository) IsFriend(ctx context.Context, userID, friendID domain.UserID) (bool, error) {
	args := m.Called(ctx, userID, friendID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFriendshipRepository) ListFriends(ctx context.Context, userID domain.UserID, limit, offset int) ([]*domain.Friendship, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Friendship), args.Error(1)
}

func (m *MockFriendshipRepository) ListFriendIDs(ctx context.Context, userID domain.UserID) ([]domain.UserID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserID), args.Error(1)
}

func (m *MockFriendshipRepository) ListFriendIDsBatch(ctx context.Context, userIDs []domain.UserID) (map[domain.UserID][]domain.UserID, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.UserID][]domain.UserID), args.Error(1)
}

func (m *MockFriendshipRepository) CountMutualFriends(ctx context.Context, userID1, userID2 domain.UserID) (int, error) {
	args := m.Called(ctx, userID1, userID2)
	return args.Int(0), args.Error(1)
}

func (m *MockFriendshipRepository) ListMutualFriendIDs(ctx context.Context, userID1, userID2 domain.UserID, limit int) ([]domain.UserID, error) {
	args := m.Called(ctx, userID1, userID2, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserID), args.Error(1)
}

// MockPrivacySettingsRepository is a mock implementation of PrivacySettingsRepository
type MockPrivacySettingsRepository struct {
	mock.Mock
}

func (m *MockPrivacySettingsRepository) Get(ctx context.Context, userID domain.UserID) (*domain.PrivacySettings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PrivacySettings), args.Error(1)
}

func (m *MockPrivacySettingsRepository) Upsert(ctx context.Context, settings *domain.PrivacySettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockActivityEventRepository is a mock implementation of ActivityEventRepository
type MockActivityEventRepository struct {
	mock.Mock
}

func (m *MockActivityEventRepository) Create(ctx context.Context, event *domain.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockActivityEventRepository) GetByID(ctx context.Context, id string) (*domain.ActivityEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ActivityEvent), args.Error(1)
}

func (m *MockActivityEventRepository) SoftDelete(ctx context.Context, id string, actorUserID domain.UserID) error {
	args := m.Called(ctx, id, actorUserID)
	return args.Error(0)
}

func (m *MockActivityEventRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.ActivityEvent, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ActivityEvent), args.Error(1)
}

func (m *MockActivityEventRepository) ListByActor(ctx context.Context, actorUserID domain.UserID, limit, offset int) ([]*domain.ActivityEvent, error) {
	args := m.Called(ctx, actorUserID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ActivityEvent), args.Error(1)
}

func (m *MockActivityEventRepository) ListRecentByActors(ctx context.Context, actorIDs []domain.UserID, limit int) ([]*domain.ActivityEvent, error) {
	args := m.Called(ctx, actorIDs, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ActivityEvent), args.Error(1)
}

func (m *MockActivityEventRepository) CountByActor(ctx context.Context, actorUserID domain.UserID) (int, error) {
	args := m.Called(ctx, actorUserID)
	return args.Int(0), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) FriendRequestReceived(ctx context.Context, toUserID, fromUserID domain.UserID) error {
	args := m.Called(ctx, toUserID, fromUserID)
	return args.Error(0)
}

func (m *MockNotifier) FriendRequestAccepted(ctx context.Context, fromUserID, toUserID domain.UserID) error {
	args := m.Called(ctx, fromUserID, toUserID)
	return args.Error(0)
}

// MockBlockRepository is a mock implementation of BlockRepository
type MockBlockRepository struct {
	mock.Mock
}

func (m *MockBlockRepository) Create(ctx context.Context, block *domain.UserBlock) error {
	args := m.Called(ctx, block)
	return args.Error(0)
}

func (m *MockBlockRepository) Delete(ctx context.Context, blockerID, blockedID domain.UserID) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *MockBlockRepository) IsBlocked(ctx context.Context, blockerID, blockedID domain.UserID) (bool, error) {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Bool(0), args.Error(1)
}

// MockCache is a mock implementation of the cache port
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCache) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) AddToSet(ctx context.Context, key string, members []string, ttl time.Duration) error {
	args := m.Called(ctx, key, members, ttl)
	return args.Error(0)
}

func (m *MockCache) SetMembers(ctx context.Context, key string) ([]string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCache) IsSetMember(ctx context.Context, key, member string) (bool, error) {
	args := m.Called(ctx, key, member)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) RemoveFromSet(ctx context.Context, key string, members ...string) error {
	args := m.Called(ctx, key, members)
	return args.Error(0)
}

func (m *MockCache) AddToSortedSet(ctx context.Context, key string, entries []domain.ScoredMember, ttl time.Duration) error {
	args := m.Called(ctx, key, entries, ttl)
	return args.Error(0)
}

func (m *MockCache) RevRangeSorted(ctx context.Context, key string, start, stop int64) ([]domain.ScoredMember, error) {
	args := m.Called(ctx, key, start, stop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredMember), args.Error(1)
}

func (m *MockCache) RevRangeByScore(ctx context.Context, key string, maxExclusive float64, count int64) ([]domain.ScoredMember, error) {
	args := m.Called(ctx, key, maxExclusive, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredMember), args.Error(1)
}

func (m *MockCache) SortedSetSize(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCache) SortedSetRevRank(ctx context.Context, key, member string) (int64, bool, error) {
	args := m.Called(ctx, key, member)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *domain.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockUserDirectory is a mock implementation of UserDirectory
type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) GetUserByID(ctx context.Context, id domain.UserID) (*domain.UserProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *MockUserDirectory) CheckUserExists(ctx context.Context, id domain.UserID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserDirectory) SearchUsers(ctx context.Context, query string, limit int) ([]*domain.UserProfile, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.UserProfile), args.Error(1)
}

// MockLeaderboardSource is a mock implementation of LeaderboardSource
type MockLeaderboardSource struct {
	mock.Mock
}

func (m *MockLeaderboardSource) GetUserScore(ctx context.Context, userID domain.UserID, metric string) (*domain.LeaderboardScore, error) {
	args := m.Called(ctx, userID, metric)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeaderboardScore), args.Error(1)
}

func (m *MockLeaderboardSource) GetTopScores(ctx context.Context, metric string, limit int) ([]*domain.LeaderboardScore, error) {
	args := m.Called(ctx, metric, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LeaderboardScore), args.Error(1)
}

// MockSignalSource is a mock implementation of SignalSource
type MockSignalSource struct {
	mock.Mock
}

func (m *MockSignalSource) SharedInterestsCount(ctx context.Context, userID, candidateID domain.UserID) (int, error) {
	args := m.Called(ctx, userID, candidateID)
	return args.Int(0), args.Error(1)
}

func (m *MockSignalSource) InteractionRecency(ctx context.Context, userID, candidateID domain.UserID) (float64, error) {
	args := m.Called(ctx, userID, candidateID)
	return args.Get(0).(float64), args.Error(1)
}
