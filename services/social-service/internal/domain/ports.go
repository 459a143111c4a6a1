package domain

import (
	"context"
	"time"
)

// FriendRequestRepository persists the request lifecycle. Finders that miss
// return (nil, nil); errors are reserved for infrastructure failures.
type FriendRequestRepository interface {
	Create(ctx context.Context, request *FriendRequest) error
	Update(ctx context.Context, request *FriendRequest) error
	GetByID(ctx context.Context, id string) (*FriendRequest, error)
	FindPendingByPair(ctx context.Context, fromUserID, toUserID UserID) (*FriendRequest, error)
	ListInbound(ctx context.Context, userID UserID, limit, offset int) ([]*FriendRequest, error)
	ListOutbound(ctx context.Context, userID UserID, limit, offset int) ([]*FriendRequest, error)
	CountPendingOutbound(ctx context.Context, userID UserID) (int, error)

	// ExpireStale transitions every pending request past its expiry to the
	// expired state and reports how many rows changed.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)

	// AcceptWithFriendships writes the accepted request(s) and both
	// friendship edges in one transaction.
	AcceptWithFriendships(ctx context.Context, requests []*FriendRequest, edges []*Friendship) error
}

// FriendshipRepository persists the directed edge graph.
type FriendshipRepository interface {
	CreatePair(ctx context.Context, edges []*Friendship) error

	// DeletePair soft-deletes every live edge between the two users in
	// either direction and returns how many edges were removed.
	DeletePair(ctx context.Context, userID, friendID UserID) (int, error)

	IsFriend(ctx context.Context, userID, friendID UserID) (bool, error)
	ListFriends(ctx context.Context, userID UserID, limit, offset int) ([]*Friendship, error)
	ListFriendIDs(ctx context.Context, userID UserID) ([]UserID, error)
	ListFriendIDsBatch(ctx context.Context, userIDs []UserID) (map[UserID][]UserID, error)
	CountMutualFriends(ctx context.Context, userID1, userID2 UserID) (int, error)
	ListMutualFriendIDs(ctx context.Context, userID1, userID2 UserID, limit int) ([]UserID, error)
}

// PrivacySettingsRepository stores one row per user.
type PrivacySettingsRepository interface {
	// Get returns ErrPrivacySettingsNotFound when the user has no row yet.
	Get(ctx context.Context, userID UserID) (*PrivacySettings, error)
	Upsert(ctx context.Context, settings *PrivacySettings) error
}

// ActivityEventRepository is the authoritative store for recorded activity.
type ActivityEventRepository interface {
	Create(ctx context.Context, event *ActivityEvent) error
	GetByID(ctx context.Context, id string) (*ActivityEvent, error)
	SoftDelete(ctx context.Context, id string, actorUserID UserID) error
	ListByIDs(ctx context.Context, ids []string) ([]*ActivityEvent, error)
	ListByActor(ctx context.Context, actorUserID UserID, limit, offset int) ([]*ActivityEvent, error)
	ListRecentByActors(ctx context.Context, actorIDs []UserID, limit int) ([]*ActivityEvent, error)
	CountByActor(ctx context.Context, actorUserID UserID) (int, error)
}

// BlockRepository stores user blocks consulted before friend requests.
type BlockRepository interface {
	Create(ctx context.Context, block *UserBlock) error
	Delete(ctx context.Context, blockerID, blockedID UserID) error
	IsBlocked(ctx context.Context, blockerID, blockedID UserID) (bool, error)
}

// ScoredMember is one sorted-set entry.
type ScoredMember struct {
	Member string
	Score  float64
}

// Cache is the key/value, set, and sorted-set surface the services run on.
// It is an optimization layer; every read path has a durable fallback.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// SetIfAbsent returns true when this call created the key.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	AddToSet(ctx context.Context, key string, members []string, ttl time.Duration) error
	SetMembers(ctx context.Context, key string) ([]string, error)
	IsSetMember(ctx context.Context, key, member string) (bool, error)
	RemoveFromSet(ctx context.Context, key string, members ...string) error

	AddToSortedSet(ctx context.Context, key string, entries []ScoredMember, ttl time.Duration) error
	RevRangeSorted(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)
	RevRangeByScore(ctx context.Context, key string, maxExclusive float64, count int64) ([]ScoredMember, error)
	SortedSetSize(ctx context.Context, key string) (int64, error)
	// SortedSetRevRank reports false when the member is not in the set.
	SortedSetRevRank(ctx context.Context, key, member string) (int64, bool, error)
}

// EventPublisher puts domain events on the bus for asynchronous handling.
type EventPublisher interface {
	Publish(ctx context.Context, event *DomainEvent) error
}

// UserProfile is the projection returned by the user directory.
type UserProfile struct {
	ID          UserID `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// UserDirectory is the external user-profile lookup collaborator.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id UserID) (*UserProfile, error)
	CheckUserExists(ctx context.Context, id UserID) (bool, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]*UserProfile, error)
}

// Notifier is the delivery hook for social notifications. Delivery mechanics
// live outside this service; handlers treat failures as best effort.
type Notifier interface {
	FriendRequestReceived(ctx context.Context, toUserID, fromUserID UserID) error
	FriendRequestAccepted(ctx context.Context, fromUserID, toUserID UserID) error
}

// LeaderboardScore is one leaderboard entry.
type LeaderboardScore struct {
	UserID UserID  `json:"user_id"`
	Score  float64 `json:"score"`
	Rank   int64   `json:"rank"`
}

// LeaderboardSource is the external score lookup collaborator. A nil score
// with nil error means the user has no entry for the metric.
type LeaderboardSource interface {
	GetUserScore(ctx context.Context, userID UserID, metric string) (*LeaderboardScore, error)
	GetTopScores(ctx context.Context, metric string, limit int) ([]*LeaderboardScore, error)
}

// SignalSource supplies the soft recommendation signals whose upstream data
// sources are pluggable. Implementations without data return neutral zeros.
type SignalSource interface {
	SharedInterestsCount(ctx context.Context, userID, candidateID UserID) (int, error)
	InteractionRecency(ctx context.Context, userID, candidateID UserID) (float64, error)
}
