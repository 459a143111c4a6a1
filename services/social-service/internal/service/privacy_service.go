package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/logging"
	"github.com/MindFlowInteractive/quest-social-api/shared/metrics"
)

// VisibilityAxis selects which privacy setting gates a check.
type VisibilityAxis int

const (
	AxisProfile VisibilityAxis = iota
	AxisActivity
	AxisLeaderboard
)

// PrivacyService resolves visibility for the three axes. Only the owner's
// settings gate a check; the viewer's own settings never restrict what the
// viewer may see.
type PrivacyService struct {
	settings    domain.PrivacySettingsRepository
	friendships domain.FriendshipRepository
	cache       domain.Cache
	logger      *logging.Logger
	metrics     *metrics.Metrics
}

func NewPrivacyService(
	settings domain.PrivacySettingsRepository,
	friendships domain.FriendshipRepository,
	cache domain.Cache,
	logger *logging.Logger,
	m *metrics.Metrics,
) *PrivacyService {
	return &PrivacyService{
		settings:    settings,
		friendships: friendships,
		cache:       cache,
		logger:      logger,
		metrics:     m,
	}
}

// GetSettings returns the user's settings, creating the default row lazily
// on first access.
func (s *PrivacyService) GetSettings(ctx context.Context, userID domain.UserID) (*domain.PrivacySettings, error) {
	key := domain.PrivacyKey(userID)

	cached, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("privacy cache read failed")
	} else if found {
		var settings domain.PrivacySettings
		if err := json.Unmarshal([]byte(cached), &settings); err == nil {
			s.metrics.CacheHits.WithLabelValues("privacy").Inc()
			return &settings, nil
		}
	}
	s.metrics.CacheMisses.WithLabelValues("privacy").Inc()

	settings, err := s.settings.Get(ctx, userID)
	if errors.Is(err, domain.ErrPrivacySettingsNotFound) {
		settings = domain.DefaultPrivacySettings(userID)
		if err := s.settings.Upsert(ctx, settings); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	s.cacheSettings(ctx, settings)
	return settings, nil
}

// UpdateSettings validates and persists new settings, then invalidates the
// cached copy.
func (s *PrivacyService) UpdateSettings(ctx context.Context, settings *domain.PrivacySettings) (*domain.PrivacySettings, error) {
	if settings == nil || settings.UserID == "" {
		return nil, domain.NewInvalidInputError("user_id", "must not be empty")
	}
	for _, level := range []domain.PrivacyLevel{settings.ProfileVisibility, settings.ShowActivityTo, settings.LeaderboardVisibility} {
		if !level.Valid() {
			return nil, domain.NewInvalidInputError("visibility", "unknown privacy level")
		}
	}

	settings.UpdatedAt = time.Now().UTC()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = settings.UpdatedAt
	}

	if err := s.settings.Upsert(ctx, settings); err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, domain.PrivacyKey(settings.UserID)); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("privacy cache invalidation failed")
	}

	return settings, nil
}

// IsProfileVisible resolves the profile axis.
func (s *PrivacyService) IsProfileVisible(ctx context.Context, ownerID, viewerID domain.UserID) (bool, error) {
	return s.isVisible(ctx, ownerID, viewerID, AxisProfile)
}

// IsActivityVisible resolves the activity axis.
func (s *PrivacyService) IsActivityVisible(ctx context.Context, ownerID, viewerID domain.UserID) (bool, error) {
	return s.isVisible(ctx, ownerID, viewerID, AxisActivity)
}

// IsLeaderboardVisible resolves the leaderboard axis.
func (s *PrivacyService) IsLeaderboardVisible(ctx context.Context, ownerID, viewerID domain.UserID) (bool, error) {
	return s.isVisible(ctx, ownerID, viewerID, AxisLeaderboard)
}

func (s *PrivacyService) isVisible(ctx context.Context, ownerID, viewerID domain.UserID, axis VisibilityAxis) (bool, error) {
	if ownerID == viewerID {
		return true, nil
	}

	settings, err := s.GetSettings(ctx, ownerID)
	if err != nil {
		return false, err
	}

	switch axisLevel(settings, axis) {
	case domain.PrivacyPublic:
		return true, nil
	case domain.PrivacyPrivate:
		return false, nil
	case domain.PrivacyFriendsOnly:
		return s.friendships.IsFriend(ctx, viewerID, ownerID)
	default:
		return false, nil
	}
}

// ResolveVisibilityBatch resolves one axis for many owners against a single
// viewer. Public and private owners resolve immediately; friends-only owners
// share one friend-set lookup.
func (s *PrivacyService) ResolveVisibilityBatch(ctx context.Context, viewerID domain.UserID, ownerIDs []domain.UserID, axis VisibilityAxis) (map[domain.UserID]bool, error) {
	result := make(map[domain.UserID]bool, len(ownerIDs))
	var friendsOnly []domain.UserID

	for _, ownerID := range ownerIDs {
		if ownerID == viewerID {
			result[ownerID] = true
			continue
		}
		settings, err := s.GetSettings(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		switch axisLevel(settings, axis) {
		case domain.PrivacyPublic:
			result[ownerID] = true
		case domain.PrivacyPrivate:
			result[ownerID] = false
		case domain.PrivacyFriendsOnly:
			friendsOnly = append(friendsOnly, ownerID)
		default:
			result[ownerID] = false
		}
	}

	if len(friendsOnly) > 0 {
		viewerFriends, err := s.friendships.ListFriendIDs(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		friends := make(map[domain.UserID]struct{}, len(viewerFriends))
		for _, id := range viewerFriends {
			friends[id] = struct{}{}
		}
		for _, ownerID := range friendsOnly {
			_, ok := friends[ownerID]
			result[ownerID] = ok
		}
	}

	return result, nil
}

func (s *PrivacyService) cacheSettings(ctx context.Context, settings *domain.PrivacySettings) {
	encoded, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, domain.PrivacyKey(settings.UserID), string(encoded), domain.PrivacyCacheTTL); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("privacy cache write failed")
	}
}

func axisLevel(settings *domain.PrivacySettings, axis VisibilityAxis) domain.PrivacyLevel {
	switch axis {
	case AxisProfile:
		return settings.ProfileVisibility
	case AxisActivity:
		return settings.ShowActivityTo
	case AxisLeaderboard:
		return settings.LeaderboardVisibility
	default:
		return domain.PrivacyPrivate
	}
}
