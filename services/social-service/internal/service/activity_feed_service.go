package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/ratelimit"
	"github.com/MindFlowInteractive/quest-social-api/shared/logging"
	"github.com/MindFlowInteractive/quest-social-api/shared/metrics"
)

const (
	recordActivityOperation = "record_activity"
	defaultFeedLimit        = 20
	feedRehydrateLimit      = 100
)

// ActivityFeedService records activity, fans events out to friends' cached
// feeds, and serves cursor-paginated reads with privacy filtering.
type ActivityFeedService struct {
	activities  domain.ActivityEventRepository
	friendships domain.FriendshipRepository
	privacy     *PrivacyService
	cache       domain.Cache
	publisher   domain.EventPublisher
	limiter     ratelimit.Limiter
	logger      *logging.Logger
	metrics     *metrics.Metrics
}

func NewActivityFeedService(
	activities domain.ActivityEventRepository,
	friendships domain.FriendshipRepository,
	privacy *PrivacyService,
	cache domain.Cache,
	publisher domain.EventPublisher,
	limiter ratelimit.Limiter,
	logger *logging.Logger,
	m *metrics.Metrics,
) *ActivityFeedService {
	return &ActivityFeedService{
		activities:  activities,
		friendships: friendships,
		privacy:     privacy,
		cache:       cache,
		publisher:   publisher,
		limiter:     limiter,
		logger:      logger,
		metrics:     m,
	}
}

// RecordActivity persists the authoritative write and publishes the event
// for asynchronous fan-out. The write path never waits on fan-out.
func (s *ActivityFeedService) RecordActivity(ctx context.Context, actorUserID domain.UserID, eventType domain.ActivityEventType, payload json.RawMessage, visibility domain.PrivacyLevel) (*domain.ActivityEvent, error) {
	if actorUserID == "" {
		return nil, domain.NewInvalidInputError("actor_user_id", "must not be empty")
	}
	if !eventType.Valid() {
		return nil, domain.NewInvalidInputError("event_type", "unknown activity event type")
	}

	if !s.limiter.Allow(actorUserID, recordActivityOperation) {
		s.metrics.RateLimitRejections.WithLabelValues(recordActivityOperation).Inc()
		return nil, domain.ErrRateLimitExceeded
	}

	event := domain.NewActivityEvent(actorUserID, eventType, payload, visibility)
	if err := s.activities.Create(ctx, event); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, domain.NewActivityCreatedEvent(event)); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("failed to publish activity created event")
	} else {
		s.metrics.EventsPublished.WithLabelValues(domain.EventActivityCreated).Inc()
	}

	return event, nil
}

// FanOutActivity appends the event to every friend's cached feed and the
// actor's own. Private events never fan out. Called from the event handler
// layer; errors propagate so the bus redelivers.
func (s *ActivityFeedService) FanOutActivity(ctx context.Context, actorUserID domain.UserID, eventID string, visibility domain.PrivacyLevel, createdAt time.Time) error {
	if visibility == domain.PrivacyPrivate {
		s.metrics.FeedFanOutSkipped.WithLabelValues("private").Inc()
		return nil
	}

	friendIDs, err := s.friendships.ListFriendIDs(ctx, actorUserID)
	if err != nil {
		return err
	}

	entry := []domain.ScoredMember{{Member: eventID, Score: feedScore(createdAt)}}
	targets := append(friendIDs, actorUserID)

	for _, target := range targets {
		if err := s.cache.AddToSortedSet(ctx, domain.FeedKey(target), entry, domain.FeedCacheTTL); err != nil {
			return err
		}
	}

	s.metrics.FeedFanOutDeliveries.Add(float64(len(targets)))
	return nil
}

// GetActivityFeed serves one page of the user's feed. The cursor is opaque
// and only ever advances past scanned candidates, so filtered items cannot
// open gaps.
func (s *ActivityFeedService) GetActivityFeed(ctx context.Context, userID domain.UserID, limit int, encodedCursor string) (*domain.FeedPage, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	var cursor *domain.FeedCursor
	if encodedCursor != "" {
		decoded, err := domain.DecodeFeedCursor(encodedCursor)
		if err != nil {
			return nil, err
		}
		cursor = &decoded
	}

	if err := s.ensureFeedPopulated(ctx, userID); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("feed rehydration failed")
	}

	fetchCount := limit + 1
	candidates, err := s.feedCandidates(ctx, userID, cursor, fetchCount)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &domain.FeedPage{}, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Member
	}
	events, err := s.activities.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.ActivityEvent, len(events))
	ownerSet := make(map[domain.UserID]struct{})
	for _, event := range events {
		byID[event.ID] = event
		if event.ActorUserID != userID {
			ownerSet[event.ActorUserID] = struct{}{}
		}
	}

	owners := make([]domain.UserID, 0, len(ownerSet))
	for owner := range ownerSet {
		owners = append(owners, owner)
	}
	settingsVisible, err := s.privacy.ResolveVisibilityBatch(ctx, userID, owners, AxisActivity)
	if err != nil {
		return nil, err
	}

	viewerFriends, err := s.viewerFriendSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	page := &domain.FeedPage{}
	var lastScanned domain.ScoredMember
	scanned := 0

	for _, candidate := range candidates {
		if len(page.Items) >= limit {
			break
		}
		scanned++
		lastScanned = candidate

		event, ok := byID[candidate.Member]
		if !ok || event.IsDeleted() {
			continue
		}
		if !s.eventVisibleTo(event, userID, viewerFriends, settingsVisible) {
			continue
		}
		page.Items = append(page.Items, event)
	}

	if len(candidates) >= fetchCount {
		page.NextCursor = domain.FeedCursor{LastScore: lastScanned.Score, LastID: lastScanned.Member}.Encode()
	}
	return page, nil
}

// DeleteActivity soft-deletes an event owned by the actor. Cached feeds are
// not rewritten; reads filter deleted events.
func (s *ActivityFeedService) DeleteActivity(ctx context.Context, eventID string, actorUserID domain.UserID) error {
	return s.activities.SoftDelete(ctx, eventID, actorUserID)
}

// GetUserActivity lists one user's own activity for a viewer, gated by the
// owner's activity visibility.
func (s *ActivityFeedService) GetUserActivity(ctx context.Context, ownerID, viewerID domain.UserID, limit, offset int) ([]*domain.ActivityEvent, error) {
	visible, err := s.privacy.IsActivityVisible(ctx, ownerID, viewerID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, nil
	}

	events, err := s.activities.ListByActor(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}

	if ownerID == viewerID {
		return events, nil
	}

	filtered := events[:0]
	for _, event := range events {
		if event.Visibility == domain.PrivacyPrivate {
			continue
		}
		filtered = append(filtered, event)
	}
	return filtered, nil
}

// GetActivityEvent returns one event when the viewer may see it; deleted and
// invisible events read as not found.
func (s *ActivityFeedService) GetActivityEvent(ctx context.Context, eventID string, viewerID domain.UserID) (*domain.ActivityEvent, error) {
	events, err := s.GetActivityEventsBatch(ctx, []string{eventID}, viewerID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, domain.ErrActivityEventNotFound
	}
	return events[0], nil
}

// GetActivityEventsBatch loads events by ID, silently dropping the ones the
// viewer cannot see.
func (s *ActivityFeedService) GetActivityEventsBatch(ctx context.Context, ids []string, viewerID domain.UserID) ([]*domain.ActivityEvent, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	events, err := s.activities.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	ownerSet := make(map[domain.UserID]struct{})
	for _, event := range events {
		if event.ActorUserID != viewerID {
			ownerSet[event.ActorUserID] = struct{}{}
		}
	}
	owners := make([]domain.UserID, 0, len(ownerSet))
	for owner := range ownerSet {
		owners = append(owners, owner)
	}

	settingsVisible, err := s.privacy.ResolveVisibilityBatch(ctx, viewerID, owners, AxisActivity)
	if err != nil {
		return nil, err
	}
	viewerFriends, err := s.viewerFriendSet(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	visible := make([]*domain.ActivityEvent, 0, len(events))
	for _, event := range events {
		if event.IsDeleted() {
			continue
		}
		if !s.eventVisibleTo(event, viewerID, viewerFriends, settingsVisible) {
			continue
		}
		visible = append(visible, event)
	}
	return visible, nil
}

// GetActivityStats reports how many live events the actor has recorded.
func (s *ActivityFeedService) GetActivityStats(ctx context.Context, actorUserID domain.UserID) (int, error) {
	return s.activities.CountByActor(ctx, actorUserID)
}

func (s *ActivityFeedService) ensureFeedPopulated(ctx context.Context, userID domain.UserID) error {
	key := domain.FeedKey(userID)

	size, err := s.cache.SortedSetSize(ctx, key)
	if err != nil {
		return err
	}
	if size > 0 {
		s.metrics.CacheHits.WithLabelValues("feed").Inc()
		return nil
	}
	s.metrics.CacheMisses.WithLabelValues("feed").Inc()

	friendIDs, err := s.friendships.ListFriendIDs(ctx, userID)
	if err != nil {
		return err
	}
	actors := append(friendIDs, userID)

	events, err := s.activities.ListRecentByActors(ctx, actors, feedRehydrateLimit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	entries := make([]domain.ScoredMember, len(events))
	for i, event := range events {
		entries[i] = domain.ScoredMember{Member: event.ID, Score: feedScore(event.CreatedAt)}
	}
	return s.cache.AddToSortedSet(ctx, key, entries, domain.FeedCacheTTL)
}

// feedCandidates pages the feed sorted set. Pages after the first slice the
// set at the cursor member's rank, keeping events tied at the boundary score
// reachable. A cursor whose member has left the set falls back to the score
// bound.
func (s *ActivityFeedService) feedCandidates(ctx context.Context, userID domain.UserID, cursor *domain.FeedCursor, count int) ([]domain.ScoredMember, error) {
	key := domain.FeedKey(userID)
	if cursor == nil {
		return s.cache.RevRangeSorted(ctx, key, 0, int64(count-1))
	}

	rank, found, err := s.cache.SortedSetRevRank(ctx, key, cursor.LastID)
	if err != nil {
		return nil, err
	}
	if found {
		return s.cache.RevRangeSorted(ctx, key, rank+1, rank+int64(count))
	}
	return s.cache.RevRangeByScore(ctx, key, cursor.LastScore, int64(count))
}

func (s *ActivityFeedService) viewerFriendSet(ctx context.Context, viewerID domain.UserID) (map[domain.UserID]struct{}, error) {
	ids, err := s.friendships.ListFriendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	set := make(map[domain.UserID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// eventVisibleTo applies the per-event visibility first, then the owner's
// activity setting. Only the owner's settings gate the check.
func (s *ActivityFeedService) eventVisibleTo(event *domain.ActivityEvent, viewerID domain.UserID, viewerFriends map[domain.UserID]struct{}, settingsVisible map[domain.UserID]bool) bool {
	if event.ActorUserID == viewerID {
		return true
	}

	switch event.Visibility {
	case domain.PrivacyPrivate:
		return false
	case domain.PrivacyFriendsOnly:
		if _, ok := viewerFriends[event.ActorUserID]; !ok {
			return false
		}
	}

	return settingsVisible[event.ActorUserID]
}

func feedScore(t time.Time) float64 {
	return float64(t.UnixMilli())
}
