package test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/service"
)

type ActivityFeedServiceTestSuite struct {
	suite.Suite
	activities  *MockActivityEventRepository
	friendships *MockFriendshipRepository
	settings    *MockPrivacySettingsRepository
	cache       *MockCache
	publisher   *MockEventPublisher
	svc         *service.ActivityFeedService
}

func (suite *ActivityFeedServiceTestSuite) SetupTest() {
	suite.activities = new(MockActivityEventRepository)
	suite.friendships = new(MockFriendshipRepository)
	suite.settings = new(MockPrivacySettingsRepository)
	suite.cache = new(MockCache)
	suite.publisher = new(MockEventPublisher)

	privacy := service.NewPrivacyService(suite.settings, suite.friendships, suite.cache, testLogger, testMetrics)
	suite.svc = service.NewActivityFeedService(
		suite.activities, suite.friendships, privacy, suite.cache,
		suite.publisher, stubLimiter{allow: true}, testLogger, testMetrics)
}

// expectActivitySettings arms the privacy lookup for one owner with the given
// activity visibility.
func (suite *ActivityFeedServiceTestSuite) expectActivitySettings(ctx context.Context, owner domain.UserID, level domain.PrivacyLevel) {
	settings := domain.DefaultPrivacySettings(owner)
	settings.ShowActivityTo = level
	encoded, err := json.Marshal(settings)
	suite.Require().NoError(err)
	suite.cache.On("Get", ctx, domain.PrivacyKey(owner)).Return(string(encoded), true, nil)
}

func (suite *ActivityFeedServiceTestSuite) TestRecordActivity_Success() {
	ctx := context.Background()
	suite.activities.On("Create", ctx, mock.MatchedBy(func(event *domain.ActivityEvent) bool {
		return event.ActorUserID == "alice" && event.EventType == domain.ActivityScoreAchieved
	})).Return(nil)
	suite.publisher.On("Publish", ctx, mock.MatchedBy(func(event *domain.DomainEvent) bool {
		return event.EventType == domain.EventActivityCreated
	})).Return(nil)

	event, err := suite.svc.RecordActivity(ctx, "alice", domain.ActivityScoreAchieved,
		json.RawMessage(`{"score":1200}`), domain.PrivacyPublic)

	suite.NoError(err)
	suite.NotNil(event)
	suite.activities.AssertExpectations(suite.T())
	suite.publisher.AssertExpectations(suite.T())
}

func (suite *ActivityFeedServiceTestSuite) TestRecordActivity_UnknownType() {
	_, err := suite.svc.RecordActivity(context.Background(), "alice",
		domain.ActivityEventType("teleported"), nil, domain.PrivacyPublic)

	suite.ErrorIs(err, domain.ErrInvalidInput)
	suite.activities.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *ActivityFeedServiceTestSuite) TestFanOutActivity_PrivateSkips() {
	err := suite.svc.FanOutActivity(context.Background(), "alice", "event-1", domain.PrivacyPrivate, time.Now())

	suite.NoError(err)
	suite.friendships.AssertNotCalled(suite.T(), "ListFriendIDs", mock.Anything, mock.Anything)
	suite.cache.AssertNotCalled(suite.T(), "AddToSortedSet", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ActivityFeedServiceTestSuite) TestFanOutActivity_DeliversToFriendsAndSelf() {
	ctx := context.Background()
	createdAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	entry := []domain.ScoredMember{{Member: "event-1", Score: float64(createdAt.UnixMilli())}}

	suite.friendships.On("ListFriendIDs", ctx, domain.UserID("alice")).Return([]domain.UserID{"bob", "carol"}, nil)
	for _, target := range []domain.UserID{"bob", "carol", "alice"} {
		suite.cache.On("AddToSortedSet", ctx, domain.FeedKey(target), entry, domain.FeedCacheTTL).Return(nil)
	}

	err := suite.svc.FanOutActivity(ctx, "alice", "event-1", domain.PrivacyPublic, createdAt)

	suite.NoError(err)
	suite.cache.AssertExpectations(suite.T())
}

func (suite *ActivityFeedServiceTestSuite) TestGetActivityFeed_FiltersAndPaginates() {
	ctx := context.Background()
	viewer := domain.UserID("alice")
	key := domain.FeedKey(viewer)

	publicEvent := &domain.ActivityEvent{
		ID: "e1", ActorUserID: "bob", EventType: domain.ActivityGamePlayed,
		Visibility: domain.PrivacyPublic, CreatedAt: time.UnixMilli(3000),
	}
	privateEvent := &domain.ActivityEvent{
		ID: "e2", ActorUserID: "carol", EventType: domain.ActivityStatusUpdate,
		Visibility: domain.PrivacyPrivate, CreatedAt: time.UnixMilli(2000),
	}
	tailEvent := &domain.ActivityEvent{
		ID: "e3", ActorUserID: "bob", EventType: domain.ActivityLevelUp,
		Visibility: domain.PrivacyPublic, CreatedAt: time.UnixMilli(1000),
	}

	suite.cache.On("SortedSetSize", ctx, key).Return(int64(3), nil)
	suite.cache.On("RevRangeSorted", ctx, key, int64(0), int64(2)).Return([]domain.ScoredMember{
		{Member: "e1", Score: 3000},
		{Member: "e2", Score: 2000},
		{Member: "e3", Score: 1000},
	}, nil)
	suite.activities.On("ListByIDs", ctx, []string{"e1", "e2", "e3"}).
		Return([]*domain.ActivityEvent{publicEvent, privateEvent, tailEvent}, nil)
	suite.expectActivitySettings(ctx, "bob", domain.PrivacyPublic)
	suite.expectActivitySettings(ctx, "carol", domain.PrivacyPublic)
	suite.friendships.On("ListFriendIDs", ctx, viewer).Return([]domain.UserID{"bob"}, nil)

	page, err := suite.svc.GetActivityFeed(ctx, viewer, 2, "")

	suite.NoError(err)
	suite.Require().Len(page.Items, 2)
	suite.Equal("e1", page.Items[0].ID)
	suite.Equal("e3", page.Items[1].ID)
	suite.Require().NotEmpty(page.NextCursor)

	cursor, err := domain.DecodeFeedCursor(page.NextCursor)
	suite.Require().NoError(err)
	suite.Equal("e3", cursor.LastID)
	suite.InDelta(1000, cursor.LastScore, 1e-9)
}

func (suite *ActivityFeedServiceTestSuite) TestGetActivityFeed_CursorPageSlicesByRank() {
	ctx := context.Background()
	viewer := domain.UserID("alice")
	key := domain.FeedKey(viewer)
	cursor := domain.FeedCursor{LastScore: 1000, LastID: "e3"}.Encode()

	suite.cache.On("SortedSetSize", ctx, key).Return(int64(3), nil)
	suite.cache.On("SortedSetRevRank", ctx, key, "e3").Return(int64(2), true, nil)
	suite.cache.On("RevRangeSorted", ctx, key, int64(3), int64(23)).
		Return([]domain.ScoredMember{}, nil)

	page, err := suite.svc.GetActivityFeed(ctx, viewer, 20, cursor)

	suite.NoError(err)
	suite.Empty(page.Items)
	suite.Empty(page.NextCursor)
}

func (suite *ActivityFeedServiceTestSuite) TestGetActivityFeed_EvictedCursorFallsBackToScore() {
	ctx := context.Background()
	viewer := domain.UserID("alice")
	key := domain.FeedKey(viewer)
	cursor := domain.FeedCursor{LastScore: 1000, LastID: "gone"}.Encode()

	suite.cache.On("SortedSetSize", ctx, key).Return(int64(3), nil)
	suite.cache.On("SortedSetRevRank", ctx, key, "gone").Return(int64(0), false, nil)
	suite.cache.On("RevRangeByScore", ctx, key, float64(1000), int64(21)).
		Return([]domain.ScoredMember{}, nil)

	page, err := suite.svc.GetActivityFeed(ctx, viewer, 20, cursor)

	suite.NoError(err)
	suite.Empty(page.Items)
	suite.Empty(page.NextCursor)
}

// Two events sharing a millisecond must both come out when paging to
// exhaustion with limit 1; the cursor advances by member, not by score alone.
func (suite *ActivityFeedServiceTestSuite) TestGetActivityFeed_TiedScoresSpanPages() {
	ctx := context.Background()
	viewer := domain.UserID("alice")
	key := domain.FeedKey(viewer)

	first := &domain.ActivityEvent{
		ID: "e2", ActorUserID: "bob", EventType: domain.ActivityGamePlayed,
		Visibility: domain.PrivacyPublic, CreatedAt: time.UnixMilli(2000),
	}
	second := &domain.ActivityEvent{
		ID: "e1", ActorUserID: "bob", EventType: domain.ActivityLevelUp,
		Visibility: domain.PrivacyPublic, CreatedAt: time.UnixMilli(2000),
	}

	suite.cache.On("SortedSetSize", ctx, key).Return(int64(2), nil)
	suite.expectActivitySettings(ctx, "bob", domain.PrivacyPublic)
	suite.friendships.On("ListFriendIDs", ctx, viewer).Return([]domain.UserID{"bob"}, nil)

	suite.cache.On("RevRangeSorted", ctx, key, int64(0), int64(1)).Return([]domain.ScoredMember{
		{Member: "e2", Score: 2000},
		{Member: "e1", Score: 2000},
	}, nil)
	suite.activities.On("ListByIDs", ctx, []string{"e2", "e1"}).
		Return([]*domain.ActivityEvent{first, second}, nil)

	page, err := suite.svc.GetActivityFeed(ctx, viewer, 1, "")
	suite.NoError(err)
	suite.Require().Len(page.Items, 1)
	suite.Equal("e2", page.Items[0].ID)
	suite.Require().NotEmpty(page.NextCursor)

	suite.cache.On("SortedSetRevRank", ctx, key, "e2").Return(int64(0), true, nil)
	suite.cache.On("RevRangeSorted", ctx, key, int64(1), int64(2)).Return([]domain.ScoredMember{
		{Member: "e1", Score: 2000},
	}, nil)
	suite.activities.On("ListByIDs", ctx, []string{"e1"}).
		Return([]*domain.ActivityEvent{second}, nil)

	page, err = suite.svc.GetActivityFeed(ctx, viewer, 1, page.NextCursor)
	suite.NoError(err)
	suite.Require().Len(page.Items, 1)
	suite.Equal("e1", page.Items[0].ID)
	suite.Empty(page.NextCursor)
}

func (suite *ActivityFeedServiceTestSuite) TestGetActivityFeed_RehydratesEmptyFeed() {
	ctx := context.Background()
	viewer := domain.UserID("alice")
	key := domain.FeedKey(viewer)

	stored := &domain.ActivityEvent{
		ID: "e1", ActorUserID: "bob", EventType: domain.ActivityGamePlayed,
		Visibility: domain.PrivacyPublic, CreatedAt: time.UnixMilli(5000),
	}

	suite.cache.On("SortedSetSize", ctx, key).Return(int64(0), nil)
	suite.friendships.On("ListFriendIDs", ctx, viewer).Return([]domain.UserID{"bob"}, nil)
	suite.activities.On("ListRecentByActors", ctx, []domain.UserID{"bob", "alice"}, 100).
		Return([]*domain.ActivityEvent{stored}, nil)
	suite.cache.On("AddToSortedSet", ctx, key,
		[]domain.ScoredMember{{Member: "e1", Score: 5000}}, domain.FeedCacheTTL).Return(nil)
	suite.cache.On("RevRangeSorted", ctx, key, int64(0), int64(20)).
		Return([]domain.ScoredMember{{Member: "e1", Score: 5000}}, nil)
	suite.activities.On("ListByIDs", ctx, []string{"e1"}).
		Return([]*domain.ActivityEvent{stored}, nil)
	suite.expectActivitySettings(ctx, "bob", domain.PrivacyPublic)

	page, err := suite.svc.GetActivityFeed(ctx, viewer, 20, "")

	suite.NoError(err)
	suite.Require().Len(page.Items, 1)
	suite.Equal("e1", page.Items[0].ID)
	suite.Empty(page.NextCursor)
}

func (suite *ActivityFeedServiceTestSuite) TestGetActivityFeed_DeletedEventsAreSkipped() {
	ctx := context.Background()
	viewer := domain.UserID("alice")
	key := domain.FeedKey(viewer)

	deletedAt := time.Now().UTC()
	deleted := &domain.ActivityEvent{
		ID: "e1", ActorUserID: "bob", EventType: domain.ActivityGamePlayed,
		Visibility: domain.PrivacyPublic, CreatedAt: time.UnixMilli(3000), DeletedAt: &deletedAt,
	}

	suite.cache.On("SortedSetSize", ctx, key).Return(int64(1), nil)
	suite.cache.On("RevRangeSorted", ctx, key, int64(0), int64(20)).
		Return([]domain.ScoredMember{{Member: "e1", Score: 3000}}, nil)
	suite.activities.On("ListByIDs", ctx, []string{"e1"}).
		Return([]*domain.ActivityEvent{deleted}, nil)
	suite.expectActivitySettings(ctx, "bob", domain.PrivacyPublic)
	suite.friendships.On("ListFriendIDs", ctx, viewer).Return([]domain.UserID{"bob"}, nil)

	page, err := suite.svc.GetActivityFeed(ctx, viewer, 20, "")

	suite.NoError(err)
	suite.Empty(page.Items)
}

func (suite *ActivityFeedServiceTestSuite) TestGetUserActivity_PrivacyGate() {
	ctx := context.Background()
	suite.expectActivitySettings(ctx, "alice", domain.PrivacyPrivate)

	events, err := suite.svc.GetUserActivity(ctx, "alice", "bob", 20, 0)

	suite.NoError(err)
	suite.Nil(events)
	suite.activities.AssertNotCalled(suite.T(), "ListByActor", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ActivityFeedServiceTestSuite) TestGetUserActivity_FiltersPrivateForOthers() {
	ctx := context.Background()
	suite.expectActivitySettings(ctx, "alice", domain.PrivacyPublic)

	publicEvent := &domain.ActivityEvent{ID: "e1", ActorUserID: "alice", Visibility: domain.PrivacyPublic}
	privateEvent := &domain.ActivityEvent{ID: "e2", ActorUserID: "alice", Visibility: domain.PrivacyPrivate}
	suite.activities.On("ListByActor", ctx, domain.UserID("alice"), 20, 0).
		Return([]*domain.ActivityEvent{publicEvent, privateEvent}, nil)

	events, err := suite.svc.GetUserActivity(ctx, "alice", "bob", 20, 0)

	suite.NoError(err)
	suite.Require().Len(events, 1)
	suite.Equal("e1", events[0].ID)
}

func (suite *ActivityFeedServiceTestSuite) TestGetUserActivity_OwnerSeesEverything() {
	ctx := context.Background()

	publicEvent := &domain.ActivityEvent{ID: "e1", ActorUserID: "alice", Visibility: domain.PrivacyPublic}
	privateEvent := &domain.ActivityEvent{ID: "e2", ActorUserID: "alice", Visibility: domain.PrivacyPrivate}
	suite.activities.On("ListByActor", ctx, domain.UserID("alice"), 20, 0).
		Return([]*domain.ActivityEvent{publicEvent, privateEvent}, nil)

	events, err := suite.svc.GetUserActivity(ctx, "alice", "alice", 20, 0)

	suite.NoError(err)
	suite.Len(events, 2)
}

func (suite *ActivityFeedServiceTestSuite) TestGetActivityEvent_VisibleToFriend() {
	ctx := context.Background()
	event := domain.NewActivityEvent("bob", domain.ActivityGamePlayed, nil, domain.PrivacyFriendsOnly)

	suite.activities.On("ListByIDs", ctx, []string{event.ID}).Return([]*domain.ActivityEvent{event}, nil)
	suite.expectActivitySettings(ctx, "bob", domain.PrivacyPublic)
	suite.friendships.On("ListFriendIDs", ctx, domain.UserID("alice")).Return([]domain.UserID{"bob"}, nil)

	got, err := suite.svc.GetActivityEvent(ctx, event.ID, "alice")

	suite.NoError(err)
	suite.Equal(event.ID, got.ID)
}

func (suite *ActivityFeedServiceTestSuite) TestGetActivityEvent_DeletedReadsAsNotFound() {
	ctx := context.Background()
	now := time.Now().UTC()
	event := domain.NewActivityEvent("bob", domain.ActivityGamePlayed, nil, domain.PrivacyPublic)
	event.DeletedAt = &now

	suite.activities.On("ListByIDs", ctx, []string{event.ID}).Return([]*domain.ActivityEvent{event}, nil)
	suite.expectActivitySettings(ctx, "bob", domain.PrivacyPublic)
	suite.friendships.On("ListFriendIDs", ctx, domain.UserID("alice")).Return([]domain.UserID{}, nil)

	got, err := suite.svc.GetActivityEvent(ctx, event.ID, "alice")

	suite.ErrorIs(err, domain.ErrActivityEventNotFound)
	suite.Nil(got)
}

func (suite *ActivityFeedServiceTestSuite) TestGetActivityEventsBatch_DropsInvisible() {
	ctx := context.Background()
	visible := domain.NewActivityEvent("bob", domain.ActivityGamePlayed, nil, domain.PrivacyPublic)
	hidden := domain.NewActivityEvent("bob", domain.ActivityGamePlayed, nil, domain.PrivacyPrivate)

	suite.activities.On("ListByIDs", ctx, []string{visible.ID, hidden.ID}).
		Return([]*domain.ActivityEvent{visible, hidden}, nil)
	suite.expectActivitySettings(ctx, "bob", domain.PrivacyPublic)
	suite.friendships.On("ListFriendIDs", ctx, domain.UserID("alice")).Return([]domain.UserID{"bob"}, nil)

	events, err := suite.svc.GetActivityEventsBatch(ctx, []string{visible.ID, hidden.ID}, "alice")

	suite.NoError(err)
	suite.Require().Len(events, 1)
	suite.Equal(visible.ID, events[0].ID)
}

func (suite *ActivityFeedServiceTestSuite) TestGetActivityStats() {
	ctx := context.Background()
	suite.activities.On("CountByActor", ctx, domain.UserID("alice")).Return(42, nil)

	count, err := suite.svc.GetActivityStats(ctx, "alice")

	suite.NoError(err)
	suite.Equal(42, count)
}

func TestActivityFeedServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ActivityFeedServiceTestSuite))
}
