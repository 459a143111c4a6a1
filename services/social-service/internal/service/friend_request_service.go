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

const sendRequestOperation = "send_friend_request"

// AcceptResult reports the outcome of accepting a friend request.
type AcceptResult struct {
	FriendshipCreated bool          `json:"friendship_created"`
	FriendID          domain.UserID `json:"friend_id"`
}

// FriendRequestService governs the request lifecycle: send with its guard
// chain, cross-request auto-resolution, accept/reject/cancel, and cached
// list reads.
type FriendRequestService struct {
	requests    domain.FriendRequestRepository
	friendships domain.FriendshipRepository
	blocks      domain.BlockRepository
	cache       domain.Cache
	publisher   domain.EventPublisher
	directory   domain.UserDirectory
	limiter     ratelimit.Limiter
	logger      *logging.Logger
	metrics     *metrics.Metrics
}

func NewFriendRequestService(
	requests domain.FriendRequestRepository,
	friendships domain.FriendshipRepository,
	blocks domain.BlockRepository,
	cache domain.Cache,
	publisher domain.EventPublisher,
	directory domain.UserDirectory,
	limiter ratelimit.Limiter,
	logger *logging.Logger,
	m *metrics.Metrics,
) *FriendRequestService {
	return &FriendRequestService{
		requests:    requests,
		friendships: friendships,
		blocks:      blocks,
		cache:       cache,
		publisher:   publisher,
		directory:   directory,
		limiter:     limiter,
		logger:      logger,
		metrics:     m,
	}
}

// SendFriendRequest validates the full guard chain before any write. When the
// recipient already has a pending request to the sender, both requests are
// accepted and the friendship is created in the same transaction.
func (s *FriendRequestService) SendFriendRequest(ctx context.Context, fromUserID, toUserID domain.UserID, message string) (*domain.FriendRequest, error) {
	if fromUserID == "" || toUserID == "" {
		return nil, domain.NewInvalidInputError("user_id", "must not be empty")
	}
	if fromUserID == toUserID {
		return nil, domain.ErrSelfFriendRequest
	}

	if !s.limiter.Allow(fromUserID, sendRequestOperation) {
		s.metrics.RateLimitRejections.WithLabelValues(sendRequestOperation).Inc()
		return nil, domain.ErrRateLimitExceeded
	}

	for _, userID := range []domain.UserID{fromUserID, toUserID} {
		exists, err := s.directory.CheckUserExists(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, domain.ErrUserNotFound
		}
	}

	blocked, err := s.blocks.IsBlocked(ctx, toUserID, fromUserID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, domain.ErrUserBlocked
	}

	pendingCount, err := s.requests.CountPendingOutbound(ctx, fromUserID)
	if err != nil {
		return nil, err
	}
	if pendingCount >= domain.MaxPendingOutbound {
		s.metrics.RateLimitRejections.WithLabelValues(sendRequestOperation).Inc()
		return nil, domain.ErrRateLimitExceeded
	}

	alreadyFriends, err := s.friendships.IsFriend(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if alreadyFriends {
		return nil, domain.ErrFriendshipAlreadyExists
	}

	existing, err := s.requests.FindPendingByPair(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrFriendRequestAlreadyExists
	}

	crossRequest, err := s.requests.FindPendingByPair(ctx, toUserID, fromUserID)
	if err != nil {
		return nil, err
	}
	if crossRequest != nil {
		return s.resolveCrossRequest(ctx, fromUserID, toUserID, message, crossRequest)
	}

	request := domain.NewFriendRequest(fromUserID, toUserID, message)
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}

	s.metrics.FriendRequestsCreated.Inc()
	s.logger.WithContext(ctx).
		WithFields(map[string]interface{}{"from": fromUserID, "to": toUserID}).
		Info("friend request sent")

	if err := s.publisher.Publish(ctx, domain.NewFriendRequestSentEvent(request)); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("failed to publish friend request sent event")
	} else {
		s.metrics.EventsPublished.WithLabelValues(domain.EventFriendRequestSent).Inc()
	}

	return request, nil
}

// resolveCrossRequest accepts both directions at once. Without this, two
// users who friend each other concurrently would deadlock on two pending
// requests neither side can answer.
func (s *FriendRequestService) resolveCrossRequest(ctx context.Context, fromUserID, toUserID domain.UserID, message string, crossRequest *domain.FriendRequest) (*domain.FriendRequest, error) {
	now := time.Now().UTC()

	request := domain.NewFriendRequest(fromUserID, toUserID, message)
	if err := request.Accept(now); err != nil {
		return nil, err
	}
	if err := crossRequest.Accept(now); err != nil {
		return nil, err
	}

	edges := domain.NewFriendshipPair(fromUserID, toUserID)
	requests := []*domain.FriendRequest{request, crossRequest}

	if err := s.requests.AcceptWithFriendships(ctx, requests, edges); err != nil {
		return nil, err
	}

	s.metrics.FriendRequestsCreated.Inc()
	s.metrics.FriendRequestsAccepted.Inc()
	s.logger.WithContext(ctx).
		WithFields(map[string]interface{}{"from": fromUserID, "to": toUserID}).
		Info("cross requests auto-resolved into friendship")

	if err := s.publisher.Publish(ctx, domain.NewFriendRequestAcceptedEvent(crossRequest)); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("failed to publish friend request accepted event")
	} else {
		s.metrics.EventsPublished.WithLabelValues(domain.EventFriendRequestAccepted).Inc()
	}

	return request, nil
}

// AcceptFriendRequest transitions the request and creates both friendship
// edges atomically. Expiry is re-evaluated at call time.
func (s *FriendRequestService) AcceptFriendRequest(ctx context.Context, requestID string, acceptingUserID domain.UserID) (*AcceptResult, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ToUserID != acceptingUserID {
		return nil, domain.ErrUnauthorizedAccess
	}

	now := time.Now().UTC()
	if err := request.Accept(now); err != nil {
		return nil, err
	}

	edges := domain.NewFriendshipPair(request.FromUserID, request.ToUserID)
	if err := s.requests.AcceptWithFriendships(ctx, []*domain.FriendRequest{request}, edges); err != nil {
		return nil, err
	}

	s.metrics.FriendRequestsAccepted.Inc()
	s.logger.WithContext(ctx).
		WithFields(map[string]interface{}{"request_id": requestID, "from": request.FromUserID, "to": request.ToUserID}).
		Info("friend request accepted")

	if err := s.publisher.Publish(ctx, domain.NewFriendRequestAcceptedEvent(request)); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("failed to publish friend request accepted event")
	} else {
		s.metrics.EventsPublished.WithLabelValues(domain.EventFriendRequestAccepted).Inc()
	}

	return &AcceptResult{FriendshipCreated: true, FriendID: request.FromUserID}, nil
}

// RejectFriendRequest is recipient-only and has no friendship side effects.
func (s *FriendRequestService) RejectFriendRequest(ctx context.Context, requestID string, rejectingUserID domain.UserID) (*domain.FriendRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ToUserID != rejectingUserID {
		return nil, domain.ErrUnauthorizedAccess
	}

	if err := request.Reject(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, domain.NewFriendRequestRejectedEvent(request)); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("failed to publish friend request rejected event")
	} else {
		s.metrics.EventsPublished.WithLabelValues(domain.EventFriendRequestRejected).Inc()
	}

	return request, nil
}

// CancelFriendRequest is sender-only.
func (s *FriendRequestService) CancelFriendRequest(ctx context.Context, requestID string, cancellingUserID domain.UserID) (*domain.FriendRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.FromUserID != cancellingUserID {
		return nil, domain.ErrUnauthorizedAccess
	}

	if err := request.Cancel(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}

	return request, nil
}

// GetFriendRequest returns one request to either of its participants.
func (s *FriendRequestService) GetFriendRequest(ctx context.Context, requestID string, userID domain.UserID) (*domain.FriendRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.FromUserID != userID && request.ToUserID != userID {
		return nil, domain.ErrUnauthorizedAccess
	}
	return request, nil
}

// GetInboundRequests reads the first page through the cache; deeper pages go
// straight to the store.
func (s *FriendRequestService) GetInboundRequests(ctx context.Context, userID domain.UserID, limit, offset int) ([]*domain.FriendRequest, error) {
	return s.listRequests(ctx, domain.InboundRequestsKey(userID), limit, offset, func() ([]*domain.FriendRequest, error) {
		return s.requests.ListInbound(ctx, userID, limit, offset)
	})
}

// GetOutboundRequests mirrors GetInboundRequests for the sender side.
func (s *FriendRequestService) GetOutboundRequests(ctx context.Context, userID domain.UserID, limit, offset int) ([]*domain.FriendRequest, error) {
	return s.listRequests(ctx, domain.OutboundRequestsKey(userID), limit, offset, func() ([]*domain.FriendRequest, error) {
		return s.requests.ListOutbound(ctx, userID, limit, offset)
	})
}

// ExpireStaleRequests persists the expired state for every pending request
// past its deadline. Reads already treat such requests as dead, so the sweep
// only makes the transition durable and queryable.
func (s *FriendRequestService) ExpireStaleRequests(ctx context.Context) (int64, error) {
	expired, err := s.requests.ExpireStale(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.logger.WithContext(ctx).WithField("expired", expired).Info("expired stale friend requests")
	}
	return expired, nil
}

// StartExpirySweeper runs ExpireStaleRequests on the given interval until ctx
// is cancelled.
func (s *FriendRequestService) StartExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ExpireStaleRequests(ctx); err != nil {
				s.logger.WithContext(ctx).WithError(err).Error("expiry sweep failed")
			}
		}
	}
}

func (s *FriendRequestService) listRequests(ctx context.Context, cacheKey string, limit, offset int, load func() ([]*domain.FriendRequest, error)) ([]*domain.FriendRequest, error) {
	cacheable := offset == 0

	if cacheable {
		cached, found, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("request list cache read failed")
		} else if found {
			var requests []*domain.FriendRequest
			if err := json.Unmarshal([]byte(cached), &requests); err == nil {
				s.metrics.CacheHits.WithLabelValues("friend_requests").Inc()
				if len(requests) > limit {
					requests = requests[:limit]
				}
				return requests, nil
			}
		}
		s.metrics.CacheMisses.WithLabelValues("friend_requests").Inc()
	}

	requests, err := load()
	if err != nil {
		return nil, err
	}

	if cacheable {
		if encoded, err := json.Marshal(requests); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(encoded), domain.ListCacheTTL); err != nil {
				s.logger.WithContext(ctx).WithError(err).Warn("request list cache write failed")
			}
		}
	}

	return requests, nil
}
