package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/logging"
	"github.com/MindFlowInteractive/quest-social-api/shared/metrics"
)

// EventHandlers performs every asynchronous side effect: cache invalidation
// and feed fan-out. All handlers are idempotent per event ID because the bus
// delivers at least once.
type EventHandlers struct {
	cache           domain.Cache
	feed            *ActivityFeedService
	recommendations *RecommendationService
	notifier        domain.Notifier
	logger          *logging.Logger
	metrics         *metrics.Metrics
}

func NewEventHandlers(cache domain.Cache, feed *ActivityFeedService, recommendations *RecommendationService, notifier domain.Notifier, logger *logging.Logger, m *metrics.Metrics) *EventHandlers {
	return &EventHandlers{cache: cache, feed: feed, recommendations: recommendations, notifier: notifier, logger: logger, metrics: m}
}

func (h *EventHandlers) HandleFriendRequestSent(ctx context.Context, event *domain.DomainEvent) error {
	return h.withIdempotency(ctx, event, func(ctx context.Context) error {
		fromUserID := dataString(event, "from_user_id")
		toUserID := dataString(event, "to_user_id")
		if fromUserID == "" || toUserID == "" {
			return fmt.Errorf("friend request sent event %s missing user ids", event.EventID)
		}

		if err := h.cache.Delete(ctx,
			domain.InboundRequestsKey(toUserID),
			domain.OutboundRequestsKey(fromUserID),
		); err != nil {
			return err
		}

		h.notify(ctx, h.notifier.FriendRequestReceived(ctx, toUserID, fromUserID))
		return nil
	})
}

func (h *EventHandlers) HandleFriendRequestAccepted(ctx context.Context, event *domain.DomainEvent) error {
	return h.withIdempotency(ctx, event, func(ctx context.Context) error {
		fromUserID := dataString(event, "from_user_id")
		toUserID := dataString(event, "to_user_id")
		if fromUserID == "" || toUserID == "" {
			return fmt.Errorf("friend request accepted event %s missing user ids", event.EventID)
		}

		if err := h.cache.Delete(ctx,
			domain.InboundRequestsKey(toUserID),
			domain.OutboundRequestsKey(fromUserID),
			domain.InboundRequestsKey(fromUserID),
			domain.OutboundRequestsKey(toUserID),
			domain.FriendshipsKey(fromUserID),
			domain.FriendshipsKey(toUserID),
			domain.FriendSetKey(fromUserID),
			domain.FriendSetKey(toUserID),
		); err != nil {
			return err
		}

		h.notify(ctx, h.notifier.FriendRequestAccepted(ctx, fromUserID, toUserID))
		h.warmRecommendations(ctx, fromUserID, toUserID)
		return nil
	})
}

func (h *EventHandlers) HandleFriendRequestRejected(ctx context.Context, event *domain.DomainEvent) error {
	return h.withIdempotency(ctx, event, func(ctx context.Context) error {
		fromUserID := dataString(event, "from_user_id")
		toUserID := dataString(event, "to_user_id")
		if fromUserID == "" || toUserID == "" {
			return fmt.Errorf("friend request rejected event %s missing user ids", event.EventID)
		}

		return h.cache.Delete(ctx,
			domain.InboundRequestsKey(toUserID),
			domain.OutboundRequestsKey(fromUserID),
		)
	})
}

// HandleFriendRemoved also drops both feed caches; removal changes fan-out
// membership.
func (h *EventHandlers) HandleFriendRemoved(ctx context.Context, event *domain.DomainEvent) error {
	return h.withIdempotency(ctx, event, func(ctx context.Context) error {
		userID := dataString(event, "user_id")
		friendID := dataString(event, "friend_id")
		if userID == "" || friendID == "" {
			return fmt.Errorf("friend removed event %s missing user ids", event.EventID)
		}

		if err := h.cache.Delete(ctx,
			domain.FriendshipsKey(userID),
			domain.FriendshipsKey(friendID),
			domain.FriendSetKey(userID),
			domain.FriendSetKey(friendID),
			domain.FeedKey(userID),
			domain.FeedKey(friendID),
		); err != nil {
			return err
		}

		h.warmRecommendations(ctx, userID, friendID)
		return nil
	})
}

func (h *EventHandlers) HandleActivityCreated(ctx context.Context, event *domain.DomainEvent) error {
	return h.withIdempotency(ctx, event, func(ctx context.Context) error {
		actorUserID := dataString(event, "actor_user_id")
		activityID := dataString(event, "activity_id")
		if actorUserID == "" || activityID == "" {
			return fmt.Errorf("activity created event %s missing fields", event.EventID)
		}

		visibility := domain.PrivacyLevel(dataString(event, "visibility"))

		createdAt := event.Timestamp
		if raw := dataString(event, "created_at"); raw != "" {
			if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
				createdAt = parsed
			}
		}

		return h.feed.FanOutActivity(ctx, actorUserID, activityID, visibility, createdAt)
	})
}

// notify logs a failed notification without failing the handler.
func (h *EventHandlers) notify(ctx context.Context, err error) {
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Warn("notification hook failed")
	}
}

// warmRecommendations refreshes the cached lists after a graph change. Best
// effort: a failed warm leaves the stale entry to expire on its TTL.
func (h *EventHandlers) warmRecommendations(ctx context.Context, userIDs ...domain.UserID) {
	for _, userID := range userIDs {
		if err := h.recommendations.WarmRecommendations(ctx, userID); err != nil {
			h.logger.WithContext(ctx).WithError(err).
				WithField("user_id", userID).
				Warn("recommendation warm failed")
		}
	}
}

// withIdempotency skips events whose marker already exists and records the
// marker only after the side effect succeeds, so a failed handler is safely
// redelivered.
func (h *EventHandlers) withIdempotency(ctx context.Context, event *domain.DomainEvent, fn func(ctx context.Context) error) error {
	h.metrics.EventsConsumed.WithLabelValues(event.EventType).Inc()
	start := time.Now()

	key := domain.EventHandledKey(event.EventID)
	_, handled, err := h.cache.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("idempotency check failed for event %s: %w", event.EventID, err)
	}
	if handled {
		h.metrics.EventsDuplicate.WithLabelValues(event.EventType).Inc()
		h.logger.WithContext(ctx).WithField("event_id", event.EventID).Debug("event already handled, skipping")
		return nil
	}

	if err := fn(ctx); err != nil {
		h.metrics.EventsFailed.WithLabelValues(event.EventType).Inc()
		return err
	}

	if err := h.cache.Set(ctx, key, "1", domain.IdempotencyTTL); err != nil {
		h.logger.WithContext(ctx).WithError(err).Warn("failed to record idempotency marker")
	}

	h.metrics.HandlerDuration.WithLabelValues(event.EventType).Observe(time.Since(start).Seconds())
	return nil
}

func dataString(event *domain.DomainEvent, key string) string {
	if event.Data == nil {
		return ""
	}
	if value, ok := event.Data[key].(string); ok {
		return value
	}
	return ""
}
