package domain

import (
	"time"

	"github.com/google/uuid"
)

// Domain event types carried on the social events exchange.
const (
	EventFriendRequestSent     = "friend_request_sent"
	EventFriendRequestAccepted = "friend_request_accepted"
	EventFriendRequestRejected = "friend_request_rejected"
	EventFriendRemoved         = "friend_removed"
	EventActivityCreated       = "activity_event_created"
)

// DomainEvent is the envelope published for every social mutation. The
// IdempotencyKey is the dedup contract for at-least-once delivery.
type DomainEvent struct {
	Schema         string                 `json:"schema"`
	Version        string                 `json:"version"`
	EventID        string                 `json:"event_id"`
	EventType      string                 `json:"event_type"`
	AggregateID    string                 `json:"aggregate_id"`
	AggregateType  string                 `json:"aggregate_type"`
	CorrelationID  string                 `json:"correlation_id,omitempty"`
	IdempotencyKey string                 `json:"idempotency_key"`
	Data           map[string]interface{} `json:"data"`
	Timestamp      time.Time              `json:"timestamp"`
}

func newDomainEvent(eventType, aggregateType, aggregateID string, data map[string]interface{}) *DomainEvent {
	eventID := uuid.New().String()
	return &DomainEvent{
		Schema:         "social.events",
		Version:        "1",
		EventID:        eventID,
		EventType:      eventType,
		AggregateID:    aggregateID,
		AggregateType:  aggregateType,
		IdempotencyKey: eventID,
		Data:           data,
		Timestamp:      time.Now().UTC(),
	}
}

func NewFriendRequestSentEvent(request *FriendRequest) *DomainEvent {
	return newDomainEvent(EventFriendRequestSent, "friend_request", request.ID, map[string]interface{}{
		"request_id":   request.ID,
		"from_user_id": request.FromUserID,
		"to_user_id":   request.ToUserID,
	})
}

func NewFriendRequestAcceptedEvent(request *FriendRequest) *DomainEvent {
	return newDomainEvent(EventFriendRequestAccepted, "friend_request", request.ID, map[string]interface{}{
		"request_id":   request.ID,
		"from_user_id": request.FromUserID,
		"to_user_id":   request.ToUserID,
	})
}

func NewFriendRequestRejectedEvent(request *FriendRequest) *DomainEvent {
	return newDomainEvent(EventFriendRequestRejected, "friend_request", request.ID, map[string]interface{}{
		"request_id":   request.ID,
		"from_user_id": request.FromUserID,
		"to_user_id":   request.ToUserID,
	})
}

func NewFriendRemovedEvent(userID, friendID UserID) *DomainEvent {
	return newDomainEvent(EventFriendRemoved, "friendship", userID, map[string]interface{}{
		"user_id":   userID,
		"friend_id": friendID,
	})
}

func NewActivityCreatedEvent(event *ActivityEvent) *DomainEvent {
	return newDomainEvent(EventActivityCreated, "activity_event", event.ID, map[string]interface{}{
		"activity_id":   event.ID,
		"actor_user_id": event.ActorUserID,
		"event_type":    string(event.EventType),
		"visibility":    string(event.Visibility),
		"created_at":    event.CreatedAt.Format(time.RFC3339Nano),
	})
}
