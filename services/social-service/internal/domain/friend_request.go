package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserID = string

// RequestState is the lifecycle state of a friend request. Pending is the
// only non-terminal state.
type RequestState string

const (
	RequestStatePending   RequestState = "pending"
	RequestStateAccepted  RequestState = "accepted"
	RequestStateRejected  RequestState = "rejected"
	RequestStateCancelled RequestState = "cancelled"
	RequestStateExpired   RequestState = "expired"
	RequestStateBlocked   RequestState = "blocked"
)

// RequestTTL is how long a pending request stays acceptable.
const RequestTTL = 30 * 24 * time.Hour

// MaxPendingOutbound caps how many unanswered requests a user may have open.
const MaxPendingOutbound = 10

type FriendRequest struct {
	ID          string       `db:"id" json:"id"`
	FromUserID  UserID       `db:"from_user_id" json:"from_user_id"`
	ToUserID    UserID       `db:"to_user_id" json:"to_user_id"`
	State       RequestState `db:"state" json:"state"`
	Message     string       `db:"message" json:"message,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
	RespondedAt *time.Time   `db:"responded_at" json:"responded_at,omitempty"`
	ExpiresAt   *time.Time   `db:"expires_at" json:"expires_at,omitempty"`
}

// NewFriendRequest creates a pending request with the default expiry window.
func NewFriendRequest(fromUserID, toUserID UserID, message string) *FriendRequest {
	now := time.Now().UTC()
	expiresAt := now.Add(RequestTTL)
	return &FriendRequest{
		ID:         uuid.New().String(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		State:      RequestStatePending,
		Message:    message,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  &expiresAt,
	}
}

// IsExpired is evaluated at call time; expiry is derived, never stored as
// the current state until a transition observes it.
func (r *FriendRequest) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// CanAccept reports whether the request may legally transition to accepted.
func (r *FriendRequest) CanAccept(now time.Time) bool {
	return r.State == RequestStatePending && !r.IsExpired(now)
}

// Accept transitions pending -> accepted.
func (r *FriendRequest) Accept(now time.Time) error {
	if !r.CanAccept(now) {
		return ErrInvalidStateTransition
	}
	r.transition(RequestStateAccepted, now)
	return nil
}

// CanReject reports whether the request may legally transition to rejected.
// Expiry is re-evaluated here just like on accept; an expired request can no
// longer be answered either way.
func (r *FriendRequest) CanReject(now time.Time) bool {
	return r.State == RequestStatePending && !r.IsExpired(now)
}

// Reject transitions pending -> rejected.
func (r *FriendRequest) Reject(now time.Time) error {
	if !r.CanReject(now) {
		return ErrInvalidStateTransition
	}
	r.transition(RequestStateRejected, now)
	return nil
}

// MarkBlocked transitions pending -> blocked, for when the recipient blocks
// the sender while the request is still open.
func (r *FriendRequest) MarkBlocked(now time.Time) error {
	if r.State != RequestStatePending {
		return ErrInvalidStateTransition
	}
	r.transition(RequestStateBlocked, now)
	return nil
}

// Cancel transitions pending -> cancelled.
func (r *FriendRequest) Cancel(now time.Time) error {
	if r.State != RequestStatePending {
		return ErrInvalidStateTransition
	}
	r.transition(RequestStateCancelled, now)
	return nil
}

func (r *FriendRequest) transition(state RequestState, now time.Time) {
	r.State = state
	r.UpdatedAt = now
	responded := now
	r.RespondedAt = &responded
}
