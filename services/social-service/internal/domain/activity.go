package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActivityEventType enumerates the activities a player can surface in feeds.
type ActivityEventType string

const (
	ActivityGamePlayed          ActivityEventType = "game_played"
	ActivityScoreAchieved       ActivityEventType = "score_achieved"
	ActivityStatusUpdate        ActivityEventType = "status_update"
	ActivityAchievementUnlocked ActivityEventType = "achievement_unlocked"
	ActivityLevelUp             ActivityEventType = "level_up"
	ActivityTournamentFinished  ActivityEventType = "tournament_finished"
)

func (t ActivityEventType) Valid() bool {
	switch t {
	case ActivityGamePlayed, ActivityScoreAchieved, ActivityStatusUpdate,
		ActivityAchievementUnlocked, ActivityLevelUp, ActivityTournamentFinished:
		return true
	}
	return false
}

// ActivityEvent is immutable once recorded except for soft-delete.
type ActivityEvent struct {
	ID          string            `db:"id" json:"id"`
	ActorUserID UserID            `db:"actor_user_id" json:"actor_user_id"`
	EventType   ActivityEventType `db:"event_type" json:"event_type"`
	Payload     json.RawMessage   `db:"payload" json:"payload,omitempty"`
	Visibility  PrivacyLevel      `db:"visibility" json:"visibility"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	DeletedAt   *time.Time        `db:"deleted_at" json:"deleted_at,omitempty"`
}

func (e *ActivityEvent) IsDeleted() bool {
	return e.DeletedAt != nil
}

// NewActivityEvent records an activity; visibility defaults to public.
func NewActivityEvent(actorUserID UserID, eventType ActivityEventType, payload json.RawMessage, visibility PrivacyLevel) *ActivityEvent {
	if !visibility.Valid() {
		visibility = PrivacyPublic
	}
	return &ActivityEvent{
		ID:          uuid.New().String(),
		ActorUserID: actorUserID,
		EventType:   eventType,
		Payload:     payload,
		Visibility:  visibility,
		CreatedAt:   time.Now().UTC(),
	}
}

// FeedCursor marks a position in a score-descending feed. Clients must treat
// the encoded form as opaque.
type FeedCursor struct {
	LastScore float64 `json:"last_score"`
	LastID    string  `json:"last_id"`
}

// Encode serializes the cursor to its opaque wire form.
func (c FeedCursor) Encode() string {
	raw, _ := json.Marshal(c)
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeFeedCursor parses an opaque cursor produced by Encode.
func DecodeFeedCursor(encoded string) (FeedCursor, error) {
	var cursor FeedCursor
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return cursor, fmt.Errorf("%w: cursor - %v", ErrInvalidInput, err)
	}
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return cursor, fmt.Errorf("%w: cursor - %v", ErrInvalidInput, err)
	}
	return cursor, nil
}

// FeedPage is one page of a user's activity feed.
type FeedPage struct {
	Items      []*ActivityEvent `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
