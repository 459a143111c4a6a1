package domain

import (
	"time"

	"github.com/google/uuid"
)

// Friendship is one directed edge of the friendship graph. A real friendship
// is always two edges, created and removed together.
type Friendship struct {
	ID        string     `db:"id" json:"id"`
	UserID    UserID     `db:"user_id" json:"user_id"`
	FriendID  UserID     `db:"friend_id" json:"friend_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

func (f *Friendship) IsDeleted() bool {
	return f.DeletedAt != nil
}

// NewFriendshipPair builds both directed edges for a new friendship with
// shared timestamps. Returns nil when userID == friendID.
func NewFriendshipPair(userID, friendID UserID) []*Friendship {
	if userID == friendID {
		return nil
	}
	now := time.Now().UTC()
	return []*Friendship{
		{
			ID:        uuid.New().String(),
			UserID:    userID,
			FriendID:  friendID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        uuid.New().String(),
			UserID:    friendID,
			FriendID:  userID,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// UserBlock records that blockerID does not accept contact from blockedID.
type UserBlock struct {
	ID        string    `db:"id" json:"id"`
	BlockerID UserID    `db:"blocker_id" json:"blocker_id"`
	BlockedID UserID    `db:"blocked_id" json:"blocked_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func NewUserBlock(blockerID, blockedID UserID) *UserBlock {
	return &UserBlock{
		ID:        uuid.New().String(),
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: time.Now().UTC(),
	}
}
