package domain

import "time"

// PrivacyLevel controls who may see a given axis of a user's data.
type PrivacyLevel string

const (
	PrivacyPublic      PrivacyLevel = "public"
	PrivacyFriendsOnly PrivacyLevel = "friends_only"
	PrivacyPrivate     PrivacyLevel = "private"
)

func (p PrivacyLevel) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyFriendsOnly, PrivacyPrivate:
		return true
	}
	return false
}

// PrivacySettings holds the three independently configured visibility axes
// for one user. A row is created lazily with defaults on first access.
type PrivacySettings struct {
	UserID                UserID       `db:"user_id" json:"user_id"`
	ProfileVisibility     PrivacyLevel `db:"profile_visibility" json:"profile_visibility"`
	ShowActivityTo        PrivacyLevel `db:"show_activity_to" json:"show_activity_to"`
	LeaderboardVisibility PrivacyLevel `db:"leaderboard_visibility" json:"leaderboard_visibility"`
	CreatedAt             time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time    `db:"updated_at" json:"updated_at"`
}

// DefaultPrivacySettings returns the lazy-creation defaults.
func DefaultPrivacySettings(userID UserID) *PrivacySettings {
	now := time.Now().UTC()
	return &PrivacySettings{
		UserID:                userID,
		ProfileVisibility:     PrivacyPublic,
		ShowActivityTo:        PrivacyFriendsOnly,
		LeaderboardVisibility: PrivacyPublic,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}
