package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedCursorRoundTrip(t *testing.T) {
	cursor := FeedCursor{LastScore: 1755859200123, LastID: "event-42"}

	decoded, err := DecodeFeedCursor(cursor.Encode())
	require.NoError(t, err)
	assert.Equal(t, cursor, decoded)
}

func TestDecodeFeedCursorInvalid(t *testing.T) {
	_, err := DecodeFeedCursor("not base64!!")
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Valid base64, invalid JSON.
	_, err = DecodeFeedCursor("bm90LWpzb24=")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestActivityEventTypeValid(t *testing.T) {
	assert.True(t, ActivityGamePlayed.Valid())
	assert.True(t, ActivityTournamentFinished.Valid())
	assert.False(t, ActivityEventType("made_up").Valid())
	assert.False(t, ActivityEventType("").Valid())
}

func TestNewActivityEventDefaultsVisibility(t *testing.T) {
	payload := json.RawMessage(`{"score":1200}`)

	event := NewActivityEvent("user-a", ActivityScoreAchieved, payload, PrivacyLevel("bogus"))
	assert.Equal(t, PrivacyPublic, event.Visibility)

	event = NewActivityEvent("user-a", ActivityScoreAchieved, payload, PrivacyFriendsOnly)
	assert.Equal(t, PrivacyFriendsOnly, event.Visibility)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.IsDeleted())
}
