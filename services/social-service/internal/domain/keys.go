package domain

import "time"

// Cache TTLs. List and feed entries churn quickly; membership sets and
// privacy settings are invalidated explicitly and can live longer.
const (
	ListCacheTTL            = 5 * time.Minute
	FeedCacheTTL            = 5 * time.Minute
	FriendSetCacheTTL       = time.Hour
	PrivacyCacheTTL         = time.Hour
	RecommendationsCacheTTL = time.Hour
	IdempotencyTTL          = 24 * time.Hour
)

func InboundRequestsKey(userID UserID) string {
	return "friend_requests:inbound:" + userID
}

func OutboundRequestsKey(userID UserID) string {
	return "friend_requests:outbound:" + userID
}

func FriendshipsKey(userID UserID) string {
	return "friendships:" + userID
}

func FriendSetKey(userID UserID) string {
	return "friends:set:" + userID
}

func FeedKey(userID UserID) string {
	return "feed:user:" + userID
}

func PrivacyKey(userID UserID) string {
	return "privacy:" + userID
}

func RecommendationsKey(userID UserID) string {
	return "recommendations:" + userID
}

func EventHandledKey(eventID string) string {
	return "event_handled:" + eventID
}
