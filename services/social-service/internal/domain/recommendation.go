package domain

// Scoring weights for the recommendation composite. They sum to 1.
const (
	WeightMutualFriends      = 0.35
	WeightSharedInterests    = 0.20
	WeightSkillProximity     = 0.20
	WeightInteractionRecency = 0.15
	WeightSocialDistance     = 0.10
)

// Recommendation reason tags.
const (
	ReasonMutualFriends   = "mutual_friends"
	ReasonSharedInterests = "shared_interests"
	ReasonSkillProximity  = "skill_proximity"
)

// NeutralSkillProximity is used when no leaderboard score is available for
// either party.
const NeutralSkillProximity = 0.5

// RecommendationSignals are the raw inputs gathered per candidate before
// normalization.
type RecommendationSignals struct {
	MutualFriendsCount   int
	SharedInterestsCount int
	SkillProximity       float64
	InteractionRecency   float64
	HopCount             int
}

// FriendRecommendation is one scored candidate.
type FriendRecommendation struct {
	UserID             UserID  `json:"user_id"`
	Score              float64 `json:"score"`
	MutualFriendsCount int     `json:"mutual_friends_count"`
	Reason             string  `json:"reason"`
}

// SkillProximity maps a leaderboard score distance onto [0, 1].
func SkillProximity(scoreA, scoreB float64) float64 {
	diff := scoreA - scoreB
	if diff < 0 {
		diff = -diff
	}
	proximity := 1 - diff/1000
	if proximity < 0 {
		return 0
	}
	return proximity
}

// ScoreRecommendation combines the signals into a composite score and a
// dominant-signal reason tag.
func ScoreRecommendation(candidateID UserID, signals RecommendationSignals) FriendRecommendation {
	mutual := normalize(float64(signals.MutualFriendsCount), 10)
	shared := normalize(float64(signals.SharedInterestsCount), 5)

	socialDistance := 0.0
	if signals.HopCount > 0 {
		socialDistance = 1 / float64(signals.HopCount)
	}

	score := WeightMutualFriends*mutual +
		WeightSharedInterests*shared +
		WeightSkillProximity*signals.SkillProximity +
		WeightInteractionRecency*signals.InteractionRecency +
		WeightSocialDistance*socialDistance

	reason := ReasonMutualFriends
	switch {
	case shared > mutual:
		reason = ReasonSharedInterests
	case signals.SkillProximity > 0.7:
		reason = ReasonSkillProximity
	}

	return FriendRecommendation{
		UserID:             candidateID,
		Score:              score,
		MutualFriendsCount: signals.MutualFriendsCount,
		Reason:             reason,
	}
}

func normalize(value, scale float64) float64 {
	normalized := value / scale
	if normalized > 1 {
		return 1
	}
	return normalized
}
