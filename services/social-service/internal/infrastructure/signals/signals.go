package signals

import (
	"context"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
)

// NeutralSource returns zero for every soft signal. It stands in until an
// interest-tagging or interaction-history source is wired up.
type NeutralSource struct{}

func NewNeutralSource() domain.SignalSource {
	return &NeutralSource{}
}

func (s *NeutralSource) SharedInterestsCount(ctx context.Context, userID, candidateID domain.UserID) (int, error) {
	return 0, nil
}

func (s *NeutralSource) InteractionRecency(ctx context.Context, userID, candidateID domain.UserID) (float64, error) {
	return 0, nil
}
