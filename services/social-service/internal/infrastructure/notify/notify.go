package notify

import (
	"context"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/logging"
)

// LogNotifier records notification intents in the log. It stands in until a
// notification service consumes these events directly.
type LogNotifier struct {
	logger *logging.Logger
}

func NewLogNotifier(logger *logging.Logger) domain.Notifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) FriendRequestReceived(ctx context.Context, toUserID, fromUserID domain.UserID) error {
	n.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"to_user_id":   toUserID,
		"from_user_id": fromUserID,
	}).Info("friend request notification")
	return nil
}

func (n *LogNotifier) FriendRequestAccepted(ctx context.Context, fromUserID, toUserID domain.UserID) error {
	n.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"from_user_id": fromUserID,
		"to_user_id":   toUserID,
	}).Info("friend request accepted notification")
	return nil
}
