package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrSelfFriendRequest          = errors.New("self_friend_request")
	ErrUserBlocked                = errors.New("user_blocked")
	ErrUserNotFound               = errors.New("user_not_found")
	ErrFriendshipAlreadyExists    = errors.New("friendship_already_exists")
	ErrFriendRequestAlreadyExists = errors.New("friend_request_already_exists")
	ErrRateLimitExceeded          = errors.New("rate_limit_exceeded")
	ErrFriendRequestNotFound      = errors.New("friend_request_not_found")
	ErrFriendshipNotFound         = errors.New("friendship_not_found")
	ErrUnauthorizedAccess         = errors.New("unauthorized_access")
	ErrPrivacySettingsNotFound    = errors.New("privacy_settings_not_found")
	ErrActivityEventNotFound      = errors.New("activity_event_not_found")
	ErrInvalidStateTransition     = errors.New("invalid_state_transition")
	ErrInvalidInput               = errors.New("invalid_input")
	ErrDatabaseOperation          = errors.New("database_operation_failed")
)

// Error helpers
func NewInvalidInputError(field string, reason string) error {
	return fmt.Errorf("%w: %s - %s", ErrInvalidInput, field, reason)
}

func NewDatabaseError(operation string, err error) error {
	return fmt.Errorf("%w: %s - %v", ErrDatabaseOperation, operation, err)
}
