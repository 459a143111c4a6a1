package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, config *Config) *KeyedLimiter {
	t.Helper()
	kl := NewKeyedLimiter(config)
	t.Cleanup(kl.Close)
	return kl
}

func TestAllowExhaustsBurst(t *testing.T) {
	kl := newTestLimiter(t, &Config{
		Default:         OperationLimit{RatePerSecond: 0.001, Burst: 3},
		CleanupInterval: time.Minute,
		IdleTimeout:     time.Minute,
	})

	for i := 0; i < 3; i++ {
		assert.True(t, kl.Allow("user-a", "send_friend_request"), "call %d within burst", i)
	}
	assert.False(t, kl.Allow("user-a", "send_friend_request"))
}

func TestAllowIsolatesUsersAndOperations(t *testing.T) {
	kl := newTestLimiter(t, &Config{
		Default:         OperationLimit{RatePerSecond: 0.001, Burst: 1},
		CleanupInterval: time.Minute,
		IdleTimeout:     time.Minute,
	})

	assert.True(t, kl.Allow("user-a", "send_friend_request"))
	assert.False(t, kl.Allow("user-a", "send_friend_request"))

	// A different user or operation has its own bucket.
	assert.True(t, kl.Allow("user-b", "send_friend_request"))
	assert.True(t, kl.Allow("user-a", "record_activity"))
}

func TestAllowUsesOperationOverride(t *testing.T) {
	kl := newTestLimiter(t, &Config{
		Default: OperationLimit{RatePerSecond: 0.001, Burst: 1},
		OperationLimits: map[string]OperationLimit{
			"record_activity": {RatePerSecond: 0.001, Burst: 5},
		},
		CleanupInterval: time.Minute,
		IdleTimeout:     time.Minute,
	})

	for i := 0; i < 5; i++ {
		assert.True(t, kl.Allow("user-a", "record_activity"), "call %d within burst", i)
	}
	assert.False(t, kl.Allow("user-a", "record_activity"))
}

func TestEvictIdleDropsStaleBuckets(t *testing.T) {
	kl := newTestLimiter(t, &Config{
		Default:         OperationLimit{RatePerSecond: 0.001, Burst: 1},
		CleanupInterval: time.Hour,
		IdleTimeout:     time.Nanosecond,
	})

	assert.True(t, kl.Allow("user-a", "send_friend_request"))
	time.Sleep(time.Millisecond)
	kl.evictIdle()

	// Bucket was evicted, so the burst is fresh again.
	assert.True(t, kl.Allow("user-a", "send_friend_request"))
}
