package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter answers whether a (user, operation) pair may proceed.
type Limiter interface {
	Allow(userID, operation string) bool
}

// OperationLimit defines the token bucket for one operation.
type OperationLimit struct {
	RatePerSecond float64
	Burst         int
}

// Config holds per-operation limits and a fallback default.
type Config struct {
	Default         OperationLimit
	OperationLimits map[string]OperationLimit
	CleanupInterval time.Duration
	IdleTimeout     time.Duration
}

// DefaultConfig returns limits tuned for social write operations.
func DefaultConfig() *Config {
	return &Config{
		Default: OperationLimit{RatePerSecond: 10, Burst: 20},
		OperationLimits: map[string]OperationLimit{
			"send_friend_request": {RatePerSecond: 1, Burst: 5},
			"record_activity":     {RatePerSecond: 2, Burst: 10},
		},
		CleanupInterval: 5 * time.Minute,
		IdleTimeout:     15 * time.Minute,
	}
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per (user, operation) key and evicts
// buckets that have been idle past the configured timeout.
type KeyedLimiter struct {
	config  *Config
	mu      sync.Mutex
	buckets map[string]*entry
	done    chan struct{}
}

// NewKeyedLimiter creates a limiter and starts its cleanup loop.
func NewKeyedLimiter(config *Config) *KeyedLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	kl := &KeyedLimiter{
		config:  config,
		buckets: make(map[string]*entry),
		done:    make(chan struct{}),
	}

	go kl.cleanupLoop()
	return kl
}

// Allow reports whether the operation may proceed for the user right now.
func (kl *KeyedLimiter) Allow(userID, operation string) bool {
	limit := kl.config.Default
	if opLimit, ok := kl.config.OperationLimits[operation]; ok {
		limit = opLimit
	}

	key := userID + ":" + operation

	kl.mu.Lock()
	e, ok := kl.buckets[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Limit(limit.RatePerSecond), limit.Burst)}
		kl.buckets[key] = e
	}
	e.lastSeen = time.Now()
	kl.mu.Unlock()

	return e.limiter.Allow()
}

// Close stops the cleanup loop.
func (kl *KeyedLimiter) Close() {
	close(kl.done)
}

func (kl *KeyedLimiter) cleanupLoop() {
	interval := kl.config.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-kl.done:
			return
		case <-ticker.C:
			kl.evictIdle()
		}
	}
}

func (kl *KeyedLimiter) evictIdle() {
	idle := kl.config.IdleTimeout
	if idle <= 0 {
		idle = 15 * time.Minute
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()
	for key, e := range kl.buckets {
		if time.Since(e.lastSeen) > idle {
			delete(kl.buckets, key)
		}
	}
}
