// Package ratelimit implements a sliding-window attempt counter. The window
// state lives behind a Store so it can sit in process memory or in Redis, and
// time comes from an injected clock.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Rule defines a rate limiting policy: the key prefix, the maximum number of
// attempts inside the window, and the window length.
type Rule struct {
	Prefix string
	Limit  int
	Window time.Duration
}

var (
	// RuleContactForm allows 3 detailed-form attempts per 5 minutes per email.
	RuleContactForm = Rule{Prefix: "contact-", Limit: 3, Window: 5 * time.Minute}

	// RuleAPIPerIP throttles the public form endpoints per client IP.
	RuleAPIPerIP = Rule{Prefix: "ip-", Limit: 30, Window: time.Minute}
)

// Store keeps the attempt timestamps for each key.
type Store interface {
	// Attempts drops timestamps at or before since and returns the rest,
	// oldest first.
	Attempts(ctx context.Context, key string, since time.Time) ([]time.Time, error)
	// Record appends an attempt. ttl is how long the key must outlive it.
	Record(ctx context.Context, key string, at time.Time, ttl time.Duration) error
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long until the oldest attempt leaves the window.
	// Zero when Allowed.
	RetryAfter time.Duration
}

// Limiter performs rate limiting checks against a Store.
type Limiter struct {
	store Store
	clock clockwork.Clock
}

// NewLimiter creates a Limiter. A nil clock means the real clock.
func NewLimiter(store Store, clock clockwork.Clock) *Limiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Limiter{store: store, clock: clock}
}

// Allow checks identifier against rule and records the attempt when it is
// within the limit. A rejected attempt is not recorded, so hammering a full
// window never pushes its end further out.
//
// Store errors fail open: the attempt is allowed and the error is returned
// alongside the decision so the caller can log it.
func (l *Limiter) Allow(ctx context.Context, identifier string, rule Rule) (Decision, error) {
	key := rule.Prefix + identifier
	now := l.clock.Now()

	attempts, err := l.store.Attempts(ctx, key, now.Add(-rule.Window))
	if err != nil {
		slog.Warn("ratelimit: store read failed, failing open", "key", key, "error", err)
		return Decision{Allowed: true, Remaining: rule.Limit}, err
	}

	if len(attempts) >= rule.Limit {
		retry := attempts[0].Add(rule.Window).Sub(now)
		if retry < 0 {
			retry = 0
		}
		return Decision{Allowed: false, RetryAfter: retry}, nil
	}

	remaining := rule.Limit - len(attempts) - 1
	if err := l.store.Record(ctx, key, now, rule.Window); err != nil {
		slog.Warn("ratelimit: store write failed, failing open", "key", key, "error", err)
		return Decision{Allowed: true, Remaining: remaining}, err
	}
	return Decision{Allowed: true, Remaining: remaining}, nil
}
