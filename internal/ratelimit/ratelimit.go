// Package ratelimit enforces per-key event caps within a fixed window on
// top of a shared cache.Store.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/technofatty/technofatty/internal/cache"
)

// Rule caps one key at Limit events per Window.
type Rule struct {
	Key    string
	Limit  int
	Window time.Duration
}

// Limiter decides whether one more event is allowed.
type Limiter interface {
	CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	// Allow checks every rule and counts the event against all of them only
	// when none is exhausted.
	Allow(ctx context.Context, rules ...Rule) (bool, error)
}

// StoreLimiter counts events in a cache.Store. A counter is read and, only
// when it is below the limit, incremented in one atomic step; rejected
// attempts are not counted. The window starts with the first counted event
// and the counter expires with it.
type StoreLimiter struct {
	store cache.Store
}

// New creates a limiter backed by store.
func New(store cache.Store) *StoreLimiter {
	return &StoreLimiter{store: store}
}

// CheckAndIncrement reports whether one more event fits key's limit and
// counts it when it does.
func (l *StoreLimiter) CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return l.Allow(ctx, Rule{Key: key, Limit: limit, Window: window})
}

// Allow is CheckAndIncrement over several keys at once.
func (l *StoreLimiter) Allow(ctx context.Context, rules ...Rule) (bool, error) {
	counters := make([]cache.Counter, 0, len(rules))
	for _, r := range rules {
		if r.Limit <= 0 {
			return false, nil
		}
		counters = append(counters, cache.Counter{Key: r.Key, Limit: int64(r.Limit), TTL: r.Window})
	}
	allowed, err := l.store.IncrBelow(ctx, counters...)
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", keys(rules), err)
	}
	return allowed, nil
}

func keys(rules []Rule) string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Key
	}
	return strings.Join(names, ",")
}

// HashEmail returns the sha256 hex digest of a normalized address, used so
// raw emails never appear in keys or logs.
func HashEmail(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// NewsletterIPKey is the newsletter per-IP counter key.
func NewsletterIPKey(ip string) string {
	return "nl:ip:" + ip
}

// NewsletterEmailKey is the newsletter per-address counter key.
func NewsletterEmailKey(email string) string {
	return "nl:email:" + HashEmail(email)
}

// ContactKey is the contact form IP+email counter key.
func ContactKey(ip, email string) string {
	return "contact:" + ip + ":" + strings.ToLower(strings.TrimSpace(email))
}

// CommunityPostKey is the community post per-IP counter key.
func CommunityPostKey(ip string) string {
	return "community:" + ip
}
