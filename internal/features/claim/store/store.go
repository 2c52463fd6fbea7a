// Package store persists the client-side claim state: the per-address
// ClaimTimer, the social checklist and the correlation slot for the attempt
// in flight.
package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"daily-claim-backend/internal/common/errors"
	"daily-claim-backend/internal/common/validation"
	platformredis "daily-claim-backend/internal/platform/redis"
)

const (
	keyPrefixTimer     = "claim:timer:"
	keyPrefixReference = "claim:reference:"
	followedInfix      = "_followed_"
	followedValue      = "true"
)

func addressKey(address string) string {
	return validation.NormalizeAddress(address)
}

// Timers stores nextClaimEpochMillis per address.
type Timers struct {
	kv platformredis.Commands
}

func NewTimers(kv platformredis.Commands) *Timers {
	return &Timers{kv: kv}
}

func timerKey(address string) string {
	return keyPrefixTimer + addressKey(address)
}

// Set overwrites the timer for address.
func (t *Timers) Set(ctx context.Context, address string, next time.Time) error {
	value := strconv.FormatInt(next.UnixMilli(), 10)
	if err := t.kv.Set(ctx, timerKey(address), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to save claim timer: %w", err)
	}
	return nil
}

// Get returns the stored timer. ok is false when none is stored.
func (t *Timers) Get(ctx context.Context, address string) (next time.Time, ok bool, err error) {
	raw, err := t.kv.Get(ctx, timerKey(address)).Result()
	if platformredis.IsNil(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get claim timer: %w", err)
	}

	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse claim timer %q: %w", raw, err)
	}
	return time.UnixMilli(millis), true, nil
}

// Active returns the timer if it has not expired at now. An expired timer is
// deleted.
func (t *Timers) Active(ctx context.Context, address string, now time.Time) (time.Time, bool, error) {
	next, ok, err := t.Get(ctx, address)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	if now.Before(next) {
		return next, true, nil
	}
	if err := t.Clear(ctx, address); err != nil {
		return time.Time{}, false, err
	}
	return time.Time{}, false, nil
}

func (t *Timers) Clear(ctx context.Context, address string) error {
	if err := t.kv.Del(ctx, timerKey(address)).Err(); err != nil {
		return fmt.Errorf("failed to delete claim timer: %w", err)
	}
	return nil
}

// Checklist records which platforms an address has followed.
type Checklist struct {
	kv        platformredis.Commands
	platforms []string
}

func NewChecklist(kv platformredis.Commands, platforms []string) *Checklist {
	normalized := make([]string, 0, len(platforms))
	for _, p := range platforms {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			normalized = append(normalized, p)
		}
	}
	return &Checklist{kv: kv, platforms: normalized}
}

// Platforms returns the configured platform set in order.
func (c *Checklist) Platforms() []string {
	out := make([]string, len(c.platforms))
	copy(out, c.platforms)
	return out
}

func followedKey(platform, address string) string {
	return platform + followedInfix + addressKey(address)
}

func (c *Checklist) MarkFollowed(ctx context.Context, address, platform string) error {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if !c.known(platform) {
		return errors.NewValidationError("platform", fmt.Sprintf("must be one of %s", strings.Join(c.platforms, ", ")))
	}
	if err := c.kv.Set(ctx, followedKey(platform, address), followedValue, 0).Err(); err != nil {
		return fmt.Errorf("failed to save follow flag: %w", err)
	}
	return nil
}

// Followed returns the flag of every configured platform.
func (c *Checklist) Followed(ctx context.Context, address string) (map[string]bool, error) {
	flags := make(map[string]bool, len(c.platforms))
	for _, p := range c.platforms {
		raw, err := c.kv.Get(ctx, followedKey(p, address)).Result()
		if err != nil && !platformredis.IsNil(err) {
			return nil, fmt.Errorf("failed to get follow flag: %w", err)
		}
		flags[p] = raw == followedValue
	}
	return flags, nil
}

// Missing lists the platforms not yet followed, in configured order.
func (c *Checklist) Missing(ctx context.Context, address string) ([]string, error) {
	flags, err := c.Followed(ctx, address)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, p := range c.platforms {
		if !flags[p] {
			missing = append(missing, p)
		}
	}
	return missing, nil
}

func (c *Checklist) known(platform string) bool {
	for _, p := range c.platforms {
		if p == platform {
			return true
		}
	}
	return false
}

// References is the short-lived correlation slot binding a submission to
// its later verification.
type References struct {
	kv  platformredis.Commands
	ttl time.Duration
}

func NewReferences(kv platformredis.Commands, ttl time.Duration) *References {
	return &References{kv: kv, ttl: ttl}
}

func referenceKey(address string) string {
	return keyPrefixReference + addressKey(address)
}

func (r *References) Put(ctx context.Context, address, reference string) error {
	if err := r.kv.Set(ctx, referenceKey(address), reference, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save claim reference: %w", err)
	}
	return nil
}

func (r *References) Get(ctx context.Context, address string) (string, bool, error) {
	ref, err := r.kv.Get(ctx, referenceKey(address)).Result()
	if platformredis.IsNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get claim reference: %w", err)
	}
	return ref, true, nil
}
