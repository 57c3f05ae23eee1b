package coordinator

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/stacklok/catalog-sync/internal/config"
)

const (
	// DefaultSyncInterval is used when no valid sync policy is configured
	DefaultSyncInterval = 15 * time.Minute

	// jitterFraction is the maximum relative offset applied to each tick
	jitterFraction = 0.1
)

// getSyncInterval extracts the sync interval from the policy configuration
func getSyncInterval(policy *config.SyncPolicyConfig) time.Duration {
	if policy != nil && policy.Interval != "" {
		if interval, err := time.ParseDuration(policy.Interval); err == nil && interval > 0 {
			return interval
		}
		slog.Warn("Invalid sync interval, using default",
			"interval", policy.Interval,
			"default", DefaultSyncInterval)
	}

	return DefaultSyncInterval
}

// withJitter returns interval shifted by a random offset of at most ±10%
// so that several instances do not hit the e-shop at the same moment.
func withJitter(interval time.Duration) time.Duration {
	maxOffset := int64(float64(interval) * jitterFraction)
	if maxOffset <= 0 {
		return interval
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for scheduling jitter
	offset := time.Duration(rand.Int64N(2*maxOffset+1) - maxOffset)
	return interval + offset
}
