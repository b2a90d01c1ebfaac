package agents

import (
	"context"
	"time"

	"speakai-platform/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCap is a ConcurrencyCap over Redis slot leases.
type RedisCap struct {
	rdb   *redis.Client
	limit int
	ttl   time.Duration
}

// createSteps is the length of the create pipeline, the longest one a lease covers.
const createSteps = 10

// LeaseTTL is long enough for every create step and its compensation to hit the
// step timeout, plus a minute of slack.
func LeaseTTL(stepTimeout time.Duration) time.Duration {
	if stepTimeout <= 0 {
		return 5 * time.Minute
	}
	return 2*createSteps*stepTimeout + time.Minute
}

// NewRedisCap allows limit concurrent provisioning runs per key. ttl bounds how
// long a lease survives a process that died mid-run.
func NewRedisCap(rdb *redis.Client, limit int, ttl time.Duration) *RedisCap {
	if limit <= 0 {
		limit = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCap{rdb: rdb, limit: limit, ttl: ttl}
}

func (c *RedisCap) Acquire(ctx context.Context, key string) (string, bool, error) {
	lease := uuid.NewString()
	ok, err := utils.AcquireSlot(ctx, c.rdb, key, lease, c.limit, c.ttl)
	if err != nil || !ok {
		return "", false, err
	}
	return lease, true, nil
}

func (c *RedisCap) Release(ctx context.Context, key, lease string) error {
	return utils.ReleaseSlot(ctx, c.rdb, key, lease)
}
