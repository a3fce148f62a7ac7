package app

import (
	"context"
	"fmt"
	"time"

	"shelterline/internal/domain"
)

const pendingCountsKey = "pending:counts"

// Estimator computes how many guests are still waiting for a placement.
// Counts are cached briefly because the dashboard polls them; the cache is
// a read-through, so a miss always reflects the directory.
type Estimator struct {
	guests    domain.GuestDirectory
	cache     domain.Cache
	lookahead time.Duration
	cacheTTL  time.Duration
}

func NewEstimator(g domain.GuestDirectory, c domain.Cache, lookahead, ttl time.Duration) *Estimator {
	return &Estimator{guests: g, cache: c, lookahead: lookahead, cacheTTL: ttl}
}

// PendingCounts partitions pending guests into couples and individuals.
// A directory read failure is fatal for the caller's cycle; stale or partial
// demand data must never gate a dispatch.
func (e *Estimator) PendingCounts(ctx context.Context, now time.Time) (domain.PendingCounts, error) {
	var out domain.PendingCounts
	if e.cache != nil {
		if ok, _ := e.cache.Get(ctx, pendingCountsKey, &out); ok {
			return out, nil
		}
	}
	gs, err := e.guests.ListPending(ctx, now, e.lookahead)
	if err != nil {
		return domain.PendingCounts{}, fmt.Errorf("list pending guests: %w", err)
	}
	for _, g := range gs {
		if !g.PendingAt(now, e.lookahead) {
			continue
		}
		if g.IsCouple {
			out.Couples++
		} else {
			out.Individuals++
		}
	}
	if e.cache != nil {
		_ = e.cache.Set(ctx, pendingCountsKey, out, int(e.cacheTTL.Seconds()))
	}
	return out, nil
}

// Invalidate drops the cached counts, e.g. after an assignment is written.
func (e *Estimator) Invalidate(ctx context.Context) {
	if e.cache != nil {
		_ = e.cache.Del(ctx, pendingCountsKey)
	}
}
