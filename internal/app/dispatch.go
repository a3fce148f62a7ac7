package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"shelterline/internal/adapters/observability"
	"shelterline/internal/domain"
)

// Report aggregates one dispatch batch for the operator: how many calls were
// attempted and how many the provider accepted. Individual failures never
// block the batch.
type Report struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
}

// Dispatcher walks a ranked queue and places calls through the telephony
// boundary, one host at a time. A fixed delay between placements is part of
// the contract with the provider, not an implementation detail.
type Dispatcher struct {
	placer domain.CallPlacer
	hosts  domain.HostDirectory
	demand *Estimator
	delay  time.Duration

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool

	mu sync.Mutex // one cycle at a time against the directory
}

func NewDispatcher(p domain.CallPlacer, h domain.HostDirectory, e *Estimator, delay time.Duration) *Dispatcher {
	return &Dispatcher{
		placer: p,
		hosts:  h,
		demand: e,
		delay:  delay,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Dispatch places at most capLimit calls from the front of queue.
//
// The pending-guest pre-check gates batches only: a one-element queue is an
// operator calling a specific host on purpose, demand or not. Cancellation
// is cooperative between hosts; an in-flight placement is left to finish.
func (d *Dispatcher) Dispatch(ctx context.Context, queue []domain.Host, capLimit int) (Report, error) {
	if !d.mu.TryLock() {
		return Report{}, domain.ErrCycleInProgress
	}
	defer d.mu.Unlock()

	var rep Report
	if len(queue) == 0 {
		return rep, nil
	}

	if len(queue) != 1 {
		counts, err := d.demand.PendingCounts(ctx, d.now())
		if err != nil {
			return rep, err
		}
		if counts.Zero() {
			log.Info().Msg("no pending guests, skipping dispatch")
			return rep, nil
		}
	}

	if capLimit > 0 && len(queue) > capLimit {
		queue = queue[:capLimit]
	}

	for i, h := range queue {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if i > 0 && !d.sleep(ctx, d.delay) {
			return rep, ctx.Err()
		}
		if !h.Callable() {
			log.Warn().Int64("host_id", h.ID).Msg("uncallable host in queue, skipping")
			continue
		}

		rep.Attempted++
		if err := d.placer.PlaceCall(ctx, h.ID, *h.Phone); err != nil {
			// Leave last_called untouched so the host stays eligible
			// next cycle.
			observability.ObserveDispatch("failed")
			log.Warn().Int64("host_id", h.ID).Err(err).Msg("call placement failed")
			continue
		}
		// The call has been initiated, which is what the cooldown tracks.
		if err := d.hosts.TouchLastCalled(ctx, h.ID, d.now()); err != nil {
			log.Error().Int64("host_id", h.ID).Err(err).Msg("touch last_called failed")
		}
		observability.ObserveDispatch("placed")
		rep.Succeeded++
		log.Info().Int64("host_id", h.ID).Msg("call placed")
	}

	log.Info().Int("attempted", rep.Attempted).Int("succeeded", rep.Succeeded).Msg("dispatch batch done")
	return rep, nil
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
