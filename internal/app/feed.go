package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"shelterline/internal/domain"
)

// FeedPump drains a provider event stream into the tracker. Sessions are
// independent, so events fan out across workers; ordering within one session
// is still enforced by the tracker's per-session lock.
type FeedPump struct {
	tracker *Tracker
	sem     *semaphore.Weighted
}

func NewFeedPump(t *Tracker, workers int) *FeedPump {
	if workers <= 0 {
		workers = 4
	}
	return &FeedPump{tracker: t, sem: semaphore.NewWeighted(int64(workers))}
}

// Run consumes events until the channel closes or ctx is cancelled.
func (p *FeedPump) Run(ctx context.Context, events <-chan domain.CallEvent) {
	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case ev, ok := <-events:
			if !ok {
				wg.Wait()
				return
			}
			if err := p.sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return
			}
			wg.Add(1)
			go func(ev domain.CallEvent) {
				defer wg.Done()
				defer p.sem.Release(1)
				if _, err := p.tracker.Apply(ctx, ev); err != nil {
					// Rejections are expected traffic (duplicate or late
					// events), failures are not.
					if errors.Is(err, domain.ErrAlreadyTerminal) || errors.Is(err, domain.ErrInvalidTransition) {
						log.Info().Str("session_id", ev.SessionID).Str("event", string(ev.Kind)).Err(err).Msg("event rejected")
						return
					}
					log.Error().Str("session_id", ev.SessionID).Str("event", string(ev.Kind)).Err(err).Msg("event apply failed")
				}
			}(ev)
		}
	}
}
