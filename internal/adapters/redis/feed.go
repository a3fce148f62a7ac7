package redisad

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"shelterline/internal/domain"
)

// EventChannel is where the call provider's gateway publishes raw call
// events ({sessionId, event, data}).
const EventChannel = "calls.events"

// Feed subscribes to the provider event stream and forwards decoded events
// to a channel consumed by the tracker's pump.
type Feed struct{ c *redis.Client }

func NewFeed(addr, pass string, db int) *Feed {
	return &Feed{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func NewFeedWithClient(c *redis.Client) *Feed { return &Feed{c: c} }

type wireEvent struct {
	SessionID string `json:"session_id"`
	Event     string `json:"event"`
	Data      struct {
		Menu               string `json:"menu,omitempty"`
		Beds               int    `json:"beds,omitempty"`
		AcceptsCouples     bool   `json:"accepts_couples,omitempty"`
		PendingCouples     int    `json:"pending_couples,omitempty"`
		PendingIndividuals int    `json:"pending_individuals,omitempty"`
	} `json:"data"`
}

// Subscribe pumps provider events into out until ctx is cancelled. Malformed
// messages are logged and skipped; the stream must keep flowing.
func (f *Feed) Subscribe(ctx context.Context, out chan<- domain.CallEvent) error {
	sub := f.c.Subscribe(ctx, EventChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var we wireEvent
			if err := json.Unmarshal([]byte(msg.Payload), &we); err != nil {
				log.Warn().Err(err).Msg("malformed call event, skipping")
				continue
			}
			ev := domain.CallEvent{
				SessionID:          we.SessionID,
				Kind:               domain.EventKind(we.Event),
				Menu:               domain.MenuSelection(we.Data.Menu),
				Beds:               we.Data.Beds,
				AcceptsCouples:     we.Data.AcceptsCouples,
				PendingCouples:     we.Data.PendingCouples,
				PendingIndividuals: we.Data.PendingIndividuals,
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
