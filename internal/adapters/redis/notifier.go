package redisad

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"shelterline/internal/domain"
)

// SessionChannel carries one message per session state transition. Dashboards
// subscribe here instead of polling the session table.
const SessionChannel = "sessions.changed"

type Notifier struct{ c *redis.Client }

func NewNotifier(addr, pass string, db int) *Notifier {
	return &Notifier{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func NewNotifierWithClient(c *redis.Client) *Notifier { return &Notifier{c: c} }

func (n *Notifier) SessionChanged(ctx context.Context, ch domain.SessionChange) error {
	b, err := json.Marshal(ch)
	if err != nil {
		return err
	}
	return n.c.Publish(ctx, SessionChannel, b).Err()
}
