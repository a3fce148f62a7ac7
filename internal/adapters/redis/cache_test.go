package redisad_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisad "shelterline/internal/adapters/redis"
	"shelterline/internal/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCache_SetGetDel(t *testing.T) {
	_, rc := newTestClient(t)
	c := redisad.NewWithClient(rc)
	ctx := context.Background()

	want := domain.PendingCounts{Couples: 2, Individuals: 5}
	if err := c.Set(ctx, "pending:counts", want, 30); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got domain.PendingCounts
	ok, err := c.Get(ctx, "pending:counts", &got)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if err := c.Del(ctx, "pending:counts"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	ok, err = c.Get(ctx, "pending:counts", &got)
	if err != nil || ok {
		t.Fatalf("expected miss after Del, ok=%v err=%v", ok, err)
	}
}

func TestCache_TTL(t *testing.T) {
	mr, rc := newTestClient(t)
	c := redisad.NewWithClient(rc)
	ctx := context.Background()

	if err := c.Set(ctx, "k", domain.PendingCounts{Individuals: 1}, 30); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(31 * time.Second)

	var got domain.PendingCounts
	ok, err := c.Get(ctx, "k", &got)
	if err != nil || ok {
		t.Fatalf("expected expiry, ok=%v err=%v", ok, err)
	}
}

func TestNotifier_PublishesSessionChange(t *testing.T) {
	_, rc := newTestClient(t)
	n := redisad.NewNotifierWithClient(rc)
	ctx := context.Background()

	sub := rc.Subscribe(ctx, redisad.SessionChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil { // subscription confirmation
		t.Fatalf("subscribe: %v", err)
	}

	hostID := int64(4)
	change := domain.SessionChange{
		SessionID: "abc",
		Status:    domain.StatusCompletedAssigned,
		HostID:    &hostID,
		Assigned:  2,
	}
	if err := n.SessionChanged(ctx, change); err != nil {
		t.Fatalf("SessionChanged: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got domain.SessionChange
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.SessionID != "abc" || got.Status != domain.StatusCompletedAssigned || got.Assigned != 2 {
			t.Fatalf("unexpected change: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no message on %s", redisad.SessionChannel)
	}
}

func TestFeed_DecodesProviderEvents(t *testing.T) {
	_, rc := newTestClient(t)
	feed := redisad.NewFeedWithClient(rc)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out := make(chan domain.CallEvent, 1)
	go func() { _ = feed.Subscribe(ctx, out) }()

	payload := `{"session_id":"s1","event":"bedsProvided","data":{"beds":3,"accepts_couples":true}}`
	// retry until the subscriber is registered
	deadline := time.Now().Add(time.Second)
	for {
		if n, _ := rc.Publish(ctx, redisad.EventChannel, payload).Result(); n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case ev := <-out:
		if ev.SessionID != "s1" || ev.Kind != domain.EventBedsProvided || ev.Beds != 3 || !ev.AcceptsCouples {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-ctx.Done():
		t.Fatalf("no event received")
	}
}
