package app_test

import (
	"context"
	"sync"
	"time"

	"shelterline/internal/domain"
)

// ---- fakes ----

type fakeHosts struct {
	mu      sync.Mutex
	hosts   []domain.Host
	touched map[int64]time.Time
	listErr error
}

func (f *fakeHosts) ListCallable(ctx context.Context) ([]domain.Host, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.hosts, nil
}

func (f *fakeHosts) GetHost(ctx context.Context, id int64) (domain.Host, error) {
	for _, h := range f.hosts {
		if h.ID == id {
			return h, nil
		}
	}
	return domain.Host{}, domain.ErrNotFound
}

func (f *fakeHosts) TouchLastCalled(ctx context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.touched == nil {
		f.touched = map[int64]time.Time{}
	}
	f.touched[id] = at
	return nil
}

func (f *fakeHosts) UpdatePolicy(ctx context.Context, id int64, freq domain.CallFrequency) error {
	for i := range f.hosts {
		if f.hosts[i].ID == id {
			f.hosts[i].Frequency = freq
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeGuests struct {
	guests  []domain.Guest
	listErr error
}

func (f *fakeGuests) ListPending(ctx context.Context, now time.Time, lookahead time.Duration) ([]domain.Guest, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Guest
	for _, g := range f.guests {
		if g.PendingAt(now, lookahead) {
			out = append(out, g)
		}
	}
	return out, nil
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string]any
	sets  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if d, ok2 := dst.(*domain.PendingCounts); ok2 {
		*d = v.(domain.PendingCounts)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	c.sets++
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

// fakeStore mirrors the MySQL repo's terminal guard so tracker tests see the
// same rejection behavior as production.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]domain.CallSession
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]domain.CallSession{}}
}

func (f *fakeStore) CreateSession(ctx context.Context, s domain.CallSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) GetSession(ctx context.Context, id string) (domain.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return domain.CallSession{}, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) Transition(ctx context.Context, s domain.CallSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.sessions[s.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Status.Terminal() {
		return domain.ErrAlreadyTerminal
	}
	f.sessions[s.ID] = s
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	changes []domain.SessionChange
}

func (f *fakeNotifier) SessionChanged(ctx context.Context, ch domain.SessionChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, ch)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.changes)
}
