package domain

import (
	"context"
	"time"
)

type HostDirectory interface {
	// Write paths
	TouchLastCalled(ctx context.Context, hostID int64, at time.Time) error
	UpdatePolicy(ctx context.Context, hostID int64, f CallFrequency) error

	// Read paths
	ListCallable(ctx context.Context) ([]Host, error)
	GetHost(ctx context.Context, hostID int64) (Host, error)
}

type GuestDirectory interface {
	// ListPending returns unassigned guests whose stay window overlaps
	// [now, now+lookahead].
	ListPending(ctx context.Context, now time.Time, lookahead time.Duration) ([]Guest, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, s CallSession) error
	GetSession(ctx context.Context, id string) (CallSession, error)
	// Transition persists the session's new status and outcome fields.
	// It must fail with ErrAlreadyTerminal if the stored row has already
	// reached a completed_* state, regardless of what the caller believes.
	Transition(ctx context.Context, s CallSession) error
}

// CallPlacer is the outbound boundary to the external telephony provider.
// The provider resolves audio, DTMF and the rest; the engine only observes
// whether the call was accepted for placement.
type CallPlacer interface {
	PlaceCall(ctx context.Context, hostID int64, phone string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Notifier fans out session state changes to interested dashboards.
type Notifier interface {
	SessionChanged(ctx context.Context, ch SessionChange) error
}
