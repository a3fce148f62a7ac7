package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"shelterline/internal/adapters/observability"
	"shelterline/internal/domain"
)

// Tracker applies provider events to call sessions. Transitions on a single
// session are strictly ordered via a per-session lock; different sessions
// proceed in parallel. Terminal states are one-way: the first recorded
// outcome is the outcome of the call.
type Tracker struct {
	store  domain.SessionStore
	hosts  domain.HostDirectory
	notify domain.Notifier

	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewTracker(s domain.SessionStore, h domain.HostDirectory, n domain.Notifier) *Tracker {
	return &Tracker{
		store:  s,
		hosts:  h,
		notify: n,
		now:    time.Now,
		locks:  map[string]*sync.Mutex{},
	}
}

// StartSession records a connected call. Outbound sessions carry the host the
// dispatcher called; inbound sessions carry whatever number rang in.
func (t *Tracker) StartSession(ctx context.Context, phone string, hostID *int64, dir domain.CallDirection) (domain.CallSession, error) {
	s := domain.CallSession{
		ID:        uuid.NewString(),
		Phone:     phone,
		HostID:    hostID,
		Direction: dir,
		Status:    domain.StatusStarted,
		CreatedAt: t.now(),
		UpdatedAt: t.now(),
	}
	if err := t.store.CreateSession(ctx, s); err != nil {
		return domain.CallSession{}, fmt.Errorf("create session: %w", err)
	}
	log.Info().Str("session_id", s.ID).Str("direction", string(dir)).Msg("session started")
	return s, nil
}

// Session returns the stored record for one call.
func (t *Tracker) Session(ctx context.Context, id string) (domain.CallSession, error) {
	return t.store.GetSession(ctx, id)
}

// Apply runs one provider event through the state machine and persists the
// result. Events for terminal sessions are rejected with ErrAlreadyTerminal,
// never silently dropped; retrying an invalid transition cannot become valid.
func (t *Tracker) Apply(ctx context.Context, ev domain.CallEvent) (domain.CallSession, error) {
	lock := t.sessionLock(ev.SessionID)
	lock.Lock()
	defer lock.Unlock()

	s, err := t.store.GetSession(ctx, ev.SessionID)
	if err != nil {
		return domain.CallSession{}, err
	}
	if s.Status.Terminal() {
		return s, domain.ErrAlreadyTerminal
	}

	switch ev.Kind {
	case domain.EventMenuSelected:
		err = applyMenu(&s, ev.Menu)
	case domain.EventBedsProvided:
		err = applyBeds(&s, ev.Beds, ev.AcceptsCouples)
	case domain.EventMatchResult:
		err = applyMatch(&s, ev.PendingCouples, ev.PendingIndividuals)
	case domain.EventHangup:
		// Catch-all completion for calls that never produced an offer.
		s.Status = domain.StatusCompleted
	default:
		err = fmt.Errorf("%w: unknown event %q", domain.ErrInvalidTransition, ev.Kind)
	}
	if err != nil {
		return s, err
	}

	s.UpdatedAt = t.now()
	if err := t.store.Transition(ctx, s); err != nil {
		return s, err
	}
	observability.ObserveTransition(string(s.Status))

	if s.Status.Terminal() {
		t.releaseLock(ev.SessionID)
	}

	// An assigned outbound call refreshes the host's cooldown; a host who
	// called in on their own initiative keeps their schedule.
	if s.Status == domain.StatusCompletedAssigned && s.Direction == domain.DirectionOutbound && s.HostID != nil {
		if err := t.hosts.TouchLastCalled(ctx, *s.HostID, t.now()); err != nil {
			log.Error().Int64("host_id", *s.HostID).Err(err).Msg("touch last_called failed")
		}
	}

	if t.notify != nil {
		ch := domain.SessionChange{SessionID: s.ID, Status: s.Status, HostID: s.HostID, Assigned: s.GuestsAssigned}
		if err := t.notify.SessionChanged(ctx, ch); err != nil {
			log.Warn().Str("session_id", s.ID).Err(err).Msg("session change notify failed")
		}
	}
	return s, nil
}

func applyMenu(s *domain.CallSession, m domain.MenuSelection) error {
	if s.Status != domain.StatusStarted || s.Menu != nil {
		return fmt.Errorf("%w: menu already selected", domain.ErrInvalidTransition)
	}
	if !m.Valid() {
		return fmt.Errorf("%w: menu %q", domain.ErrInvalidTransition, m)
	}
	s.Menu = &m
	if m.OffersBeds() {
		s.Status = domain.StatusAwaitingBeds
	}
	return nil
}

func applyBeds(s *domain.CallSession, beds int, couples bool) error {
	if s.Status != domain.StatusAwaitingBeds {
		return fmt.Errorf("%w: bedsProvided in state %s", domain.ErrInvalidTransition, s.Status)
	}
	if beds <= 0 {
		return fmt.Errorf("%w: non-positive bed count", domain.ErrInvalidTransition)
	}
	s.BedsOffered = &beds
	s.AcceptsCouples = &couples
	return nil
}

func applyMatch(s *domain.CallSession, pendingCouples, pendingIndividuals int) error {
	if s.Status != domain.StatusAwaitingBeds || s.BedsOffered == nil {
		return fmt.Errorf("%w: matchResult in state %s", domain.ErrInvalidTransition, s.Status)
	}
	couplesOK := s.AcceptsCouples != nil && *s.AcceptsCouples
	status, assigned := matchOffer(*s.BedsOffered, couplesOK, pendingCouples, pendingIndividuals)
	s.Status = status
	s.GuestsAssigned = assigned
	return nil
}

// matchOffer evaluates an offer of beds against the pending demand snapshot.
// Couples are placed first (two beds, two guests each), then individuals.
// completed_no_pending means the offer was never evaluated against demand;
// completed_no_match means it was and nobody fit.
func matchOffer(beds int, acceptsCouples bool, pendingCouples, pendingIndividuals int) (domain.SessionStatus, int) {
	if pendingCouples == 0 && pendingIndividuals == 0 {
		return domain.StatusCompletedNoPending, 0
	}
	assigned := 0
	free := beds
	if acceptsCouples {
		for c := 0; c < pendingCouples && free >= 2; c++ {
			assigned += 2
			free -= 2
		}
	}
	for i := 0; i < pendingIndividuals && free >= 1; i++ {
		assigned++
		free--
	}
	// Outcome fields must stay internally consistent; anything else is not
	// an assignment.
	if assigned <= 0 || assigned > beds {
		return domain.StatusCompletedNoMatch, 0
	}
	return domain.StatusCompletedAssigned, assigned
}

func (t *Tracker) sessionLock(id string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	return l
}

// releaseLock drops the keyed lock once a session is terminal; late events
// re-create it briefly and are rejected off the stored status.
func (t *Tracker) releaseLock(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.locks, id)
}
