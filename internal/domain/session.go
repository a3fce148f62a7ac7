package domain

import "time"

// SessionStatus is the lifecycle state of one tracked telephone interaction.
type SessionStatus string

const (
	StatusStarted            SessionStatus = "started"
	StatusAwaitingBeds       SessionStatus = "awaiting_beds_input"
	StatusCompletedAssigned  SessionStatus = "completed_assigned"
	StatusCompletedNoMatch   SessionStatus = "completed_no_match"
	StatusCompletedNoPending SessionStatus = "completed_no_pending"
	StatusCompleted          SessionStatus = "completed"
)

// Terminal reports whether the status is one of the completed_* states.
// Terminal sessions are immutable; further events must be rejected.
func (s SessionStatus) Terminal() bool {
	switch s {
	case StatusCompletedAssigned, StatusCompletedNoMatch, StatusCompletedNoPending, StatusCompleted:
		return true
	}
	return false
}

type MenuSelection string

const (
	MenuGuestRegistration MenuSelection = "guest_registration"
	MenuHostRegistration  MenuSelection = "host_registration"
	MenuCheckAvailability MenuSelection = "check_availability"
)

func (m MenuSelection) Valid() bool {
	switch m {
	case MenuGuestRegistration, MenuHostRegistration, MenuCheckAvailability:
		return true
	}
	return false
}

// OffersBeds reports whether this flow prompts the caller for a bed count.
func (m MenuSelection) OffersBeds() bool {
	return m == MenuHostRegistration || m == MenuCheckAvailability
}

type CallDirection string

const (
	DirectionInbound  CallDirection = "inbound"
	DirectionOutbound CallDirection = "outbound"
)

type CallSession struct {
	ID             string
	Phone          string
	HostID         *int64
	Direction      CallDirection
	Menu           *MenuSelection
	Status         SessionStatus
	BedsOffered    *int
	AcceptsCouples *bool
	GuestsAssigned int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Event kinds delivered by the call provider's event feed.
type EventKind string

const (
	EventMenuSelected EventKind = "menuSelected"
	EventBedsProvided EventKind = "bedsProvided"
	EventMatchResult  EventKind = "matchResult"
	EventHangup       EventKind = "hangup"
)

// CallEvent is one item from the provider feed, applied to a single session.
type CallEvent struct {
	SessionID string
	Kind      EventKind

	// menuSelected
	Menu MenuSelection

	// bedsProvided
	Beds           int
	AcceptsCouples bool

	// matchResult: the demand snapshot the provider evaluated the offer against
	PendingCouples     int
	PendingIndividuals int
}

// SessionChange is emitted on every state transition so that dashboards can
// subscribe instead of polling the session table.
type SessionChange struct {
	SessionID string        `json:"session_id"`
	Status    SessionStatus `json:"status"`
	HostID    *int64        `json:"host_id,omitempty"`
	Assigned  int           `json:"guests_assigned"`
}
