package domain

import "time"

// CallFrequency is a host's calling-cadence preference.
type CallFrequency string

const (
	FrequencyWeekly    CallFrequency = "weekly"
	FrequencyBiweekly  CallFrequency = "biweekly"
	FrequencyDesperate CallFrequency = "desperate"
)

func (f CallFrequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyDesperate:
		return true
	}
	return false
}

type Host struct {
	ID             int64
	Name           string
	Phone          *string // hosts without a number are never callable
	Beds           int
	FamilyFriendly bool
	Frequency      CallFrequency // empty is treated as weekly
	CallPriority   int           // ascending = called first
	LastCalled     *time.Time
}

// Callable reports whether the host can be reached at all.
func (h Host) Callable() bool {
	return h.Phone != nil && *h.Phone != ""
}
