package domain

import "time"

type Guest struct {
	ID           int64
	Name         string
	Phone        *string
	CheckIn      time.Time
	CheckOut     time.Time
	IsCouple     bool
	AssignmentID *int64 // nil while the guest is still waiting for a placement
}

// PendingAt reports whether the guest needs a placement as of now:
// unassigned and with a stay window overlapping the lookahead horizon.
func (g Guest) PendingAt(now time.Time, lookahead time.Duration) bool {
	if g.AssignmentID != nil {
		return false
	}
	return !g.CheckIn.After(now.Add(lookahead)) && !g.CheckOut.Before(now)
}

// PendingCounts is the demand estimate a dispatch cycle is gated on.
type PendingCounts struct {
	Couples     int `json:"couples"`
	Individuals int `json:"individuals"`
}

func (p PendingCounts) Zero() bool { return p.Couples == 0 && p.Individuals == 0 }
