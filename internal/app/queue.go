package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"shelterline/internal/domain"
)

// QueueBuilder turns the host directory into an ordered calling queue for one
// dispatch cycle.
type QueueBuilder struct {
	hosts    domain.HostDirectory
	cooldown time.Duration // biweekly threshold
}

func NewQueueBuilder(h domain.HostDirectory, cooldown time.Duration) *QueueBuilder {
	return &QueueBuilder{hosts: h, cooldown: cooldown}
}

// BuildQueue reads the directory and applies the normal frequency filter.
// A directory read failure aborts the cycle; no partial queue is returned.
func (b *QueueBuilder) BuildQueue(ctx context.Context, now time.Time) ([]domain.Host, error) {
	hosts, err := b.hosts.ListCallable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list callable hosts: %w", err)
	}
	return SelectQueue(hosts, now, b.cooldown), nil
}

// BuildEscalationQueue is the operator-triggered override used when the
// normal queue comes up empty: the frequency filter is relaxed entirely, so
// desperate and cooling-down hosts are included. The phone requirement and
// the ranking stay the same.
func (b *QueueBuilder) BuildEscalationQueue(ctx context.Context) ([]domain.Host, error) {
	hosts, err := b.hosts.ListCallable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list callable hosts: %w", err)
	}
	out := make([]domain.Host, 0, len(hosts))
	for _, h := range hosts {
		if h.Callable() {
			out = append(out, h)
		}
	}
	rankHosts(out)
	return out, nil
}

// SelectQueue filters hosts by phone presence and calling frequency, then
// ranks them. Pure and deterministic for identical inputs.
func SelectQueue(hosts []domain.Host, now time.Time, cooldown time.Duration) []domain.Host {
	out := make([]domain.Host, 0, len(hosts))
	for _, h := range hosts {
		if eligible(h, now, cooldown) {
			out = append(out, h)
		}
	}
	rankHosts(out)
	return out
}

func eligible(h domain.Host, now time.Time, cooldown time.Duration) bool {
	if !h.Callable() {
		return false
	}
	switch h.Frequency {
	case domain.FrequencyDesperate:
		// Only reachable through the manual escalation queue.
		return false
	case domain.FrequencyBiweekly:
		if h.LastCalled == nil {
			return true
		}
		return now.Sub(*h.LastCalled) >= cooldown
	default:
		// weekly, including hosts with no frequency set
		return true
	}
}

// rankHosts orders by call_priority ascending, ties broken by last_called
// ascending with never-called hosts first. Stable so equal hosts keep their
// directory order.
func rankHosts(hosts []domain.Host) {
	sort.SliceStable(hosts, func(i, j int) bool {
		a, b := hosts[i], hosts[j]
		if a.CallPriority != b.CallPriority {
			return a.CallPriority < b.CallPriority
		}
		switch {
		case a.LastCalled == nil && b.LastCalled == nil:
			return false
		case a.LastCalled == nil:
			return true
		case b.LastCalled == nil:
			return false
		default:
			return a.LastCalled.Before(*b.LastCalled)
		}
	})
}
