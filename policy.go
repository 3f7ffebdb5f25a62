package dwd

import (
	"fmt"
	"net/netip"
	"time"
)

// UpdateOn decides when a publish call counts as done for debouncing.
type UpdateOn string

const (
	// UpdateOnAttempted records the address once the publish call returns,
	// whatever the individual providers reported.
	UpdateOnAttempted UpdateOn = "attempted"

	// UpdateOnAllSucceeded records the address only when every provider
	// succeeded, so a partial failure is retried on the next tick.
	UpdateOnAllSucceeded UpdateOn = "all_succeeded"
)

// Skip reasons reported by Cycle.Reason.
const (
	ReasonNoAddress = "no ip provider succeeded"
	ReasonUnchanged = "ip unchanged since last publish"
)

// LoopState is the memory of the update loop. A zero LastPublishedIP means
// nothing has been published yet.
type LoopState struct {
	LastPublishedIP netip.Addr
	LastPublishedAt time.Time
}

// Policy is the debounce policy.
type Policy struct {
	// RepublishAfter re-asserts an unchanged address once this much time
	// passed since the last publish. Zero skips an unchanged address forever.
	RepublishAfter time.Duration
	UpdateOn       UpdateOn
}

// ShouldPublish reports whether ip must be pushed given the loop state.
// The reason explains the decision for logging.
func (p Policy) ShouldPublish(s LoopState, ip netip.Addr, now time.Time) (bool, string) {
	if !s.LastPublishedIP.IsValid() {
		return true, "no address published yet"
	}
	if s.LastPublishedIP != ip {
		return true, fmt.Sprintf("ip changed from %s", s.LastPublishedIP)
	}
	if p.RepublishAfter <= 0 {
		return false, ReasonUnchanged
	}
	since, ok := elapsed(s.LastPublishedAt, now)
	if ok && since >= p.RepublishAfter {
		return true, fmt.Sprintf("republish after %s", p.RepublishAfter)
	}
	return false, ReasonUnchanged
}

// records reports whether results are enough to update the loop state.
func (p Policy) records(results []PublishResult) bool {
	if p.UpdateOn != UpdateOnAllSucceeded {
		return true
	}
	return len(failed(results)) == 0
}

func (u UpdateOn) valid() bool {
	switch u {
	case "", UpdateOnAttempted, UpdateOnAllSucceeded:
		return true
	}
	return false
}
