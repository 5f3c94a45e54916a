// Package telemetry reconciles the initial REST snapshot of carbot events
// with the live push stream. It keeps a bounded, newest-first, deduplicated
// log per event channel plus a monotonic "latest" record for the headline
// display, and tolerates reconnects and out-of-order delivery.
package telemetry

import (
	"fmt"
	"time"
)

// Channel identifies one category of event stream.
type Channel int

const (
	Movement Channel = iota
	Obstacle
	DemoRun
)

// String returns the channel name used in logs and wire messages.
func (c Channel) String() string {
	switch c {
	case Movement:
		return "movement"
	case Obstacle:
		return "obstacle"
	case DemoRun:
		return "demo"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// EventRecord is the immutable unit of data flowing through the sync core.
// OccurredAt may be zero, meaning the source did not timestamp the event;
// ordering then falls back to arrival order.
type EventRecord struct {
	Channel    Channel
	SubjectID  int
	Code       int
	OccurredAt time.Time
	Identity   string // deduplication key, see ensureIdentity

	// DistanceCM is an opaque numeric payload (obstacle events carry the
	// measured distance). Nil when absent; the core never interprets it.
	DistanceCM *float64

	// arrival is the session-local arrival sequence number, assigned when
	// the record enters a session. Used as the ordering tiebreaker.
	arrival uint64
}

// ensureIdentity fills in the dedup key if the source did not assign one.
// Resolution order: a server-assigned event id wins; otherwise the key is
// derived from (channel, subject, code, occurredAt) so a re-delivered copy
// of the same event collapses onto the original; records with no timestamp
// fold in the arrival sequence instead, since nothing else tells two
// identical untimestamped events apart.
func (r *EventRecord) ensureIdentity(arrival uint64) {
	if r.Identity != "" {
		return
	}
	if !r.OccurredAt.IsZero() {
		r.Identity = fmt.Sprintf("%s/%d/%d@%d", r.Channel, r.SubjectID, r.Code, r.OccurredAt.Unix())
		return
	}
	r.Identity = fmt.Sprintf("%s/%d/%d#%d", r.Channel, r.SubjectID, r.Code, arrival)
}

// supersedes reports whether r should replace cur as the channel's latest
// record. Timestamps are compared when both are known; otherwise the later
// arrival wins, so a fresh push always beats an untimestamped predecessor.
// The untimestamped fallback is best effort, not a hard ordering guarantee.
func (r *EventRecord) supersedes(cur *EventRecord) bool {
	if cur == nil {
		return true
	}
	if !r.OccurredAt.IsZero() && !cur.OccurredAt.IsZero() && !r.OccurredAt.Equal(cur.OccurredAt) {
		return r.OccurredAt.After(cur.OccurredAt)
	}
	return r.arrival >= cur.arrival
}

// before reports whether r sorts below other in a newest-first log.
func (r *EventRecord) before(other *EventRecord) bool {
	if !r.OccurredAt.IsZero() && !other.OccurredAt.IsZero() && !r.OccurredAt.Equal(other.OccurredAt) {
		return r.OccurredAt.Before(other.OccurredAt)
	}
	return r.arrival < other.arrival
}
