package telemetry

// DefaultCapacity matches the ten-row history tables on the monitor page.
const DefaultCapacity = 10

// ChannelBuffer is a bounded, newest-first, deduplicated log for one event
// channel. It holds at most cap records; inserting over capacity evicts the
// oldest. Two records with the same identity never coexist in the buffer.
//
// Ordering is by OccurredAt descending while every record carries a
// timestamp; records without one fall back to arrival order.
type ChannelBuffer struct {
	cap     int
	records []*EventRecord
	seen    map[string]struct{}
}

// NewChannelBuffer creates an empty buffer with the given capacity.
// Non-positive capacities fall back to DefaultCapacity.
func NewChannelBuffer(capacity int) *ChannelBuffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ChannelBuffer{
		cap:  capacity,
		seen: make(map[string]struct{}),
	}
}

// Seed replaces the buffer contents with up to limit records from a
// snapshot, already ordered newest-first by the source. Seeding only
// happens once, at session start, so no merge with prior contents is
// attempted; the session re-inserts any push records that raced the
// snapshot afterwards.
func (b *ChannelBuffer) Seed(records []*EventRecord, limit int) {
	if limit > b.cap || limit <= 0 {
		limit = b.cap
	}
	b.records = b.records[:0]
	b.seen = make(map[string]struct{})
	for _, r := range records {
		if len(b.records) >= limit {
			break
		}
		if _, dup := b.seen[r.Identity]; dup {
			continue
		}
		b.records = append(b.records, r)
		b.seen[r.Identity] = struct{}{}
	}
}

// Insert adds a record at its ordered position, evicting the oldest record
// when over capacity. Re-inserting an identity already present is a no-op,
// which makes re-delivery after a reconnect harmless. Returns true when the
// buffer changed.
func (b *ChannelBuffer) Insert(rec *EventRecord) bool {
	if _, dup := b.seen[rec.Identity]; dup {
		return false
	}
	pos := 0
	for pos < len(b.records) && rec.before(b.records[pos]) {
		pos++
	}
	b.records = append(b.records, nil)
	copy(b.records[pos+1:], b.records[pos:])
	b.records[pos] = rec
	b.seen[rec.Identity] = struct{}{}
	if len(b.records) > b.cap {
		evicted := b.records[len(b.records)-1]
		b.records = b.records[:len(b.records)-1]
		delete(b.seen, evicted.Identity)
	}
	return true
}

// Snapshot returns a copy of the current newest-first view.
func (b *ChannelBuffer) Snapshot() []*EventRecord {
	out := make([]*EventRecord, len(b.records))
	copy(out, b.records)
	return out
}

// Len returns the number of records held.
func (b *ChannelBuffer) Len() int { return len(b.records) }

// Capacity returns the configured bound.
func (b *ChannelBuffer) Capacity() int { return b.cap }
