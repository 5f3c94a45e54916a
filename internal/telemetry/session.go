package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Transport is the read side the session needs to bootstrap a view. The
// REST client in internal/client implements it.
type Transport interface {
	// ReadLatest returns the most recent record for the channel, or nil
	// when the backend has none.
	ReadLatest(ctx context.Context, ch Channel, subjectID int) (*EventRecord, error)
	// ReadRecent returns up to limit records, newest first.
	ReadRecent(ctx context.Context, ch Channel, subjectID int, limit int) ([]*EventRecord, error)
}

// ErrSnapshotDone is returned when LoadSnapshot is called more than once.
// Repeating the snapshot after the push stream is live could overwrite
// newer push-delivered state with a stale read, so it is a caller error.
var ErrSnapshotDone = errors.New("telemetry: snapshot already loaded")

// Session owns one ChannelBuffer per tracked channel for a single subject,
// plus the "latest" record per channel for the headline display. The
// session is the sole mutator of its buffers; readers get copies.
//
// "Latest" is monotonic in effective recency: it never regresses to an
// older record, even though the bounded log can drop old entries.
type Session struct {
	mu        sync.RWMutex
	subjectID int
	buffers   map[Channel]*ChannelBuffer
	latest    map[Channel]*EventRecord
	arrival   uint64
	seeded    bool // LoadSnapshot started (exactly-once guard)
	closed    bool
}

// Open constructs empty buffers of the given capacity for the requested
// channels.
func Open(subjectID, capacity int, channels ...Channel) *Session {
	s := &Session{
		subjectID: subjectID,
		buffers:   make(map[Channel]*ChannelBuffer, len(channels)),
		latest:    make(map[Channel]*EventRecord, len(channels)),
	}
	for _, ch := range channels {
		s.buffers[ch] = NewChannelBuffer(capacity)
	}
	return s
}

// SubjectID returns the device (or sequence) id this session tracks.
func (s *Session) SubjectID() int {
	return s.subjectID
}

// LoadSnapshot performs the one-time bounded reads that bring the view
// from "unknown" to "consistent": one latest-record read and one recent-log
// read per tracked channel. It runs exactly once per session lifetime; a
// second call returns ErrSnapshotDone.
//
// Push events that arrived before the snapshot resolved are not clobbered:
// they are re-merged into the seeded log (identity dedup collapses
// overlap), and the headline record is assigned through the same
// recency-comparing path as ApplyPush, never overwritten unconditionally.
//
// A read failure leaves the session with whatever push state it already
// has and is non-fatal; the caller renders it as "no data".
func (s *Session) LoadSnapshot(ctx context.Context, tr Transport) error {
	s.mu.Lock()
	if s.seeded {
		s.mu.Unlock()
		return ErrSnapshotDone
	}
	s.seeded = true
	channels := make([]Channel, 0, len(s.buffers))
	for ch := range s.buffers {
		channels = append(channels, ch)
	}
	s.mu.Unlock()

	type channelRead struct {
		latest *EventRecord
		recent []*EventRecord
	}
	reads := make(map[Channel]channelRead, len(channels))
	for _, ch := range channels {
		last, err := tr.ReadLatest(ctx, ch, s.subjectID)
		if err != nil {
			return fmt.Errorf("snapshot %s latest: %w", ch, err)
		}
		recent, err := tr.ReadRecent(ctx, ch, s.subjectID, s.capacity(ch))
		if err != nil {
			return fmt.Errorf("snapshot %s recent: %w", ch, err)
		}
		reads[ch] = channelRead{latest: last, recent: recent}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		// The session closed while the reads were in flight; completing
		// the seed now would mutate buffers nobody reads anymore.
		return nil
	}
	for ch, read := range reads {
		buf := s.buffers[ch]
		pending := buf.Snapshot()
		for _, r := range read.recent {
			s.arrival++
			r.ensureIdentity(s.arrival)
			r.arrival = s.arrival
		}
		buf.Seed(read.recent, buf.Capacity())
		for _, p := range pending {
			buf.Insert(p)
		}
		if read.latest != nil {
			s.arrival++
			read.latest.ensureIdentity(s.arrival)
			read.latest.arrival = s.arrival
			s.updateLatest(ch, read.latest)
		}
	}
	return nil
}

// ApplyPush routes a push-delivered record into the matching buffer and
// headline slot. Safe to call before LoadSnapshot completes. Records for
// untracked channels and calls after Close are ignored. Returns true when
// the visible state changed.
func (s *Session) ApplyPush(rec *EventRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	buf, ok := s.buffers[rec.Channel]
	if !ok {
		return false
	}
	s.arrival++
	rec.arrival = s.arrival
	rec.ensureIdentity(s.arrival)
	changed := buf.Insert(rec)
	if s.updateLatest(rec.Channel, rec) {
		changed = true
	}
	return changed
}

// updateLatest applies the recency rule. Caller holds the lock.
func (s *Session) updateLatest(ch Channel, rec *EventRecord) bool {
	if rec.supersedes(s.latest[ch]) {
		s.latest[ch] = rec
		return true
	}
	return false
}

// Latest returns the headline record for the channel, or nil.
func (s *Session) Latest(ch Channel) *EventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest[ch]
}

// Log returns a copy of the channel's newest-first history.
func (s *Session) Log(ch Channel) []*EventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	buf, ok := s.buffers[ch]
	if !ok {
		return nil
	}
	return buf.Snapshot()
}

// Close stops the session: later pushes are dropped and an in-flight
// snapshot load completes as a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) capacity(ch Channel) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if buf, ok := s.buffers[ch]; ok {
		return buf.Capacity()
	}
	return DefaultCapacity
}
