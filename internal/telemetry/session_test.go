package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeTransport serves canned snapshot reads. onRead runs before every
// read, letting tests interleave session operations with an in-flight
// snapshot load.
type fakeTransport struct {
	latest map[Channel]*EventRecord
	recent map[Channel][]*EventRecord
	err    error
	onRead func()
}

func (f *fakeTransport) ReadLatest(_ context.Context, ch Channel, _ int) (*EventRecord, error) {
	if f.onRead != nil {
		f.onRead()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.latest[ch], nil
}

func (f *fakeTransport) ReadRecent(_ context.Context, ch Channel, _, limit int) ([]*EventRecord, error) {
	if f.onRead != nil {
		f.onRead()
	}
	if f.err != nil {
		return nil, f.err
	}
	rows := f.recent[ch]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func push(ch Channel, code int, at time.Time) *EventRecord {
	return &EventRecord{Channel: ch, SubjectID: 1, Code: code, OccurredAt: at}
}

func snapshotTransport() *fakeTransport {
	return &fakeTransport{
		latest: map[Channel]*EventRecord{
			Movement: rec("m5", ts(5), 0),
		},
		recent: map[Channel][]*EventRecord{
			Movement: {
				rec("m5", ts(5), 0),
				rec("m4", ts(4), 0),
				rec("m3", ts(3), 0),
				rec("m2", ts(2), 0),
				rec("m1", ts(1), 0),
			},
		},
	}
}

func TestLoadSnapshotSeedsView(t *testing.T) {
	s := Open(1, 10, Movement)
	if err := s.LoadSnapshot(context.Background(), snapshotTransport()); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	if got := s.Latest(Movement); got == nil || got.Identity != "m5" {
		t.Errorf("Latest = %v, want m5", got)
	}
	assertOrder(t, s.Log(Movement), "m5", "m4", "m3", "m2", "m1")
}

func TestLoadSnapshotRunsOnce(t *testing.T) {
	s := Open(1, 10, Movement)
	tr := snapshotTransport()
	if err := s.LoadSnapshot(context.Background(), tr); err != nil {
		t.Fatalf("first LoadSnapshot: %v", err)
	}
	if err := s.LoadSnapshot(context.Background(), tr); !errors.Is(err, ErrSnapshotDone) {
		t.Errorf("second LoadSnapshot = %v, want ErrSnapshotDone", err)
	}
}

func TestLoadSnapshotFailureIsNonFatal(t *testing.T) {
	s := Open(1, 10, Movement)
	tr := &fakeTransport{err: errors.New("connection refused")}
	if err := s.LoadSnapshot(context.Background(), tr); err == nil {
		t.Fatal("expected error from failed snapshot")
	}

	if s.Latest(Movement) != nil {
		t.Error("failed snapshot must not set a latest record")
	}
	if len(s.Log(Movement)) != 0 {
		t.Error("failed snapshot must leave the log empty")
	}
	// Push events still flow afterwards.
	s.ApplyPush(push(Movement, 1, ts(7)))
	if got := s.Latest(Movement); got == nil || got.Code != 1 {
		t.Errorf("push after failed snapshot: Latest = %v", got)
	}
}

// The core race: a push with a timestamp newer than the whole snapshot
// arrives while the snapshot reads are still in flight. The push must
// remain the visible latest, and the order of resolution must not matter.
func TestSnapshotPushRaceOrderIndependent(t *testing.T) {
	newest := ts(9)

	t.Run("push before snapshot resolves", func(t *testing.T) {
		s := Open(1, 10, Movement)
		s.ApplyPush(push(Movement, 42, newest))
		if err := s.LoadSnapshot(context.Background(), snapshotTransport()); err != nil {
			t.Fatalf("LoadSnapshot: %v", err)
		}
		got := s.Latest(Movement)
		if got == nil || got.Code != 42 {
			t.Errorf("Latest = %+v, want the newer push event", got)
		}
		log := s.Log(Movement)
		if log[0].Code != 42 {
			t.Errorf("log front = %+v, want the newer push event", log[0])
		}
	})

	t.Run("push after snapshot resolves", func(t *testing.T) {
		s := Open(1, 10, Movement)
		if err := s.LoadSnapshot(context.Background(), snapshotTransport()); err != nil {
			t.Fatalf("LoadSnapshot: %v", err)
		}
		s.ApplyPush(push(Movement, 42, newest))
		got := s.Latest(Movement)
		if got == nil || got.Code != 42 {
			t.Errorf("Latest = %+v, want the newer push event", got)
		}
	})
}

func TestSeedDoesNotDuplicateRedeliveredPush(t *testing.T) {
	s := Open(1, 10, Movement)
	// The push carries the same identity as a snapshot row.
	redelivered := rec("m5", ts(5), 0)
	s.ApplyPush(redelivered)

	if err := s.LoadSnapshot(context.Background(), snapshotTransport()); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	seen := 0
	for _, r := range s.Log(Movement) {
		if r.Identity == "m5" {
			seen++
		}
	}
	if seen != 1 {
		t.Errorf("identity m5 appears %d times, want 1", seen)
	}
}

func TestLatestNeverRegresses(t *testing.T) {
	s := Open(1, 3, Movement)
	s.ApplyPush(push(Movement, 1, ts(1)))
	s.ApplyPush(push(Movement, 4, ts(8)))
	s.ApplyPush(push(Movement, 2, ts(3))) // older, must not win
	s.ApplyPush(push(Movement, 3, ts(5)))

	if got := s.Latest(Movement); got == nil || got.Code != 4 {
		t.Errorf("Latest = %+v, want code 4 (t=8)", got)
	}
}

func TestLatestSurvivesEviction(t *testing.T) {
	s := Open(1, 3, Movement)
	for i := 1; i <= 10; i++ {
		s.ApplyPush(push(Movement, i, ts(i)))
	}
	if len(s.Log(Movement)) != 3 {
		t.Errorf("log len = %d, want 3", len(s.Log(Movement)))
	}
	if got := s.Latest(Movement); got == nil || got.Code != 10 {
		t.Errorf("Latest = %+v, want code 10", got)
	}
}

func TestUntimestampedPushWins(t *testing.T) {
	s := Open(1, 5, Movement)
	s.ApplyPush(push(Movement, 1, time.Time{}))
	s.ApplyPush(push(Movement, 2, time.Time{}))

	if got := s.Latest(Movement); got == nil || got.Code != 2 {
		t.Errorf("Latest = %+v, want the later arrival", got)
	}
}

func TestApplyPushIgnoresUntrackedChannel(t *testing.T) {
	s := Open(1, 5, Movement)
	if s.ApplyPush(push(Obstacle, 1, ts(1))) {
		t.Error("push on an untracked channel must not change state")
	}
}

func TestClosedSessionDropsPushes(t *testing.T) {
	s := Open(1, 5, Movement)
	s.ApplyPush(push(Movement, 1, ts(1)))
	s.Close()
	if s.ApplyPush(push(Movement, 2, ts(2))) {
		t.Error("push after Close must be a no-op")
	}
	if got := s.Latest(Movement); got == nil || got.Code != 1 {
		t.Errorf("Latest = %+v, want pre-close record", got)
	}
}

func TestCloseVoidsInflightSnapshot(t *testing.T) {
	s := Open(1, 10, Movement)
	tr := snapshotTransport()
	// The session closes while the snapshot reads are still in flight.
	tr.onRead = func() { s.Close() }

	if err := s.LoadSnapshot(context.Background(), tr); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if s.Latest(Movement) != nil {
		t.Error("snapshot completion after Close must not set latest")
	}
	if len(s.Log(Movement)) != 0 {
		t.Error("snapshot completion after Close must not seed the log")
	}
}

func TestDerivedIdentityDedupesRedelivery(t *testing.T) {
	s := Open(1, 5, Movement)
	// Same event redelivered after a reconnect, no server-assigned id.
	at := ts(4)
	s.ApplyPush(push(Movement, 7, at))
	s.ApplyPush(push(Movement, 7, at))

	if got := len(s.Log(Movement)); got != 1 {
		t.Errorf("log len = %d, want 1 (redelivery deduplicated)", got)
	}
}
