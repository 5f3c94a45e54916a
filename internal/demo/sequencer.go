// Package demo builds ordered step sequences client-side and drives their
// creation and execution on the carbot backend.
package demo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MndV09/iot-carbot/internal/catalog"
	"github.com/MndV09/iot-carbot/internal/client"
)

// MinStepDurationMs is the shortest step the firmware executes reliably.
// Shorter steps are rejected rather than clamped so the UI contract stays
// explicit.
const MinStepDurationMs = 100

var (
	// ErrValidation covers caller mistakes rejected before any network
	// call: unknown move codes, too-short durations, empty sequences,
	// missing selection.
	ErrValidation = errors.New("demo: invalid input")

	// ErrCreateFailed is terminal: the create call failed and the one-shot
	// rename retry failed too.
	ErrCreateFailed = errors.New("demo: create failed")

	// ErrRunFailed wraps a failed run call. Runs are never retried
	// automatically; re-running a sequence is not known to be idempotent.
	ErrRunFailed = errors.New("demo: run failed")
)

// Transport is the subset of the REST client the sequencer needs.
type Transport interface {
	CreateSequence(ctx context.Context, name string, ownerDeviceID int, steps []client.SequenceStep) (*client.SequenceInfo, error)
	RunSequence(ctx context.Context, sequenceID, deviceID, startDelayMs int) (*client.RunSequenceResponse, error)
	RecentSequences(ctx context.Context) ([]client.SequenceInfo, error)
}

// Sequencer accumulates an ordered list of timed movement steps and
// creates/runs the resulting sequence remotely. Key handling edits the
// step list on the UI loop while create commands read it from command
// goroutines, so access is mutex-guarded; network calls run unlocked on
// a copy.
type Sequencer struct {
	tr Transport

	mu    sync.Mutex
	steps []client.SequenceStep
}

// New creates an empty sequencer using the given transport.
func New(tr Transport) *Sequencer {
	return &Sequencer{tr: tr}
}

// AddStep appends a step. The move code must exist in the movement catalog
// and the duration must be at least MinStepDurationMs.
func (s *Sequencer) AddStep(moveCode, durationMs int) error {
	if !catalog.ValidMove(moveCode) {
		return fmt.Errorf("%w: unknown move code %d", ErrValidation, moveCode)
	}
	if durationMs < MinStepDurationMs {
		return fmt.Errorf("%w: duration %dms below minimum %dms", ErrValidation, durationMs, MinStepDurationMs)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, client.SequenceStep{StatusClave: moveCode, DurationMs: durationMs})
	return nil
}

// RemoveStep deletes the step at index. Out-of-range indices are no-ops.
func (s *Sequencer) RemoveStep(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.steps) {
		return
	}
	s.steps = append(s.steps[:index], s.steps[index+1:]...)
}

// ReorderStep swaps the step at index with its neighbour in the given
// direction (-1 up, +1 down). Out-of-range moves are no-ops.
func (s *Sequencer) ReorderStep(index, direction int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := index + direction
	if index < 0 || index >= len(s.steps) || j < 0 || j >= len(s.steps) {
		return
	}
	s.steps[index], s.steps[j] = s.steps[j], s.steps[index]
}

// Steps returns a copy of the current step list.
func (s *Sequencer) Steps() []client.SequenceStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]client.SequenceStep, len(s.steps))
	copy(out, s.steps)
	return out
}

// Clear empties the step list.
func (s *Sequencer) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = s.steps[:0]
}

// LoadExample replaces the step list with a short demonstration program:
// forward, right, forward, left, stop.
func (s *Sequencer) LoadExample() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = []client.SequenceStep{
		{StatusClave: 1, DurationMs: 800},
		{StatusClave: 8, DurationMs: 500},
		{StatusClave: 1, DurationMs: 800},
		{StatusClave: 9, DurationMs: 500},
		{StatusClave: 3, DurationMs: 300},
	}
}

// Create stores the current steps as a named sequence owned by ownerID.
// An empty name gets one synthesized from the clock. If the backend
// rejects the create (duplicate name shows up as a conflict), it retries
// exactly once with a uniqueness suffix; the returned SequenceInfo carries
// the final name so the caller sees the rename. A second failure is
// terminal ErrCreateFailed.
func (s *Sequencer) Create(ctx context.Context, name string, ownerID int) (*client.SequenceInfo, error) {
	steps := s.Steps()
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: sequence has no steps", ErrValidation)
	}
	if name == "" {
		name = fmt.Sprintf("DEMO_%d", time.Now().UnixMilli())
	}

	info, err := s.tr.CreateSequence(ctx, name, ownerID, steps)
	if err == nil {
		s.fillName(info, name)
		return info, nil
	}

	retryName := fmt.Sprintf("%s_%d", name, time.Now().UnixMilli())
	info, retryErr := s.tr.CreateSequence(ctx, retryName, ownerID, steps)
	if retryErr != nil {
		return nil, fmt.Errorf("%w: %s: %v (retry as %q: %v)", ErrCreateFailed, name, err, retryName, retryErr)
	}
	s.fillName(info, retryName)
	return info, nil
}

// fillName makes sure the result names the stored sequence even when the
// backend response omits it.
func (s *Sequencer) fillName(info *client.SequenceInfo, name string) {
	if info != nil && info.Name == "" {
		info.Name = name
	}
}

// Run triggers execution of a stored sequence on the given device after
// startDelayMs. A zero sequence id means nothing is selected.
func (s *Sequencer) Run(ctx context.Context, sequenceID, deviceID, startDelayMs int) error {
	if sequenceID == 0 {
		return fmt.Errorf("%w: no sequence selected", ErrValidation)
	}
	resp, err := s.tr.RunSequence(ctx, sequenceID, deviceID, startDelayMs)
	if err != nil {
		return fmt.Errorf("%w: sequence %d: %v", ErrRunFailed, sequenceID, err)
	}
	if resp != nil && !resp.Accepted {
		return fmt.Errorf("%w: sequence %d not accepted", ErrRunFailed, sequenceID)
	}
	return nil
}

// Refresh fetches the recent stored sequences for the run selector.
func (s *Sequencer) Refresh(ctx context.Context) ([]client.SequenceInfo, error) {
	return s.tr.RecentSequences(ctx)
}
