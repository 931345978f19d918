package show

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"lightshow/internal/frames"
)

// Outcome is the terminal state of a session.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeFailed is a cancellation forced by a hardware write error.
	OutcomeFailed Outcome = "failed"
	// OutcomeIdle is reported by a stop that found nothing playing.
	OutcomeIdle Outcome = "idle"
)

// Result describes how a session ended.
type Result struct {
	SessionID    string    `json:"session_id,omitempty"`
	Name         string    `json:"name,omitempty"`
	FPS          int       `json:"fps,omitempty"`
	Frames       int       `json:"frames"`
	FramesPlayed int       `json:"frames_played"`
	Outcome      Outcome   `json:"outcome"`
	Err          error     `json:"-"`
	StartedAt    time.Time `json:"started_at,omitempty"`
	EndedAt      time.Time `json:"ended_at,omitempty"`
}

// Handle resolves once the work it stands for reaches a terminal state.
type Handle struct {
	once   sync.Once
	done   chan struct{}
	result Result
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

func resolvedHandle(r Result) *Handle {
	h := newHandle()
	h.resolve(r)
	return h
}

func (h *Handle) resolve(r Result) {
	h.once.Do(func() {
		h.result = r
		close(h.done)
	})
}

// Done is closed when the handle resolves.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result is only meaningful after Done is closed.
func (h *Handle) Result() Result {
	select {
	case <-h.done:
		return h.result
	default:
		return Result{}
	}
}

// Wait blocks until the handle resolves or ctx ends. The returned error is
// the session failure, if any, or ctx.Err().
func (h *Handle) Wait(ctx context.Context) (Result, error) {
	select {
	case <-h.done:
		return h.result, h.result.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Session is one run of a sequence. The controller owns it; the player only
// borrows it for the duration of the frame loop.
type Session struct {
	ID       string
	Name     string
	Sequence *frames.Sequence
	QueuedAt time.Time

	cancelled atomic.Bool
	position  atomic.Int64
	startedAt atomic.Int64
	handle    *Handle
}

func newSession(name string, seq *frames.Sequence) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Name:     name,
		Sequence: seq,
		QueuedAt: time.Now(),
		handle:   newHandle(),
	}
}

// Cancel asks the frame loop to stop at the next tick boundary.
func (s *Session) Cancel() {
	s.cancelled.Store(true)
}

func (s *Session) Cancelled() bool {
	return s.cancelled.Load()
}

// Position is the index of the next frame to play.
func (s *Session) Position() int {
	return int(s.position.Load())
}

func (s *Session) Handle() *Handle {
	return s.handle
}

// Elapsed is how long s has been playing, zero if it has not started.
func (s *Session) Elapsed(now time.Time) time.Duration {
	started := s.startedAt.Load()
	if started == 0 {
		return 0
	}
	return now.Sub(time.Unix(0, started))
}
