package show

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"lightshow/internal/frames"
	"lightshow/internal/lights"
)

// ErrClosed is reported by plays requested after Shutdown.
var ErrClosed = errors.New("show controller is shut down")

// Observer is told about every session that reaches a terminal state, before
// the session's handle resolves.
type Observer interface {
	SessionFinished(Result)
}

// Controller admits play and stop requests. Sessions run one at a time, in
// arrival order, on a single drain goroutine; a session never starts before
// the previous one has fully terminated.
type Controller struct {
	player *Player
	bank   *lights.Bank

	mu        sync.Mutex
	current   *Session
	queue     []*Session
	draining  bool
	closed    bool
	observers []Observer

	wg sync.WaitGroup
}

func NewController(player *Player, bank *lights.Bank) *Controller {
	return &Controller{player: player, bank: bank}
}

// Observe registers o for session results. Call before the first play.
func (c *Controller) Observe(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// RequestPlay queues seq behind any active or queued session and returns a
// handle that resolves when this session ends.
func (c *Controller) RequestPlay(name string, seq *frames.Sequence) *Handle {
	s := newSession(name, seq)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return resolvedHandle(Result{SessionID: s.ID, Name: name, Outcome: OutcomeCancelled, Err: ErrClosed})
	}

	c.queue = append(c.queue, s)
	queueDepth.Set(float64(len(c.queue)))
	if c.current != nil || len(c.queue) > 1 {
		slog.Info("show queued", "session", s.ID, "name", name, "position", len(c.queue))
	}

	if !c.draining {
		c.draining = true
		c.wg.Add(1)
		go c.drain()
	}
	return s.handle
}

// RequestStop cancels the active session and everything queued at the time
// of the call. The handle resolves once all of them are terminal, so the
// lights are quiescent. Plays requested afterwards wait behind the drain.
func (c *Controller) RequestStop() *Handle {
	c.mu.Lock()
	var targets []*Session
	if c.current != nil {
		targets = append(targets, c.current)
	}
	targets = append(targets, c.queue...)
	c.mu.Unlock()

	if len(targets) == 0 {
		return resolvedHandle(Result{Outcome: OutcomeIdle})
	}

	for _, s := range targets {
		s.Cancel()
	}
	slog.Info("stop requested", "sessions", len(targets))

	h := newHandle()
	go func() {
		for _, s := range targets {
			<-s.handle.done
		}
		h.resolve(targets[0].handle.result)
	}()
	return h
}

func (c *Controller) drain() {
	defer c.wg.Done()

	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.current = nil
			c.draining = false
			c.mu.Unlock()
			return
		}
		s := c.queue[0]
		c.queue = c.queue[1:]
		c.current = s
		queueDepth.Set(float64(len(c.queue)))
		c.mu.Unlock()

		playing.Set(1)
		res := c.player.Play(s)
		playing.Set(0)

		c.mu.Lock()
		c.current = nil
		observers := append([]Observer(nil), c.observers...)
		c.mu.Unlock()

		sessionsTotal.WithLabelValues(string(res.Outcome)).Inc()
		slog.Info("show finished", "session", s.ID, "name", s.Name, "outcome", res.Outcome, "frames_played", res.FramesPlayed)

		for _, o := range observers {
			o.SessionFinished(res)
		}
		s.handle.resolve(res)
	}
}

// SessionStatus describes the active session.
type SessionStatus struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	FPS      int       `json:"fps"`
	Frame    int       `json:"frame"`
	Frames   int       `json:"frames"`
	Elapsed  float64   `json:"elapsed_seconds"`
	Stopping bool      `json:"stopping"`
	QueuedAt time.Time `json:"queued_at"`
}

// Status is a snapshot of the controller and the output bank.
type Status struct {
	Playing  bool                  `json:"playing"`
	Current  *SessionStatus        `json:"current,omitempty"`
	Queued   []string              `json:"queued"`
	Channels []lights.ChannelState `json:"channels"`
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	st := Status{Queued: make([]string, 0, len(c.queue))}
	if s := c.current; s != nil {
		st.Playing = true
		st.Current = &SessionStatus{
			ID:       s.ID,
			Name:     s.Name,
			FPS:      int(s.Sequence.FPS),
			Frame:    s.Position(),
			Frames:   s.Sequence.Len(),
			Elapsed:  s.Elapsed(time.Now()).Seconds(),
			Stopping: s.Cancelled(),
			QueuedAt: s.QueuedAt,
		}
	}
	for _, s := range c.queue {
		st.Queued = append(st.Queued, s.Name)
	}
	c.mu.Unlock()

	st.Channels = c.bank.States()
	return st
}

// Shutdown refuses new plays, stops everything and waits for the drain
// goroutine to exit.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	if _, err := c.RequestStop().Wait(ctx); err != nil && ctx.Err() != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
