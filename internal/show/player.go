package show

import (
	"log/slog"

	"lightshow/internal/lights"
)

// DefaultRotateFrames is how many frames pass between channel rotations.
const DefaultRotateFrames = 10

// Player runs the fixed-rate frame loop for one session at a time.
type Player struct {
	bank         *lights.Bank
	clock        Clock
	rotateFrames int
}

// NewPlayer builds a frame loop. rotateFrames <= 0 disables rotation.
func NewPlayer(bank *lights.Bank, clock Clock, rotateFrames int) *Player {
	if clock == nil {
		clock = RealClock{}
	}
	return &Player{bank: bank, clock: clock, rotateFrames: rotateFrames}
}

// Play runs s until its sequence ends, it is cancelled, or a write fails.
// Cancellation is only observed between ticks.
func (p *Player) Play(s *Session) Result {
	seq := s.Sequence
	total := seq.Len()
	interval := seq.Interval()

	res := Result{
		SessionID: s.ID,
		Name:      s.Name,
		FPS:       int(seq.FPS),
		Frames:    total,
		StartedAt: p.clock.Now(),
	}
	s.startedAt.Store(res.StartedAt.UnixNano())

	finish := func(o Outcome) Result {
		res.Outcome = o
		res.EndedAt = p.clock.Now()
		return res
	}

	if total == 0 {
		return finish(OutcomeCompleted)
	}

	slog.Info("show started", "session", s.ID, "name", s.Name, "fps", seq.FPS, "frames", total)

	for i := 0; ; {
		if s.Cancelled() {
			return finish(OutcomeCancelled)
		}

		start := p.clock.Now()

		if err := p.bank.ApplyFrame(seq.Frame(i)); err != nil {
			slog.Error("frame write failed, aborting show", "session", s.ID, "frame", i, "error", err)
			res.Err = err
			return finish(OutcomeFailed)
		}
		res.FramesPlayed++
		framesApplied.Inc()

		// Rotate so the frequency channels move around the display.
		if p.rotateFrames > 0 && i%p.rotateFrames == 0 {
			p.bank.Rotate()
		}

		i++
		s.position.Store(int64(i))
		if i >= total {
			return finish(OutcomeCompleted)
		}

		elapsed := p.clock.Now().Sub(start)
		tickDuration.Observe(elapsed.Seconds())
		if elapsed > interval {
			// Running late: carry on without skipping frames.
			tickOverruns.Inc()
			continue
		}
		p.clock.Sleep(interval - elapsed)
	}
}
