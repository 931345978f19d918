package show

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"lightshow/internal/frames"
	"lightshow/internal/hardware"
	"lightshow/internal/lights"
)

var testPins = []int{3, 5, 7, 8, 10, 11, 12, 13}

func newTestBank(t *testing.T, driver hardware.Driver) *lights.Bank {
	t.Helper()
	channels := make([]lights.Channel, len(testPins))
	for i, p := range testPins {
		channels[i] = lights.Channel{Pin: p}
	}
	bank, err := lights.NewBank(driver, channels)
	if err != nil {
		t.Fatalf("NewBank failed: %v", err)
	}
	return bank
}

func mustSequence(t *testing.T, fps uint8, fs []frames.Frame) *frames.Sequence {
	t.Helper()
	data, err := frames.Encode(fps, fs, len(testPins))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	seq, err := frames.Decode(data, len(testPins))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return seq
}

// positionZero returns n frames with only logical position 0 lit.
func positionZero(n int) []frames.Frame {
	out := make([]frames.Frame, n)
	for i := range out {
		out[i] = frames.Frame{true}
	}
	return out
}

func TestPlayTwoFrameSequence(t *testing.T) {
	sim := hardware.NewSimulator()
	bank := newTestBank(t, sim)
	clock := NewManualClock(time.Unix(0, 0))
	player := NewPlayer(bank, clock, 10)

	seq, err := frames.Decode([]byte{10, 0b00000001, 0b00000011}, 8)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	res := player.Play(newSession("two-frames", seq))

	if res.Outcome != OutcomeCompleted {
		t.Fatalf("Outcome = %s, want completed", res.Outcome)
	}
	if res.FramesPlayed != 2 {
		t.Errorf("FramesPlayed = %d, want 2", res.FramesPlayed)
	}
	// One sleep between the two frames, none after the last.
	if got := clock.Sleeps(); !reflect.DeepEqual(got, []time.Duration{100 * time.Millisecond}) {
		t.Errorf("Sleeps = %v, want [100ms]", got)
	}

	// Frame 0 rotates the bank, so frame 1's position 0 is pin 13 and
	// position 1 is pin 3.
	if got := sim.Render(); got != "●○○○○○○●" {
		t.Errorf("lights = %s, want ●○○○○○○●", got)
	}
	// 8 writes for the first frame, one for pin 13 in the second.
	if got := sim.TotalWrites(); got != 9 {
		t.Errorf("TotalWrites = %d, want 9", got)
	}
}

func TestPlayHoldsFrameRate(t *testing.T) {
	sim := hardware.NewSimulator()
	clock := NewManualClock(time.Unix(0, 0))
	clock.Step = 30 * time.Millisecond
	player := NewPlayer(newTestBank(t, sim), clock, 0)

	res := player.Play(newSession("drift", mustSequence(t, 10, positionZero(3))))
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("Outcome = %s, want completed", res.Outcome)
	}

	want := []time.Duration{70 * time.Millisecond, 70 * time.Millisecond}
	if got := clock.Sleeps(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sleeps = %v, want %v", got, want)
	}
}

func TestPlayDoesNotSkipWhenLate(t *testing.T) {
	sim := hardware.NewSimulator()
	clock := NewManualClock(time.Unix(0, 0))
	clock.Step = 150 * time.Millisecond
	player := NewPlayer(newTestBank(t, sim), clock, 0)

	res := player.Play(newSession("late", mustSequence(t, 10, positionZero(5))))

	if res.FramesPlayed != 5 {
		t.Errorf("FramesPlayed = %d, want 5", res.FramesPlayed)
	}
	if got := clock.Sleeps(); len(got) != 0 {
		t.Errorf("Sleeps = %v, want none while overrunning", got)
	}
}

func TestPlayRotationCadence(t *testing.T) {
	tests := []struct {
		name   string
		frames int
		rotate int
		order  []int
		lit    int
	}{
		// Rotations happen after frames 0, 10, 20...
		{"One frame", 1, 10, []int{13, 3, 5, 7, 8, 10, 11, 12}, 3},
		{"Ten frames", 10, 10, []int{13, 3, 5, 7, 8, 10, 11, 12}, 13},
		// Frame 10 uses the order produced after frame 0, then rotates again.
		{"Eleven frames", 11, 10, []int{12, 13, 3, 5, 7, 8, 10, 11}, 13},
		{"Twelve frames", 12, 10, []int{12, 13, 3, 5, 7, 8, 10, 11}, 12},
		{"Every frame", 3, 1, []int{11, 12, 13, 3, 5, 7, 8, 10}, 12},
		{"Disabled", 25, 0, testPins, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := hardware.NewSimulator()
			bank := newTestBank(t, sim)
			player := NewPlayer(bank, NewManualClock(time.Unix(0, 0)), tt.rotate)

			player.Play(newSession(tt.name, mustSequence(t, 40, positionZero(tt.frames))))

			if got := bank.Order(); !reflect.DeepEqual(got, tt.order) {
				t.Errorf("Order = %v, want %v", got, tt.order)
			}
			for _, p := range testPins {
				if sim.State(p) != (p == tt.lit) {
					t.Errorf("pin %d on=%v, want only pin %d lit (%s)", p, sim.State(p), tt.lit, sim.Render())
				}
			}
		})
	}
}

func TestPlayEmptySequenceCompletes(t *testing.T) {
	sim := hardware.NewSimulator()
	player := NewPlayer(newTestBank(t, sim), NewManualClock(time.Unix(0, 0)), 10)

	seq, _ := frames.Decode([]byte{10}, 8)
	res := player.Play(newSession("empty", seq))

	if res.Outcome != OutcomeCompleted || res.FramesPlayed != 0 {
		t.Errorf("got %s with %d frames, want completed with 0", res.Outcome, res.FramesPlayed)
	}
	if sim.TotalWrites() != 0 {
		t.Error("empty sequence wrote to hardware")
	}
}

func TestPlayCancelledBeforeStart(t *testing.T) {
	sim := hardware.NewSimulator()
	player := NewPlayer(newTestBank(t, sim), NewManualClock(time.Unix(0, 0)), 10)

	s := newSession("never", mustSequence(t, 10, positionZero(4)))
	s.Cancel()
	res := player.Play(s)

	if res.Outcome != OutcomeCancelled {
		t.Errorf("Outcome = %s, want cancelled", res.Outcome)
	}
	if sim.TotalWrites() != 0 {
		t.Errorf("cancelled session wrote %d times", sim.TotalWrites())
	}
}

// cancelAfterSleeps cancels the session on its n-th sleep.
type cancelAfterSleeps struct {
	*ManualClock
	session *Session
	n       int
	count   int
}

func (c *cancelAfterSleeps) Sleep(d time.Duration) {
	c.count++
	if c.count == c.n {
		c.session.Cancel()
	}
	c.ManualClock.Sleep(d)
}

func TestPlayCancelledAtTickBoundary(t *testing.T) {
	sim := hardware.NewSimulator()
	bank := newTestBank(t, sim)

	s := newSession("cut", mustSequence(t, 10, positionZero(20)))
	clock := &cancelAfterSleeps{ManualClock: NewManualClock(time.Unix(0, 0)), session: s, n: 3}
	player := NewPlayer(bank, clock, 0)

	res := player.Play(s)

	if res.Outcome != OutcomeCancelled {
		t.Fatalf("Outcome = %s, want cancelled", res.Outcome)
	}
	if res.FramesPlayed != 3 {
		t.Errorf("FramesPlayed = %d, want 3", res.FramesPlayed)
	}
	if s.Position() != 3 {
		t.Errorf("Position = %d, want 3", s.Position())
	}
}

func TestPlayFailsOnHardwareError(t *testing.T) {
	sim := hardware.NewSimulator()
	bank := newTestBank(t, sim)
	player := NewPlayer(bank, NewManualClock(time.Unix(0, 0)), 0)

	// Pin 5 is already off, so it is first written on frame 1, where it fails.
	fs := []frames.Frame{{true}, {true, true}, {true, true, true}}
	s := newSession("fault", mustSequence(t, 10, fs))
	bank.ApplyFrame(frames.Frame{})
	sim.FailWrites(5, errors.New("relay welded"))

	res := player.Play(s)

	if res.Outcome != OutcomeFailed {
		t.Fatalf("Outcome = %s, want failed", res.Outcome)
	}
	if !errors.Is(res.Err, lights.ErrHardwareWrite) {
		t.Errorf("Err = %v, want ErrHardwareWrite", res.Err)
	}
	if res.FramesPlayed != 1 {
		t.Errorf("FramesPlayed = %d, want 1", res.FramesPlayed)
	}
}
