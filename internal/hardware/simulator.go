package hardware

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Simulator stands in for real pins. It keeps the state of every output and
// counts writes, so a show can be watched in the logs (or asserted on in
// tests) without standing outside in the cold.
type Simulator struct {
	mu     sync.Mutex
	pins   []int
	state  map[int]bool
	writes map[int]int
	fail   map[int]error
}

func NewSimulator() *Simulator {
	return &Simulator{
		state:  make(map[int]bool),
		writes: make(map[int]int),
		fail:   make(map[int]error),
	}
}

func (s *Simulator) ConfigureOutput(pin int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state[pin]; !ok {
		s.pins = append(s.pins, pin)
	}
	s.state[pin] = false
	return nil
}

func (s *Simulator) WriteOutput(pin int, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state[pin]; !ok {
		return fmt.Errorf("pin %d not configured as output", pin)
	}
	if err := s.fail[pin]; err != nil {
		return err
	}
	s.state[pin] = on
	s.writes[pin]++

	slog.Debug("sim write", "pin", pin, "on", on, "lights", s.render())
	return nil
}

func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for pin := range s.state {
		s.state[pin] = false
	}
	return nil
}

// FailWrites makes every later write to pin return err. A nil err clears it.
func (s *Simulator) FailWrites(pin int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, pin)
		return
	}
	s.fail[pin] = err
}

func (s *Simulator) State(pin int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state[pin]
}

// Writes is the number of successful writes to pin.
func (s *Simulator) Writes(pin int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[pin]
}

func (s *Simulator) TotalWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.writes {
		total += n
	}
	return total
}

// Render draws the outputs in configuration order, e.g. "●○○●".
func (s *Simulator) Render() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.render()
}

func (s *Simulator) render() string {
	var b strings.Builder
	for _, pin := range s.pins {
		if s.state[pin] {
			b.WriteString("●")
		} else {
			b.WriteString("○")
		}
	}
	return b.String()
}
