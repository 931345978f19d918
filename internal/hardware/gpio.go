package hardware

import (
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIO drives Raspberry Pi header pins through periph. Pin 3 means
// physical pin 3 on the 40-pin header (P1_3), not BCM GPIO 3.
type GPIO struct {
	mu   sync.Mutex
	pins map[int]gpio.PinIO
}

func NewGPIO() (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio host init: %w", err)
	}
	return &GPIO{pins: make(map[int]gpio.PinIO)}, nil
}

func (g *GPIO) ConfigureOutput(pin int) error {
	name := fmt.Sprintf("P1_%d", pin)
	p := gpioreg.ByName(name)
	if p == nil {
		return fmt.Errorf("no header pin %s", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return fmt.Errorf("configure %s: %w", name, err)
	}

	g.mu.Lock()
	g.pins[pin] = p
	g.mu.Unlock()

	slog.Debug("gpio output configured", "pin", pin, "line", p.Name())
	return nil
}

func (g *GPIO) WriteOutput(pin int, on bool) error {
	g.mu.Lock()
	p, ok := g.pins[pin]
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("pin %d not configured as output", pin)
	}
	return p.Out(gpio.Level(on))
}

// Close drives every configured pin low.
func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var first error
	for pin, p := range g.pins {
		if err := p.Out(gpio.Low); err != nil && first == nil {
			first = fmt.Errorf("release pin %d: %w", pin, err)
		}
	}
	return first
}
