// Package hardware is the boundary between the light engine and the output pins.
package hardware

import "fmt"

// Driver switches physical outputs. Pins are identified the way the
// configuration names them (physical header numbers for GPIO).
type Driver interface {
	ConfigureOutput(pin int) error
	WriteOutput(pin int, on bool) error
	Close() error
}

// New builds the driver selected by name: "gpio" or "sim".
func New(name string) (Driver, error) {
	switch name {
	case "gpio":
		return NewGPIO()
	case "sim":
		return NewSimulator(), nil
	default:
		return nil, fmt.Errorf("unknown lights driver %q", name)
	}
}
