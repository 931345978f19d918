// Package lights owns the physical channels and maps frames onto them.
package lights

import (
	"errors"
	"fmt"
	"sync"

	"lightshow/internal/frames"
	"lightshow/internal/hardware"
)

// ErrHardwareWrite wraps any driver failure while applying a frame.
var ErrHardwareWrite = errors.New("hardware write failed")

// Channel is one light circuit on one output pin.
type Channel struct {
	Pin   int
	Label string

	// on is the last written state; nil until the first write.
	on *bool
}

// Bank is the ordered channel list. The order decides which bit position
// drives which channel and is changed only by Rotate.
//
// Only one session drives a Bank at a time (the show controller guarantees
// it). The mutex exists so status readers can snapshot mid-show.
type Bank struct {
	mu       sync.RWMutex
	driver   hardware.Driver
	channels []*Channel
}

// NewBank configures every channel's pin as an output.
func NewBank(driver hardware.Driver, channels []Channel) (*Bank, error) {
	if len(channels) == 0 {
		return nil, errors.New("bank needs at least one channel")
	}

	b := &Bank{driver: driver, channels: make([]*Channel, len(channels))}
	for i := range channels {
		ch := channels[i]
		ch.on = nil
		if err := driver.ConfigureOutput(ch.Pin); err != nil {
			return nil, fmt.Errorf("configure pin %d: %w", ch.Pin, err)
		}
		b.channels[i] = &ch
	}
	return b, nil
}

// Len is the fixed channel count.
func (b *Bank) Len() int {
	return len(b.channels)
}

// ApplyFrame writes only the channels whose desired state differs from the
// last written one. The first write error stops the frame.
func (b *Bank) ApplyFrame(f frames.Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, ch := range b.channels {
		want := i < len(f) && f[i]
		if ch.on != nil && *ch.on == want {
			continue
		}
		if err := b.driver.WriteOutput(ch.Pin, want); err != nil {
			return fmt.Errorf("%w: pin %d: %v", ErrHardwareWrite, ch.Pin, err)
		}
		ch.on = &want
	}
	return nil
}

// Rotate moves the last channel to the front. Hardware is untouched.
func (b *Bank) Rotate() {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.channels)
	last := b.channels[n-1]
	copy(b.channels[1:], b.channels[:n-1])
	b.channels[0] = last
}

// Order returns the pins in their current position order.
func (b *Bank) Order() []int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	pins := make([]int, len(b.channels))
	for i, ch := range b.channels {
		pins[i] = ch.Pin
	}
	return pins
}

// ChannelState is a point-in-time view of one channel.
type ChannelState struct {
	Position int    `json:"position"`
	Pin      int    `json:"pin"`
	Label    string `json:"label,omitempty"`
	On       *bool  `json:"on"`
}

// States snapshots every channel in position order.
func (b *Bank) States() []ChannelState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]ChannelState, len(b.channels))
	for i, ch := range b.channels {
		var on *bool
		if ch.on != nil {
			v := *ch.on
			on = &v
		}
		out[i] = ChannelState{Position: i, Pin: ch.Pin, Label: ch.Label, On: on}
	}
	return out
}

// Blackout drives every channel low regardless of its last state and
// attempts every pin even after a failure.
func (b *Bank) Blackout() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	off := false
	for _, ch := range b.channels {
		if err := b.driver.WriteOutput(ch.Pin, false); err != nil {
			errs = append(errs, fmt.Errorf("pin %d: %w", ch.Pin, err))
			continue
		}
		ch.on = &off
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrHardwareWrite, errors.Join(errs...))
	}
	return nil
}
