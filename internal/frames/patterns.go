package frames

import (
	"errors"
	"fmt"
)

// Pattern names accepted by Generate.
const (
	PatternChase = "chase"
	PatternBlink = "blink"
	PatternAllOn = "all-on"
)

// MaxSequenceBytes caps a sequence accepted from a client or generated on
// request. An hour at 255 fps over 64 channels is well under this.
const MaxSequenceBytes = 64 << 20

// ErrTooLong is returned when a generated pattern would exceed MaxSequenceBytes.
var ErrTooLong = errors.New("sequence too long")

// alloc returns a zeroed wire buffer for repeat*perRepeat+extra frames with
// the frame rate already written, or ErrTooLong before allocating anything.
func alloc(fps uint8, channelCount, repeat, perRepeat, extra int) ([]byte, int, error) {
	if fps == 0 {
		return nil, 0, fmt.Errorf("%w: frame rate is zero", ErrMalformedInput)
	}
	if channelCount <= 0 {
		return nil, 0, fmt.Errorf("%w: no channels", ErrMalformedInput)
	}

	width := Width(channelCount)
	maxFrames := (MaxSequenceBytes - 1) / width
	if repeat < 0 || repeat > (maxFrames-extra)/perRepeat {
		return nil, 0, fmt.Errorf("%w: %d repeats of %d channels", ErrTooLong, repeat, channelCount)
	}

	out := make([]byte, 1+(repeat*perRepeat+extra)*width)
	out[0] = fps
	return out, width, nil
}

// set turns on position pos of frame n in a buffer built by alloc.
func set(out []byte, width, n, pos int) {
	out[1+n*width+pos/8] |= 1 << (pos % 8)
}

// fill turns on every position of frame n.
func fill(out []byte, width, n, channelCount int) {
	for pos := 0; pos < channelCount; pos++ {
		set(out, width, n, pos)
	}
}

// Chase lights one position at a time, walking across every channel laps times.
func Chase(fps uint8, channelCount, laps int) ([]byte, error) {
	out, width, err := alloc(fps, channelCount, laps, channelCount, 0)
	if err != nil {
		return nil, err
	}
	for n := 0; n < laps*channelCount; n++ {
		set(out, width, n, n%channelCount)
	}
	return out, nil
}

// Blink toggles every channel together, count full on/off cycles.
func Blink(fps uint8, channelCount, count int) ([]byte, error) {
	out, width, err := alloc(fps, channelCount, count, 2, 0)
	if err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		fill(out, width, 2*i, channelCount)
	}
	return out, nil
}

// AllOn holds every channel on for the given number of frames, then turns them off.
func AllOn(fps uint8, channelCount, hold int) ([]byte, error) {
	out, width, err := alloc(fps, channelCount, hold, 1, 1)
	if err != nil {
		return nil, err
	}
	for n := 0; n < hold; n++ {
		fill(out, width, n, channelCount)
	}
	return out, nil
}

// Generate builds a named wiring test pattern. repeat is laps for chase,
// cycles for blink and held frames for all-on.
func Generate(name string, fps uint8, channelCount, repeat int) ([]byte, error) {
	if repeat <= 0 {
		repeat = 1
	}
	switch name {
	case PatternChase:
		return Chase(fps, channelCount, repeat)
	case PatternBlink:
		return Blink(fps, channelCount, repeat)
	case PatternAllOn:
		return AllOn(fps, channelCount, repeat)
	default:
		return nil, fmt.Errorf("unknown test pattern %q", name)
	}
}
