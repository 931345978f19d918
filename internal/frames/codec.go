// Package frames decodes the bit-packed light sequence format.
//
// A sequence file is one frame-rate byte followed by fixed-width frame chunks.
// Each chunk holds one bit per channel, low bit first, byte-major:
// bit 0 of byte 0 is logical position 0, bit 7 of byte 0 is position 7,
// bit 0 of byte 1 is position 8 and so on. A trailing partial chunk is dropped.
package frames

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedInput is returned for payloads that cannot start playback.
var ErrMalformedInput = errors.New("malformed frame payload")

// Frame is the desired on/off state per logical position.
type Frame []bool

// Sequence is a decoded light sequence. Frames are unpacked lazily so the
// mapping onto channels always uses the order in effect at apply time.
type Sequence struct {
	FPS      uint8
	Channels int
	Width    int
	data     []byte
}

// Width returns the byte width of one frame for channelCount channels.
func Width(channelCount int) int {
	return (channelCount + 7) / 8
}

func Decode(data []byte, channelCount int) (*Sequence, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedInput)
	}
	if data[0] == 0 {
		return nil, fmt.Errorf("%w: frame rate is zero", ErrMalformedInput)
	}
	if channelCount <= 0 {
		return nil, fmt.Errorf("%w: no channels", ErrMalformedInput)
	}

	width := Width(channelCount)
	payload := data[1:]
	whole := len(payload) - len(payload)%width

	return &Sequence{
		FPS:      data[0],
		Channels: channelCount,
		Width:    width,
		data:     payload[:whole],
	}, nil
}

// Len is the number of complete frames.
func (s *Sequence) Len() int {
	return len(s.data) / s.Width
}

// Interval is floor(1000/fps) milliseconds.
func (s *Sequence) Interval() time.Duration {
	return time.Duration(1000/int(s.FPS)) * time.Millisecond
}

// Duration is the nominal running time of the whole sequence.
func (s *Sequence) Duration() time.Duration {
	return time.Duration(s.Len()) * s.Interval()
}

// Frame unpacks frame i. Bits past the channel count are ignored.
func (s *Sequence) Frame(i int) Frame {
	chunk := s.data[i*s.Width : (i+1)*s.Width]
	return Unpack(chunk, s.Channels)
}

// Unpack expands one chunk into channelCount logical states.
func Unpack(chunk []byte, channelCount int) Frame {
	f := make(Frame, channelCount)
	for pos := range f {
		f[pos] = chunk[pos/8]>>(pos%8)&1 == 1
	}
	return f
}

// Encode packs frames into the wire format. Frames shorter than channelCount
// leave the missing positions off; longer frames are an error.
func Encode(fps uint8, frames []Frame, channelCount int) ([]byte, error) {
	if fps == 0 {
		return nil, fmt.Errorf("%w: frame rate is zero", ErrMalformedInput)
	}
	if channelCount <= 0 {
		return nil, fmt.Errorf("%w: no channels", ErrMalformedInput)
	}

	width := Width(channelCount)
	out := make([]byte, 1, 1+len(frames)*width)
	out[0] = fps

	chunk := make([]byte, width)
	for n, f := range frames {
		if len(f) > channelCount {
			return nil, fmt.Errorf("frame %d has %d states for %d channels", n, len(f), channelCount)
		}
		clear(chunk)
		for pos, on := range f {
			if on {
				chunk[pos/8] |= 1 << (pos % 8)
			}
		}
		out = append(out, chunk...)
	}
	return out, nil
}
