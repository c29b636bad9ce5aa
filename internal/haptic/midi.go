package haptic

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
)

// MIDIOption customizes a MIDIPulser.
type MIDIOption func(*MIDIPulser)

// WithChannel selects the MIDI channel (0-15).
func WithChannel(ch uint8) MIDIOption {
	return func(p *MIDIPulser) { p.channel = ch & 0x0f }
}

// WithNote selects the key and velocity of the pulse note.
func WithNote(key, velocity uint8) MIDIOption {
	return func(p *MIDIPulser) {
		p.key = key & 0x7f
		p.velocity = velocity & 0x7f
	}
}

// WithHold sets how long the note is held before the NoteOff.
func WithHold(d time.Duration) MIDIOption {
	return func(p *MIDIPulser) {
		if d > 0 {
			p.hold = d
		}
	}
}

// WithScheduler replaces time.AfterFunc for releasing held notes.
func WithScheduler(after func(time.Duration, func())) MIDIOption {
	return func(p *MIDIPulser) {
		if after != nil {
			p.after = after
		}
	}
}

// MIDIPulser drives a vibration rig listening on a MIDI port: every pulse is
// a NoteOn followed, after the hold time, by a NoteOff.
type MIDIPulser struct {
	send     func(midi.Message) error
	channel  uint8
	key      uint8
	velocity uint8
	hold     time.Duration
	after    func(time.Duration, func())

	mu      sync.Mutex
	holding bool
	lastErr error
}

// NewMIDIPulser wraps a send function such as the one returned by midi.SendTo.
func NewMIDIPulser(send func(midi.Message) error, opts ...MIDIOption) (*MIDIPulser, error) {
	if send == nil {
		return nil, errors.New("haptic: midi send function is required")
	}
	p := &MIDIPulser{
		send:     send,
		channel:  9,
		key:      36,
		velocity: 110,
		hold:     40 * time.Millisecond,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// OpenMIDIPulser finds an output port whose name contains portName and
// returns a pulser writing to it. A MIDI driver must be registered by the
// caller, typically with a blank import of rtmididrv.
func OpenMIDIPulser(portName string, opts ...MIDIOption) (*MIDIPulser, error) {
	out, err := midi.FindOutPort(portName)
	if err != nil {
		return nil, fmt.Errorf("haptic: find midi port %q: %w", portName, err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("haptic: open midi port %q: %w", portName, err)
	}
	return NewMIDIPulser(send, opts...)
}

// Pulse implements Pulser. A pulse arriving while the previous note is still
// held is dropped rather than stacking notes on the device.
func (p *MIDIPulser) Pulse() error {
	p.mu.Lock()
	if p.holding {
		p.mu.Unlock()
		return nil
	}
	p.holding = true
	p.mu.Unlock()

	if err := p.send(midi.NoteOn(p.channel, p.key, p.velocity)); err != nil {
		p.mu.Lock()
		p.holding = false
		p.mu.Unlock()
		return fmt.Errorf("haptic: note on: %w", err)
	}
	p.after(p.hold, p.release)
	return nil
}

func (p *MIDIPulser) release() {
	err := p.send(midi.NoteOff(p.channel, p.key))
	p.mu.Lock()
	p.holding = false
	if err != nil {
		p.lastErr = fmt.Errorf("haptic: note off: %w", err)
	}
	p.mu.Unlock()
}

// Err returns the last error seen while releasing a note, if any.
func (p *MIDIPulser) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
