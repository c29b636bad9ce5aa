package audio

import (
	"fmt"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// Output hands the binding's master streamer to a sink. speaker.Play fits.
type Output func(...beep.Streamer)

// BeepOption customizes a BeepBinding.
type BeepOption func(*BeepBinding)

// WithLocker guards mixer mutations. Pass a speaker-backed locker when the
// output is the beep speaker so cues are added between buffer fills.
func WithLocker(l sync.Locker) BeepOption {
	return func(b *BeepBinding) {
		if l != nil {
			b.lock = l
		}
	}
}

// WithCues replaces the cue bank.
func WithCues(bank CueBank) BeepOption {
	return func(b *BeepBinding) {
		if len(bank) > 0 {
			b.cues = bank
		}
	}
}

// WithVolume sets the master volume as a base-2 exponent (0 is unity gain).
func WithVolume(v float64) BeepOption {
	return func(b *BeepBinding) {
		b.volume.Volume = v
	}
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// BeepBinding synthesizes cues into a mixer that is paused while the session
// is stopped.
type BeepBinding struct {
	sr       beep.SampleRate
	out      Output
	cues     CueBank
	lock     sync.Locker
	mixer    *beep.Mixer
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	attached bool
	playing  bool
	accentOn int
	position int
}

// NewBeepBinding creates a binding that renders at sr into out.
func NewBeepBinding(sr beep.SampleRate, out Output, opts ...BeepOption) (*BeepBinding, error) {
	if sr <= 0 {
		return nil, fmt.Errorf("audio: sample rate must be positive, got %d", sr)
	}
	if out == nil {
		return nil, fmt.Errorf("audio: output is required")
	}
	mixer := &beep.Mixer{}
	ctrl := &beep.Ctrl{Streamer: mixer, Paused: true}
	b := &BeepBinding{
		sr:       sr,
		out:      out,
		cues:     DefaultCues(),
		lock:     nopLocker{},
		mixer:    mixer,
		ctrl:     ctrl,
		volume:   &effects.Volume{Streamer: ctrl, Base: 2},
		accentOn: 4,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

// Start implements Binding. The master streamer is attached to the output on
// the first call and resumed on later ones.
func (b *BeepBinding) Start() error {
	b.lock.Lock()
	b.ctrl.Paused = false
	b.volume.Silent = false
	b.lock.Unlock()
	if !b.attached {
		b.attached = true
		b.out(b.volume)
	}
	b.playing = true
	return nil
}

// Stop implements Binding. Queued cues are dropped.
func (b *BeepBinding) Stop() error {
	b.lock.Lock()
	b.ctrl.Paused = true
	b.mixer.Clear()
	b.lock.Unlock()
	b.playing = false
	return nil
}

// Close silences the binding for good.
func (b *BeepBinding) Close() error {
	if err := b.Stop(); err != nil {
		return err
	}
	b.lock.Lock()
	b.volume.Silent = true
	b.lock.Unlock()
	return nil
}

// SetParameter implements Binding. Only the sixteenth-note position is known;
// it drives the accent applied to the next cue.
func (b *BeepBinding) SetParameter(name string, value int) error {
	if name != ParamSixteenthNote {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	b.position = value
	return nil
}

// PlayCue implements Binding.
func (b *BeepBinding) PlayCue(id string) error {
	if !b.playing {
		return ErrNotStarted
	}
	tone, ok := b.cues[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCue, id)
	}
	s, err := tone.Streamer(b.sr, b.accent())
	if err != nil {
		return err
	}
	b.lock.Lock()
	b.mixer.Add(s)
	b.lock.Unlock()
	return nil
}

// accent is full strength on every quarter note of the sixteenth-note grid.
func (b *BeepBinding) accent() float64 {
	if b.position > 0 && (b.position-1)%b.accentOn == 0 {
		return 1
	}
	return 0.7
}

// Queued returns how many cues are still sounding.
func (b *BeepBinding) Queued() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.mixer.Len()
}
