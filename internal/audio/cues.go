package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
)

// Waveform selects the oscillator used for a cue.
type Waveform string

const (
	Sine     Waveform = "sine"
	Square   Waveform = "square"
	Triangle Waveform = "triangle"
)

// Tone describes a short percussive cue.
type Tone struct {
	Waveform Waveform
	Freq     float64
	Duration time.Duration
	Gain     float64
}

// CueBank maps cue ids to tones.
type CueBank map[string]Tone

// DefaultCues returns the built-in cue set.
func DefaultCues() CueBank {
	return CueBank{
		"switch":  {Waveform: Square, Freq: 880, Duration: 120 * time.Millisecond, Gain: 0.35},
		"pulse":   {Waveform: Sine, Freq: 1760, Duration: 40 * time.Millisecond, Gain: 0.2},
		"pending": {Waveform: Triangle, Freq: 660, Duration: 60 * time.Millisecond, Gain: 0.15},
	}
}

// Aliased returns a copy of the bank in which every alias key also plays the
// tone of the cue it names. Aliases that name an unknown cue are skipped.
func (b CueBank) Aliased(aliases map[string]string) CueBank {
	out := make(CueBank, len(b)+len(aliases))
	for name, tone := range b {
		out[name] = tone
	}
	for alias, name := range aliases {
		if tone, ok := b[name]; ok && alias != "" {
			out[alias] = tone
		}
	}
	return out
}

// Streamer renders the tone at sr, scaled by accent.
func (t Tone) Streamer(sr beep.SampleRate, accent float64) (beep.Streamer, error) {
	var (
		osc beep.Streamer
		err error
	)
	switch t.Waveform {
	case Square:
		osc, err = generators.SquareTone(sr, t.Freq)
	case Triangle:
		osc, err = generators.TriangleTone(sr, t.Freq)
	case Sine, "":
		osc, err = generators.SineTone(sr, t.Freq)
	default:
		return nil, fmt.Errorf("audio: unknown waveform %q", t.Waveform)
	}
	if err != nil {
		return nil, fmt.Errorf("audio: %s tone at %.0fHz: %w", t.Waveform, t.Freq, err)
	}
	total := sr.N(t.Duration)
	if total < 1 {
		total = 1
	}
	return decay(beep.Take(total, osc), total, t.Gain*accent), nil
}

// decay shapes src with an exponential envelope so cues click rather than drone.
func decay(src beep.Streamer, total int, gain float64) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		n, ok = src.Stream(samples)
		for i := range samples[:n] {
			env := gain * math.Exp(-4*float64(pos)/float64(total))
			samples[i][0] *= env
			samples[i][1] *= env
			pos++
		}
		return n, ok
	})
}
