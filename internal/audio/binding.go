// Package audio defines the boundary between the scheduler and the music
// engine, plus the bindings that implement it: an in-memory Recorder and a
// beep-backed synthesizer that renders switch and pulse cues.
package audio

import (
	"errors"
	"fmt"
)

// ParamSixteenthNote is the continuous parameter the scheduler feeds every
// tick once lead-in has finished. Values are 1-based.
const ParamSixteenthNote = "sixteenth_note"

var (
	// ErrNotStarted is returned for cues requested while playback is stopped.
	ErrNotStarted = errors.New("audio: playback not started")
	// ErrUnknownCue is returned when a cue id has no registered sound.
	ErrUnknownCue = errors.New("audio: unknown cue")
	// ErrUnknownParameter is returned for parameters the binding does not expose.
	ErrUnknownParameter = errors.New("audio: unknown parameter")
)

// Binding is the handle the scheduler drives.
type Binding interface {
	Start() error
	Stop() error
	SetParameter(name string, value int) error
	PlayCue(id string) error
}

// Call records one invocation made against a Recorder.
type Call struct {
	Method string
	Name   string
	Value  int
}

func (c Call) String() string {
	switch c.Method {
	case "set":
		return fmt.Sprintf("set %s=%d", c.Name, c.Value)
	case "cue":
		return "cue " + c.Name
	default:
		return c.Method
	}
}

// Recorder is a Binding that remembers every call. Fail, when set, is
// returned from every method after the call is recorded.
type Recorder struct {
	Calls   []Call
	Fail    error
	playing bool
	closed  bool
}

// Start implements Binding.
func (r *Recorder) Start() error {
	r.Calls = append(r.Calls, Call{Method: "start"})
	if r.Fail != nil {
		return r.Fail
	}
	r.playing = true
	return nil
}

// Stop implements Binding.
func (r *Recorder) Stop() error {
	r.Calls = append(r.Calls, Call{Method: "stop"})
	if r.Fail != nil {
		return r.Fail
	}
	r.playing = false
	return nil
}

// SetParameter implements Binding.
func (r *Recorder) SetParameter(name string, value int) error {
	r.Calls = append(r.Calls, Call{Method: "set", Name: name, Value: value})
	return r.Fail
}

// PlayCue implements Binding.
func (r *Recorder) PlayCue(id string) error {
	r.Calls = append(r.Calls, Call{Method: "cue", Name: id})
	return r.Fail
}

// Close marks the recorder released.
func (r *Recorder) Close() error {
	r.closed = true
	return nil
}

// Playing reports whether Start was the last successful transport call.
func (r *Recorder) Playing() bool { return r.playing }

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool { return r.closed }

// Count returns how many recorded calls match method (and name, if non-empty).
func (r *Recorder) Count(method, name string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Method == method && (name == "" || c.Name == name) {
			n++
		}
	}
	return n
}

// Values returns the recorded values for parameter name in call order.
func (r *Recorder) Values(name string) []int {
	var out []int
	for _, c := range r.Calls {
		if c.Method == "set" && c.Name == name {
			out = append(out, c.Value)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() { r.Calls = nil }
