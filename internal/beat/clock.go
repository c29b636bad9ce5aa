package beat

import (
	"errors"
	"fmt"
	"math"
)

const (
	// SubbeatDuration is the length of one sub-beat in musical seconds.
	SubbeatDuration = 1.0 / 6.0
	// DefaultBeatIndexMax is the wrap modulus used when none is configured.
	DefaultBeatIndexMax = 256

	// accumulated time this close to a boundary counts as crossing it so that
	// n*SubbeatDuration/tempo always yields n ticks.
	boundaryEpsilon = 1e-9

	// MaxCatchUpTicks bounds the events returned by one Advance call. Time
	// beyond it is dropped, keeping only the position inside the sub-beat.
	MaxCatchUpTicks = 4096
)

// ErrInvalidDelta is returned when Advance receives a negative or non-finite delta.
var ErrInvalidDelta = errors.New("beat: invalid delta")

// TickEvent is emitted once per sub-beat boundary crossed.
type TickEvent struct {
	// Index is the sub-beat index after the tick was applied.
	Index int
	// PlaybackStart is set on the tick that consumed the last lead-in sub-beat.
	// Index is realigned to zero on that tick.
	PlaybackStart bool
	// LeadIn reports that the tick happened while lead-in sub-beats remained.
	LeadIn bool
}

// Clock accumulates elapsed time into sub-beat ticks.
type Clock struct {
	elapsed float64
	index   int
	max     int
	tempo   float64
	leadIn  int
}

// NewClock validates the wrap modulus, lead-in and tempo and returns a clock
// at index 0.
func NewClock(beatIndexMax, leadIn int, tempo float64) (*Clock, error) {
	if beatIndexMax < 1 {
		return nil, fmt.Errorf("beat: beat index max must be >= 1, got %d", beatIndexMax)
	}
	if leadIn < 0 {
		return nil, fmt.Errorf("beat: lead-in must be >= 0, got %d", leadIn)
	}
	if !finite(tempo) {
		return nil, fmt.Errorf("beat: tempo must be finite, got %v", tempo)
	}
	return &Clock{max: beatIndexMax, tempo: tempo, leadIn: leadIn}, nil
}

// Advance scales dt by the tempo multiplier and returns one event per
// sub-beat boundary crossed, in order. A non-positive tempo freezes the clock.
func (c *Clock) Advance(dt float64) ([]TickEvent, error) {
	if !(dt >= 0) || math.IsInf(dt, 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDelta, dt)
	}
	if c.tempo <= 0 || dt == 0 {
		return nil, nil
	}
	c.elapsed += dt * c.tempo
	var events []TickEvent
	for c.elapsed+boundaryEpsilon >= SubbeatDuration {
		if len(events) == MaxCatchUpTicks {
			c.elapsed = math.Mod(c.elapsed, SubbeatDuration)
			if !finite(c.elapsed) || c.elapsed+boundaryEpsilon >= SubbeatDuration {
				c.elapsed = 0
			}
			break
		}
		c.elapsed -= SubbeatDuration
		if c.elapsed < 0 {
			c.elapsed = 0
		}
		events = append(events, c.step())
	}
	return events, nil
}

func (c *Clock) step() TickEvent {
	c.index = (c.index + 1) % c.max
	ev := TickEvent{Index: c.index}
	if c.leadIn == 0 {
		return ev
	}
	c.leadIn--
	if c.leadIn == 0 {
		c.index = 0
		ev.Index = 0
		ev.PlaybackStart = true
		return ev
	}
	ev.LeadIn = true
	return ev
}

// Index returns the current sub-beat index.
func (c *Clock) Index() int { return c.index }

// BeatIndexMax returns the wrap modulus.
func (c *Clock) BeatIndexMax() int { return c.max }

// LeadInRemaining returns how many lead-in sub-beats are left.
func (c *Clock) LeadInRemaining() int { return c.leadIn }

// InLeadIn reports whether playback has not started yet.
func (c *Clock) InLeadIn() bool { return c.leadIn > 0 }

// Tempo returns the tempo multiplier.
func (c *Clock) Tempo() float64 { return c.tempo }

// SetTempo changes the tempo multiplier. Values <= 0 pause the rhythm and
// non-finite values are ignored.
func (c *Clock) SetTempo(tempo float64) {
	if finite(tempo) {
		c.tempo = tempo
	}
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Elapsed returns the musical seconds accumulated since the last tick.
func (c *Clock) Elapsed() float64 { return c.elapsed }

// Phase returns how far the clock is through the current sub-beat, in [0, 1).
func (c *Clock) Phase() float64 {
	p := c.elapsed / SubbeatDuration
	if p >= 1 {
		return math.Nextafter(1, 0)
	}
	return p
}

// Restore places the clock at a previously captured position. Values are
// normalized so the clock invariants still hold.
func (c *Clock) Restore(index int, elapsed float64, leadIn int) {
	c.index = Mod(index, c.max)
	if !(elapsed >= 0) || elapsed >= SubbeatDuration {
		elapsed = 0
	}
	c.elapsed = elapsed
	if leadIn < 0 {
		leadIn = 0
	}
	c.leadIn = leadIn
}

// Mod returns the non-negative remainder of a divided by n.
func Mod(a, n int) int {
	if n <= 0 {
		return 0
	}
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
