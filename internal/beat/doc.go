// Package beat converts frame deltas into discrete musical sub-beat ticks and
// classifies each tick against a switch cycle. Clock owns the accumulator and
// the lead-in countdown; Classify is the pure policy layer that decides which
// ticks switch, pre-switch or pulse.
package beat
