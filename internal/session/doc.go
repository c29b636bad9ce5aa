// Package session binds the beat clock, the toggle cycle policy and the
// toggle group registry to an audio binding and drives them through the
// lead-in, running, suspended and torn-down lifecycle. Callers step it with
// Advance once per frame and forward scene exit and enter hooks; on re-entry
// the registry is silently realigned to the current phase so nothing pops.
package session
