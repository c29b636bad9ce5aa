// Package haptic delivers the short physical pulse that accompanies a group
// switch. Devices are optional; a Nop pulser keeps the session unaware of
// whether anything is attached.
package haptic

import "sync"

// Pulser fires one haptic pulse. Implementations must not block the caller
// for longer than it takes to hand the pulse to the device.
type Pulser interface {
	Pulse() error
}

// Nop is a Pulser with no device behind it.
type Nop struct{}

// Pulse implements Pulser.
func (Nop) Pulse() error { return nil }

// Counter counts pulses. Err, when set, is returned after counting.
type Counter struct {
	mu    sync.Mutex
	count int
	Err   error
}

// Pulse implements Pulser.
func (c *Counter) Pulse() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return c.Err
}

// Count returns how many pulses were requested.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Multi fans a pulse out to several devices. Every device is tried; the first
// error is returned.
type Multi []Pulser

// Pulse implements Pulser.
func (m Multi) Pulse() error {
	var first error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Pulse(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
