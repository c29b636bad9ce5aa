// Package rumble pulses the first attached game controller through SDL.
// It links against libSDL2, so it lives apart from the haptic package.
package rumble

import (
	"errors"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
)

// ErrNoController is returned when no game controller is attached.
var ErrNoController = errors.New("rumble: no game controller attached")

// Controller rumbles one SDL game controller.
type Controller struct {
	pad      *sdl.GameController
	low      uint16
	high     uint16
	duration time.Duration
}

// Open initializes the SDL game controller subsystem and opens the first
// controller found.
func Open(strength float64, duration time.Duration) (*Controller, error) {
	if err := sdl.InitSubSystem(sdl.INIT_GAMECONTROLLER); err != nil {
		return nil, fmt.Errorf("rumble: init sdl: %w", err)
	}
	for i := 0; i < sdl.NumJoysticks(); i++ {
		if !sdl.IsGameController(i) {
			continue
		}
		pad := sdl.GameControllerOpen(i)
		if pad == nil {
			continue
		}
		if strength <= 0 || strength > 1 {
			strength = 1
		}
		level := uint16(strength * 0xffff)
		if duration <= 0 {
			duration = 60 * time.Millisecond
		}
		return &Controller{pad: pad, low: level, high: level / 2, duration: duration}, nil
	}
	sdl.QuitSubSystem(sdl.INIT_GAMECONTROLLER)
	return nil, ErrNoController
}

// Pulse implements haptic.Pulser. SDL stops the motors on its own once the
// duration has passed.
func (c *Controller) Pulse() error {
	if c == nil || c.pad == nil {
		return ErrNoController
	}
	if err := c.pad.Rumble(c.low, c.high, uint32(c.duration/time.Millisecond)); err != nil {
		return fmt.Errorf("rumble: %w", err)
	}
	return nil
}

// Name returns the controller name reported by SDL.
func (c *Controller) Name() string {
	if c == nil || c.pad == nil {
		return ""
	}
	return c.pad.Name()
}

// Close releases the controller and the SDL subsystem.
func (c *Controller) Close() error {
	if c == nil || c.pad == nil {
		return nil
	}
	c.pad.Close()
	c.pad = nil
	sdl.QuitSubSystem(sdl.INIT_GAMECONTROLLER)
	return nil
}
