package vc

import (
	"fmt"

	"github.com/robotalks/robocar/pkg/clock"
)

// Hard limits.
const (
	// MaxSteering is the largest steering magnitude in degrees.
	MaxSteering float64 = 90
	// DefaultTimeout is the watchdog threshold after power-up.
	DefaultTimeout uint32 = 1000
)

// State is the single source of truth of the controller.
type State struct {
	Running       bool
	Throttle      float64
	Steering      float64
	TimeoutMs     uint32
	Ceiling       float64
	LastCommandTs clock.Millis
	// Changed means the actuators have not seen the latest values.
	Changed bool
}

// NewState creates the power-up state for a variant. Changed starts
// set so the first tick drives the actuators to neutral.
func NewState(v Variant) State {
	return State{
		TimeoutMs: DefaultTimeout,
		Ceiling:   v.DefaultCeiling,
		Changed:   true,
	}
}

// Halt stops the vehicle. It returns false if the state didn't move.
func (s *State) Halt() bool {
	if !s.Running && s.Throttle == 0 {
		return false
	}
	s.Running, s.Throttle = false, 0
	s.Changed = true
	return true
}

// Expired tells whether the watchdog threshold passed at now.
func (s *State) Expired(now clock.Millis) bool {
	return now.Since(s.LastCommandTs) > s.TimeoutMs
}

// String implements fmt.Stringer.
func (s State) String() string {
	return fmt.Sprintf("running=%v throttle=%.2f steering=%.2f timeout=%dms ceiling=%.2f",
		s.Running, s.Throttle, s.Steering, s.TimeoutMs, s.Ceiling)
}
