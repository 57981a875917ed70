package vc

import (
	"fmt"

	"github.com/robotalks/robocar/pkg/clock"
)

// ActuatorSink drives the physical outputs. Implementations convert to
// their own output range and clamp to their hardware bounds.
type ActuatorSink interface {
	// SetMotor accepts a normalized command in [-1, 1].
	SetMotor(normalized float64) error
	// SetSteering accepts an angle in degrees, positive to the right.
	SetSteering(degrees float64) error
}

// Supervisor enforces the watchdog and refreshes the actuators.
type Supervisor struct {
	Variant Variant
	Sink    ActuatorSink
}

// Check runs one supervision step at now. It reports whether the
// watchdog halted the vehicle in this step. On a sink error the state
// stays marked changed and the write is retried next tick.
func (s *Supervisor) Check(st *State, now clock.Millis) (halted bool, err error) {
	if st.Expired(now) {
		halted = st.Halt()
	}
	if st.Changed {
		err = s.Flush(st)
	}
	return
}

// Flush writes the current outputs to the sink and clears the changed
// flag once both were accepted.
func (s *Supervisor) Flush(st *State) error {
	if err := s.Sink.SetMotor(s.Variant.Normalize(st.Throttle)); err != nil {
		return fmt.Errorf("set motor: %w", err)
	}
	if err := s.Sink.SetSteering(st.Steering); err != nil {
		return fmt.Errorf("set steering: %w", err)
	}
	st.Changed = false
	return nil
}

// Normalize maps a throttle value of the variant onto [-1, 1].
func (v Variant) Normalize(throttle float64) float64 {
	if v.DomainMax <= 0 {
		return 0
	}
	n := throttle / v.DomainMax
	switch {
	case n > 1:
		return 1
	case n < -1:
		return -1
	}
	return n
}
