// Package actuator maps the controller outputs onto hobby servos.
package actuator

import (
	"fmt"
	"math"
)

// Servo angle range.
const (
	MinAngle     = 0
	MaxAngle     = 180
	NeutralAngle = 90
)

// AngleWriter positions one servo channel.
type AngleWriter interface {
	WriteAngle(angle int) error
}

// AngleWriterFunc is the func form of AngleWriter.
type AngleWriterFunc func(int) error

// WriteAngle implements AngleWriter.
func (f AngleWriterFunc) WriteAngle(angle int) error {
	return f(angle)
}

// Servos drives an ESC and a steering servo, both speaking servo
// angles. It implements vc.ActuatorSink.
type Servos struct {
	Motor    AngleWriter
	Steering AngleWriter
}

// SetMotor implements vc.ActuatorSink.
func (s *Servos) SetMotor(normalized float64) error {
	if err := s.Motor.WriteAngle(MotorAngle(normalized)); err != nil {
		return fmt.Errorf("motor: %w", err)
	}
	return nil
}

// SetSteering implements vc.ActuatorSink.
func (s *Servos) SetSteering(degrees float64) error {
	if err := s.Steering.WriteAngle(SteeringAngle(degrees)); err != nil {
		return fmt.Errorf("steering: %w", err)
	}
	return nil
}

// MotorAngle maps a normalized throttle in [-1, 1] to an ESC angle,
// 90 being neutral.
func MotorAngle(normalized float64) int {
	return clampAngle(NeutralAngle + 90*normalized)
}

// SteeringAngle maps steering degrees to a servo angle, 90 being
// straight ahead.
func SteeringAngle(degrees float64) int {
	return clampAngle(NeutralAngle + degrees)
}

func clampAngle(v float64) int {
	if math.IsNaN(v) {
		return NeutralAngle
	}
	angle := int(v)
	if v > MaxAngle {
		angle = MaxAngle
	} else if v < MinAngle {
		angle = MinAngle
	}
	return angle
}
