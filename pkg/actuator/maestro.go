package actuator

import (
	"fmt"
	"io"
	"sync"
)

// Pulse widths in microseconds matching the Arduino Servo library.
const (
	MinPulseUs = 544
	MaxPulseUs = 2400
)

const maestroSetTarget = 0x84

// Maestro drives a Pololu Maestro servo controller using the compact
// serial protocol.
type Maestro struct {
	Port io.Writer

	lock sync.Mutex
	buf  [4]byte
}

// PulseUs converts a servo angle to a pulse width.
func PulseUs(angle int) int {
	if angle < MinAngle {
		angle = MinAngle
	} else if angle > MaxAngle {
		angle = MaxAngle
	}
	return MinPulseUs + angle*(MaxPulseUs-MinPulseUs)/MaxAngle
}

// SetTarget sets the pulse width of a channel, in microseconds.
func (m *Maestro) SetTarget(channel uint8, pulseUs int) error {
	if channel > 0x7f {
		return fmt.Errorf("invalid channel %d", channel)
	}
	target := pulseUs * 4
	m.lock.Lock()
	defer m.lock.Unlock()
	m.buf[0] = maestroSetTarget
	m.buf[1] = channel
	m.buf[2] = byte(target & 0x7f)
	m.buf[3] = byte((target >> 7) & 0x7f)
	_, err := m.Port.Write(m.buf[:])
	return err
}

// Channel returns the AngleWriter of a channel.
func (m *Maestro) Channel(channel uint8) AngleWriter {
	return AngleWriterFunc(func(angle int) error {
		return m.SetTarget(channel, PulseUs(angle))
	})
}
