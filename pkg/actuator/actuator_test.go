package actuator

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/robocar/pkg/vc"
)

var _ vc.ActuatorSink = (*Servos)(nil)

func TestMotorAngle(t *testing.T) {
	tests := []struct {
		in    float64
		angle int
	}{
		{0, 90},
		{1, 180},
		{-1, 0},
		{0.5, 135},
		{-0.25, 67},
		{2, 180},
		{-3, 0},
		{math.NaN(), 90},
	}
	for _, test := range tests {
		require.Equalf(t, test.angle, MotorAngle(test.in), "case %v", test.in)
	}
}

func TestSteeringAngle(t *testing.T) {
	tests := []struct {
		in    float64
		angle int
	}{
		{0, 90},
		{90, 180},
		{-90, 0},
		{-30, 60},
		{12.5, 102},
		{120, 180},
	}
	for _, test := range tests {
		require.Equalf(t, test.angle, SteeringAngle(test.in), "case %v", test.in)
	}
}

func TestServos(t *testing.T) {
	var motor, steering Recorder
	s := &Servos{Motor: &motor, Steering: &steering}
	require.Equal(t, NeutralAngle, motor.Last())
	require.NoError(t, s.SetMotor(0.5))
	require.NoError(t, s.SetSteering(-30))
	require.NoError(t, s.SetMotor(0))
	require.Equal(t, []int{135, 90}, motor.Angles())
	require.Equal(t, []int{60}, steering.Angles())
	require.Equal(t, 60, steering.Last())
}

func TestServosError(t *testing.T) {
	failure := errors.New("bus off")
	s := &Servos{
		Motor:    AngleWriterFunc(func(int) error { return failure }),
		Steering: &LogServo{Name: "steering"},
	}
	err := s.SetMotor(1)
	require.ErrorIs(t, err, failure)
	require.NoError(t, s.SetSteering(10))
}

func TestPulseUs(t *testing.T) {
	require.Equal(t, MinPulseUs, PulseUs(0))
	require.Equal(t, MaxPulseUs, PulseUs(180))
	require.Equal(t, 1472, PulseUs(90))
	require.Equal(t, MinPulseUs, PulseUs(-5))
	require.Equal(t, MaxPulseUs, PulseUs(200))
}

func TestMaestroSetTarget(t *testing.T) {
	var out bytes.Buffer
	m := &Maestro{Port: &out}
	// 1472us -> 5888 quarter-us = 0x1700
	require.NoError(t, m.Channel(1).WriteAngle(90))
	require.Equal(t, []byte{0x84, 0x01, 0x00, 0x2e}, out.Bytes())
	require.Error(t, m.SetTarget(0x80, 1500))
}

func TestOpen(t *testing.T) {
	s, closer, err := Open("log:")
	require.NoError(t, err)
	require.NoError(t, s.SetMotor(0))
	require.NoError(t, closer.Close())

	_, _, err = Open("pwm:")
	require.Error(t, err)
	_, _, err = Open("maestro:///dev/null?motor=200")
	require.Error(t, err)
}
