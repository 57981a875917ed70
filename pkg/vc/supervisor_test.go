package vc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/robocar/pkg/clock"
)

func TestSupervisorWatchdog(t *testing.T) {
	sink := &recordingSink{}
	s := &Supervisor{Variant: VariantCR, Sink: sink}
	st := runningState(VariantCR)
	st.Throttle, st.Steering, st.LastCommandTs, st.Changed = 50, -30, 1000, true

	halted, err := s.Check(&st, 1500)
	require.NoError(t, err)
	require.False(t, halted)
	require.Equal(t, []output{{motor: 0.5, steering: -30}}, sink.writes)
	require.False(t, st.Changed)

	// exactly at the threshold is not expired yet.
	halted, err = s.Check(&st, 2000)
	require.NoError(t, err)
	require.False(t, halted)
	require.True(t, st.Running)

	halted, err = s.Check(&st, 2001)
	require.NoError(t, err)
	require.True(t, halted)
	require.False(t, st.Running)
	require.Zero(t, st.Throttle)
	require.Equal(t, -30.0, st.Steering)
	require.Equal(t, []output{{0.5, -30}, {0, -30}}, sink.writes)

	// later ticks past the timeout don't rewrite the outputs.
	for now := clock.Millis(2002); now < 2010; now++ {
		halted, err = s.Check(&st, now)
		require.NoError(t, err)
		require.False(t, halted)
	}
	require.Len(t, sink.writes, 2)
}

func TestSupervisorWatchdogWraparound(t *testing.T) {
	sink := &recordingSink{}
	s := &Supervisor{Variant: VariantLF, Sink: sink}
	st := runningState(VariantLF)
	st.Throttle, st.LastCommandTs = 1, clock.Millis(0xffffff00)

	halted, _ := s.Check(&st, clock.Millis(0x100))
	require.False(t, halted, "0x200ms elapsed across wraparound")
	halted, _ = s.Check(&st, clock.Millis(0x2e9))
	require.True(t, halted, "1001ms elapsed across wraparound")
}

func TestSupervisorSinkErrorRetries(t *testing.T) {
	sink := &recordingSink{err: errors.New("servo detached")}
	s := &Supervisor{Variant: VariantLF, Sink: sink}
	st := NewState(VariantLF)

	_, err := s.Check(&st, 0)
	require.Error(t, err)
	require.True(t, st.Changed)

	sink.err = nil
	_, err = s.Check(&st, 1)
	require.NoError(t, err)
	require.False(t, st.Changed)
	require.Equal(t, []output{{0, 0}}, sink.writes)
}

func TestVariantNormalize(t *testing.T) {
	require.Equal(t, 0.5, VariantLF.Normalize(0.5))
	require.Equal(t, -0.25, VariantCR.Normalize(-25))
	require.Equal(t, 1.0, VariantCR.Normalize(250))
	require.Equal(t, -1.0, VariantLF.Normalize(-2))
	require.Zero(t, Variant{}.Normalize(1))
}

func TestVariantByName(t *testing.T) {
	v, err := VariantByName("")
	require.NoError(t, err)
	require.Equal(t, VariantLF, v)
	v, err = VariantByName("cr")
	require.NoError(t, err)
	require.Equal(t, VariantCR, v)
	_, err = VariantByName("crlf")
	require.Error(t, err)
}
