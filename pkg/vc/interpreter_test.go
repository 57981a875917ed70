package vc

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/robocar/pkg/clock"
)

func runningState(v Variant) State {
	st := NewState(v)
	st.Running = true
	st.Changed = false
	return st
}

func TestInterpreterDispatch(t *testing.T) {
	testCases := []struct {
		name    string
		variant Variant
		from    func(Variant) State
		line    string
		result  Result
		expect  func(*State)
	}{
		{"empty line", VariantLF, NewState, "", ResultInvalidCommand, nil},
		{"unknown verb", VariantLF, runningState, "Q", ResultInvalidCommand, nil},
		{"lower case verb", VariantLF, runningState, "t0.5", ResultInvalidCommand, nil},
		{"timeout", VariantLF, NewState, "D500", ResultOK, func(st *State) { st.TimeoutMs = 500 }},
		{"timeout zero", VariantLF, NewState, "D0", ResultOK, func(st *State) { st.TimeoutMs = 0 }},
		{"timeout trailing garbage", VariantLF, NewState, "D25ms", ResultOK, func(st *State) { st.TimeoutMs = 25 }},
		{"timeout missing", VariantLF, NewState, "D", ResultInvalidParam, nil},
		{"timeout negative", VariantLF, NewState, "D-5", ResultInvalidParam, nil},
		{"ceiling", VariantLF, NewState, "M0.5", ResultOK, func(st *State) { st.Ceiling = 0.5 }},
		{"ceiling zero", VariantLF, NewState, "M0", ResultOK, func(st *State) { st.Ceiling = 0 }},
		{"ceiling above domain", VariantLF, NewState, "M1.5", ResultInvalidParam, nil},
		{"ceiling negative", VariantLF, NewState, "M-0.5", ResultInvalidParam, nil},
		{"ceiling wrong variant verb", VariantLF, NewState, "L50", ResultInvalidCommand, nil},
		{"ceiling percent", VariantCR, NewState, "L50", ResultOK, func(st *State) { st.Ceiling = 50 }},
		{"ceiling percent above domain", VariantCR, NewState, "L101", ResultInvalidParam, nil},
		{"ceiling percent wrong verb", VariantCR, NewState, "M0.5", ResultInvalidCommand, nil},
		{"reset", VariantLF, NewState, "R", ResultOK, func(st *State) {
			st.Running, st.LastCommandTs, st.Changed = true, 100, true
		}},
		{"steer", VariantLF, runningState, "S45", ResultOK, func(st *State) { st.Steering, st.Changed = 45, true }},
		{"steer negative", VariantLF, runningState, "S-90", ResultOK, func(st *State) { st.Steering, st.Changed = -90, true }},
		{"steer negative zero", VariantLF, runningState, "S-0", ResultOK, nil},
		{"steer out of range", VariantLF, runningState, "S95", ResultInvalidParam, nil},
		{"steer out of range negative", VariantLF, runningState, "S-90.5", ResultInvalidParam, nil},
		{"steer garbage", VariantLF, runningState, "Sx", ResultInvalidParam, nil},
		{"steer halted", VariantLF, NewState, "S10", ResultInvalidState, nil},
		{"steer halted bad param first", VariantLF, NewState, "S91", ResultInvalidParam, nil},
		{"throttle", VariantLF, runningState, "T0.5", ResultOK, func(st *State) {
			st.Throttle, st.LastCommandTs, st.Changed = 0.5, 100, true
		}},
		{"throttle reverse", VariantLF, runningState, "T-1", ResultOK, func(st *State) {
			st.Throttle, st.LastCommandTs, st.Changed = -1, 100, true
		}},
		{"throttle zero refreshes watchdog", VariantLF, runningState, "T0", ResultOK, func(st *State) {
			st.LastCommandTs = 100
		}},
		{"throttle above domain", VariantLF, runningState, "T1.5", ResultInvalidParam, nil},
		{"throttle missing", VariantLF, runningState, "T", ResultInvalidParam, nil},
		{"throttle halted", VariantLF, NewState, "T0.5", ResultInvalidState, nil},
		{"throttle percent", VariantCR, runningState, "T50", ResultOK, func(st *State) {
			st.Throttle, st.LastCommandTs, st.Changed = 50, 100, true
		}},
		{"throttle percent above domain", VariantCR, runningState, "T150", ResultInvalidParam, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Interpreter{Variant: tc.variant}
			st := tc.from(tc.variant)
			expect := st
			if tc.expect != nil {
				tc.expect(&expect)
			}
			_, res, err := p.Dispatch(&st, []byte(tc.line), clock.Millis(100))
			require.NoError(t, err)
			require.Equal(t, tc.result, res)
			require.Equal(t, expect, st)
		})
	}
}

func TestInterpreterThrottleCeiling(t *testing.T) {
	p := &Interpreter{Variant: VariantLF}
	st := runningState(VariantLF)
	_, res, _ := p.Dispatch(&st, []byte("M0.4"), 0)
	require.Equal(t, ResultOK, res)

	for _, tc := range []struct {
		line   string
		expect float64
	}{
		{"T0.3", 0.3},
		{"T-0.3", -0.3},
		{"T0.4", 0.4},
		{"T0.9", 0.4},
		{"T-1", -0.4},
	} {
		_, res, _ = p.Dispatch(&st, []byte(tc.line), 0)
		require.Equalf(t, ResultOK, res, "%s", tc.line)
		require.InDeltaf(t, tc.expect, st.Throttle, 1e-9, "%s", tc.line)
	}

	// lowering the ceiling pulls the current throttle in.
	st.Changed = false
	_, res, _ = p.Dispatch(&st, []byte("M0.1"), 0)
	require.Equal(t, ResultOK, res)
	require.InDelta(t, -0.1, st.Throttle, 1e-9)
	require.True(t, st.Changed)
}

func TestInterpreterThrottleIdempotent(t *testing.T) {
	p := &Interpreter{Variant: VariantCR}
	st := runningState(VariantCR)
	_, res, _ := p.Dispatch(&st, []byte("T25"), 10)
	require.Equal(t, ResultOK, res)
	first := st
	st.Changed = false
	for i := 0; i < 3; i++ {
		_, res, _ = p.Dispatch(&st, []byte("T25"), 10)
		require.Equal(t, ResultOK, res)
		require.Equal(t, first.Throttle, st.Throttle)
		require.Equal(t, first.LastCommandTs, st.LastCommandTs)
		require.False(t, st.Changed)
	}
}

func TestInterpreterHaltedLeavesStateUnchanged(t *testing.T) {
	p := &Interpreter{Variant: VariantLF}
	for _, line := range []string{"T0", "T0.5", "T-1", "S0", "S-45", "S90"} {
		st := NewState(VariantLF)
		before := st
		_, res, _ := p.Dispatch(&st, []byte(line), 500)
		require.Equalf(t, ResultInvalidState, res, "%s", line)
		require.Equalf(t, before, st, "%s", line)
	}
}

func TestInterpreterReport(t *testing.T) {
	var buf bytes.Buffer
	p := &Interpreter{Variant: VariantLF, Reporter: &buf}
	st := NewState(VariantLF)
	for _, line := range []string{"D500", "R", "T-0.25", "S12.5", "I"} {
		_, res, err := p.Dispatch(&st, []byte(line), 0)
		require.NoError(t, err)
		require.Equal(t, ResultOK, res)
	}
	require.Equal(t, "D=500, M=1.00, R=1, T=-0.25, S=12.50\n", buf.String())

	buf.Reset()
	p = &Interpreter{Variant: VariantCR, Reporter: &buf}
	st = NewState(VariantCR)
	_, res, err := p.Dispatch(&st, []byte("I"), 0)
	require.NoError(t, err)
	require.Equal(t, ResultOK, res)
	require.Equal(t, "D=1000, L=100.00, R=0, T=0.00, S=0.00\r", buf.String())
}

func TestInterpreterReportWriteError(t *testing.T) {
	p := &Interpreter{Variant: VariantLF, Reporter: brokenWriter{}}
	st := NewState(VariantLF)
	_, res, err := p.Dispatch(&st, []byte("I"), 0)
	require.Equal(t, ResultOK, res)
	require.True(t, errors.Is(err, errBroken))
}
