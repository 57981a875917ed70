package vc

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/robocar/pkg/clock"
	fx "github.com/robotalks/robocar/pkg/framework"
)

type controllerTestEnv struct {
	t     *testing.T
	clock *clock.Fake
	in    *byteQueue
	out   bytes.Buffer
	sink  recordingSink
	ctl   *Controller
	evts  []Event
}

func newControllerTestEnv(t *testing.T, v Variant) *controllerTestEnv {
	env := &controllerTestEnv{t: t, clock: clock.NewFake(0), in: &byteQueue{}}
	env.ctl = New(v, env.in, &env.out, &env.sink)
	env.ctl.Observer = ObserveFunc(func(ev Event) { env.evts = append(env.evts, ev) })
	return env
}

// send pushes a line and ticks until the input is drained.
func (e *controllerTestEnv) send(line string) string {
	e.in.push(line)
	e.in.push(string(e.ctl.Variant.Terminator))
	for e.in.Available() {
		require.NoError(e.t, e.ctl.Tick(e.clock.Now()))
	}
	return takeOutput(&e.out)
}

func (e *controllerTestEnv) tick() {
	require.NoError(e.t, e.ctl.Tick(e.clock.Now()))
}

func TestControllerScenarioWatchdog(t *testing.T) {
	env := newControllerTestEnv(t, VariantCR)
	require.Equal(t, "OK\r", env.send("R"))
	require.Equal(t, "OK\r", env.send("T50"))
	st := env.ctl.State()
	require.True(t, st.Running)
	require.Equal(t, 50.0, st.Throttle)

	env.clock.Advance(st.TimeoutMs + 1)
	env.tick()
	st = env.ctl.State()
	require.False(t, st.Running)
	require.Zero(t, st.Throttle)
	require.Equal(t, output{motor: 0, steering: 0}, env.sink.cur)

	require.Equal(t, "E3\r", env.send("T10"))
}

func TestControllerScenarios(t *testing.T) {
	env := newControllerTestEnv(t, VariantLF)
	require.Equal(t, "E1\n", env.send("Q"))
	require.Equal(t, "OK\n", env.send("R"))
	require.Equal(t, "OK\n", env.send("S30"))
	require.Equal(t, "E2\n", env.send("S95"))
	require.Equal(t, 30.0, env.ctl.State().Steering)
	require.Equal(t, "OK\n", env.send("D500"))
	require.Equal(t, "D=500, M=1.00, R=1, T=0.00, S=30.00\nOK\n", env.send("I"))
}

func TestControllerOneBytePerTick(t *testing.T) {
	env := newControllerTestEnv(t, VariantLF)
	env.in.push("R\n")
	env.tick()
	require.Empty(t, env.out.String())
	require.Len(t, env.in.data, 1)
	env.tick()
	require.Equal(t, "OK\n", takeOutput(&env.out))
	require.True(t, env.ctl.State().Running)

	// idle ticks without input only supervise.
	env.tick()
	require.Empty(t, env.out.String())
}

func TestControllerOverflowStillDispatched(t *testing.T) {
	env := newControllerTestEnv(t, VariantLF)
	require.Equal(t, "OK\n", env.send("D12345678901234567890"))
	require.Equal(t, uint32(math.MaxUint32), env.ctl.State().TimeoutMs)
	require.Equal(t, "OK\n", env.send("R"))
}

func TestControllerEvents(t *testing.T) {
	env := newControllerTestEnv(t, VariantLF)
	env.tick()
	require.Len(t, env.evts, 1)
	require.Equal(t, EventOutput, env.evts[0].Type)
	env.evts = nil

	env.send("R")
	env.send("T0.5")
	env.send("X")
	var types []EventType
	var results []Result
	for _, ev := range env.evts {
		types = append(types, ev.Type)
		if ev.Type == EventCommand {
			results = append(results, ev.Result)
		}
	}
	require.Equal(t, []EventType{EventCommand, EventOutput, EventCommand, EventOutput, EventCommand}, types)
	require.Equal(t, []Result{ResultOK, ResultOK, ResultInvalidCommand}, results)
	require.Equal(t, VerbThrottle, env.evts[2].Verb)
	require.Equal(t, "0.5", env.evts[2].Arg)
	require.Equal(t, 0.5, env.evts[2].State.Throttle)
	env.evts = nil

	env.clock.Advance(1001)
	env.tick()
	require.Len(t, env.evts, 2)
	require.Equal(t, EventHalt, env.evts[0].Type)
	require.False(t, env.evts[0].State.Running)
	require.Equal(t, EventOutput, env.evts[1].Type)
}

func TestControllerSenderChangeDiscardsPartialLine(t *testing.T) {
	env := newControllerTestEnv(t, VariantLF)
	require.Equal(t, "OK\n", env.send("R"))
	env.in.push("T0.9")
	env.in.pushReset()
	require.Equal(t, "OK\n", env.send("S1"))
	st := env.ctl.State()
	require.Zero(t, st.Throttle)
	require.Equal(t, 1.0, st.Steering)
	require.Zero(t, env.ctl.line.Len())
}

func TestControllerReplyWriteError(t *testing.T) {
	in := &byteQueue{}
	sink := &recordingSink{}
	ctl := New(VariantLF, in, brokenWriter{}, sink)
	res, err := ctl.Execute([]byte("R"), 0)
	require.Equal(t, ResultOK, res)
	require.True(t, errors.Is(err, errBroken))
	// the command still took effect.
	require.True(t, ctl.State().Running)
}

func TestControllerInLoop(t *testing.T) {
	clk := clock.NewFake(0)
	in := &byteQueue{}
	var out bytes.Buffer
	sink := &recordingSink{}
	ctl := New(VariantLF, in, &out, sink)
	loop := fx.NewLoop(clk).Add(ctl)

	in.push("R\nT1\n")
	for i := 0; i < 5; i++ {
		loop.Tick(context.Background())
	}
	require.Equal(t, "OK\nOK\n", out.String())
	require.Equal(t, output{motor: 1, steering: 0}, sink.cur)
	require.Equal(t, []output{{0, 0}, {0, 0}, {1, 0}}, sink.writes)
}
