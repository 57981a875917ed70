package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/robocar/pkg/clock"
)

type recordingController struct {
	name  string
	trace *[]string
	err   error
}

func (c *recordingController) Control(cc ControlContext) error {
	*c.trace = append(*c.trace, c.name)
	return c.err
}

func TestLoopTickPriorityOrder(t *testing.T) {
	var trace []string
	clk := clock.NewFake(42)
	l := NewLoop(clk)
	l.AddController(PrLvActuate, &recordingController{name: "actuate", trace: &trace})
	l.AddController(PrLvSense, &recordingController{name: "sense", trace: &trace, err: errors.New("ignored")})
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		require.Equal(t, clock.Millis(42), cc.Now())
		require.Equal(t, PrLvControl, cc.PriorityLevel())
		trace = append(trace, "control")
		return nil
	}))
	l.Tick(context.Background())
	require.Equal(t, []string{"sense", "control", "actuate"}, trace)
}

type blockingRunnable struct {
	started chan struct{}
}

func (r *blockingRunnable) Run(ctx context.Context) error {
	close(r.started)
	<-ctx.Done()
	return ctx.Err()
}

func TestLoopRunTriggerNext(t *testing.T) {
	l := NewLoop(clock.NewMonotonic())
	l.Interval = time.Hour
	ticked := make(chan struct{}, 1)
	l.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		select {
		case ticked <- struct{}{}:
		default:
		}
		return nil
	}))
	r := &blockingRunnable{started: make(chan struct{})}
	l.AddRunnable(r)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	select {
	case <-r.started:
	case <-time.After(time.Second):
		t.Fatal("runnable not started")
	}
	l.TriggerNext()
	select {
	case <-ticked:
	case <-time.After(time.Second):
		t.Fatal("tick not triggered")
	}
	cancel()
	select {
	case err := <-errCh:
		require.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("loop not stopped")
	}
}

func TestLoopStopsWhenRunnerFails(t *testing.T) {
	l := NewLoop(clock.NewMonotonic())
	failure := errors.New("link lost")
	l.AddRunnable(NamedRun("failing", RunnableFunc(func(ctx context.Context) error {
		return failure
	})))
	err := l.Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, failure))
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	first, second := errors.New("first"), errors.New("second")
	errs.Add(first)
	require.Equal(t, "first", errs.Aggregate().Error())
	errs.Add(second)
	require.Equal(t, "Multiple errors:\nfirst\nsecond", errs.Error())
	require.True(t, errors.Is(errs.Aggregate(), second))
}
