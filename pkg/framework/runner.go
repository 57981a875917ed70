package framework

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/golang/glog"
)

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun wraps a Runnable with a name.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

// ErrForcedExit is returned by Wait when a second stop signal arrives.
var ErrForcedExit = errors.New("forced exit")

// Runner runs multiple Runnables and collect errors.
type Runner struct {
	Context context.Context
	Runners []Runnable

	errCh    chan error
	exitCh   chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRunner creates a runner with a default background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner with a specified context.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{
		Context: ctx,
		errCh:   make(chan error),
		exitCh:  make(chan struct{}),
		stopCh:  make(chan struct{}),
	}
}

// HandleSignals handles CtrlC and SIGTERM from the system.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	r.Context = ctx
	go func() {
		<-sigCh
		glog.Info("stop requested")
		cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.exitCh)
	}()
	return r
}

// Go spawns Runnables with default context.
func (r *Runner) Go(runners ...Runnable) *Runner {
	return r.GoWith(r.Context, runners...)
}

// GoWith spawns Runnables with a specified context.
func (r *Runner) GoWith(ctx context.Context, runners ...Runnable) *Runner {
	for _, runner := range runners {
		var name string
		if named, ok := runner.(Named); ok {
			name = named.Name()
		} else {
			name = strconv.Itoa(len(r.Runners))
		}
		r.Runners = append(r.Runners, runner)
		go func(runner Runnable, name string) {
			glog.V(4).Infof("Runner[%s] started", name)
			err := runner.Run(ctx)
			glog.V(4).Infof("Runner[%s] stopped: %v", name, err)
			r.stopOnce.Do(func() { close(r.stopCh) })
			r.errCh <- err
		}(runner, name)
	}
	return r
}

// Stopped is closed as soon as any Runnable returns.
func (r *Runner) Stopped() <-chan struct{} {
	return r.stopCh
}

// Wait waits until all Runnables stop and aggregates errors.
// context.Canceled is not considered an error.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for range r.Runners {
		select {
		case <-r.exitCh:
			return ErrForcedExit
		case err := <-r.errCh:
			if !errors.Is(err, context.Canceled) {
				errs.Add(err)
			}
		}
	}
	return errs.Aggregate()
}

// RunWithContextCloser runs fn which doesn't accept a context.
// closer.Close is called when ctx is canceled to unblock fn, or
// after fn returns on its own.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		closer.Close()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		closer.Close()
		return err
	}
}
