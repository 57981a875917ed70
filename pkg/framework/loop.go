package framework

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/robocar/pkg/clock"
)

// DefaultInterval is the tick interval when Loop.Interval is not set.
const DefaultInterval = 10 * time.Millisecond

// Loop runs controllers tick by tick on a single goroutine.
// Within a tick, controllers run in priority order, lowest level first.
type Loop struct {
	Interval time.Duration
	Clock    clock.Clock

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	wakeUpCh chan struct{}
}

type loopIteration struct {
	*Loop
	ctx           context.Context
	now           clock.Millis
	priorityLevel int
}

// NewLoop creates a Loop.
func NewLoop(c clock.Clock) *Loop {
	return &Loop{
		Interval: DefaultInterval,
		Clock:    c,
		wakeUpCh: make(chan struct{}, 1),
	}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers to the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions started along with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}

	subCtx, cancel := context.WithCancel(ctx)
	runner := NewRunnerWith(subCtx).Go(l.runners...)
	stop := func(err error) error {
		cancel()
		if werr := runner.Wait(); werr != nil {
			return werr
		}
		return err
	}

	interval := l.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return stop(ctx.Err())
		case <-runner.Stopped():
			glog.Warning("loop runner stopped, shutting down loop")
			return stop(nil)
		case <-ticker.C:
			l.Tick(ctx)
		case <-l.wakeUpCh:
			l.Tick(ctx)
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail(ctx context.Context) {
	if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		glog.Exit(err)
	}
}

// Tick runs exactly one iteration of all controllers.
func (l *Loop) Tick(ctx context.Context) {
	iter := &loopIteration{Loop: l, ctx: ctx, now: l.Clock.Now()}
	for i := 0; i < PriorityLevels; i++ {
		iter.priorityLevel = i
		for _, ctl := range l.controllers[i] {
			if err := ctl.Control(iter); err != nil {
				glog.Errorf("controller error: %v", err)
			}
		}
	}
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Now() clock.Millis {
	return t.now
}

func (t *loopIteration) PriorityLevel() int {
	return t.priorityLevel
}
