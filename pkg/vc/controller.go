package vc

import (
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/robocar/pkg/clock"
	fx "github.com/robotalks/robocar/pkg/framework"
)

// ErrLineReset is returned by a ByteSource when the sender changed.
// The partially assembled line is discarded.
var ErrLineReset = errors.New("line reset")

// ByteSource supplies command bytes without blocking.
type ByteSource interface {
	// Available tells whether ReadByte has a byte ready.
	Available() bool
	io.ByteReader
}

// Controller ties the line assembler, interpreter and supervisor to
// one State.
type Controller struct {
	Variant  Variant
	Input    ByteSource
	Output   io.Writer
	Observer Observer

	state      State
	line       *LineAssembler
	interp     Interpreter
	supervisor Supervisor
	reply      []byte
}

// New creates a Controller in power-up state.
func New(v Variant, in ByteSource, out io.Writer, sink ActuatorSink) *Controller {
	return &Controller{
		Variant:    v,
		Input:      in,
		Output:     out,
		state:      NewState(v),
		line:       NewLineAssembler(v.Terminator),
		interp:     Interpreter{Variant: v, Reporter: out},
		supervisor: Supervisor{Variant: v, Sink: sink},
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	return c.state
}

// Tick runs one control iteration: at most one input byte, then the
// supervisor.
func (c *Controller) Tick(now clock.Millis) error {
	var errs fx.AggregatedError
	_, err := c.Sense(now)
	errs.Add(err, c.Supervise(now))
	return errs.Aggregate()
}

// Sense reads at most one byte from Input and processes it. It reports
// whether a byte was consumed.
func (c *Controller) Sense(now clock.Millis) (bool, error) {
	if c.Input == nil || !c.Input.Available() {
		return false, nil
	}
	b, err := c.Input.ReadByte()
	if errors.Is(err, ErrLineReset) {
		c.ResetLine()
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read input: %w", err)
	}
	return true, c.Feed(b, now)
}

// ResetLine discards the partially assembled line.
func (c *Controller) ResetLine() {
	if n := c.line.Len(); n > 0 {
		glog.V(2).Infof("discarded %d bytes of an unterminated line", n)
	}
	c.line.Reset()
}

// Feed processes one input byte.
func (c *Controller) Feed(b byte, now clock.Millis) error {
	line, ok := c.line.Feed(b)
	if !ok {
		return nil
	}
	_, err := c.Execute(line, now)
	return err
}

// Execute dispatches a complete line and writes the reply.
func (c *Controller) Execute(line []byte, now clock.Millis) (Result, error) {
	cmd, res, err := c.interp.Dispatch(&c.state, line, now)
	if glog.V(2) {
		glog.Infof("%q -> %s", line, res)
	}
	var errs fx.AggregatedError
	errs.Add(err)
	c.reply = res.AppendReply(c.reply[:0], c.Variant.Terminator)
	if c.Output != nil {
		if _, err := c.Output.Write(c.reply); err != nil {
			errs.Add(fmt.Errorf("write reply: %w", err))
		}
	}
	c.notify(Event{Type: EventCommand, Time: now, Verb: cmd.Verb, Arg: string(cmd.Arg), Result: res})
	return res, errs.Aggregate()
}

// Supervise runs the watchdog and refreshes the outputs.
func (c *Controller) Supervise(now clock.Millis) error {
	changed := c.state.Changed
	halted, err := c.supervisor.Check(&c.state, now)
	if halted {
		glog.Warningf("watchdog expired after %dms, vehicle halted", c.state.TimeoutMs)
		c.notify(Event{Type: EventHalt, Time: now})
	}
	if (changed || halted) && !c.state.Changed {
		c.notify(Event{Type: EventOutput, Time: now})
	}
	return err
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvSense, fx.ControlFunc(c.sense))
	l.AddController(fx.PrLvActuate, fx.ControlFunc(func(cc fx.ControlContext) error {
		return c.Supervise(cc.Now())
	}))
}

func (c *Controller) sense(cc fx.ControlContext) error {
	consumed, err := c.Sense(cc.Now())
	if consumed && c.Input.Available() {
		cc.TriggerNext()
	}
	return err
}

func (c *Controller) notify(ev Event) {
	if c.Observer == nil {
		return
	}
	ev.State = c.state
	c.Observer.Observe(ev)
}
