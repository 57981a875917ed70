package vc

import (
	"fmt"
	"io"
	"strconv"

	"github.com/robotalks/robocar/pkg/clock"
)

// Interpreter validates commands and applies them to a State.
type Interpreter struct {
	Variant Variant
	// Reporter receives the status report of I. Nil discards it.
	Reporter io.Writer
}

// Dispatch parses and executes one line against st.
// The returned error only reports a failure writing the status report;
// the command result is still valid in that case.
func (p *Interpreter) Dispatch(st *State, line []byte, now clock.Millis) (Command, Result, error) {
	cmd, ok := ParseCommand(line)
	if !ok {
		return cmd, ResultInvalidCommand, nil
	}
	var err error
	var res Result
	switch cmd.Verb {
	case VerbTimeout:
		res = p.setTimeout(st, cmd.Arg)
	case VerbInfo:
		res, err = p.report(st)
	case VerbReset:
		res = p.reset(st, now)
	case VerbSteer:
		res = p.steer(st, cmd.Arg)
	case VerbThrottle:
		res = p.throttle(st, cmd.Arg, now)
	case VerbMaxThrottle, VerbLimit:
		if cmd.Verb != p.Variant.CeilingVerb {
			res = ResultInvalidCommand
			break
		}
		res = p.setCeiling(st, cmd.Arg)
	default:
		res = ResultInvalidCommand
	}
	return cmd, res, err
}

func (p *Interpreter) setTimeout(st *State, arg []byte) Result {
	ms, ok := parseUnsigned(arg)
	if !ok {
		return ResultInvalidParam
	}
	st.TimeoutMs = ms
	return ResultOK
}

func (p *Interpreter) report(st *State) (Result, error) {
	if p.Reporter == nil {
		return ResultOK, nil
	}
	if _, err := p.Reporter.Write(AppendStatus(nil, st, p.Variant)); err != nil {
		return ResultOK, fmt.Errorf("write status: %w", err)
	}
	return ResultOK, nil
}

func (p *Interpreter) setCeiling(st *State, arg []byte) Result {
	val, ok := parseMagnitude(arg)
	if !ok || val > p.Variant.DomainMax {
		return ResultInvalidParam
	}
	st.Ceiling = val
	// keep |throttle| <= ceiling when the ceiling drops below it.
	if st.Throttle > val {
		p.setThrottle(st, val)
	} else if st.Throttle < -val {
		p.setThrottle(st, -val)
	}
	return ResultOK
}

func (p *Interpreter) reset(st *State, now clock.Millis) Result {
	st.Running = true
	st.Throttle, st.Steering = 0, 0
	st.LastCommandTs = now
	st.Changed = true
	return ResultOK
}

func (p *Interpreter) steer(st *State, arg []byte) Result {
	neg, val, ok := parseSigned(arg)
	if !ok || val > MaxSteering {
		return ResultInvalidParam
	}
	if !st.Running {
		return ResultInvalidState
	}
	if neg && val != 0 {
		val = -val
	}
	if st.Steering != val {
		st.Steering, st.Changed = val, true
	}
	return ResultOK
}

func (p *Interpreter) throttle(st *State, arg []byte, now clock.Millis) Result {
	neg, val, ok := parseSigned(arg)
	if !ok || val > p.Variant.DomainMax {
		return ResultInvalidParam
	}
	if val > st.Ceiling {
		val = st.Ceiling
	}
	if !st.Running {
		return ResultInvalidState
	}
	if neg && val != 0 {
		val = -val
	}
	p.setThrottle(st, val)
	st.LastCommandTs = now
	return ResultOK
}

func (p *Interpreter) setThrottle(st *State, val float64) {
	if st.Throttle != val {
		st.Throttle, st.Changed = val, true
	}
}

// AppendStatus appends the status line reported by I:
// "D=<ms>, <ceiling verb>=<ceiling>, R=<0|1>, T=<throttle>, S=<steering>".
func AppendStatus(b []byte, st *State, v Variant) []byte {
	b = append(b, "D="...)
	b = strconv.AppendUint(b, uint64(st.TimeoutMs), 10)
	b = append(b, ", "...)
	b = append(b, byte(v.CeilingVerb), '=')
	b = strconv.AppendFloat(b, st.Ceiling, 'f', 2, 64)
	b = append(b, ", R="...)
	if st.Running {
		b = append(b, '1')
	} else {
		b = append(b, '0')
	}
	b = append(b, ", T="...)
	b = strconv.AppendFloat(b, st.Throttle, 'f', 2, 64)
	b = append(b, ", S="...)
	b = strconv.AppendFloat(b, st.Steering, 'f', 2, 64)
	return append(b, v.Terminator)
}
