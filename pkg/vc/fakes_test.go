package vc

import (
	"bytes"
	"errors"
	"io"
)

// queued is an input byte, or a sender change when reset is set.
type queued struct {
	b     byte
	reset bool
}

type byteQueue struct {
	data []queued
}

func (q *byteQueue) push(s string) {
	for _, b := range []byte(s) {
		q.data = append(q.data, queued{b: b})
	}
}

func (q *byteQueue) pushReset() {
	q.data = append(q.data, queued{reset: true})
}

func (q *byteQueue) Available() bool {
	return len(q.data) > 0
}

func (q *byteQueue) ReadByte() (byte, error) {
	if len(q.data) == 0 {
		return 0, io.EOF
	}
	item := q.data[0]
	q.data = q.data[1:]
	if item.reset {
		return 0, ErrLineReset
	}
	return item.b, nil
}

type output struct {
	motor    float64
	steering float64
}

type recordingSink struct {
	writes []output
	err    error
	cur    output
}

func (s *recordingSink) SetMotor(n float64) error {
	if s.err != nil {
		return s.err
	}
	s.cur.motor = n
	return nil
}

func (s *recordingSink) SetSteering(deg float64) error {
	if s.err != nil {
		return s.err
	}
	s.cur.steering = deg
	s.writes = append(s.writes, s.cur)
	return nil
}

var errBroken = errors.New("broken")

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errBroken
}

// takeOutput drains and returns what was written so far.
func takeOutput(buf *bytes.Buffer) string {
	s := buf.String()
	buf.Reset()
	return s
}
