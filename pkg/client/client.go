package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/robocar/pkg/framework"
	"github.com/robotalks/robocar/pkg/transport"
	"github.com/robotalks/robocar/pkg/vc"
)

// Reply is the outcome of a command.
type Reply struct {
	Err   error
	Code  vc.Result
	Lines []string
}

// Client sends command lines and matches replies.
type Client struct {
	Variant vc.Variant

	conn      io.ReadWriter
	cmdsHead  *Command
	cmdsTail  *Command
	cmdsLock  sync.Mutex
	lines     []string
	writeBuf  []byte
	closeOnce sync.Once
}

// Command represents a pending command waiting for reply.
type Command struct {
	line    string
	replyCh chan Reply
	next    *Command
}

// Line returns the command line without terminator.
func (c *Command) Line() string {
	return c.line
}

// ReplyChan returns the chan to retrieve the reply.
func (c *Command) ReplyChan() <-chan Reply {
	return c.replyCh
}

// New creates a client over an established link.
func New(conn io.ReadWriter, v vc.Variant) *Client {
	return &Client{Variant: v, conn: conn}
}

// Dial connects to a controller link URL.
func Dial(linkURL string, v vc.Variant) (*Client, error) {
	conn, err := transport.Dial(linkURL)
	if err != nil {
		return nil, err
	}
	return New(conn, v), nil
}

// DoWith sends a command and expects the reply in the provided chan.
func (c *Client) DoWith(line string, ch chan Reply) *Command {
	cmd := &Command{line: line, replyCh: ch}

	c.cmdsLock.Lock()
	defer c.cmdsLock.Unlock()
	c.writeBuf = append(append(c.writeBuf[:0], line...), c.Variant.Terminator)
	if glog.V(2) {
		glog.Infof("> %q", line)
	}
	if _, err := c.conn.Write(c.writeBuf); err != nil {
		cmd.replyCh <- Reply{Err: err}
		return cmd
	}
	if c.cmdsHead == nil {
		c.cmdsHead = cmd
	} else {
		c.cmdsTail.next = cmd
	}
	c.cmdsTail = cmd
	return cmd
}

// Do sends a command and returns a Command for the reply.
func (c *Client) Do(line string) *Command {
	return c.DoWith(line, make(chan Reply, 1))
}

// Exec sends a command and waits for the reply. A reply with an error
// code is returned along with a *CommandError.
func (c *Client) Exec(ctx context.Context, line string) (Reply, error) {
	cmd := c.Do(line)
	select {
	case reply := <-cmd.ReplyChan():
		if reply.Err != nil {
			return reply, reply.Err
		}
		if reply.Code != vc.ResultOK {
			return reply, &CommandError{Code: reply.Code}
		}
		return reply, nil
	case <-ctx.Done():
		return Reply{Err: ctx.Err()}, ctx.Err()
	}
}

// HandleLine processes one received line.
func (c *Client) HandleLine(line string) {
	if glog.V(2) {
		glog.Infof("< %q", line)
	}
	code, ok := parseReply(line)
	if !ok {
		c.cmdsLock.Lock()
		c.lines = append(c.lines, line)
		c.cmdsLock.Unlock()
		return
	}
	c.cmdsLock.Lock()
	cmd := c.cmdsHead
	lines := c.lines
	c.lines = nil
	if cmd != nil {
		if c.cmdsHead = cmd.next; c.cmdsHead == nil {
			c.cmdsTail = nil
		}
		cmd.next = nil
	}
	c.cmdsLock.Unlock()
	if cmd == nil {
		glog.Warningf("unexpected reply %q", line)
		return
	}
	cmd.replyCh <- Reply{Code: code, Lines: lines}
}

func parseReply(line string) (vc.Result, bool) {
	if line == "OK" {
		return vc.ResultOK, true
	}
	if len(line) < 2 || line[0] != 'E' {
		return 0, false
	}
	code, err := strconv.Atoi(line[1:])
	if err != nil || code <= 0 {
		return 0, false
	}
	return vc.Result(code), true
}

// Run implements Runnable. It reads replies until the link closes or
// ctx is done, then fails the pending commands with ErrNoReply.
func (c *Client) Run(ctx context.Context) error {
	defer c.failPending()
	if closer, ok := c.conn.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, c.readLoop)
	}
	return c.readLoop()
}

// Close closes the link.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if closer, ok := c.conn.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}

func (c *Client) readLoop() error {
	reader := bufio.NewReader(c.conn)
	var sb strings.Builder
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return err
		}
		switch b {
		case '\n', '\r':
			if sb.Len() > 0 {
				c.HandleLine(sb.String())
				sb.Reset()
			}
		default:
			sb.WriteByte(b)
		}
	}
}

func (c *Client) failPending() {
	c.cmdsLock.Lock()
	head := c.cmdsHead
	c.cmdsHead, c.cmdsTail = nil, nil
	c.cmdsLock.Unlock()
	for ; head != nil; head = head.next {
		head.replyCh <- Reply{Err: ErrNoReply}
	}
}

// Reset sends R.
func (c *Client) Reset(ctx context.Context) error {
	_, err := c.Exec(ctx, "R")
	return err
}

// Throttle sends T.
func (c *Client) Throttle(ctx context.Context, val float64) error {
	_, err := c.Exec(ctx, ThrottleLine(val))
	return err
}

// Steer sends S.
func (c *Client) Steer(ctx context.Context, degrees float64) error {
	_, err := c.Exec(ctx, "S"+formatFloat(degrees))
	return err
}

// SetTimeout sends D.
func (c *Client) SetTimeout(ctx context.Context, ms uint32) error {
	_, err := c.Exec(ctx, "D"+strconv.FormatUint(uint64(ms), 10))
	return err
}

// SetCeiling sends the ceiling verb of the variant.
func (c *Client) SetCeiling(ctx context.Context, val float64) error {
	_, err := c.Exec(ctx, c.Variant.CeilingVerb.String()+formatFloat(val))
	return err
}

// Info sends I and parses the status line.
func (c *Client) Info(ctx context.Context) (*Status, error) {
	reply, err := c.Exec(ctx, "I")
	if err != nil {
		return nil, err
	}
	for i := len(reply.Lines) - 1; i >= 0; i-- {
		if st, err := ParseStatus(reply.Lines[i]); err == nil {
			return st, nil
		}
	}
	return nil, ErrNoStatus
}

// ThrottleLine formats a T command.
func ThrottleLine(val float64) string {
	return "T" + formatFloat(val)
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

// String implements fmt.Stringer.
func (r Reply) String() string {
	if r.Err != nil {
		return fmt.Sprintf("error: %v", r.Err)
	}
	if r.Code == vc.ResultOK {
		return "OK"
	}
	return fmt.Sprintf("E%d", int(r.Code))
}
