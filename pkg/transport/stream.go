package transport

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/robocar/pkg/framework"
	"github.com/robotalks/robocar/pkg/vc"
)

// ErrNoData is returned by ReadByte when nothing is buffered.
var ErrNoData = errors.New("no data")

// Stream defaults.
const (
	// DefaultRetryInterval is the delay before accepting again after a
	// failed Accept.
	DefaultRetryInterval = time.Second
	// DefaultWriteTimeout bounds a reply write on links supporting
	// write deadlines.
	DefaultWriteTimeout = 100 * time.Millisecond
)

// item is a received byte, or the boundary between two links.
type item struct {
	b      byte
	relink bool
}

type writeDeadliner interface {
	SetWriteDeadline(time.Time) error
}

// Stream reads the link in the background and offers the received
// bytes without blocking. Replies go to the current connection and are
// discarded while nothing is connected. When a new link replaces a
// lost one, bytes left from the old link are discarded and ReadByte
// reports vc.ErrLineReset once.
type Stream struct {
	Acceptor      Acceptor
	RetryInterval time.Duration
	WriteTimeout  time.Duration
	// OnData is called after bytes were queued.
	OnData func()

	itemCh chan item
	conn   io.ReadWriteCloser
	lock   sync.Mutex
}

// NewStream creates a Stream.
func NewStream(a Acceptor) *Stream {
	return &Stream{
		Acceptor:      a,
		RetryInterval: DefaultRetryInterval,
		WriteTimeout:  DefaultWriteTimeout,
		itemCh:        make(chan item, 256),
	}
}

// Available implements vc.ByteSource. It must only be called by the
// single consumer of the stream.
func (s *Stream) Available() bool {
	return len(s.itemCh) > 0
}

// ReadByte implements io.ByteReader.
func (s *Stream) ReadByte() (byte, error) {
	select {
	case it := <-s.itemCh:
		if it.relink {
			return 0, vc.ErrLineReset
		}
		return it.b, nil
	default:
		return 0, ErrNoData
	}
}

// Write implements io.Writer. A write that times out closes the link
// so a peer that stops reading can't hold up the caller.
func (s *Stream) Write(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.conn == nil {
		return len(p), nil
	}
	d, ok := s.conn.(writeDeadliner)
	if ok && s.WriteTimeout > 0 {
		d.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
	}
	n, err := s.conn.Write(p)
	if err != nil && ok {
		glog.Warningf("write link: %v, dropping link", err)
		s.conn.Close()
	}
	return n, err
}

// Connected tells whether a link is up.
func (s *Stream) Connected() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.conn != nil
}

// Name implements Named.
func (s *Stream) Name() string {
	return "stream"
}

// AddToLoop implements LoopAdder.
func (s *Stream) AddToLoop(l *fx.Loop) {
	s.OnData = l.TriggerNext
	l.AddRunnable(s)
}

// Run implements Runnable. It accepts links one after another until
// ctx is done.
func (s *Stream) Run(ctx context.Context) error {
	defer s.Acceptor.Close()
	for links := 0; ; {
		conn, err := s.Acceptor.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			glog.Warningf("accept link: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.RetryInterval):
			}
			continue
		}
		glog.Info("link connected")
		if links > 0 {
			if err := s.relink(ctx); err != nil {
				conn.Close()
				return err
			}
		}
		links++
		s.setConn(conn)
		err = fx.RunWithContextCloser(ctx, conn, func() error {
			return s.pump(ctx, conn)
		})
		s.setConn(nil)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		glog.Warningf("link lost: %v", err)
	}
}

// relink drops what is left from the previous link and queues the
// link boundary.
func (s *Stream) relink(ctx context.Context) error {
	dropped := 0
drain:
	for {
		select {
		case <-s.itemCh:
			dropped++
		default:
			break drain
		}
	}
	if dropped > 0 {
		glog.Warningf("dropped %d bytes of the previous link", dropped)
	}
	select {
	case s.itemCh <- item{relink: true}:
	case <-ctx.Done():
		return ctx.Err()
	}
	if s.OnData != nil {
		s.OnData()
	}
	return nil
}

func (s *Stream) setConn(conn io.ReadWriteCloser) {
	s.lock.Lock()
	s.conn = conn
	s.lock.Unlock()
}

func (s *Stream) pump(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			select {
			case s.itemCh <- item{b: b}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if n > 0 && s.OnData != nil {
			s.OnData()
		}
		if err != nil {
			return err
		}
	}
}
