package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// Acceptor hands out one link connection at a time.
type Acceptor interface {
	// Accept blocks until a link is available or ctx is done.
	Accept(ctx context.Context) (io.ReadWriteCloser, error)
	io.Closer
}

// Listen creates the Acceptor for a link URL.
func Listen(linkURL string) (Acceptor, error) {
	u, err := url.Parse(linkURL)
	if err != nil {
		return nil, fmt.Errorf("invalid link URL: %w", err)
	}
	switch u.Scheme {
	case "serial":
		conf, err := ParseSerialURL(u)
		if err != nil {
			return nil, err
		}
		return &serialAcceptor{conf: conf}, nil
	case "tcp":
		ln, err := net.Listen("tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return &tcpAcceptor{ln: ln}, nil
	case "ws":
		return listenWebsocket(u)
	}
	return nil, fmt.Errorf("unknown link URL scheme: %q", u.Scheme)
}

// Dial connects to a link as a client.
func Dial(linkURL string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(linkURL)
	if err != nil {
		return nil, fmt.Errorf("invalid link URL: %w", err)
	}
	switch u.Scheme {
	case "serial":
		conf, err := ParseSerialURL(u)
		if err != nil {
			return nil, err
		}
		return conf.Open()
	case "tcp":
		return net.Dial("tcp", u.Host)
	case "ws":
		return websocket.Dial(u.String(), "", "http://"+u.Host+"/")
	}
	return nil, fmt.Errorf("unknown link URL scheme: %q", u.Scheme)
}

// Addresser is implemented by network acceptors.
type Addresser interface {
	Addr() net.Addr
}

type tcpAcceptor struct {
	ln net.Listener
}

type deadliner interface {
	SetDeadline(time.Time) error
}

func (a *tcpAcceptor) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	if d, ok := a.ln.(deadliner); ok {
		d.SetDeadline(time.Time{})
		stop := context.AfterFunc(ctx, func() { d.SetDeadline(time.Now()) })
		defer stop()
	}
	conn, err := a.ln.Accept()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return conn, nil
}

func (a *tcpAcceptor) Close() error {
	return a.ln.Close()
}

func (a *tcpAcceptor) Addr() net.Addr {
	return a.ln.Addr()
}

// wsAcceptor serves a websocket endpoint. Only the connection handed
// to Accept is served; others are turned away while it is busy.
type wsAcceptor struct {
	ln    net.Listener
	srv   *http.Server
	conns chan *wsConn
}

type wsConn struct {
	*websocket.Conn
	done chan struct{}
	once sync.Once
}

func (c *wsConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.Conn.Close()
}

func listenWebsocket(u *url.URL) (*wsAcceptor, error) {
	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, err
	}
	a := &wsAcceptor{ln: ln, conns: make(chan *wsConn)}
	path := u.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Server{Handler: a.serve})
	a.srv = &http.Server{Handler: mux}
	go func() {
		if err := a.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			glog.Errorf("websocket server: %v", err)
		}
	}()
	return a, nil
}

func (a *wsAcceptor) serve(ws *websocket.Conn) {
	ws.PayloadType = websocket.BinaryFrame
	conn := &wsConn{Conn: ws, done: make(chan struct{})}
	select {
	case a.conns <- conn:
		<-conn.done
	default:
		glog.Warningf("link busy, rejected %s", ws.Request().RemoteAddr)
	}
}

func (a *wsAcceptor) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	select {
	case conn := <-a.conns:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *wsAcceptor) Close() error {
	return a.srv.Close()
}

func (a *wsAcceptor) Addr() net.Addr {
	return a.ln.Addr()
}
