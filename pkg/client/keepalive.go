package client

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultKeepaliveInterval is well below the controller's default
// watchdog timeout.
const DefaultKeepaliveInterval = 300 * time.Millisecond

// Keepalive re-sends the held command line on an interval so the
// controller watchdog does not stop the vehicle.
type Keepalive struct {
	Client *Client

	line     string
	interval time.Duration
	lock     sync.Mutex
}

// NewKeepalive creates a Keepalive holding nothing.
func NewKeepalive(c *Client) *Keepalive {
	return &Keepalive{Client: c, interval: DefaultKeepaliveInterval}
}

// SetInterval changes the period, effective after the current one.
func (k *Keepalive) SetInterval(d time.Duration) {
	k.lock.Lock()
	k.interval = d
	k.lock.Unlock()
}

// Interval returns the period.
func (k *Keepalive) Interval() time.Duration {
	k.lock.Lock()
	defer k.lock.Unlock()
	return k.interval
}

// Hold starts repeating line.
func (k *Keepalive) Hold(line string) {
	k.lock.Lock()
	k.line = line
	k.lock.Unlock()
}

// Release stops repeating.
func (k *Keepalive) Release() {
	k.Hold("")
}

// Holding returns the repeated line, empty if none.
func (k *Keepalive) Holding() string {
	k.lock.Lock()
	defer k.lock.Unlock()
	return k.line
}

// Name implements Named.
func (k *Keepalive) Name() string {
	return "keepalive"
}

// Run implements Runnable.
func (k *Keepalive) Run(ctx context.Context) error {
	for {
		interval := k.Interval()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
		line := k.Holding()
		if line == "" {
			continue
		}
		execCtx, cancel := context.WithTimeout(ctx, interval)
		_, err := k.Client.Exec(execCtx, line)
		cancel()
		if err != nil && ctx.Err() == nil {
			glog.Warningf("keepalive %q: %v", line, err)
		}
	}
}
