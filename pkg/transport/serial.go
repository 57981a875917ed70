package transport

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"go.bug.st/serial"
)

// DefaultBaudRate is used when a serial URL has no baud parameter.
const DefaultBaudRate = 115200

// SerialConfig identifies a serial port.
type SerialConfig struct {
	Device   string
	BaudRate int
}

// ParseSerialURL parses serial:///dev/tty?baud=N.
func ParseSerialURL(u *url.URL) (SerialConfig, error) {
	conf := SerialConfig{Device: u.Path, BaudRate: DefaultBaudRate}
	if conf.Device == "" {
		conf.Device = u.Opaque
	}
	if conf.Device == "" {
		return conf, fmt.Errorf("serial device missing in %q", u.String())
	}
	if val := u.Query().Get("baud"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil || baud <= 0 {
			return conf, fmt.Errorf("invalid baud rate %q", val)
		}
		conf.BaudRate = baud
	}
	return conf, nil
}

// Open opens the serial port.
func (c SerialConfig) Open() (serial.Port, error) {
	port, err := serial.Open(c.Device, &serial.Mode{BaudRate: c.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Device, err)
	}
	return port, nil
}

type serialAcceptor struct {
	conf SerialConfig
}

// Accept opens the port. It is called again after the port failed.
func (a *serialAcceptor) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.conf.Open()
}

func (a *serialAcceptor) Close() error {
	return nil
}

func (a *serialAcceptor) String() string {
	return a.conf.Device
}
