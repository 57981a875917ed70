package actuator

import (
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/robotalks/robocar/pkg/transport"
)

// Default Maestro channels.
const (
	DefaultMotorChannel    = 0
	DefaultSteeringChannel = 1
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open creates Servos from a backend URL:
//
//	log:
//	maestro:///dev/ttyACM1?baud=9600&motor=0&steering=1
func Open(backendURL string) (*Servos, io.Closer, error) {
	u, err := url.Parse(backendURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid actuator URL: %w", err)
	}
	switch u.Scheme {
	case "log":
		return &Servos{
			Motor:    &LogServo{Name: "motor"},
			Steering: &LogServo{Name: "steering"},
		}, nopCloser{}, nil
	case "maestro":
		motor, err := channelParam(u, "motor", DefaultMotorChannel)
		if err != nil {
			return nil, nil, err
		}
		steering, err := channelParam(u, "steering", DefaultSteeringChannel)
		if err != nil {
			return nil, nil, err
		}
		conf, err := transport.ParseSerialURL(u)
		if err != nil {
			return nil, nil, err
		}
		port, err := conf.Open()
		if err != nil {
			return nil, nil, err
		}
		m := &Maestro{Port: port}
		return &Servos{Motor: m.Channel(motor), Steering: m.Channel(steering)}, port, nil
	}
	return nil, nil, fmt.Errorf("unknown actuator backend: %q", u.Scheme)
}

func channelParam(u *url.URL, name string, def uint8) (uint8, error) {
	val := u.Query().Get(name)
	if val == "" {
		return def, nil
	}
	ch, err := strconv.ParseUint(val, 10, 7)
	if err != nil {
		return 0, fmt.Errorf("invalid %s channel %q", name, val)
	}
	return uint8(ch), nil
}
