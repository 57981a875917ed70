// Package vehicle assembles the controller daemon from its config.
package vehicle

import (
	"fmt"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/robocar/pkg/actuator"
	"github.com/robotalks/robocar/pkg/clock"
	fx "github.com/robotalks/robocar/pkg/framework"
	"github.com/robotalks/robocar/pkg/telemetry"
	"github.com/robotalks/robocar/pkg/transport"
	"github.com/robotalks/robocar/pkg/vc"
)

// Vehicle holds the wired components.
type Vehicle struct {
	Config     *Config
	Variant    vc.Variant
	Stream     *transport.Stream
	Servos     *actuator.Servos
	Controller *vc.Controller
	Metrics    *telemetry.Metrics
	Publisher  *telemetry.Publisher

	closers []io.Closer
}

// NewVehicle creates the components from the config.
func (c *Config) NewVehicle() (*Vehicle, error) {
	v := &Vehicle{Config: c}
	var err error
	if v.Variant, err = vc.VariantByName(c.Variant); err != nil {
		return nil, err
	}
	servos, closer, err := actuator.Open(c.Actuator)
	if err != nil {
		return nil, fmt.Errorf("open actuator: %w", err)
	}
	v.Servos = servos
	v.closers = append(v.closers, closer)

	acceptor, err := transport.Listen(c.Link)
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("listen %s: %w", c.Link, err)
	}
	v.Stream = transport.NewStream(acceptor)
	v.Controller = vc.New(v.Variant, v.Stream, v.Stream, servos)

	var mux telemetry.Mux
	mux.Add(telemetry.LogObserver{})
	if c.MetricsAddr != "" {
		v.Metrics = telemetry.NewMetrics()
		mux.Add(v.Metrics)
	}
	if c.MQTTBrokerURL != "" {
		v.Publisher, err = telemetry.NewPublisher(c.MQTTBrokerURL, telemetry.Meta{
			ID:      c.ID,
			Variant: v.Variant.Name,
			Link:    c.Link,
		})
		if err != nil {
			acceptor.Close()
			v.Close()
			return nil, fmt.Errorf("create MQTT publisher: %w", err)
		}
		mux.Add(v.Publisher)
	}
	v.Controller.Observer = mux.Observer()
	return v, nil
}

// AddToLoop implements LoopAdder.
func (v *Vehicle) AddToLoop(l *fx.Loop) {
	l.Add(v.Stream, v.Controller)
	if v.Metrics != nil {
		l.Add(&telemetry.MetricsServer{Addr: v.Config.MetricsAddr, Metrics: v.Metrics})
	}
	if v.Publisher != nil {
		l.Add(v.Publisher)
	}
}

// NewLoop creates the control loop running the vehicle.
func (v *Vehicle) NewLoop(c clock.Clock) *fx.Loop {
	l := fx.NewLoop(c)
	l.Interval = v.Config.Interval
	l.Add(v)
	glog.Infof("vehicle %s: variant=%s link=%s actuator=%s", v.Config.ID, v.Variant, v.Config.Link, v.Config.Actuator)
	return l
}

// Close releases the actuator backend. The link is closed by the
// stream when the loop stops.
func (v *Vehicle) Close() error {
	var errs fx.AggregatedError
	for _, closer := range v.closers {
		errs.Add(closer.Close())
	}
	v.closers = nil
	return errs.Aggregate()
}
