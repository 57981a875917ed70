package telemetry

import (
	"github.com/golang/glog"

	"github.com/robotalks/robocar/pkg/vc"
)

// Mux builds the observer chain of a controller.
type Mux struct {
	observers vc.Observers
}

// Add appends observers, skipping nil ones.
func (m *Mux) Add(observers ...vc.Observer) *Mux {
	for _, ob := range observers {
		if ob != nil {
			m.observers = append(m.observers, ob)
		}
	}
	return m
}

// Observer returns the combined observer, nil if empty.
func (m *Mux) Observer() vc.Observer {
	switch len(m.observers) {
	case 0:
		return nil
	case 1:
		return m.observers[0]
	}
	return m.observers
}

// LogObserver logs events at verbosity 1.
type LogObserver struct{}

// Observe implements vc.Observer.
func (LogObserver) Observe(ev vc.Event) {
	if !glog.V(1) {
		return
	}
	switch ev.Type {
	case vc.EventCommand:
		glog.Infof("%s%s: %s [%s]", ev.Verb, ev.Arg, ev.Result, ev.State)
	case vc.EventHalt:
		glog.Infof("halted [%s]", ev.State)
	}
}
