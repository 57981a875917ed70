package vc

import "github.com/robotalks/robocar/pkg/clock"

// EventType tells what an Event reports.
type EventType int

// Event types.
const (
	// EventCommand is emitted after each dispatched line.
	EventCommand EventType = iota
	// EventHalt is emitted when the watchdog stops the vehicle.
	EventHalt
	// EventOutput is emitted after the actuators received new values.
	EventOutput
)

// Event is a notification from the control loop.
type Event struct {
	Type   EventType
	Time   clock.Millis
	Verb   Verb
	Arg    string
	Result Result
	State  State
}

// Observer receives events on the control goroutine and must not block.
type Observer interface {
	Observe(Event)
}

// ObserveFunc is the func form of Observer.
type ObserveFunc func(Event)

// Observe implements Observer.
func (f ObserveFunc) Observe(ev Event) {
	f(ev)
}

// Observers fans out events.
type Observers []Observer

// Observe implements Observer.
func (o Observers) Observe(ev Event) {
	for _, ob := range o {
		ob.Observe(ev)
	}
}
