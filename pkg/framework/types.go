package framework

import (
	"context"

	"github.com/robotalks/robocar/pkg/clock"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Controller defines the logic executed once per tick.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// ControlContext provides the context of the current tick.
type ControlContext interface {
	// Context retrieves context.Context.
	Context() context.Context
	// Now is the time sampled when the tick started.
	Now() clock.Millis
	// PriorityLevel gets the current priority level.
	PriorityLevel() int

	LoopControl
}

// LoopControl exposes access to the controlling loop.
type LoopControl interface {
	// TriggerNext schedules the next tick to be executed
	// immediately after the current one.
	TriggerNext()
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 16

// Predefine priority levels
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvSense is the alias of priority level for input processing.
	PrLvSense = PrLvHigh
	// PrLvControl is the alias of priority level for controllers.
	PrLvControl = PrLvNormal
	// PrLvActuate is the alias of priority level for actuators.
	PrLvActuate = PrLvLow
	// PrLvPostProc is the alias of priority level for post-processing.
	PrLvPostProc = PrLvIdle - 1
)

// RunnableFunc is the func form of Runnable.
type RunnableFunc func(context.Context) error

// Run implements Runnable.
func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}
