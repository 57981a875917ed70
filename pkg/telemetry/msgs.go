package telemetry

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/robocar/pkg/vc"
)

// EventKind mirrors vc.EventType on the wire.
type EventKind int32

// Event kinds.
const (
	EventKindCommand EventKind = 0
	EventKindHalt    EventKind = 1
	EventKindOutput  EventKind = 2
)

var eventKindNames = map[EventKind]string{
	EventKindCommand: "command",
	EventKindHalt:    "halt",
	EventKindOutput:  "output",
}

// String implements fmt.Stringer.
func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// StatusEvent is published for every controller event.
type StatusEvent struct {
	ControllerId string    `protobuf:"bytes,1,opt,name=controller_id,proto3" json:"controller_id,omitempty"`
	Kind         EventKind `protobuf:"varint,2,opt,name=kind,proto3" json:"kind,omitempty"`
	TimeMs       uint32    `protobuf:"varint,3,opt,name=time_ms,proto3" json:"time_ms,omitempty"`
	Verb         string    `protobuf:"bytes,4,opt,name=verb,proto3" json:"verb,omitempty"`
	Arg          string    `protobuf:"bytes,5,opt,name=arg,proto3" json:"arg,omitempty"`
	Result       int32     `protobuf:"varint,6,opt,name=result,proto3" json:"result,omitempty"`
	Running      bool      `protobuf:"varint,7,opt,name=running,proto3" json:"running,omitempty"`
	Throttle     float64   `protobuf:"fixed64,8,opt,name=throttle,proto3" json:"throttle,omitempty"`
	Steering     float64   `protobuf:"fixed64,9,opt,name=steering,proto3" json:"steering,omitempty"`
	TimeoutMs    uint32    `protobuf:"varint,10,opt,name=timeout_ms,proto3" json:"timeout_ms,omitempty"`
	Ceiling      float64   `protobuf:"fixed64,11,opt,name=ceiling,proto3" json:"ceiling,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *StatusEvent) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusEvent) Reset() { *m = StatusEvent{} }

// String implements proto.Message.
func (m *StatusEvent) String() string { return proto.CompactTextString(m) }

// NewStatusEvent converts a controller event.
func NewStatusEvent(id string, ev vc.Event) *StatusEvent {
	m := &StatusEvent{
		ControllerId: id,
		Kind:         EventKind(ev.Type),
		TimeMs:       uint32(ev.Time),
		Running:      ev.State.Running,
		Throttle:     ev.State.Throttle,
		Steering:     ev.State.Steering,
		TimeoutMs:    ev.State.TimeoutMs,
		Ceiling:      ev.State.Ceiling,
	}
	if ev.Type == vc.EventCommand {
		m.Verb = ev.Verb.String()
		m.Arg = ev.Arg
		m.Result = int32(ev.Result)
	}
	return m
}

// Meta is the retained description of a controller.
type Meta struct {
	ID      string `json:"id"`
	Variant string `json:"variant"`
	Link    string `json:"link,omitempty"`
}
