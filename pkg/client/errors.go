package client

import (
	"errors"
	"fmt"

	"github.com/robotalks/robocar/pkg/vc"
)

var (
	// ErrNotConnected indicates there's no link to a controller.
	ErrNotConnected = errors.New("not connected")
	// ErrNoReply indicates the link closed before the reply arrived.
	ErrNoReply = errors.New("no reply")
	// ErrNoStatus indicates an info request returned no status line.
	ErrNoStatus = errors.New("no status")
)

// CommandError wraps the error code of a reply.
type CommandError struct {
	Code vc.Result
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("command error %d (%s)", int(e.Code), e.Code)
}
