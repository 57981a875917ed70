package client

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/robocar/pkg/vc"
)

// Status is the parsed status line of an info request.
type Status struct {
	TimeoutMs   uint32  `json:"timeout_ms"`
	CeilingVerb string  `json:"ceiling_verb"`
	Ceiling     float64 `json:"ceiling"`
	Running     bool    `json:"running"`
	Throttle    float64 `json:"throttle"`
	Steering    float64 `json:"steering"`
}

// ParseStatus parses "D=<ms>, M|L=<ceiling>, R=<0|1>, T=<throttle>, S=<steering>".
func ParseStatus(line string) (*Status, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 5 {
		return nil, fmt.Errorf("invalid status %q", line)
	}
	st := &Status{}
	for _, field := range fields {
		key, val, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok || len(key) != 1 {
			return nil, fmt.Errorf("invalid status field %q", field)
		}
		var err error
		switch vc.Verb(key[0]) {
		case vc.VerbTimeout:
			var ms uint64
			ms, err = strconv.ParseUint(val, 10, 32)
			st.TimeoutMs = uint32(ms)
		case vc.VerbMaxThrottle, vc.VerbLimit:
			st.CeilingVerb = key
			st.Ceiling, err = strconv.ParseFloat(val, 64)
		case vc.VerbReset:
			switch val {
			case "0":
			case "1":
				st.Running = true
			default:
				err = fmt.Errorf("invalid running flag")
			}
		case vc.VerbThrottle:
			st.Throttle, err = strconv.ParseFloat(val, 64)
		case vc.VerbSteer:
			st.Steering, err = strconv.ParseFloat(val, 64)
		default:
			err = fmt.Errorf("unknown key")
		}
		if err != nil {
			return nil, fmt.Errorf("status field %q: %w", field, err)
		}
	}
	return st, nil
}

// String implements fmt.Stringer.
func (s *Status) String() string {
	return fmt.Sprintf("running=%v throttle=%.2f steering=%.2f timeout=%dms %s=%.2f",
		s.Running, s.Throttle, s.Steering, s.TimeoutMs, s.CeilingVerb, s.Ceiling)
}
