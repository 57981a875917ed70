package actuator

import (
	"github.com/golang/glog"
)

// LogServo logs the angles instead of moving anything.
type LogServo struct {
	Name string
	last int
	set  bool
}

// WriteAngle implements AngleWriter.
func (s *LogServo) WriteAngle(angle int) error {
	if s.set && s.last == angle {
		if glog.V(4) {
			glog.Infof("%s: %d", s.Name, angle)
		}
		return nil
	}
	glog.Infof("%s: %d -> %d", s.Name, s.last, angle)
	s.last, s.set = angle, true
	return nil
}
