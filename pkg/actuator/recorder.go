package actuator

import "sync"

// Recorder keeps the angles written to it. It is safe to read from
// other goroutines.
type Recorder struct {
	angles []int
	lock   sync.RWMutex
}

// WriteAngle implements AngleWriter.
func (r *Recorder) WriteAngle(angle int) error {
	r.lock.Lock()
	r.angles = append(r.angles, angle)
	r.lock.Unlock()
	return nil
}

// Last returns the latest angle, NeutralAngle before any write.
func (r *Recorder) Last() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if len(r.angles) == 0 {
		return NeutralAngle
	}
	return r.angles[len(r.angles)-1]
}

// Angles returns a copy of all writes.
func (r *Recorder) Angles() []int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]int(nil), r.angles...)
}
