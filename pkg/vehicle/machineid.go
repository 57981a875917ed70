package vehicle

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves an ID identifying the machine, derived from the
// OS machine ID and falling back to the host name.
func MachineID() string {
	id, err := machineid.ProtectedID("robocar")
	if err == nil {
		return id[:12]
	}
	glog.Warningf("machine id: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return ""
}
