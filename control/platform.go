// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Host topology probes.

package control

import (
	"github.com/momentics/corepool/api"
)

// RegisterPlatformProbes adds CPU count, allowed cores and socket probes for topo.
func RegisterPlatformProbes(dp *DebugProbes, topo api.Topology) {
	dp.RegisterProbe("platform.cpus", func() any {
		return topo.HardwareConcurrency()
	})
	dp.RegisterProbe("platform.allowed_cores", func() any {
		return topo.AllowedCores().String()
	})
	dp.RegisterProbe("platform.sockets", func() any {
		n, err := topo.Sockets()
		if err != nil {
			return err.Error()
		}
		return n
	})
}
