// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral topology and binding. Platform-specific implementations are
// located in separate files (affinity_linux.go, affinity_windows.go, etc.)
// guarded by build tags.

package affinity

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"k8s.io/klog/v2"

	"github.com/momentics/corepool/api"
)

// systemTopology queries the running host.
type systemTopology struct{}

var (
	_ api.Topology = systemTopology{}
	_ api.Binder   = systemTopology{}
)

// Host is a topology that can also bind threads.
type Host interface {
	api.Topology
	api.Binder
}

// System returns the running host.
func System() Host { return systemTopology{} }

// AllowedCores returns the process affinity mask, or an empty set if the
// query fails.
func (systemTopology) AllowedCores() api.CoreSet {
	cores, err := allowedCoresPlatform()
	if err != nil {
		klog.Warningf("affinity: allowed core query failed: %v", err)
		return api.CoreSet{}
	}
	return cores
}

// HardwareConcurrency returns the logical CPU count.
func (systemTopology) HardwareConcurrency() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Sockets counts distinct physical package ids. Hosts that report CPUs
// without package ids count as a single socket.
func (systemTopology) Sockets() (int, error) {
	infos, err := cpu.Info()
	if err != nil {
		return 0, fmt.Errorf("affinity: socket query: %w", err)
	}
	if len(infos) == 0 {
		return 0, api.NewError(api.ErrCodeNotSupported, "affinity: no cpu info reported")
	}
	ids := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		if info.PhysicalID != "" {
			ids[info.PhysicalID] = struct{}{}
		}
	}
	if len(ids) == 0 {
		return 1, nil
	}
	return len(ids), nil
}

// BindCurrentThread pins the calling OS thread to cores.
func (systemTopology) BindCurrentThread(cores api.CoreSet) error {
	if len(cores) == 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "affinity: empty core set")
	}
	return bindPlatform(cores)
}

// noopTopology reports every visible core and binds nothing.
type noopTopology struct{}

// Noop returns a topology for platforms without affinity support: the allowed
// set is the full visible range, there is one socket and binding does nothing.
func Noop() Host { return noopTopology{} }

func (noopTopology) AllowedCores() api.CoreSet { return api.RangeCoreSet(runtime.NumCPU()) }
func (noopTopology) HardwareConcurrency() int { return runtime.NumCPU() }
func (noopTopology) Sockets() (int, error) { return 1, nil }
func (noopTopology) BindCurrentThread(api.CoreSet) error { return nil }
