//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific implementation for querying and setting thread CPU affinity.

package affinity

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/momentics/corepool/api"
)

// allowedCoresPlatform reads the process affinity mask.
func allowedCoresPlatform() (api.CoreSet, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(os.Getpid(), &set); err != nil {
		return nil, fmt.Errorf("sched_getaffinity: %w", err)
	}
	n := set.Count()
	cores := make(api.CoreSet, 0, n)
	for cpu := 0; len(cores) < n; cpu++ {
		if set.IsSet(cpu) {
			cores = append(cores, cpu)
		}
	}
	return cores, nil
}

// bindPlatform sets the calling thread's mask to cores.
func bindPlatform(cores api.CoreSet) error {
	var set unix.CPUSet
	set.Zero()
	for _, c := range cores {
		set.Set(c)
	}
	// pid 0 is the calling thread
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity %s: %w", cores, err)
	}
	return nil
}
