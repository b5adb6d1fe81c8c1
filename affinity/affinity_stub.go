//go:build !linux && !windows
// +build !linux,!windows

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for platforms without affinity APIs: the full visible
// range is reported and binding is a no-op.

package affinity

import (
	"runtime"

	"github.com/momentics/corepool/api"
)

func allowedCoresPlatform() (api.CoreSet, error) {
	return api.RangeCoreSet(runtime.NumCPU()), nil
}

func bindPlatform(api.CoreSet) error { return nil }
