//go:build windows
// +build windows

// File: affinity/affinity_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific implementation for querying and setting thread CPU affinity.
// Masks are limited to the first processor group (64 logical CPUs).

package affinity

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/momentics/corepool/api"
)

var (
	modkernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procGetProcessAffinityMask = modkernel32.NewProc("GetProcessAffinityMask")
	procSetThreadAffinityMask  = modkernel32.NewProc("SetThreadAffinityMask")
)

const maskBits = int(unsafe.Sizeof(uintptr(0)) * 8)

func allowedCoresPlatform() (api.CoreSet, error) {
	var procMask, sysMask uintptr
	ret, _, err := procGetProcessAffinityMask.Call(
		uintptr(windows.CurrentProcess()),
		uintptr(unsafe.Pointer(&procMask)),
		uintptr(unsafe.Pointer(&sysMask)),
	)
	if ret == 0 {
		return nil, fmt.Errorf("GetProcessAffinityMask failed: %v", err)
	}
	var cores api.CoreSet
	for cpu := 0; cpu < maskBits; cpu++ {
		if procMask&(uintptr(1)<<uint(cpu)) != 0 {
			cores = append(cores, cpu)
		}
	}
	return cores, nil
}

func bindPlatform(cores api.CoreSet) error {
	var mask uintptr
	for _, c := range cores {
		if c >= maskBits {
			return api.NewError(api.ErrCodeNotSupported, "affinity: core outside first processor group").
				WithContext("core", c)
		}
		mask |= uintptr(1) << uint(c)
	}
	old, _, err := procSetThreadAffinityMask.Call(uintptr(windows.CurrentThread()), mask)
	if old == 0 {
		return fmt.Errorf("SetThreadAffinityMask %s failed: %v", cores, err)
	}
	return nil
}
