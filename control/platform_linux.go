//go:build linux
// +build linux

// control/platform_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific platform probes backing the diagnostics dump.

package control

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// RegisterPlatformProbes registers Linux platform probes: CPU count,
// uptime, and free memory from sysinfo.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.sysinfo", func() any {
		var si unix.Sysinfo_t
		if err := unix.Sysinfo(&si); err != nil {
			return err.Error()
		}
		return map[string]any{
			"uptime_s": si.Uptime,
			"freeram":  si.Freeram,
			"procs":    si.Procs,
		}
	})
}
