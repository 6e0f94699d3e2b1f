//go:build !linux
// +build !linux

// control/platform_other.go
// Author: momentics <momentics@gmail.com>
//
// Fallback platform probe registration for non-Linux builds.

package control

// RegisterPlatformProbes is a no-op where no platform-specific probes
// exist.
func RegisterPlatformProbes(dp *DebugProbes) {}
