package service

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// SystemInfo describes the device the panel runs on.
type SystemInfo struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`         // e.g. "debian", "raspbian"
	PlatformVersion string `json:"platform_version"` // e.g. "12.5"
	KernelVersion   string `json:"kernel_version"`
	KernelArch      string `json:"kernel_arch"`
	UptimeSeconds   uint64 `json:"uptime_seconds"`
}

// HostInfo returns best-effort host metadata; fields that cannot be read stay empty.
func HostInfo(ctx context.Context) SystemInfo {
	info, err := host.InfoWithContext(ctx)
	if err != nil || info == nil {
		return SystemInfo{OS: runtime.GOOS, KernelArch: runtime.GOARCH}
	}
	return SystemInfo{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		KernelArch:      info.KernelArch,
		UptimeSeconds:   info.Uptime,
	}
}
