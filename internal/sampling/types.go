package sampling

import "errors"

// UsedMemoryUnavailable is the driver's marker for a process whose GPU memory
// usage could not be attributed (e.g. on Windows in WDDM mode).
const UsedMemoryUnavailable = ^uint64(0)

// ErrMetricsUnavailable wraps any query failure during a single poll. Callers
// skip the whole tick rather than rendering a partial snapshot.
var ErrMetricsUnavailable = errors.New("gpu metrics unavailable")

type ProcessSample struct {
	PID       uint32
	UsedBytes uint64 // UsedMemoryUnavailable when the driver cannot attribute usage
}

type MemoryInfo struct {
	TotalBytes uint64
	UsedBytes  uint64
	FreeBytes  uint64
}

// DeviceSnapshot is one point-in-time reading of a single GPU. It is rebuilt
// from scratch on every poll; nothing in it persists across ticks.
type DeviceSnapshot struct {
	UtilizationPct uint32
	Memory         MemoryInfo
	ComputeProcs   []ProcessSample
	GraphicsProcs  []ProcessSample
}

// DeviceInfo holds the static identity fields shown by the info command.
type DeviceInfo struct {
	Brand                string
	Name                 string
	PowerLimitMilliwatts uint32
	MemoryTotalBytes     uint64
}
