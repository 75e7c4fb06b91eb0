// Package report builds the display-ready text block for one GPU snapshot.
package report

import (
	"fmt"
	"sort"
	"strings"

	"gpuwatch/internal/sampling"
)

const mib = 1024 * 1024

const divider = "---------------------------\n"

// ResolveFunc maps a PID to a display name. Implementations must not fail;
// unresolvable PIDs get a sentinel name instead.
type ResolveFunc func(pid uint32) string

// Row is one process line of the report.
type Row struct {
	PID    uint32
	Name   string
	MemMiB uint64
}

// Build renders the full report for one device snapshot. Output is a pure
// function of the snapshot and the resolver: identical inputs produce
// byte-identical text.
func Build(snap sampling.DeviceSnapshot, resolve ResolveFunc) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Overall GPU utilization: %d%%\n", snap.UtilizationPct)
	b.WriteString(divider)
	b.WriteString("\n")

	fmt.Fprintf(&b, "GPU Memory Usage: %d MiB used / %d MiB total (%d MiB free)\n",
		toMiB(snap.Memory.UsedBytes), toMiB(snap.Memory.TotalBytes), toMiB(snap.Memory.FreeBytes))
	b.WriteString(divider)
	b.WriteString("\n")

	b.WriteString("Processes using GPU memory:\n")
	b.WriteString(divider)
	b.WriteString("\n")

	fmt.Fprintf(&b, "%-8s %-24s %-16s\n", "PID", "NAME", "GPU Memory (MiB)")

	rows := ProcessRows(snap.ComputeProcs, snap.GraphicsProcs, resolve)
	if len(rows) == 0 {
		b.WriteString("(No active GPU processes)\n")
		return b.String()
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%-8d %-24s %-16d\n", r.PID, r.Name, r.MemMiB)
	}
	return b.String()
}

// ProcessRows merges the compute and graphics process lists with
// first-seen-wins semantics (a PID present in both keeps its compute reading),
// resolves names, and sorts rows by name, case-insensitive. The sort is
// stable, so PIDs with case-insensitive-equal names keep their merge order.
func ProcessRows(compute, graphics []sampling.ProcessSample, resolve ResolveFunc) []Row {
	seen := make(map[uint32]struct{}, len(compute)+len(graphics))
	merged := make([]sampling.ProcessSample, 0, len(compute)+len(graphics))
	for _, lst := range [][]sampling.ProcessSample{compute, graphics} {
		for _, p := range lst {
			if _, ok := seen[p.PID]; ok {
				continue
			}
			seen[p.PID] = struct{}{}
			merged = append(merged, p)
		}
	}

	rows := make([]Row, 0, len(merged))
	for _, p := range merged {
		rows = append(rows, Row{
			PID:    p.PID,
			Name:   resolve(p.PID),
			MemMiB: usedMiB(p.UsedBytes),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
	return rows
}

// toMiB converts bytes to mebibytes, truncating.
func toMiB(b uint64) uint64 { return b / mib }

// usedMiB converts a per-process reading, mapping the driver's
// "unavailable" marker to 0.
func usedMiB(b uint64) uint64 {
	if b == sampling.UsedMemoryUnavailable {
		return 0
	}
	return b / mib
}
