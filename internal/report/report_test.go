package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpuwatch/internal/sampling"
)

func namesFromMap(names map[uint32]string) ResolveFunc {
	return func(pid uint32) string {
		if name, ok := names[pid]; ok {
			return name
		}
		return "unknown"
	}
}

func TestMiBConversionTruncates(t *testing.T) {
	assert.Equal(t, uint64(0), toMiB(0))
	assert.Equal(t, uint64(0), toMiB(1048575))
	assert.Equal(t, uint64(1), toMiB(1048576))
	assert.Equal(t, uint64(2), toMiB(2097152))
	assert.Equal(t, uint64(2), toMiB(3145727))
}

func TestUnavailableReadingConvertsToZero(t *testing.T) {
	assert.Equal(t, uint64(0), usedMiB(sampling.UsedMemoryUnavailable))
	assert.Equal(t, uint64(3), usedMiB(3*1048576))
}

func TestMergePrefersComputeReading(t *testing.T) {
	compute := []sampling.ProcessSample{{PID: 7, UsedBytes: 10 * 1048576}}
	graphics := []sampling.ProcessSample{
		{PID: 7, UsedBytes: 99 * 1048576},
		{PID: 8, UsedBytes: 2 * 1048576},
	}

	rows := ProcessRows(compute, graphics, namesFromMap(map[uint32]string{7: "trainer", 8: "compositor"}))
	require.Len(t, rows, 2)

	byPID := map[uint32]Row{}
	for _, r := range rows {
		byPID[r.PID] = r
	}
	assert.Equal(t, uint64(10), byPID[7].MemMiB, "compute-list reading must win for a PID in both lists")
	assert.Equal(t, uint64(2), byPID[8].MemMiB)
}

func TestSortIsCaseInsensitiveAndStable(t *testing.T) {
	compute := []sampling.ProcessSample{
		{PID: 1, UsedBytes: 1048576},
		{PID: 2, UsedBytes: 1048576},
		{PID: 3, UsedBytes: 1048576},
	}
	names := map[uint32]string{1: "beta", 2: "Alpha", 3: "alpha"}

	rows := ProcessRows(compute, nil, namesFromMap(names))
	require.Len(t, rows, 3)

	assert.Equal(t, "Alpha", rows[0].Name)
	assert.Equal(t, "alpha", rows[1].Name)
	assert.Equal(t, "beta", rows[2].Name)
	// Case-insensitive-equal names keep their merge order.
	assert.Equal(t, uint32(2), rows[0].PID)
	assert.Equal(t, uint32(3), rows[1].PID)
}

func TestUnresolvedNamesUseSentinel(t *testing.T) {
	rows := ProcessRows([]sampling.ProcessSample{{PID: 42, UsedBytes: 1048576}}, nil,
		namesFromMap(nil))
	require.Len(t, rows, 1)
	assert.Equal(t, "unknown", rows[0].Name)
}

func TestBuildEmptyProcessTable(t *testing.T) {
	snap := sampling.DeviceSnapshot{
		UtilizationPct: 3,
		Memory:         sampling.MemoryInfo{TotalBytes: 8 << 30, UsedBytes: 1 << 30, FreeBytes: 7 << 30},
	}

	text := Build(snap, namesFromMap(nil))
	assert.Contains(t, text, "(No active GPU processes)\n")
	assert.Contains(t, text, "PID      NAME                     GPU Memory (MiB)\n")
}

func TestBuildIsDeterministic(t *testing.T) {
	snap := sampling.DeviceSnapshot{
		UtilizationPct: 55,
		Memory:         sampling.MemoryInfo{TotalBytes: 8 << 30, UsedBytes: 4 << 30, FreeBytes: 4 << 30},
		ComputeProcs: []sampling.ProcessSample{
			{PID: 10, UsedBytes: 5 * 1048576},
			{PID: 11, UsedBytes: sampling.UsedMemoryUnavailable},
		},
		GraphicsProcs: []sampling.ProcessSample{
			{PID: 12, UsedBytes: 7 * 1048576},
		},
	}
	resolve := namesFromMap(map[uint32]string{10: "python", 11: "Xorg", 12: "compositor"})

	first := Build(snap, resolve)
	second := Build(snap, resolve)
	assert.Equal(t, first, second)
}

func TestBuildEndToEnd(t *testing.T) {
	snap := sampling.DeviceSnapshot{
		UtilizationPct: 42,
		Memory: sampling.MemoryInfo{
			TotalBytes: 8589934592,
			UsedBytes:  4294967296,
			FreeBytes:  4294967296,
		},
		ComputeProcs: []sampling.ProcessSample{{PID: 100, UsedBytes: 1048576}},
	}

	text := Build(snap, namesFromMap(map[uint32]string{100: "render"}))

	expected := "Overall GPU utilization: 42%\n" +
		"---------------------------\n" +
		"\n" +
		"GPU Memory Usage: 4096 MiB used / 8192 MiB total (4096 MiB free)\n" +
		"---------------------------\n" +
		"\n" +
		"Processes using GPU memory:\n" +
		"---------------------------\n" +
		"\n" +
		"PID      NAME                     GPU Memory (MiB)\n" +
		"100      render                   1               \n"
	assert.Equal(t, expected, text)
}

func TestBuildRendersUnavailableAsZeroRow(t *testing.T) {
	snap := sampling.DeviceSnapshot{
		UtilizationPct: 1,
		Memory:         sampling.MemoryInfo{TotalBytes: 8 << 30, UsedBytes: 1 << 30, FreeBytes: 7 << 30},
		ComputeProcs:   []sampling.ProcessSample{{PID: 200, UsedBytes: sampling.UsedMemoryUnavailable}},
	}

	text := Build(snap, namesFromMap(map[uint32]string{200: "xorg"}))
	assert.Contains(t, text, "200      xorg                     0               \n")
	assert.NotContains(t, text, "(No active GPU processes)")
}
