package smi

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"gpuwatch/internal/sampling"
)

// Sampler shells out to nvidia-smi as a fallback when the NVML bindings are
// unavailable. nvidia-smi cannot enumerate graphics processes, so that list
// is always empty on this backend.
type Sampler struct {
	BinaryPath string
	Index      int
}

func New(binaryPath string, index int) *Sampler {
	if strings.TrimSpace(binaryPath) == "" {
		binaryPath = "nvidia-smi"
	}
	return &Sampler{BinaryPath: binaryPath, Index: index}
}

func (s *Sampler) Name() string { return "nvidia-smi" }

func (s *Sampler) Close() error { return nil }

// Init verifies the nvidia-smi binary exists and that the configured device
// index answers a query. A failure here means the telemetry subsystem is
// unreachable, which is fatal for the caller; it is deliberately not an
// ErrMetricsUnavailable, which is reserved for per-tick query failures.
func (s *Sampler) Init(ctx context.Context) error {
	path, err := exec.LookPath(s.BinaryPath)
	if err != nil {
		return fmt.Errorf("nvidia-smi not found: %w", err)
	}
	s.BinaryPath = path

	if _, err := s.queryDevice(ctx); err != nil {
		return fmt.Errorf("nvidia-smi device %d unreachable: %v", s.Index, err)
	}
	return nil
}

func (s *Sampler) Sample(ctx context.Context) (sampling.DeviceSnapshot, error) {
	snap, err := s.queryDevice(ctx)
	if err != nil {
		return sampling.DeviceSnapshot{}, err
	}

	procs, err := s.queryComputeProcs(ctx)
	if err != nil {
		// nvidia-smi returns non-zero when no compute apps; treat as empty.
		if !errors.Is(err, errNoResults) {
			return sampling.DeviceSnapshot{}, err
		}
		procs = nil
	}
	snap.ComputeProcs = procs

	return snap, nil
}

func (s *Sampler) Info(ctx context.Context) (sampling.DeviceInfo, error) {
	qctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := s.run(qctx,
		"--query-gpu=name,power.limit,memory.total",
		"--format=csv,noheader,nounits",
		fmt.Sprintf("--id=%d", s.Index),
	)
	if err != nil {
		return sampling.DeviceInfo{}, err
	}

	lines := readCSVLines(out)
	if len(lines) == 0 || len(lines[0]) < 3 {
		return sampling.DeviceInfo{}, fmt.Errorf("%w: unexpected nvidia-smi info output", sampling.ErrMetricsUnavailable)
	}
	return parseInfoRow(lines[0])
}

func parseInfoRow(cols []string) (sampling.DeviceInfo, error) {
	// power.limit is reported in watts, possibly fractional; "[N/A]" when the
	// driver does not expose a limit.
	limitW, err := strconv.ParseFloat(cols[1], 64)
	if err != nil {
		return sampling.DeviceInfo{}, fmt.Errorf("%w: power limit unreadable: %q", sampling.ErrMetricsUnavailable, cols[1])
	}
	totalMiB, _ := strconv.ParseUint(cols[2], 10, 64)

	return sampling.DeviceInfo{
		// nvidia-smi has no brand column.
		Brand:                "NVIDIA",
		Name:                 cols[0],
		PowerLimitMilliwatts: uint32(limitW * 1000),
		MemoryTotalBytes:     totalMiB * 1024 * 1024,
	}, nil
}

var errNoResults = errors.New("nvidia-smi no results")

func (s *Sampler) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.BinaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		se := strings.TrimSpace(stderr.String())
		// Some versions print "No running processes found" on stderr and exit non-zero.
		if strings.Contains(strings.ToLower(se), "no running processes") || strings.Contains(strings.ToLower(se), "no running") {
			return nil, errNoResults
		}
		return nil, fmt.Errorf("%w: nvidia-smi failed: %v: %s", sampling.ErrMetricsUnavailable, err, se)
	}
	return out, nil
}

func (s *Sampler) queryDevice(ctx context.Context) (sampling.DeviceSnapshot, error) {
	qctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := s.run(qctx,
		"--query-gpu=utilization.gpu,memory.total,memory.used,memory.free",
		"--format=csv,noheader,nounits",
		fmt.Sprintf("--id=%d", s.Index),
	)
	if err != nil {
		return sampling.DeviceSnapshot{}, err
	}

	lines := readCSVLines(out)
	if len(lines) == 0 || len(lines[0]) < 4 {
		return sampling.DeviceSnapshot{}, fmt.Errorf("%w: unexpected nvidia-smi query output", sampling.ErrMetricsUnavailable)
	}
	return parseDeviceRow(lines[0]), nil
}

func parseDeviceRow(cols []string) sampling.DeviceSnapshot {
	utilGPU, _ := strconv.Atoi(cols[0])
	totalMiB, _ := strconv.ParseUint(cols[1], 10, 64)
	usedMiB, _ := strconv.ParseUint(cols[2], 10, 64)
	freeMiB, _ := strconv.ParseUint(cols[3], 10, 64)

	return sampling.DeviceSnapshot{
		UtilizationPct: uint32(utilGPU),
		Memory: sampling.MemoryInfo{
			TotalBytes: totalMiB * 1024 * 1024,
			UsedBytes:  usedMiB * 1024 * 1024,
			FreeBytes:  freeMiB * 1024 * 1024,
		},
	}
}

func (s *Sampler) queryComputeProcs(ctx context.Context) ([]sampling.ProcessSample, error) {
	qctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := s.run(qctx,
		"--query-compute-apps=pid,used_gpu_memory",
		"--format=csv,noheader,nounits",
		fmt.Sprintf("--id=%d", s.Index),
	)
	if err != nil {
		return nil, err
	}
	return parseProcRows(readCSVLines(out)), nil
}

func parseProcRows(lines [][]string) []sampling.ProcessSample {
	rows := make([]sampling.ProcessSample, 0, len(lines))
	for _, cols := range lines {
		if len(cols) < 2 {
			continue
		}
		pid, err := strconv.ParseUint(cols[0], 10, 32)
		if err != nil {
			continue
		}
		// used_gpu_memory is "[N/A]" or "[Insufficient Permissions]" when the
		// driver cannot attribute usage.
		used := sampling.UsedMemoryUnavailable
		if memMiB, err := strconv.ParseUint(cols[1], 10, 64); err == nil {
			used = memMiB * 1024 * 1024
		}
		rows = append(rows, sampling.ProcessSample{PID: uint32(pid), UsedBytes: used})
	}
	return rows
}

func readCSVLines(b []byte) [][]string {
	scanner := bufio.NewScanner(bytes.NewReader(b))
	out := [][]string{}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cols := strings.Split(line, ",")
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		out = append(out, cols)
	}
	return out
}
