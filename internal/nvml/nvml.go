package nvmlwrap

import (
	"context"
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"gpuwatch/internal/sampling"
)

// Sampler implements sampling via NVML (go-nvml cgo bindings) against a
// single device index.

type Client struct {
	index       int
	initialized bool
	device      nvml.Device
}

func New(index int) *Client {
	return &Client{index: index}
}

// Init initializes NVML and resolves the device handle. A failure here means
// the telemetry subsystem is unreachable or the device does not exist, which
// is fatal for the caller.
func (c *Client) Init() error {
	if c.initialized {
		return nil
	}
	ret := nvml.Init()
	if ret != nvml.SUCCESS {
		return fmt.Errorf("nvml init failed: %s", nvml.ErrorString(ret))
	}
	dev, ret := nvml.DeviceGetHandleByIndex(c.index)
	if ret != nvml.SUCCESS {
		_ = nvml.Shutdown()
		return fmt.Errorf("nvml get handle index=%d failed: %s", c.index, nvml.ErrorString(ret))
	}
	c.device = dev
	c.initialized = true
	return nil
}

func (c *Client) Shutdown() {
	if !c.initialized {
		return
	}
	_ = nvml.Shutdown()
	c.initialized = false
}

func (c *Client) Name() string { return "nvml" }

func (c *Client) Close() error {
	c.Shutdown()
	return nil
}

func (c *Client) Sample(ctx context.Context) (sampling.DeviceSnapshot, error) {
	_ = ctx
	if err := c.Init(); err != nil {
		return sampling.DeviceSnapshot{}, err
	}

	util, ret := c.device.GetUtilizationRates()
	if ret != nvml.SUCCESS {
		return sampling.DeviceSnapshot{}, fmt.Errorf("%w: utilization rates: %s", sampling.ErrMetricsUnavailable, nvml.ErrorString(ret))
	}

	memInfo, ret := c.device.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return sampling.DeviceSnapshot{}, fmt.Errorf("%w: memory info: %s", sampling.ErrMetricsUnavailable, nvml.ErrorString(ret))
	}

	compute, ret := c.device.GetComputeRunningProcesses()
	if ret != nvml.SUCCESS {
		return sampling.DeviceSnapshot{}, fmt.Errorf("%w: compute processes: %s", sampling.ErrMetricsUnavailable, nvml.ErrorString(ret))
	}

	graphics, ret := c.device.GetGraphicsRunningProcesses()
	if ret != nvml.SUCCESS {
		return sampling.DeviceSnapshot{}, fmt.Errorf("%w: graphics processes: %s", sampling.ErrMetricsUnavailable, nvml.ErrorString(ret))
	}

	return sampling.DeviceSnapshot{
		UtilizationPct: util.Gpu,
		Memory: sampling.MemoryInfo{
			TotalBytes: memInfo.Total,
			UsedBytes:  memInfo.Used,
			FreeBytes:  memInfo.Free,
		},
		ComputeProcs:  toSamples(compute),
		GraphicsProcs: toSamples(graphics),
	}, nil
}

func (c *Client) Info(ctx context.Context) (sampling.DeviceInfo, error) {
	_ = ctx
	if err := c.Init(); err != nil {
		return sampling.DeviceInfo{}, err
	}

	brand, ret := c.device.GetBrand()
	if ret != nvml.SUCCESS {
		return sampling.DeviceInfo{}, fmt.Errorf("%w: brand: %s", sampling.ErrMetricsUnavailable, nvml.ErrorString(ret))
	}
	name, ret := c.device.GetName()
	if ret != nvml.SUCCESS {
		return sampling.DeviceInfo{}, fmt.Errorf("%w: name: %s", sampling.ErrMetricsUnavailable, nvml.ErrorString(ret))
	}
	limit, ret := c.device.GetEnforcedPowerLimit()
	if ret != nvml.SUCCESS {
		return sampling.DeviceInfo{}, fmt.Errorf("%w: enforced power limit: %s", sampling.ErrMetricsUnavailable, nvml.ErrorString(ret))
	}
	memInfo, ret := c.device.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return sampling.DeviceInfo{}, fmt.Errorf("%w: memory info: %s", sampling.ErrMetricsUnavailable, nvml.ErrorString(ret))
	}

	return sampling.DeviceInfo{
		Brand:                brandString(brand),
		Name:                 name,
		PowerLimitMilliwatts: limit,
		MemoryTotalBytes:     memInfo.Total,
	}, nil
}

func toSamples(procs []nvml.ProcessInfo) []sampling.ProcessSample {
	out := make([]sampling.ProcessSample, 0, len(procs))
	for _, p := range procs {
		out = append(out, sampling.ProcessSample{PID: p.Pid, UsedBytes: p.UsedGpuMemory})
	}
	return out
}

func brandString(b nvml.BrandType) string {
	switch b {
	case nvml.BRAND_QUADRO:
		return "Quadro"
	case nvml.BRAND_TESLA:
		return "Tesla"
	case nvml.BRAND_NVS:
		return "NVS"
	case nvml.BRAND_GRID:
		return "GRID"
	case nvml.BRAND_GEFORCE:
		return "GeForce"
	case nvml.BRAND_TITAN:
		return "Titan"
	case nvml.BRAND_QUADRO_RTX:
		return "Quadro RTX"
	case nvml.BRAND_NVIDIA_RTX:
		return "NVIDIA RTX"
	case nvml.BRAND_NVIDIA:
		return "NVIDIA"
	case nvml.BRAND_GEFORCE_RTX:
		return "GeForce RTX"
	case nvml.BRAND_TITAN_RTX:
		return "Titan RTX"
	default:
		return "Unknown"
	}
}
