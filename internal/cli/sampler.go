package cli

import (
	"context"
	"fmt"
	"strings"

	"gpuwatch/internal/config"
	nvmlwrap "gpuwatch/internal/nvml"
	"gpuwatch/internal/sampling"
	"gpuwatch/internal/smi"
)

// samplerFactory builds an initialized telemetry backend. Commands take one
// so tests can inject a fake sampler.
type samplerFactory func(ctx context.Context, cfg *config.Config) (sampling.Sampler, error)

// newSampler selects and initializes the telemetry backend. Any failure here is
// an initialization failure and aborts the command with a non-zero exit.
func newSampler(ctx context.Context, cfg *config.Config) (sampling.Sampler, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Sampler)) {
	case "smi", "nvidia-smi", "nvidiasmi":
		sampler := smi.New(cfg.SMIPath, cfg.DeviceIndex)
		if err := sampler.Init(ctx); err != nil {
			return nil, err
		}
		return sampler, nil
	case "", "nvml":
		client := nvmlwrap.New(cfg.DeviceIndex)
		if err := client.Init(); err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown sampler %q", cfg.Sampler)
	}
}
