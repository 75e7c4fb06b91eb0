package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// DeviceIndex selects which GPU to monitor.
	DeviceIndex int

	// Interval between refreshes in watch mode.
	Interval time.Duration

	// Sampler selects the telemetry backend: "nvml" (default) or "smi".
	Sampler string

	// SMIPath overrides the nvidia-smi binary location for the smi backend.
	SMIPath string
}

// FromEnv builds the default configuration from environment variables.
// Command-line flags layer on top of these defaults.
func FromEnv() Config {
	return Config{
		DeviceIndex: envInt("GPUWATCH_DEVICE_INDEX", 0),
		Interval:    time.Duration(envInt("GPUWATCH_INTERVAL_SECONDS", 1)) * time.Second,
		Sampler:     envString("GPUWATCH_SAMPLER", "nvml"),
		SMIPath:     os.Getenv("GPUWATCH_SMI_PATH"),
	}
}

func envString(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
