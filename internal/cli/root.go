// Package cli wires the cobra command tree.
package cli

import (
	"github.com/spf13/cobra"

	"gpuwatch/internal/config"
)

func NewRootCmd(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gpuwatch",
		Short:         "Monitor NVIDIA GPU utilization, memory, and processes",
		SilenceErrors: true,
		SilenceUsage:  true,
		// Invoking the bare binary is a no-op.
		Run: func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().IntVar(&cfg.DeviceIndex, "device", cfg.DeviceIndex, "GPU device index to monitor")
	rootCmd.PersistentFlags().StringVar(&cfg.Sampler, "sampler", cfg.Sampler, "telemetry backend: nvml or smi")

	rootCmd.AddCommand(NewQueryCmd(cfg, newSampler))
	rootCmd.AddCommand(NewInfoCmd(cfg, newSampler))

	return rootCmd
}
