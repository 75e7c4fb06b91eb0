package cli

import (
	"github.com/spf13/cobra"

	"gpuwatch/internal/config"
	"gpuwatch/internal/monitor"
	"gpuwatch/internal/procname"
)

func NewQueryCmd(cfg *config.Config, samplers samplerFactory) *cobra.Command {
	var watch bool

	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Print a GPU telemetry snapshot",
		Long:  "Print GPU utilization, memory usage, and per-process GPU memory once, or refresh every interval with --watch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sampler, err := samplers(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = sampler.Close() }()

			resolver := procname.NewResolver()
			mon := monitor.New(monitor.Options{
				Sampler:  sampler,
				Resolve:  resolver.Name,
				Out:      cmd.OutOrStdout(),
				Interval: cfg.Interval,
			})

			if watch {
				return mon.Watch(cmd.Context())
			}
			return mon.Once(cmd.Context())
		},
	}

	queryCmd.Flags().BoolVarP(&watch, "watch", "w", false, "refresh the snapshot every interval until interrupted")
	queryCmd.Flags().DurationVar(&cfg.Interval, "interval", cfg.Interval, "refresh interval in watch mode")

	return queryCmd
}
