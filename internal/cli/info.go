package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gpuwatch/internal/config"
)

func NewInfoCmd(cfg *config.Config, samplers samplerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print static GPU identity fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			sampler, err := samplers(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = sampler.Close() }()

			info, err := sampler.Info(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-16s: %s\n", "Brand", info.Brand)
			fmt.Fprintf(out, "%-16s: %s\n", "Name", info.Name)
			fmt.Fprintf(out, "%-16s: %d (watts)\n", "Power Limit", info.PowerLimitMilliwatts/1000)
			fmt.Fprintf(out, "%-16s: %d (MiB)\n", "Total GPU Memory", info.MemoryTotalBytes/(1024*1024))
			return nil
		},
	}
}
