package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/cognitive-core/config"
	"github.com/angeloszaimis/cognitive-core/pkg/logger"
)

func newDomainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "domains",
		Short: "List registered domain processors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFlag)
			if err != nil {
				return err
			}
			log := logger.New(config.LogLevelError, false, cfg.Server.Environment)

			reg, err := buildRegistry(nil, log)
			if err != nil {
				return err
			}
			reg.HealthCheckAll(cmd.Context())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tPRIORITY\tHEALTH\tENABLED")
			for _, name := range reg.ListByPriority(false) {
				rec := reg.GetRecord(name)
				if rec == nil {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%t\n",
					name, rec.Version, rec.Priority, rec.Health, rec.Enabled)
			}
			return w.Flush()
		},
	}
}
