package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "0.1.0"

var cfgFlag string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cognitive-core",
		Short: "Adaptive multi-domain input processing service",
		Long: `cognitive-core routes text, audio, and event inputs to specialized
domain processors, scores candidates by capability and priority, and
learns repair outcomes across runs.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgFlag, "config", "", "path to the config file")

	root.AddCommand(
		newServeCmd(),
		newProcessCmd(),
		newDomainsCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
