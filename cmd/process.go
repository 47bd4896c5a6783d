package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/cognitive-core/config"
	"github.com/angeloszaimis/cognitive-core/internal/core"
	"github.com/angeloszaimis/cognitive-core/internal/engine"
	"github.com/angeloszaimis/cognitive-core/pkg/logger"
)

func newProcessCmd() *cobra.Command {
	process := &cobra.Command{
		Use:   "process",
		Short: "Process a single input and print the response",
	}

	process.AddCommand(newProcessTextCmd(), newProcessEventCmd())
	return process
}

func newProcessTextCmd() *cobra.Command {
	var source string

	text := &cobra.Command{
		Use:   "text [input]",
		Short: "Process a text input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneShot(cmd, func(ctx context.Context, eng *engine.Engine) (*core.Response, error) {
				return eng.ProcessText(ctx, args[0], source, nil)
			})
		},
	}

	text.Flags().StringVar(&source, "source", "cli", "origin recorded on the input")
	return text
}

func newProcessEventCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "event [type] [payload-json]",
		Short: "Process a structured event",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &payload); err != nil {
					return fmt.Errorf("parsing payload: %w", err)
				}
			}
			return runOneShot(cmd, func(ctx context.Context, eng *engine.Engine) (*core.Response, error) {
				return eng.ProcessEvent(ctx, args[0], payload, nil)
			})
		},
	}
}

// runOneShot builds the processing core, runs a single input through
// it, and prints the response as indented JSON. Logging is clamped to
// errors so stdout stays parseable.
func runOneShot(cmd *cobra.Command, run func(context.Context, *engine.Engine) (*core.Response, error)) error {
	cfg, err := config.Load(cfgFlag)
	if err != nil {
		return err
	}
	log := logger.New(config.LogLevelError, false, cfg.Server.Environment)

	app, err := buildApp(cfg, log, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	resp, err := run(cmd.Context(), app.engine)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
