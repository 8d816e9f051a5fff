package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"transsrt/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines     int
		follow    bool
		raw       bool
		jobID     string
		component string
		level     string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon log records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if lines < 0 {
				return errors.New("--lines must not be negative")
			}
			level = strings.ToLower(strings.TrimSpace(level))
			switch level {
			case "", "debug", "info", "warn", "error":
			default:
				return fmt.Errorf("invalid --level %q (debug, info, warn, error)", level)
			}

			out := cmd.OutOrStdout()
			opts := logs.TailOptions{
				Lines:  lines,
				Follow: follow,
				Filter: logs.Filter{
					JobID:     strings.TrimSpace(jobID),
					Component: strings.TrimSpace(component),
					MinLevel:  level,
				},
			}
			err = logs.Tail(cmd.Context(), logPath(cfg), opts, func(line string) {
				if !raw {
					line = logs.FormatLine(line)
				}
				fmt.Fprintln(out, line)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of recent lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new records")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the JSON records unformatted")
	cmd.Flags().StringVar(&jobID, "job", "", "Only records for this job ID (prefix)")
	cmd.Flags().StringVar(&component, "component", "", "Only records from this component")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	return cmd
}
