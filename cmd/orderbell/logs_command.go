package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"orderbell/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var orderID string
	var eventType string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if lines < 0 {
				return fmt.Errorf("invalid --lines %d", lines)
			}
			path := logs.CurrentLogPath(cfg.Paths.LogDir)
			match := logs.All(logs.MatchOrder(orderID), logs.MatchEvent(eventType))
			out := cmd.OutOrStdout()

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines, Match: match})
			if err != nil {
				return err
			}
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			offset := result.Offset
			for {
				next, err := logs.Tail(cmd.Context(), path, logs.TailOptions{
					Offset: offset,
					Follow: true,
					Wait:   5 * time.Second,
					Match:  match,
				})
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				for _, line := range next.Lines {
					fmt.Fprintln(out, line)
				}
				offset = next.Offset
			}
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&orderID, "order", "", "Only lines for this order id")
	cmd.Flags().StringVar(&eventType, "event", "", "Only lines with this event_type")
	return cmd
}
