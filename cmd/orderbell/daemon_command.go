package main

import (
	"github.com/spf13/cobra"

	"orderbell/internal/daemonrun"
)

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var development bool
	cmd := &cobra.Command{
		Use:          "daemon",
		Short:        "Run the orderbell daemon in the foreground",
		Annotations:  map[string]string{"skipConfigLoad": "true"},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    ctx.resolvedLogLevel(cfg),
				Development: development,
			})
		},
	}
	cmd.Flags().BoolVar(&development, "development", false, "Include source locations in log records")
	return cmd
}
