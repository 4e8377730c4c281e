package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"orderbell/internal/ipc"
)

func newControlCommands(ctx *commandContext) []*cobra.Command {
	var session bool
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the new-orders counter",
		Long: "Clear the new-orders counter and drop alerts queued while the surface was hidden.\n" +
			"With --session the known-order set is forgotten as well and the next poll reseeds it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Reset(session)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Session {
					fmt.Fprintln(out, "Session reset; known orders will be reseeded on the next poll")
				} else {
					fmt.Fprintln(out, "New-orders counter cleared")
				}
				if resp.Dropped > 0 {
					fmt.Fprintf(out, "Dropped %d queued alert(s)\n", resp.Dropped)
				}
				return nil
			})
		},
	}
	resetCmd.Flags().BoolVar(&session, "session", false, "Also forget known orders")

	visibilityCmd := &cobra.Command{
		Use:       "visibility <visible|hidden>",
		Short:     "Report whether the operator surface is visible",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"visible", "hidden"},
		RunE: func(cmd *cobra.Command, args []string) error {
			visible, err := parseVisibility(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Visibility(visible)
				if err != nil {
					return err
				}
				state := "hidden"
				if resp.Visible {
					state = "visible"
				}
				if resp.Changed {
					fmt.Fprintf(cmd.OutOrStdout(), "Surface marked %s\n", state)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Surface already %s\n", state)
				}
				return nil
			})
		},
	}

	testNotifyCmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test alert",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					if resp != nil && resp.Message != "" {
						fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
					}
					return err
				}
				if resp == nil {
					return errors.New("missing notification response")
				}
				switch {
				case resp.Message != "":
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				case resp.Sent:
					fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
				}
				return nil
			})
		},
	}

	return []*cobra.Command{resetCmd, visibilityCmd, testNotifyCmd}
}

func parseVisibility(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "visible", "shown", "on", "true":
		return true, nil
	case "hidden", "off", "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid visibility %q (use visible or hidden)", value)
	}
}

func newAudioCommand(ctx *commandContext) *cobra.Command {
	audioCmd := &cobra.Command{
		Use:   "audio",
		Short: "Bell player utilities",
	}

	audioCmd.AddCommand(&cobra.Command{
		Use:   "preload",
		Short: "Resolve the bell player and verify the sound file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PreloadAudio()
				if err != nil {
					return err
				}
				if resp.Error != "" {
					return fmt.Errorf("audio preload failed: %s", resp.Error)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Audio ready (player: %s)\n", valueOrDash(resp.Player))
				return nil
			})
		},
	})

	audioCmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Play the bell once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AudioTest()
				if err != nil {
					return err
				}
				if resp.Error != "" {
					return fmt.Errorf("audio test failed: %s", resp.Error)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Bell played")
				return nil
			})
		},
	})

	return audioCmd
}
