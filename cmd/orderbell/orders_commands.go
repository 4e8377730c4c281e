package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"orderbell/internal/api"
	"orderbell/internal/ipc"
	"orderbell/internal/orders"
)

func newOrdersCommand(ctx *commandContext) *cobra.Command {
	var ongoing bool
	var finished bool
	var jsonOut bool

	ordersCmd := &cobra.Command{
		Use:   "orders",
		Short: "List orders from the last poll",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ongoing && finished {
				return errors.New("--ongoing and --history are mutually exclusive")
			}
			filter := ""
			switch {
			case ongoing:
				filter = "ongoing"
			case finished:
				filter = "history"
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Orders(filter)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				printOrders(cmd.OutOrStdout(), resp.Orders)
				return nil
			})
		},
	}
	ordersCmd.Flags().BoolVar(&ongoing, "ongoing", false, "Only orders still in progress")
	ordersCmd.Flags().BoolVar(&finished, "history", false, "Only delivered or cancelled orders")
	ordersCmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	var setJSON bool
	setStatusCmd := &cobra.Command{
		Use:   "set-status <id> <status>",
		Short: "Update an order's delivery status",
		Long:  "Update an order's delivery status. Valid statuses: " + statusNames() + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			status := strings.TrimSpace(args[1])
			if !knownStatus(status) {
				return fmt.Errorf("unknown status %q (valid: %s)", status, statusNames())
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SetOrderStatus(id, status)
				if err != nil {
					return err
				}
				if setJSON {
					return writeJSON(cmd, resp.Order)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Order %s is now %s\n", resp.Order.ID, resp.Order.StatusLabel)
				return nil
			})
		},
	}
	setStatusCmd.Flags().BoolVar(&setJSON, "json", false, "Output as JSON")
	ordersCmd.AddCommand(setStatusCmd)

	return ordersCmd
}

func statusNames() string {
	names := make([]string, 0, len(orders.Statuses()))
	for _, s := range orders.Statuses() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func knownStatus(value string) bool {
	_, ok := orders.LookupStatus(value)
	return ok
}

func printOrders(out io.Writer, list []api.Order) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No orders")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, o := range list {
		rows = append(rows, []string{
			o.ID,
			o.StatusLabel,
			valueOrDash(o.CustomerName),
			fmt.Sprintf("%d", o.ItemCount),
			o.AmountLabel,
			yesNo(o.Paid),
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"ID", "Status", "Customer", "Items", "Amount", "Paid"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintln(out)
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded alerts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("invalid --limit %d", limit)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Entries) == 0 {
					fmt.Fprintln(out, "No alerts recorded")
					return nil
				}
				rows := make([][]string, 0, len(resp.Entries))
				for _, e := range resp.Entries {
					source := e.Source
					if e.Delayed {
						source += " (delayed)"
					}
					rows = append(rows, []string{valueOrDash(e.CreatedAt), valueOrDash(e.OrderID), e.Message, source})
				}
				fmt.Fprint(out, renderTable([]string{"When", "Order", "Message", "Source"}, rows, nil))
				fmt.Fprintln(out)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newToastsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "toasts",
		Short: "List active alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Toasts()
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Toasts) == 0 {
					fmt.Fprintln(out, "No active alerts")
					return nil
				}
				rows := make([][]string, 0, len(resp.Toasts))
				for _, t := range resp.Toasts {
					rows = append(rows, []string{t.ID, valueOrDash(t.OrderID), t.Message, t.Severity, valueOrDash(t.ExpiresAt)})
				}
				fmt.Fprint(out, renderTable([]string{"ID", "Order", "Message", "Severity", "Expires"}, rows, nil))
				fmt.Fprintln(out)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
