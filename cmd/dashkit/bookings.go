package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func bookingsCmd(c *cli) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Customer bookings",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List bookings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, board, err := c.mount(cmd)
			if err != nil {
				return err
			}
			defer board.Close()

			if err := board.Bookings.Fetch(ctx); err != nil {
				return failed(cmd, err, "load bookings")
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSERVICE\tWHEN\tSTATUS\tAMOUNT")
			for _, b := range board.Bookings.Data() {
				if status != "" && b.Status != status {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\n", b.ID, b.ServiceName, b.ScheduledAt.Format("2006-01-02 15:04"), b.Status, b.Amount)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&status, "status", "", "Only bookings with this status")

	update := &cobra.Command{
		Use:   "set-status ID STATUS",
		Short: "Move a booking to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, board, err := c.mount(cmd)
			if err != nil {
				return err
			}
			defer board.Close()

			if err := board.Bookings.Fetch(ctx); err != nil {
				return failed(cmd, err, "load bookings")
			}
			if err := board.Bookings.UpdateStatus(ctx, args[0], args[1]); err != nil {
				return failed(cmd, err, "update booking")
			}
			success(cmd.OutOrStdout(), "Booking %s is %s", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(list, update)
	return cmd
}
