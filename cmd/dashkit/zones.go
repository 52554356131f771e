package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func zonesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zones",
		Short: "Manage service zones",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List service zones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, board, err := c.mount(cmd)
			if err != nil {
				return err
			}
			defer board.Close()

			if err := board.Zones.Fetch(ctx); err != nil {
				return failed(cmd, err, "load zones")
			}
			zones := board.Zones.Data()
			if len(zones) == 0 {
				info(cmd.OutOrStdout(), "No zones.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCITY\tACTIVE")
			for _, z := range zones {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", z.ID, z.Name, z.City, z.Active)
			}
			return tw.Flush()
		},
	})
	return cmd
}
