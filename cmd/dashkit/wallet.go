package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func walletCmd(c *cli) *cobra.Command {
	var history bool

	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet balance and transactions",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the wallet balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, board, err := c.mount(cmd)
			if err != nil {
				return err
			}
			defer board.Close()

			if err := board.Wallet.Fetch(ctx); err != nil {
				return failed(cmd, err, "load wallet")
			}
			w := board.Wallet.Data()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Balance: %.2f\n", w.Balance)
			fmt.Fprintf(out, "Pending: %.2f\n", w.Pending)
			if !history || len(w.Transactions) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tTYPE\tAMOUNT\tSTATUS")
			for _, t := range w.Transactions {
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", t.CreatedAt.Format("2006-01-02"), t.Type, t.Amount, t.Status)
			}
			return tw.Flush()
		},
	}
	show.Flags().BoolVar(&history, "history", false, "Also list transactions")

	cmd.AddCommand(show)
	return cmd
}
