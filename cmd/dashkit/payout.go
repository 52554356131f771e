package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/dashkit/pkg/dashboard"
)

func payoutCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payout",
		Short: "Bank details and withdrawals",
	}
	cmd.AddCommand(addBeneficiaryCmd(c), payoutRequestCmd(c))
	return cmd
}

func addBeneficiaryCmd(c *cli) *cobra.Command {
	var in dashboard.BeneficiaryInput

	cmd := &cobra.Command{
		Use:   "add-beneficiary",
		Short: "Register the bank account payouts are sent to",
		Example: `  dashkit payout add-beneficiary --user p1 \
    --account 123456789 --ifsc ABC0001 --bank "Acme Bank" --branch Main`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, board, err := c.mount(cmd)
			if err != nil {
				return err
			}
			defer board.Close()

			in.UserID = board.Identity().UserID
			data, err := board.Payout.AddBeneficiary(ctx, in)
			if err != nil {
				return failed(cmd, err, "add beneficiary")
			}
			success(cmd.OutOrStdout(), "Beneficiary added")
			if b := data.SavedBankDetails; b != nil {
				info(cmd.OutOrStdout(), "%s, %s (%s)", b.BankName, b.BranchName, b.IFSC)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.AccountNumber, "account", "", "Account number")
	f.StringVar(&in.IFSC, "ifsc", "", "IFSC code")
	f.StringVar(&in.BankName, "bank", "", "Bank name")
	f.StringVar(&in.BranchName, "branch", "", "Branch name")
	return cmd
}

func payoutRequestCmd(c *cli) *cobra.Command {
	var amount float64

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Withdraw from the wallet to the registered account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, board, err := c.mount(cmd)
			if err != nil {
				return err
			}
			defer board.Close()

			// The balance check needs the wallet and bank details.
			if err := board.Wallet.Fetch(ctx); err != nil {
				return failed(cmd, err, "load wallet")
			}
			if err := board.Payout.Fetch(ctx); err != nil {
				return failed(cmd, err, "load payout")
			}
			if err := board.Payout.RequestPayout(ctx, amount); err != nil {
				return failed(cmd, err, "request payout")
			}
			success(cmd.OutOrStdout(), "Payout of %.2f requested", amount)
			info(cmd.OutOrStdout(), "Balance: %.2f", board.Wallet.Data().Balance)
			return nil
		},
	}
	cmd.Flags().Float64Var(&amount, "amount", 0, "Amount to withdraw")
	return cmd
}
