package cliapp

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var fundCmd = &cobra.Command{
	Use:   "fund",
	Short: "Move CASH into a registered shielded account",
	Long: `Approves the ZSC contract on CASH for the given amount, then calls
ZSC.fund to move it into the shielded account registered for eth-address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ethAddr, _ := cmd.Flags().GetString("eth-address")
		amount, _ := cmd.Flags().GetInt64("amount")
		if ethAddr == "" {
			return fmt.Errorf("--eth-address is required")
		}
		if amount <= 0 {
			return fmt.Errorf("--amount must be positive")
		}

		o, err := buildOrchestrator(context.Background())
		if err != nil {
			return err
		}

		if err := o.Fund(context.Background(), ethAddr, amount); err != nil {
			return fmt.Errorf("fund: %w", err)
		}
		fmt.Printf("funded %d into the shielded account for %s\n", amount, ethAddr)
		return nil
	},
}

func init() {
	fundCmd.Flags().String("eth-address", "", "Ethereum address whose shielded account receives the funds (required)")
	fundCmd.Flags().Int64("amount", 0, "amount to move into the shielded account (required)")
	fundCmd.MarkFlagRequired("eth-address")
	fundCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(fundCmd)
}
