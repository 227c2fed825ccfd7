package cliapp

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw CASH out of a shielded account",
	Long: `Checks the shielded account's balance, builds a BURN proof over a
single-element anonymity set, and submits ZSC.burn signed by eth-address's
own key (prevents front-running without requiring a prior register).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ethAddr, _ := cmd.Flags().GetString("eth-address")
		ethKey, _ := cmd.Flags().GetString("eth-private-key")
		amount, _ := cmd.Flags().GetInt64("amount")
		if ethAddr == "" {
			return fmt.Errorf("--eth-address is required")
		}
		if ethKey == "" {
			return fmt.Errorf("--eth-private-key is required")
		}
		if amount <= 0 {
			return fmt.Errorf("--amount must be positive")
		}

		o, err := buildOrchestrator(context.Background())
		if err != nil {
			return err
		}

		if err := o.Withdraw(context.Background(), ethAddr, ethKey, amount); err != nil {
			return fmt.Errorf("withdraw: %w", err)
		}
		fmt.Printf("withdrew %d from the shielded account for %s\n", amount, ethAddr)
		return nil
	},
}

func init() {
	withdrawCmd.Flags().String("eth-address", "", "Ethereum address to withdraw from (required)")
	withdrawCmd.Flags().String("eth-private-key", "", "private key for eth-address, used to sign the burn (required)")
	withdrawCmd.Flags().Int64("amount", 0, "amount to withdraw (required)")
	withdrawCmd.MarkFlagRequired("eth-address")
	withdrawCmd.MarkFlagRequired("eth-private-key")
	withdrawCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(withdrawCmd)
}
