package cliapp

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Read a shielded account's decrypted balance",
	Long: `Reads the shielded account's encrypted state off-chain via
simulateAccounts, decrypts it with the local key, and recovers the integer
balance through the discrete-log-bounded balance cache.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		yx, _ := cmd.Flags().GetString("y-x")
		yy, _ := cmd.Flags().GetString("y-y")
		if yx == "" || yy == "" {
			return fmt.Errorf("--y-x and --y-y are required")
		}

		o, err := buildOrchestrator(context.Background())
		if err != nil {
			return err
		}

		balance, err := o.Balance(context.Background(), [2]string{yx, yy})
		if err != nil {
			return fmt.Errorf("balance: %w", err)
		}
		fmt.Printf("balance: %d\n", balance)
		return nil
	},
}

func init() {
	balanceCmd.Flags().String("y-x", "", "shielded public key x-coordinate (required)")
	balanceCmd.Flags().String("y-y", "", "shielded public key y-coordinate (required)")
	balanceCmd.MarkFlagRequired("y-x")
	balanceCmd.MarkFlagRequired("y-y")
	rootCmd.AddCommand(balanceCmd)
}
