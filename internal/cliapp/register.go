package cliapp

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a shielded account for an Ethereum address",
	Long: `Builds a Schnorr-style proof of knowledge of the shielded account's
private key and submits ZSC.register on behalf of the given Ethereum address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ethAddr, _ := cmd.Flags().GetString("eth-address")
		name, _ := cmd.Flags().GetString("name")
		if ethAddr == "" {
			return fmt.Errorf("--eth-address is required")
		}

		o, err := buildOrchestrator(context.Background())
		if err != nil {
			return err
		}

		if err := o.Register(context.Background(), ethAddr, name); err != nil {
			return fmt.Errorf("register: %w", err)
		}
		fmt.Printf("registered shielded account for %s\n", ethAddr)
		return nil
	},
}

func init() {
	registerCmd.Flags().String("eth-address", "", "Ethereum address to register (required)")
	registerCmd.Flags().String("name", "", "Human-readable name to bind to the registration")
	registerCmd.MarkFlagRequired("eth-address")
	rootCmd.AddCommand(registerCmd)
}
