package cliapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shieldedcash/zsc-client/internal/curve"
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Send a confidential transfer inside a shuffled anonymity set",
	Long: `Shuffles the sender, receiver and any decoy public keys into an
anonymity set, epoch-gates the submission, checks the sender's balance, and
submits a TRANSFER proof signed by a freshly minted one-time address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fromX, _ := cmd.Flags().GetString("from-x")
		fromY, _ := cmd.Flags().GetString("from-y")
		toX, _ := cmd.Flags().GetString("to-x")
		toY, _ := cmd.Flags().GetString("to-y")
		value, _ := cmd.Flags().GetInt64("value")
		decoyFlags, _ := cmd.Flags().GetStringArray("decoy")

		if fromX == "" || fromY == "" || toX == "" || toY == "" {
			return fmt.Errorf("--from-x, --from-y, --to-x and --to-y are required")
		}
		if value <= 0 {
			return fmt.Errorf("--value must be positive")
		}

		decoys := make([]*curve.Point, 0, len(decoyFlags))
		for _, d := range decoyFlags {
			parts := strings.SplitN(d, ",", 2)
			if len(parts) != 2 {
				return fmt.Errorf("--decoy must be of the form x,y, got %q", d)
			}
			p, err := curve.Deserialize([2]string{parts[0], parts[1]})
			if err != nil {
				return fmt.Errorf("parse decoy %q: %w", d, err)
			}
			decoys = append(decoys, p)
		}

		o, err := buildOrchestrator(context.Background())
		if err != nil {
			return err
		}

		if err := o.Transfer(context.Background(), [2]string{fromX, fromY}, [2]string{toX, toY}, value, decoys); err != nil {
			return fmt.Errorf("transfer: %w", err)
		}
		fmt.Printf("transfer of %d submitted\n", value)
		return nil
	},
}

func init() {
	transferCmd.Flags().String("from-x", "", "sender shielded public key x-coordinate (required)")
	transferCmd.Flags().String("from-y", "", "sender shielded public key y-coordinate (required)")
	transferCmd.Flags().String("to-x", "", "receiver shielded public key x-coordinate (required)")
	transferCmd.Flags().String("to-y", "", "receiver shielded public key y-coordinate (required)")
	transferCmd.Flags().Int64("value", 0, "amount to transfer (required)")
	transferCmd.Flags().StringArray("decoy", nil, "decoy public key as x,y; repeatable")

	transferCmd.MarkFlagRequired("from-x")
	transferCmd.MarkFlagRequired("from-y")
	transferCmd.MarkFlagRequired("to-x")
	transferCmd.MarkFlagRequired("to-y")
	transferCmd.MarkFlagRequired("value")
	rootCmd.AddCommand(transferCmd)
}
