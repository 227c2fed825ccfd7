// Package cliapp wires internal/trade's five operations up as a cobra CLI,
// the demo surface spec §1/§6 explicitly leave out of the core (kept the way
// the teacher keeps cmd/skms as a thin shell over internal/wallet).
package cliapp

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shieldedcash/zsc-client/internal/chain"
	"github.com/shieldedcash/zsc-client/internal/config"
	"github.com/shieldedcash/zsc-client/internal/hdwallet"
	"github.com/shieldedcash/zsc-client/internal/keystore"
	"github.com/shieldedcash/zsc-client/internal/signer"
	"github.com/shieldedcash/zsc-client/internal/trade"
)

var (
	cfgFile  string
	version  = "0.1.0"
	seedFile string
)

var rootCmd = &cobra.Command{
	Use:   "zsc-client",
	Short: "Client for an anonymous confidential-payments protocol over CASH/ZSC",
	Long: `zsc-client drives register, fund, balance, transfer and withdraw
against a CASH/ZSC deployment: a BIP-32/39/44 HD wallet, an scrypt-protected
keystore and an epoch-aware submission coordinator, fronted by this CLI for
demonstration purposes only.`,
	Version: version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.zsc-client.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&seedFile, "seed-file", "", "optional balance-cache CSV seed file")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".zsc-client")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// buildOrchestrator wires every collaborator from environment configuration
// (spec §6), the way each demo command needs a live Orchestrator. Dialing
// the chain and loading the keystore/wallet happen fresh per invocation:
// this CLI is a one-shot demo, not a long-lived daemon.
func buildOrchestrator(ctx context.Context) (*trade.Orchestrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := log.New(os.Stderr, "zsc-client: ", log.LstdFlags)

	ks, err := keystore.New(cfg.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open keystore: %w", err)
	}
	wallet, err := hdwallet.Init(cfg.DataDir, hdwallet.OneTimeSignersWallet)
	if err != nil {
		return nil, fmt.Errorf("init hd wallet: %w", err)
	}
	keysDB, err := hdwallet.OpenKeysDB(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open keys db: %w", err)
	}

	signerMgr, err := signer.New(cfg.ChainID, cfg.AdminSigner, cfg.AuthoritySigner)
	if err != nil {
		return nil, fmt.Errorf("init signer manager: %w", err)
	}

	client, err := chain.Dial(ctx, cfg.ETHURL)
	if err != nil {
		return nil, fmt.Errorf("dial eth client: %w", err)
	}

	return trade.New(cfg, ks, wallet, keysDB, signerMgr, client,
		unwiredProver{}, unwiredBurnProver{},
		trade.SeedOptions{FilePath: seedFile}, logger)
}
