// Package config loads the core's environment-variable configuration (spec
// §6) via viper, the way the teacher's CLI loads config with
// viper.AutomaticEnv plus a defaulted config file search path.
package config

import (
	"math/big"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/shieldedcash/zsc-client/internal/apperrors"
)

// Consensus identifies the multiplier constant CONSENSUS selects (spec §6,
// §9: "leave exposed but do not rely on it in the core math").
type Consensus string

const (
	ConsensusQBFT Consensus = "qbft"
	ConsensusRaft Consensus = "raft"

	multiplierQBFT = 1
	multiplierRaft = 1_000_000_000

	defaultEpochLengthSeconds = 6
)

// Config is every value spec §6 names.
type Config struct {
	DataDir        string
	ERC20Address   string
	ZSCAddress     string
	ChainID        *big.Int
	AdminSigner    string
	AuthoritySigner string
	ETHURL         string
	EpochLength    int64
	Consensus      Consensus
}

// Load reads §6's environment variables through viper.AutomaticEnv,
// applying the spec's defaults (DATA_DIR=$HOME/zether,
// ZSC_EPOCH_LENGTH=6).
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	v.SetDefault("DATA_DIR", filepath.Join(home, "zether"))
	v.SetDefault("ZSC_EPOCH_LENGTH", defaultEpochLengthSeconds)
	v.SetDefault("CONSENSUS", string(ConsensusQBFT))

	chainIDStr := v.GetString("CHAIN_ID")
	chainID, ok := new(big.Int).SetString(chainIDStr, 10)
	if !ok {
		return nil, apperrors.InvalidInput("missing-parameter", "CHAIN_ID must be a decimal integer")
	}

	return &Config{
		DataDir:         v.GetString("DATA_DIR"),
		ERC20Address:    v.GetString("ERC20_ADDRESS"),
		ZSCAddress:      v.GetString("ZSC_ADDRESS"),
		ChainID:         chainID,
		AdminSigner:     v.GetString("ADMIN_SIGNER"),
		AuthoritySigner: v.GetString("AUTHORITY_SIGNER"),
		ETHURL:          v.GetString("ETH_URL"),
		EpochLength:     v.GetInt64("ZSC_EPOCH_LENGTH"),
		Consensus:       Consensus(v.GetString("CONSENSUS")),
	}, nil
}

// Multiplier returns the protocol-multiplier constant CONSENSUS selects.
// Spec §9: exposed for completeness, not consumed by the core's math.
func (c *Config) Multiplier() int64 {
	if c.Consensus == ConsensusRaft {
		return multiplierRaft
	}
	return multiplierQBFT
}
