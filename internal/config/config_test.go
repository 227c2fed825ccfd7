package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, existed := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if existed {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoadAppliesDefaults(t *testing.T) {
	setEnv(t, "CHAIN_ID", "1337")
	os.Unsetenv("ZSC_EPOCH_LENGTH")
	os.Unsetenv("CONSENSUS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EpochLength != defaultEpochLengthSeconds {
		t.Fatalf("expected default epoch length %d, got %d", defaultEpochLengthSeconds, cfg.EpochLength)
	}
	if cfg.Consensus != ConsensusQBFT {
		t.Fatalf("expected default consensus qbft, got %s", cfg.Consensus)
	}
	if cfg.Multiplier() != multiplierQBFT {
		t.Fatalf("expected qbft multiplier")
	}
}

func TestLoadRejectsMissingChainID(t *testing.T) {
	os.Unsetenv("CHAIN_ID")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing CHAIN_ID")
	}
}

func TestMultiplierSwitchesOnConsensus(t *testing.T) {
	setEnv(t, "CHAIN_ID", "1")
	setEnv(t, "CONSENSUS", "raft")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Multiplier() != multiplierRaft {
		t.Fatalf("expected raft multiplier")
	}
}
