package cliapp

import (
	"github.com/shieldedcash/zsc-client/internal/apperrors"
	"github.com/shieldedcash/zsc-client/internal/prover"
)

// unwiredProver stands in for the Σ-protocol/range-proof collaborator the
// core treats as external (spec §1). It lets register/fund/balance work
// against a real chain while transfer/withdraw fail loudly instead of
// silently emitting an empty proof, until a real TransferProver/BurnProver
// is wired in.
type unwiredProver struct{}

func (unwiredProver) Prove(prover.TransferStatement, prover.TransferWitness) ([]byte, error) {
	return nil, apperrors.Internal("proof-generation-failed", "no TRANSFER prover is configured for this CLI", nil)
}

type unwiredBurnProver struct{}

func (unwiredBurnProver) Prove(prover.BurnStatement, prover.BurnWitness) ([]byte, error) {
	return nil, apperrors.Internal("proof-generation-failed", "no BURN prover is configured for this CLI", nil)
}
