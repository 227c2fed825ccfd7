// Package prover implements the prover/cipher layer of spec §4.3: a
// discriminated union of two proof kinds (TRANSFER, BURN) built on top of
// internal/curve and internal/elgamal, delegating the actual Σ-protocol
// construction to injected external collaborators.
package prover

import (
	"math/big"

	"golang.org/x/crypto/sha3"

	"github.com/shieldedcash/zsc-client/internal/apperrors"
	"github.com/shieldedcash/zsc-client/internal/curve"
	"github.com/shieldedcash/zsc-client/internal/elgamal"
)

// TransferStatement is the public statement a TRANSFER proof attests to.
type TransferStatement struct {
	Cn    []*elgamal.Ciphertext // anonSetStates[i] + C[i]
	C     []*elgamal.Ciphertext
	Y     []*curve.Point // the anonymity set
	Epoch int64
}

// TransferWitness is the private witness backing a TRANSFER proof.
type TransferWitness struct {
	SK        *big.Int
	R         *big.Int
	BTransfer int64
	BDiff     int64
	Index     [2]int // [senderIdx, receiverIdx]
}

// BurnStatement is the public statement a BURN proof attests to.
type BurnStatement struct {
	Cn     *elgamal.Ciphertext
	Y      *curve.Point
	Sender []byte
	Epoch  int64
}

// BurnWitness is the private witness backing a BURN proof.
type BurnWitness struct {
	SK    *big.Int
	BDiff int64
}

// TransferProver is the external Σ-protocol/range-proof collaborator for
// TRANSFER proofs (spec §1: "taken as a library collaborator and not
// re-specified here").
type TransferProver interface {
	Prove(stmt TransferStatement, wit TransferWitness) ([]byte, error)
}

// BurnProver is the external collaborator for BURN proofs.
type BurnProver interface {
	Prove(stmt BurnStatement, wit BurnWitness) ([]byte, error)
}

// TransferResult is what GenerateTransferProof returns: the proof bytes plus
// the L/R/u values the submission coordinator needs to build the on-chain
// call (spec §4.3).
type TransferResult struct {
	Proof []byte
	L     []*curve.Point // left(C_i) for each i
	R     *curve.Point
	U     *curve.Point
}

// BurnResult is what GenerateBurnProof returns.
type BurnResult struct {
	Proof []byte
	U     *curve.Point
}

// Prover owns a loaded shielded key (x, y) and delegates proof construction
// to the injected TransferProver/BurnProver collaborators.
type Prover struct {
	x        *big.Int
	y        *curve.Point
	transfer TransferProver
	burn     BurnProver
}

// New constructs a Prover for the given shielded keypair.
func New(x *big.Int, y *curve.Point, transfer TransferProver, burn BurnProver) *Prover {
	return &Prover{x: x, y: y, transfer: transfer, burn: burn}
}

// Decrypt recovers g·b from an ElGamal ciphertext under the prover's key
// (spec §4.3 decrypt). Deserialisation failures and missing fields are the
// caller's responsibility (they operate on already-parsed ciphertexts here);
// DecryptSerialized handles the wire form.
func (p *Prover) Decrypt(ct *elgamal.Ciphertext) *curve.Point {
	return elgamal.Decrypt(p.x, ct)
}

// DecryptSerialized parses the wire-form ciphertext {c1, c2} and decrypts it,
// surfacing deserialisation failures as crypto-failure errors (spec §4.3).
func (p *Prover) DecryptSerialized(c1, c2 *[2]string) (*curve.Point, error) {
	if c1 == nil || c2 == nil {
		return nil, apperrors.InvalidInput("missing-field", "c1 and c2 are required")
	}
	ct, err := elgamal.Deserialize([2][2]string{*c1, *c2})
	if err != nil {
		return nil, apperrors.CryptoFailure("deserialization-error", "parse ciphertext", err)
	}
	return p.Decrypt(ct), nil
}

// uTag computes H(epoch)·x, the nullifier-like per-epoch tag of spec §3/§4.3.
func uTag(x *big.Int, epoch int64) *curve.Point {
	h := sha3.NewLegacyKeccak256()
	epochBytes := big.NewInt(epoch).Bytes()
	h.Write(epochBytes)
	scalar := curve.ReduceScalar(new(big.Int).SetBytes(h.Sum(nil)))
	return curve.MulGenerator(scalar).Mul(x)
}

// TransferInput is the argument record for GenerateTransferProof (spec
// §4.3 TRANSFER; a typed replacement for the source's {type,args} map per
// the redesign note).
type TransferInput struct {
	AnonSet              []*curve.Point
	AnonSetStates        []*elgamal.Ciphertext
	Value                int64
	SenderIdx            int
	ReceiverIdx          int
	Randomness           *big.Int
	BalanceAfterTransfer int64
	Epoch                int64
}

// GenerateTransferProof builds the TRANSFER statement/witness, delegates to
// the injected TransferProver, and returns the proof plus L/R/u (spec
// §4.3 TRANSFER).
func (p *Prover) GenerateTransferProof(in TransferInput) (*TransferResult, error) {
	if p.transfer == nil {
		return nil, apperrors.Internal("unknown-proof-type", "no TRANSFER prover configured", nil)
	}
	n := len(in.AnonSet)
	if n == 0 || n != len(in.AnonSetStates) {
		return nil, apperrors.InvalidInput("invalid-anonymity-set", "anonSet and anonSetStates length mismatch")
	}

	R := curve.MulGenerator(in.Randomness)
	C := make([]*elgamal.Ciphertext, n)
	Cn := make([]*elgamal.Ciphertext, n)
	L := make([]*curve.Point, n)

	for i := 0; i < n; i++ {
		amount := int64(0)
		switch i {
		case in.ReceiverIdx:
			amount = in.Value
		case in.SenderIdx:
			amount = -in.Value
		}
		left := curve.MulGenerator(curve.ScalarFromInt64(amount)).Add(in.AnonSet[i].Mul(in.Randomness))
		C[i] = &elgamal.Ciphertext{C1: left, C2: R}
		Cn[i] = in.AnonSetStates[i].Add(C[i])
		L[i] = left
	}

	stmt := TransferStatement{Cn: Cn, C: C, Y: in.AnonSet, Epoch: in.Epoch}
	wit := TransferWitness{
		SK:        p.x,
		R:         in.Randomness,
		BTransfer: in.Value,
		BDiff:     in.BalanceAfterTransfer,
		Index:     [2]int{in.SenderIdx, in.ReceiverIdx},
	}

	proof, err := p.transfer.Prove(stmt, wit)
	if err != nil {
		return nil, apperrors.CryptoFailure("proof-generation-failed", "transfer prover", err)
	}

	return &TransferResult{
		Proof: proof,
		L:     L,
		R:     R,
		U:     uTag(p.x, in.Epoch),
	}, nil
}

// BurnInput is the argument record for GenerateBurnProof (spec §4.3 BURN).
type BurnInput struct {
	BurnAccount          *curve.Point
	BurnAccountState     *elgamal.Ciphertext
	Value                int64
	BalanceAfterTransfer int64
	Epoch                int64
	Sender               []byte
}

// GenerateBurnProof builds the BURN statement/witness, delegates to the
// injected BurnProver, and returns the proof plus u (spec §4.3 BURN).
func (p *Prover) GenerateBurnProof(in BurnInput) (*BurnResult, error) {
	if p.burn == nil {
		return nil, apperrors.Internal("unknown-proof-type", "no BURN prover configured", nil)
	}
	if in.BurnAccountState == nil || in.BurnAccount == nil {
		return nil, apperrors.InvalidInput("missing-field", "burnAccount and burnAccountState are required")
	}

	Cn := in.BurnAccountState.SubScalarOnLeft(in.Value)

	stmt := BurnStatement{Cn: Cn, Y: in.BurnAccount, Sender: in.Sender, Epoch: in.Epoch}
	wit := BurnWitness{SK: p.x, BDiff: in.BalanceAfterTransfer}

	proof, err := p.burn.Prove(stmt, wit)
	if err != nil {
		return nil, apperrors.CryptoFailure("proof-generation-failed", "burn prover", err)
	}

	return &BurnResult{Proof: proof, U: uTag(p.x, in.Epoch)}, nil
}
