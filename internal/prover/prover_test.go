package prover

import (
	"math/big"
	"testing"

	"github.com/shieldedcash/zsc-client/internal/curve"
	"github.com/shieldedcash/zsc-client/internal/elgamal"
)

type recordingTransferProver struct {
	gotStmt TransferStatement
	gotWit  TransferWitness
	err     error
}

func (r *recordingTransferProver) Prove(stmt TransferStatement, wit TransferWitness) ([]byte, error) {
	r.gotStmt, r.gotWit = stmt, wit
	if r.err != nil {
		return nil, r.err
	}
	return []byte("transfer-proof"), nil
}

type recordingBurnProver struct {
	gotStmt BurnStatement
	gotWit  BurnWitness
	err     error
}

func (r *recordingBurnProver) Prove(stmt BurnStatement, wit BurnWitness) ([]byte, error) {
	r.gotStmt, r.gotWit = stmt, wit
	if r.err != nil {
		return nil, r.err
	}
	return []byte("burn-proof"), nil
}

func newKeypair(t *testing.T) (*big.Int, *curve.Point) {
	t.Helper()
	x, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("random scalar: %v", err)
	}
	return x, curve.Generator().Mul(x)
}

func TestDecryptRoundTrip(t *testing.T) {
	x, y := newKeypair(t)
	p := New(x, y, nil, nil)

	r, _ := curve.RandomScalar()
	ct := elgamal.Encrypt(y, 42, r)

	got := p.Decrypt(ct)
	want := curve.MulGenerator(curve.ScalarFromInt64(42))
	if !got.Equal(want) {
		t.Fatalf("decrypt mismatch")
	}
}

func TestGenerateTransferProofBuildsCorrectCiphertexts(t *testing.T) {
	x, y := newKeypair(t)
	tp := &recordingTransferProver{}
	p := New(x, y, tp, nil)

	x1, y1 := newKeypair(t)
	_, y2 := newKeypair(t)
	anonSet := []*curve.Point{y, y1, y2, curve.Generator()}

	r, _ := curve.RandomScalar()
	states := make([]*elgamal.Ciphertext, len(anonSet))
	for i := range states {
		states[i] = elgamal.Encrypt(anonSet[i], 0, r)
	}

	randomness, _ := curve.RandomScalar()
	result, err := p.GenerateTransferProof(TransferInput{
		AnonSet:              anonSet,
		AnonSetStates:        states,
		Value:                10,
		SenderIdx:            0,
		ReceiverIdx:          1,
		Randomness:           randomness,
		BalanceAfterTransfer: 90,
		Epoch:                1234,
	})
	if err != nil {
		t.Fatalf("generate transfer proof: %v", err)
	}
	if string(result.Proof) != "transfer-proof" {
		t.Fatalf("unexpected proof bytes")
	}
	if len(result.L) != len(anonSet) {
		t.Fatalf("expected L of length %d, got %d", len(anonSet), len(result.L))
	}
	if !result.R.Equal(curve.MulGenerator(randomness)) {
		t.Fatalf("R mismatch")
	}
	if tp.gotWit.Index != [2]int{0, 1} {
		t.Fatalf("witness index mismatch: %v", tp.gotWit.Index)
	}
	if tp.gotWit.BTransfer != 10 || tp.gotWit.BDiff != 90 {
		t.Fatalf("witness amount mismatch")
	}
	for i := range anonSet {
		if !result.L[i].Equal(tp.gotStmt.C[i].C1) || !tp.gotStmt.C[i].C2.Equal(result.R) {
			t.Fatalf("C[%d] does not match (L[%d], R)", i, i)
		}
	}
	if !elgamal.Decrypt(x, tp.gotStmt.Cn[0]).Equal(curve.MulGenerator(curve.ScalarFromInt64(-10))) {
		t.Fatalf("sender's Cn does not decrypt to g*(-10)")
	}
	if !elgamal.Decrypt(x1, tp.gotStmt.Cn[1]).Equal(curve.MulGenerator(curve.ScalarFromInt64(10))) {
		t.Fatalf("receiver's Cn does not decrypt to g*10")
	}
}

func TestGenerateTransferProofRejectsMismatchedLengths(t *testing.T) {
	x, y := newKeypair(t)
	p := New(x, y, &recordingTransferProver{}, nil)

	if _, err := p.GenerateTransferProof(TransferInput{
		AnonSet:       []*curve.Point{y},
		AnonSetStates: nil,
	}); err == nil {
		t.Fatalf("expected error for mismatched anonSet/anonSetStates length")
	}
}

func TestGenerateTransferProofWrapsProverFailure(t *testing.T) {
	x, y := newKeypair(t)
	tp := &recordingTransferProver{err: errBoom}
	p := New(x, y, tp, nil)

	_, err := p.GenerateTransferProof(TransferInput{
		AnonSet:       []*curve.Point{y},
		AnonSetStates: []*elgamal.Ciphertext{elgamal.Encrypt(y, 0, big.NewInt(1))},
		Randomness:    big.NewInt(1),
	})
	if err == nil {
		t.Fatalf("expected wrapped prover error")
	}
}

func TestGenerateBurnProofAppliesHomomorphicSubtraction(t *testing.T) {
	x, y := newKeypair(t)
	bp := &recordingBurnProver{}
	p := New(x, y, nil, bp)

	r, _ := curve.RandomScalar()
	state := elgamal.Encrypt(y, 100, r)

	result, err := p.GenerateBurnProof(BurnInput{
		BurnAccount:          y,
		BurnAccountState:     state,
		Value:                40,
		BalanceAfterTransfer: 60,
		Epoch:                5,
		Sender:               []byte{0x01, 0x02},
	})
	if err != nil {
		t.Fatalf("generate burn proof: %v", err)
	}
	if string(result.Proof) != "burn-proof" {
		t.Fatalf("unexpected proof bytes")
	}

	wantCn := state.SubScalarOnLeft(40)
	if !bp.gotStmt.Cn.C1.Equal(wantCn.C1) || !bp.gotStmt.Cn.C2.Equal(wantCn.C2) {
		t.Fatalf("burn statement Cn mismatch")
	}
}

func TestGenerateBurnProofRejectsMissingState(t *testing.T) {
	x, y := newKeypair(t)
	p := New(x, y, nil, &recordingBurnProver{})

	if _, err := p.GenerateBurnProof(BurnInput{BurnAccount: y}); err == nil {
		t.Fatalf("expected missing-field error")
	}
}

func TestUTagDiffersByEpoch(t *testing.T) {
	x, _ := newKeypair(t)
	u1 := uTag(x, 1)
	u2 := uTag(x, 2)
	if u1.Equal(u2) {
		t.Fatalf("expected different u-tags for different epochs")
	}
}

var errBoom = &stubError{"boom"}

type stubError struct{ msg string }

func (e *stubError) Error() string { return e.msg }
