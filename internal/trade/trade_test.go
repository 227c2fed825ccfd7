package trade

import (
	"context"
	"log"
	"math/big"
	"testing"

	ethgo "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/shieldedcash/zsc-client/internal/config"
	"github.com/shieldedcash/zsc-client/internal/curve"
	"github.com/shieldedcash/zsc-client/internal/elgamal"
	"github.com/shieldedcash/zsc-client/internal/hdwallet"
	"github.com/shieldedcash/zsc-client/internal/keystore"
	"github.com/shieldedcash/zsc-client/internal/signer"
)

const testAdminKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

type fakeChainClient struct {
	nonce      uint64
	callOut    []byte
	callErr    error
	callFunc   func(ctx context.Context, msg ethgo.CallMsg) ([]byte, error)
	receipt    *types.Receipt
	sendCalled bool
}

func (f *fakeChainClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeChainClient) CallContract(ctx context.Context, msg ethgo.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if f.callFunc != nil {
		return f.callFunc(ctx, msg)
	}
	return f.callOut, f.callErr
}

func (f *fakeChainClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.sendCalled = true
	return nil
}

func (f *fakeChainClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if f.receipt == nil {
		return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
	}
	return f.receipt, nil
}

type harness struct {
	o      *Orchestrator
	ks     *keystore.KeyStore
	client *fakeChainClient
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	ks, err := keystore.New(dir, nil)
	if err != nil {
		t.Fatalf("new keystore: %v", err)
	}
	wallet, err := hdwallet.Init(dir, hdwallet.OneTimeSignersWallet)
	if err != nil {
		t.Fatalf("init wallet: %v", err)
	}
	keysDB, err := hdwallet.OpenKeysDB(dir)
	if err != nil {
		t.Fatalf("open keysdb: %v", err)
	}
	signerMgr, err := signer.New(big.NewInt(1337), testAdminKeyHex, testAdminKeyHex)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	cfg := &config.Config{
		DataDir:      dir,
		ERC20Address: "0x0000000000000000000000000000000000aaaa",
		ZSCAddress:   "0x0000000000000000000000000000000000bbbb",
		ChainID:      big.NewInt(1337),
		EpochLength:  6,
		Consensus:    config.ConsensusQBFT,
	}

	client := &fakeChainClient{}

	o, err := New(cfg, ks, wallet, keysDB, signerMgr, client, nil, nil, SeedOptions{}, log.New(log.Writer(), "", 0))
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}

	return &harness{o: o, ks: ks, client: client}
}

func TestFundRejectsUnmappedAddress(t *testing.T) {
	h := newHarness(t)
	err := h.o.Fund(context.Background(), "0x01", 100)
	if err == nil {
		t.Fatalf("expected not-found error")
	}
	if h.client.sendCalled {
		t.Fatalf("no RPC submission should happen when the mapping is absent")
	}
}

func TestRegisterRejectsUnmappedAddress(t *testing.T) {
	h := newHarness(t)
	err := h.o.Register(context.Background(), "0x01", "alice")
	if err == nil {
		t.Fatalf("expected not-found error")
	}
}

func TestBalanceRejectsUnknownKey(t *testing.T) {
	h := newHarness(t)
	unknown := curve.Generator().Mul(big.NewInt(99)).Serialize()
	if _, err := h.o.Balance(context.Background(), unknown); err == nil {
		t.Fatalf("expected not-found error for an unknown local key")
	}
}

func TestTransferFailsWithInsufficientBalanceBeforeSubmission(t *testing.T) {
	h := newHarness(t)

	coords, err := h.ks.CreateAccount("0x0000000000000000000000000000000000cccc")
	if err != nil {
		t.Fatalf("create sender account: %v", err)
	}
	senderAcc, ok, err := h.ks.LoadAccountByPublicKey(coords)
	if err != nil || !ok {
		t.Fatalf("load sender account: ok=%v err=%v", ok, err)
	}

	receiverScalar, _ := curve.RandomScalar()
	receiverY := curve.Generator().Mul(receiverScalar)
	decoyScalar, _ := curve.RandomScalar()
	decoyY := curve.Generator().Mul(decoyScalar)

	zscABI, err := parseZSCABI()
	if err != nil {
		t.Fatalf("parse zsc abi: %v", err)
	}

	// The fake RPC decodes whatever anonymity-set order simulateAccounts was
	// called with and returns ciphertexts matching that exact order, the way
	// a real contract would echo results keyed to the request's y array --
	// this keeps the test correct regardless of how the shuffle reorders it.
	h.client.callFunc = func(ctx context.Context, msg ethgo.CallMsg) ([]byte, error) {
		inputs, err := zscABI.Methods["simulateAccounts"].Inputs.Unpack(msg.Data[4:])
		if err != nil {
			t.Fatalf("unpack simulate input: %v", err)
		}
		queried := inputs[0].([][2]*big.Int)

		r, _ := curve.RandomScalar()
		pairs := make([][2][2]*big.Int, len(queried))
		for i, xy := range queried {
			p, err := curve.FromBigInts(xy[0], xy[1])
			if err != nil {
				t.Fatalf("reconstruct point: %v", err)
			}
			balance := int64(0)
			if p.Equal(senderAcc.Y) {
				balance = 50
			}
			ct := elgamal.Encrypt(p, balance, r)
			c1x, c1y := ct.C1.BigInts()
			c2x, c2y := ct.C2.BigInts()
			pairs[i] = [2][2]*big.Int{{c1x, c1y}, {c2x, c2y}}
		}
		return zscABI.Methods["simulateAccounts"].Outputs.Pack(pairs)
	}

	err = h.o.Transfer(context.Background(), coords, receiverY.Serialize(), 100, []*curve.Point{decoyY, curve.Generator()})
	if err == nil {
		t.Fatalf("expected insufficient-balance error")
	}
	if h.client.sendCalled {
		t.Fatalf("no RPC submission should happen for an insufficient-balance transfer")
	}
}
