// Package trade implements the top-level orchestrator of spec §4.7:
// register, fund, balance, transfer and withdraw, composing every other
// package into the five flows a caller actually drives.
package trade

import (
	"context"
	"log"
	"math/big"
	"time"

	ethgo "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/shieldedcash/zsc-client/internal/apperrors"
	"github.com/shieldedcash/zsc-client/internal/cache"
	"github.com/shieldedcash/zsc-client/internal/chain"
	"github.com/shieldedcash/zsc-client/internal/config"
	"github.com/shieldedcash/zsc-client/internal/curve"
	"github.com/shieldedcash/zsc-client/internal/elgamal"
	"github.com/shieldedcash/zsc-client/internal/hdwallet"
	"github.com/shieldedcash/zsc-client/internal/keystore"
	"github.com/shieldedcash/zsc-client/internal/prover"
	"github.com/shieldedcash/zsc-client/internal/shuffle"
	"github.com/shieldedcash/zsc-client/internal/signer"
	"github.com/shieldedcash/zsc-client/internal/submit"
)

// SeedOptions configures the eager balance-cache construction spec §9 asks
// for in place of the source's lazy "maybe-init" branch.
type SeedOptions struct {
	RangeStart uint64
	RangeCount uint64
	FilePath   string // optional CSV seed file; absence is logged, not fatal
}

// Orchestrator composes the keystore, HD wallet, signing-key manager,
// submission coordinator and prover into the five operations of spec §4.7.
type Orchestrator struct {
	cfg    *config.Config
	ks     *keystore.KeyStore
	wallet *hdwallet.Wallet
	keysDB *hdwallet.KeysDB
	signer *signer.Manager
	coord  *submit.Coordinator
	client chain.Client
	cache  *cache.Cache
	log    *log.Logger

	cashABI abi.ABI
	zscABI  abi.ABI

	cashAddr common.Address
	zscAddr  common.Address

	transferProver prover.TransferProver
	burnProver     prover.BurnProver
}

// New wires every collaborator together and eagerly constructs the balance
// cache (spec §9 design note), logging-but-not-failing on a missing seed
// file.
func New(
	cfg *config.Config,
	ks *keystore.KeyStore,
	wallet *hdwallet.Wallet,
	keysDB *hdwallet.KeysDB,
	signerMgr *signer.Manager,
	client chain.Client,
	transferProver prover.TransferProver,
	burnProver prover.BurnProver,
	seed SeedOptions,
	logger *log.Logger,
) (*Orchestrator, error) {
	if logger == nil {
		logger = log.Default()
	}

	cashABI, err := parseCASHABI()
	if err != nil {
		return nil, apperrors.Internal("abi-parse-failed", "CASH", err)
	}
	zscABI, err := parseZSCABI()
	if err != nil {
		return nil, apperrors.Internal("abi-parse-failed", "ZSC", err)
	}

	signerMgr.AddWallet(hdwallet.OneTimeSignersWallet, hdwallet.NewNamedSigner(wallet, keysDB))

	bcache := cache.New(cache.WithTTLSeconds(defaultCacheTTLSeconds), cache.WithLogger(logger))
	if seed.RangeCount > 0 {
		bcache.PopulateBalanceRange(seed.RangeStart, seed.RangeCount)
	}
	if seed.FilePath != "" {
		if err := bcache.PopulateCacheFromFile(seed.FilePath); err != nil {
			logger.Printf("trade: balance cache seed file unavailable, continuing without it: %v", err)
		}
	}

	return &Orchestrator{
		cfg:            cfg,
		ks:             ks,
		wallet:         wallet,
		keysDB:         keysDB,
		signer:         signerMgr,
		coord:          submit.New(client, signerMgr),
		client:         client,
		cache:          bcache,
		log:            logger,
		cashABI:        cashABI,
		zscABI:         zscABI,
		cashAddr:       common.HexToAddress(cfg.ERC20Address),
		zscAddr:        common.HexToAddress(cfg.ZSCAddress),
		transferProver: transferProver,
		burnProver:     burnProver,
	}, nil
}

const defaultCacheTTLSeconds = 100_000

// Register resolves ethAddr's shielded account, builds a Schnorr-style
// proof of knowledge of its private key, and submits ZSC.register (spec
// §4.7). Signed by the admin signer: in this architecture the admin key is
// the client's sole long-lived transparent identity (see DESIGN.md).
func (o *Orchestrator) Register(ctx context.Context, ethAddr, name string) error {
	coords, ok, err := o.ks.FindShieldedAccount(ethAddr)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("not-found", "ethAccount "+ethAddr+" does not have a shielded account")
	}

	acc, ok, err := o.ks.LoadAccountByPublicKey(coords)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("not-found", "shielded keystore file missing for "+serializedYString(coords))
	}

	c, s, err := schnorrProveKnowledge(acc.X, acc.Y, o.zscAddr)
	if err != nil {
		return err
	}

	yx, yy := acc.Y.BigInts()
	_, err = o.coord.Send(ctx, o.zscABI, o.zscAddr, o.adminAddress(), "register",
		[]interface{}{[2]*big.Int{yx, yy}, c, s, name},
		submit.Options{IsAdminSigner: true})
	return err
}

// Fund resolves ethAddr's shielded account, approves the ZSC contract on
// CASH, then calls ZSC.fund (spec §4.7).
func (o *Orchestrator) Fund(ctx context.Context, ethAddr string, amount int64) error {
	coords, ok, err := o.ks.FindShieldedAccount(ethAddr)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("not-found", "ethAccount "+ethAddr+" does not have a shielded account")
	}

	acc, ok, err := o.ks.LoadAccountByPublicKey(coords)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("not-found", "shielded keystore file missing for "+serializedYString(coords))
	}

	value := big.NewInt(amount)
	if _, err := o.coord.Send(ctx, o.cashABI, o.cashAddr, o.adminAddress(), "approve",
		[]interface{}{o.zscAddr, value},
		submit.Options{IsAdminSigner: true}); err != nil {
		return err
	}

	yx, yy := acc.Y.BigInts()
	_, err = o.coord.Send(ctx, o.zscABI, o.zscAddr, o.adminAddress(), "fund",
		[]interface{}{[2]*big.Int{yx, yy}, value},
		submit.Options{IsAdminSigner: true})
	return err
}

// Balance loads the local key for serializedY, reads the encrypted state at
// epoch+1 (spec §9's preserved read-path quirk), decrypts it, and recovers
// the integer balance through the cache.
func (o *Orchestrator) Balance(ctx context.Context, serializedY [2]string) (uint64, error) {
	acc, ok, err := o.ks.LoadAccountByPublicKey(serializedY)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, apperrors.NotFound("not-found", "no local key for "+serializedYString(serializedY))
	}

	epoch := submit.Epoch(time.Now().Unix(), o.cfg.EpochLength) + 1
	states, err := o.simulateAccounts(ctx, []*curve.Point{acc.Y}, epoch)
	if err != nil {
		return 0, err
	}

	pr := prover.New(acc.X, acc.Y, o.transferProver, o.burnProver)
	point := pr.Decrypt(states[0])

	return o.cache.Get(point, func(p *curve.Point) (uint64, error) {
		return cache.InvertGBalance(p)
	})
}

// Transfer shuffles the anonymity set, epoch-gates, decrypts the sender's
// state, checks the balance, builds a TRANSFER proof, and submits it signed
// by a freshly minted one-time signer (spec §4.7).
func (o *Orchestrator) Transfer(ctx context.Context, fromY, toY [2]string, value int64, decoys []*curve.Point) error {
	senderAcc, ok, err := o.ks.LoadAccountByPublicKey(fromY)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("not-found", "no local key for "+serializedYString(fromY))
	}
	receiverPoint, err := curve.Deserialize(toY)
	if err != nil {
		return apperrors.InvalidInput("invalid-input", "malformed receiver public key")
	}

	anonSet := append([]*curve.Point{senderAcc.Y, receiverPoint}, decoys...)
	shuffled, err := shuffle.Shuffle(anonSet, senderAcc.Y, receiverPoint)
	if err != nil {
		return err
	}

	if wait := submit.WaitBeforeSubmit(time.Now(), o.cfg.EpochLength, len(shuffled.Shuffled)); wait > 0 {
		time.Sleep(wait)
	}
	epoch := submit.Epoch(time.Now().Unix(), o.cfg.EpochLength)

	states, err := o.simulateAccounts(ctx, shuffled.Shuffled, epoch)
	if err != nil {
		return err
	}

	pr := prover.New(senderAcc.X, senderAcc.Y, o.transferProver, o.burnProver)
	senderState := states[shuffled.Index[0]]
	balancePoint := pr.Decrypt(senderState)
	balance, err := o.cache.Get(balancePoint, func(p *curve.Point) (uint64, error) {
		return cache.InvertGBalance(p)
	})
	if err != nil {
		return err
	}
	if balance < uint64(value) {
		return apperrors.InsufficientBalance("insufficient-balance", "sender balance is less than the transfer value")
	}

	randomness, err := curve.RandomScalar()
	if err != nil {
		return apperrors.CryptoFailure("transfer-failed", "draw randomness", err)
	}

	result, err := pr.GenerateTransferProof(prover.TransferInput{
		AnonSet:              shuffled.Shuffled,
		AnonSetStates:        states,
		Value:                value,
		SenderIdx:            shuffled.Index[0],
		ReceiverIdx:          shuffled.Index[1],
		Randomness:           randomness,
		BalanceAfterTransfer: int64(balance) - value,
		Epoch:                epoch,
	})
	if err != nil {
		return err
	}

	oneTimeAddr, err := o.signer.FreshSigner(hdwallet.OneTimeSignersWallet)
	if err != nil {
		return err
	}

	lArgs := make([][2]*big.Int, len(result.L))
	for i, p := range result.L {
		x, y := p.BigInts()
		lArgs[i] = [2]*big.Int{x, y}
	}
	yArgs := make([][2]*big.Int, len(shuffled.Shuffled))
	for i, p := range shuffled.Shuffled {
		x, y := p.BigInts()
		yArgs[i] = [2]*big.Int{x, y}
	}
	rx, ry := result.R.BigInts()
	ux, uy := result.U.BigInts()

	_, err = o.coord.Send(ctx, o.zscABI, o.zscAddr, common.HexToAddress(oneTimeAddr), "transfer",
		[]interface{}{lArgs, [2]*big.Int{rx, ry}, yArgs, [2]*big.Int{ux, uy}, result.Proof, big.NewInt(0)},
		submit.Options{})
	return err
}

// Withdraw is Transfer's single-element-anonymity-set, BURN-proof sibling.
// Spec §4.7 requires it be "signed by the same ethAddr used inside the
// proof (prevents front-running without requiring a prior register)", so
// the caller supplies ethAddr's own private key rather than delegating to
// the admin signer; Withdraw registers it with the signing-key manager and
// signs with IsAdminSigner: false.
func (o *Orchestrator) Withdraw(ctx context.Context, ethAddr, ethPrivateKeyHex string, amount int64) error {
	coords, ok, err := o.ks.FindShieldedAccount(ethAddr)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("not-found", "ethAccount "+ethAddr+" does not have a shielded account")
	}
	acc, ok, err := o.ks.LoadAccountByPublicKey(coords)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("not-found", "shielded keystore file missing for "+serializedYString(coords))
	}

	anonSet := []*curve.Point{acc.Y}
	if wait := submit.WaitBeforeSubmit(time.Now(), o.cfg.EpochLength, len(anonSet)); wait > 0 {
		time.Sleep(wait)
	}
	epoch := submit.Epoch(time.Now().Unix(), o.cfg.EpochLength)

	states, err := o.simulateAccounts(ctx, anonSet, epoch)
	if err != nil {
		return err
	}

	pr := prover.New(acc.X, acc.Y, o.transferProver, o.burnProver)
	balancePoint := pr.Decrypt(states[0])
	balance, err := o.cache.Get(balancePoint, func(p *curve.Point) (uint64, error) {
		return cache.InvertGBalance(p)
	})
	if err != nil {
		return err
	}
	if balance < uint64(amount) {
		return apperrors.InsufficientBalance("insufficient-balance", "sender balance is less than the withdraw amount")
	}

	result, err := pr.GenerateBurnProof(prover.BurnInput{
		BurnAccount:          acc.Y,
		BurnAccountState:     states[0],
		Value:                amount,
		BalanceAfterTransfer: int64(balance) - amount,
		Epoch:                epoch,
		Sender:               common.HexToAddress(ethAddr).Bytes(),
	})
	if err != nil {
		return err
	}

	if err := o.signer.RegisterKey(ethAddr, ethPrivateKeyHex); err != nil {
		return err
	}

	yx, yy := acc.Y.BigInts()
	ux, uy := result.U.BigInts()
	_, err = o.coord.Send(ctx, o.zscABI, o.zscAddr, common.HexToAddress(ethAddr), "burn",
		[]interface{}{[2]*big.Int{yx, yy}, big.NewInt(amount), [2]*big.Int{ux, uy}, result.Proof},
		submit.Options{IsAdminSigner: false})
	return err
}

// adminAddress returns the admin signer's own address, the account whose
// nonce submit.Coordinator.Send must fetch for an IsAdminSigner: true call
// (the recovered sender of an admin-signed transaction is always the admin
// key, never the authority key).
func (o *Orchestrator) adminAddress() common.Address {
	if addr, ok := o.signer.AdminAddress(); ok {
		return addr
	}
	return common.Address{}
}

// simulateAccounts performs the read-only ZSC.simulateAccounts(y, epoch)
// call and decodes its uint256[2][2][] result back into ciphertexts (spec
// §4.7).
func (o *Orchestrator) simulateAccounts(ctx context.Context, ys []*curve.Point, epoch int64) ([]*elgamal.Ciphertext, error) {
	args := make([][2]*big.Int, len(ys))
	for i, p := range ys {
		x, y := p.BigInts()
		args[i] = [2]*big.Int{x, y}
	}

	data, err := o.zscABI.Pack("simulateAccounts", args, big.NewInt(epoch))
	if err != nil {
		return nil, apperrors.InvalidInput("abi-encode-failed", err.Error())
	}

	out, err := o.client.CallContract(ctx, ethgo.CallMsg{To: &o.zscAddr, Data: data}, nil)
	if err != nil {
		return nil, apperrors.RPCFailure("simulate-failed", "", err)
	}

	results, err := o.zscABI.Unpack("simulateAccounts", out)
	if err != nil {
		return nil, apperrors.RPCFailure("simulate-decode-failed", "", err)
	}
	raw, ok := results[0].([][2][2]*big.Int)
	if !ok {
		return nil, apperrors.Internal("simulate-decode-failed", "unexpected return shape", nil)
	}

	states := make([]*elgamal.Ciphertext, len(raw))
	for i, pair := range raw {
		c1, err := curve.FromBigInts(pair[0][0], pair[0][1])
		if err != nil {
			return nil, apperrors.CryptoFailure("deserialization-error", "c1", err)
		}
		c2, err := curve.FromBigInts(pair[1][0], pair[1][1])
		if err != nil {
			return nil, apperrors.CryptoFailure("deserialization-error", "c2", err)
		}
		states[i] = &elgamal.Ciphertext{C1: c1, C2: c2}
	}
	return states, nil
}

func serializedYString(coords [2]string) string { return coords[0] + "," + coords[1] }
