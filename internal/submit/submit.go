// Package submit implements the epoch-aligned submission coordinator of
// spec §4.6: ABI-encoded call construction, nonce fetch, signing, broadcast,
// receipt wait, and best-effort revert diagnosis.
package submit

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/shieldedcash/zsc-client/internal/apperrors"
	"github.com/shieldedcash/zsc-client/internal/chain"
	"github.com/shieldedcash/zsc-client/internal/signer"
)

// defaultGas is the coordinator's fallback gas limit (spec §4.6: "≈6.7M").
const defaultGas uint64 = 6_700_000

// Options configures a single Send call (spec §4.6 "options object"
// variant, chosen over the legacy lib/ implementation per spec §9).
type Options struct {
	Gas           uint64 // 0 means use defaultGas
	IsAdminSigner bool
	Value         *big.Int // 0 unless explicitly set
}

// Coordinator is the submission coordinator: it owns a chain client and a
// signing-key manager and has no other state.
type Coordinator struct {
	client chain.Client
	signer *signer.Manager
}

// New constructs a Coordinator.
func New(client chain.Client, signer *signer.Manager) *Coordinator {
	return &Coordinator{client: client, signer: signer}
}

// Send ABI-encodes methodName(args...) against contractABI, signs it as
// from, and broadcasts it to contractAddr, returning the mined receipt
// (spec §4.6 steps 1-5).
func (c *Coordinator) Send(ctx context.Context, contractABI abi.ABI, contractAddr common.Address, from common.Address, methodName string, args []interface{}, opts Options) (*types.Receipt, error) {
	data, err := contractABI.Pack(methodName, args...)
	if err != nil {
		return nil, apperrors.InvalidInput("abi-encode-failed", fmt.Sprintf("%s: %v", methodName, err))
	}

	nonce, err := c.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, apperrors.RPCFailure("nonce-fetch-failed", from.Hex(), err)
	}

	gas := opts.Gas
	if gas == 0 {
		gas = defaultGas
	}
	value := opts.Value
	if value == nil {
		value = big.NewInt(0)
	}

	payload := map[string]interface{}{
		"to":       to0xHex(contractAddr),
		"data":     data,
		"value":    value,
		"gasPrice": big.NewInt(0),
		"gas":      gas,
		"nonce":    nonce,
	}

	signed, err := c.signer.Sign(from.Hex(), payload, opts.IsAdminSigner)
	if err != nil {
		return nil, err
	}

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return nil, apperrors.RPCFailure("send-failed", signed.Hash().Hex(), err)
	}

	receipt, err := c.awaitReceipt(ctx, signed.Hash())
	if err != nil {
		return nil, err
	}

	if receipt.Status == types.ReceiptStatusFailed {
		msg := c.diagnoseRevert(ctx, from, contractAddr, data)
		return receipt, apperrors.RPCFailure("transaction-reverted", msg, nil)
	}

	return receipt, nil
}

func to0xHex(addr common.Address) string { return addr.Hex() }

func (c *Coordinator) awaitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		receipt, err := c.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, apperrors.RPCFailure("receipt-wait-timed-out", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// diagnoseRevert replays the failed call as a read-only eth_call and tries
// to decode a standard Error(string) revert reason for logging (spec §4.6
// step 6). Failures to decode are swallowed; this is best-effort.
func (c *Coordinator) diagnoseRevert(ctx context.Context, from, to common.Address, data []byte) string {
	out, err := c.client.CallContract(ctx, ethereum.CallMsg{From: from, To: &to, Data: data}, nil)
	if err != nil {
		return err.Error()
	}
	return decodeRevertReason(out)
}

func decodeRevertReason(out []byte) string {
	reason, err := abi.UnpackRevert(out)
	if err != nil {
		return "execution reverted"
	}
	return reason
}

// Epoch returns floor(unixSeconds / epochLength) (spec §3).
func Epoch(unixSeconds, epochLength int64) int64 {
	return unixSeconds / epochLength
}

// WaitBeforeSubmit computes the epoch-gating decision of spec §4.6: it
// returns the time remaining until the next epoch boundary when the
// estimated proof-submission time for an anonymity set of size n exceeds
// it, and zero otherwise (zero means proceed without sleeping).
func WaitBeforeSubmit(now time.Time, epochLength int64, n int) time.Duration {
	unix := now.Unix()
	nextBoundary := ((unix + epochLength - 1) / epochLength) * epochLength
	wait := time.Duration(nextBoundary-unix) * time.Second

	estimate := estimatedTimeForTxCompletion(n)
	if estimate > wait {
		return wait
	}
	return 0
}

// estimatedTimeForTxCompletion implements ceil(n*log2(n)*20 + 5200) + 20ms
// (spec §4.6), treated as definitive per spec §9's open-question resolution.
func estimatedTimeForTxCompletion(n int) time.Duration {
	if n <= 1 {
		return 5220 * time.Millisecond
	}
	log2n := math.Log2(float64(n))
	ms := math.Ceil(float64(n)*log2n*20+5200) + 20
	return time.Duration(ms) * time.Millisecond
}
