// Package chain defines the narrow JSON-RPC transport collaborator the
// submission coordinator depends on (spec §1: "out of scope... the JSON-RPC
// transport implementation"), plus a go-ethereum-backed implementation of
// it. Callers needing a fake for tests only need to satisfy Client.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/shieldedcash/zsc-client/internal/apperrors"
)

// Client is the minimal RPC surface internal/submit and internal/trade need:
// nonce fetch, arbitrary read-only calls (for revert diagnosis and
// simulateAccounts), sending a signed raw transaction, and waiting for its
// receipt.
type Client interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// EthClient adapts *ethclient.Client to Client.
type EthClient struct {
	inner *ethclient.Client
}

// Dial connects to url (spec §6 ETH_URL) and wraps the resulting client.
func Dial(ctx context.Context, url string) (*EthClient, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, apperrors.RPCFailure("dial-failed", url, err)
	}
	return &EthClient{inner: c}, nil
}

func (e *EthClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	n, err := e.inner.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, apperrors.RPCFailure("nonce-fetch-failed", account.Hex(), err)
	}
	return n, nil
}

func (e *EthClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	out, err := e.inner.CallContract(ctx, msg, blockNumber)
	if err != nil {
		return nil, apperrors.RPCFailure("call-failed", "", err)
	}
	return out, nil
}

func (e *EthClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := e.inner.SendTransaction(ctx, tx); err != nil {
		return apperrors.RPCFailure("send-failed", tx.Hash().Hex(), err)
	}
	return nil
}

func (e *EthClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	r, err := e.inner.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, apperrors.RPCFailure("receipt-fetch-failed", txHash.Hex(), err)
	}
	return r, nil
}

// Close releases the underlying connection.
func (e *EthClient) Close() { e.inner.Close() }
