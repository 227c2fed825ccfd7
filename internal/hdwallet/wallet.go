// Package hdwallet implements the one-time-signer wallet of spec §4.2:
// BIP-39/BIP-44 HD derivation of fresh Ethereum keypairs, persisted as a
// plaintext mnemonic file, with a transactional monotonic counter backing
// KeysDB (see keysdb.go).
//
// This is a direct generalisation of the teacher repo's own hdwallet.go: the
// same btcsuite/go-ethereum/bip39 stack, the same derivation shape, made
// reusable across named wallets instead of a single ad-hoc CLI invocation.
package hdwallet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil/hdkeychain"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"github.com/shieldedcash/zsc-client/internal/apperrors"
)

// OneTimeSignersWallet is the single named wallet reserved for throwaway
// submission signers (spec §4.2).
const OneTimeSignersWallet = "onetime-use-signers"

const secretStoreDirName = "hdwallet-secret-store"

// Account is a derived, ready-to-use signing identity.
type Account struct {
	Index      uint32
	Address    string // EIP-55 checksummed, 0x-prefixed
	PrivateKey string // hex, no 0x prefix
}

// Wallet is an HD wallet rooted at a single BIP-39 mnemonic, keyed by name.
type Wallet struct {
	name      string
	mnemonic  string
	masterKey *hdkeychain.ExtendedKey
}

// secretStoreDir returns <dataDir>/hdwallet-secret-store.
func secretStoreDir(dataDir string) string {
	return filepath.Join(dataDir, secretStoreDirName)
}

// Init ensures the secret store directory exists, generating a fresh BIP-39
// mnemonic for name if none is persisted yet, and derives the BIP-32 root
// key from mnemonicToSeed(mnemonic) (spec §4.2).
func Init(dataDir, name string) (*Wallet, error) {
	dir := secretStoreDir(dataDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, apperrors.StorageFailure("hdwallet-init-failed", dir, err)
	}

	path := filepath.Join(dir, name+".wallet")
	mnemonic, err := loadOrCreateMnemonic(path)
	if err != nil {
		return nil, err
	}

	seed := bip39.NewSeed(mnemonic, "")
	masterKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, apperrors.CryptoFailure("hdwallet-init-failed", "derive master key", err)
	}

	return &Wallet{name: name, mnemonic: mnemonic, masterKey: masterKey}, nil
}

func loadOrCreateMnemonic(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return string(data), nil
	}
	if !os.IsNotExist(err) {
		return "", apperrors.StorageFailure("hdwallet-init-failed", path, err)
	}

	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", apperrors.CryptoFailure("hdwallet-init-failed", "generate entropy", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", apperrors.CryptoFailure("hdwallet-init-failed", "generate mnemonic", err)
	}
	if err := os.WriteFile(path, []byte(mnemonic), 0o600); err != nil {
		return "", apperrors.StorageFailure("hdwallet-init-failed", path, err)
	}
	return mnemonic, nil
}

// hardened marks a BIP-32 path component as hardened (adds 2^31).
func hardened(i uint32) uint32 { return i + hdkeychain.HardenedKeyStart }

// GetAccount derives m/44'/60'/0'/0/index (spec's fixed BIP-44 path) and
// returns the resulting address/private-key pair. index must fit the
// non-hardened child range; otherwise this is a 400-class failure.
func (w *Wallet) GetAccount(index uint32) (Account, error) {
	if index >= hdkeychain.HardenedKeyStart {
		return Account{}, apperrors.InvalidInput("invalid-index", fmt.Sprintf("index %d exceeds non-hardened range", index))
	}

	key := w.masterKey
	var err error
	for _, component := range []uint32{hardened(44), hardened(60), hardened(0), 0, index} {
		key, err = key.Child(component)
		if err != nil {
			return Account{}, apperrors.CryptoFailure("derivation-failed", "derive child key", err)
		}
	}

	btcecKey, err := key.ECPrivKey()
	if err != nil {
		return Account{}, apperrors.CryptoFailure("derivation-failed", "ec private key", err)
	}
	privKeyECDSA := btcecKey.ToECDSA()

	address := crypto.PubkeyToAddress(privKeyECDSA.PublicKey)
	privBytes := crypto.FromECDSA(privKeyECDSA)

	return Account{
		Index:      index,
		Address:    address.Hex(),
		PrivateKey: fmt.Sprintf("%x", privBytes),
	}, nil
}

// Mnemonic returns the wallet's BIP-39 mnemonic phrase.
func (w *Wallet) Mnemonic() string { return w.mnemonic }

// Name returns the wallet's registry name.
func (w *Wallet) Name() string { return w.name }
