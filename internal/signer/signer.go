// Package signer implements the signing-key manager of spec §4.2/§9: a
// named-wallet registry dispatching over a small NamedSigner interface, plus
// raw-transaction signing and address→private-key lookup.
package signer

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/shieldedcash/zsc-client/internal/apperrors"
)

// NamedSigner is the minimal capability the manager dispatches to: derive
// the next fresh account for a named wallet. The HD wallet (internal/hdwallet,
// via its KeysDB) is the only implementation today; spec §9 asks for this to
// stay a small interface rather than hard-wiring the HD wallet in.
type NamedSigner interface {
	NextAccount() (address string, privateKeyHex string, err error)
}

// Manager is the signing-key manager: a registry of named wallets plus the
// two static collaborators (admin, authority) distinguished by a boolean
// flag rather than by name (spec §9).
type Manager struct {
	mu       sync.RWMutex
	wallets  map[string]NamedSigner
	keys     map[string]string // address (EIP-55 checksummed) -> private key hex, discovered on demand
	admin    *ecdsaSigner
	authority *ecdsaSigner
	chainID  *big.Int
}

type ecdsaSigner struct {
	address    common.Address
	privateKey string
}

// New constructs a Manager. adminKeyHex/authorityKeyHex are raw hex private
// keys (spec §6 ADMIN_SIGNER/AUTHORITY_SIGNER); either may be empty if not
// configured.
func New(chainID *big.Int, adminKeyHex, authorityKeyHex string) (*Manager, error) {
	m := &Manager{
		wallets: make(map[string]NamedSigner),
		keys:    make(map[string]string),
		chainID: chainID,
	}
	if adminKeyHex != "" {
		s, err := newECDSASigner(adminKeyHex)
		if err != nil {
			return nil, apperrors.Internal("invalid-admin-signer", "parse ADMIN_SIGNER", err)
		}
		m.admin = s
	}
	if authorityKeyHex != "" {
		s, err := newECDSASigner(authorityKeyHex)
		if err != nil {
			return nil, apperrors.Internal("invalid-authority-signer", "parse AUTHORITY_SIGNER", err)
		}
		m.authority = s
	}
	return m, nil
}

func newECDSASigner(hexKey string) (*ecdsaSigner, error) {
	priv, err := crypto.HexToECDSA(trim0x(hexKey))
	if err != nil {
		return nil, err
	}
	return &ecdsaSigner{
		address:    crypto.PubkeyToAddress(priv.PublicKey),
		privateKey: hex.EncodeToString(crypto.FromECDSA(priv)),
	}, nil
}

func trim0x(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// AddWallet registers a NamedSigner under name.
func (m *Manager) AddWallet(name string, w NamedSigner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[name] = w
}

// FreshSigner derives and registers the next address/key pair from the
// named wallet (used by the trade orchestrator to mint a one-time
// signer per spec §4.7).
func (m *Manager) FreshSigner(walletName string) (string, error) {
	m.mu.RLock()
	w, ok := m.wallets[walletName]
	m.mu.RUnlock()
	if !ok {
		return "", apperrors.Internal("unknown-wallet", walletName, nil)
	}

	address, privateKey, err := w.NextAccount()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.keys[normalizeAddress(address)] = privateKey
	m.mu.Unlock()

	return address, nil
}

func normalizeAddress(addr string) string {
	return common.HexToAddress(addr).Hex()
}

var nonceHexRe = regexp.MustCompile(`^0x[0-9A-Fa-f]+$`)

// Sign builds and signs a raw transaction for address from txPayload (spec
// §4.2). isAdminSigner routes to the static admin signer regardless of
// address.
func (m *Manager) Sign(address string, txPayload map[string]interface{}, isAdminSigner bool) (*types.Transaction, error) {
	if txPayload == nil {
		return nil, apperrors.InvalidInput("missing-parameter", "payload is required")
	}

	privHex, err := m.resolvePrivateKey(address, isAdminSigner)
	if err != nil {
		return nil, err
	}

	to, err := payloadAddress(txPayload, "to")
	if err != nil {
		return nil, err
	}
	data, _ := txPayload["data"].([]byte)
	value, err := payloadBigInt(txPayload, "value")
	if err != nil {
		return nil, err
	}
	gasPrice, err := payloadBigInt(txPayload, "gasPrice")
	if err != nil {
		return nil, err
	}
	gasLimit, err := payloadUint64Hex(txPayload, "gas")
	if err != nil {
		return nil, err
	}
	nonce, err := payloadUint64Hex(txPayload, "nonce")
	if err != nil {
		return nil, err
	}

	priv, err := crypto.HexToECDSA(trim0x(privHex))
	if err != nil {
		return nil, apperrors.CryptoFailure("sign-failed", "parse private key", err)
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signer := types.NewEIP155Signer(m.chainID)
	signed, err := types.SignTx(tx, signer, priv)
	if err != nil {
		return nil, apperrors.CryptoFailure("sign-failed", "sign transaction", err)
	}
	return signed, nil
}

func (m *Manager) resolvePrivateKey(address string, isAdminSigner bool) (string, error) {
	if isAdminSigner {
		if m.admin == nil {
			return "", apperrors.Internal("admin-signer-not-configured", "", nil)
		}
		return m.admin.privateKey, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	key, ok := m.keys[normalizeAddress(address)]
	if !ok {
		return "", apperrors.NotFound("not-found", fmt.Sprintf("no private key for %s", address))
	}
	return key, nil
}

// AuthorityAddress returns the static authority signer's address. No flow
// of the trade orchestrator signs with the authority key.
func (m *Manager) AuthorityAddress() (common.Address, bool) {
	if m.authority == nil {
		return common.Address{}, false
	}
	return m.authority.address, true
}

// AdminAddress returns the static admin signer's address. Callers that
// build a transaction with IsAdminSigner: true must fetch the nonce for
// THIS address, not some other static signer's, or the recovered sender
// and the nonce account diverge.
func (m *Manager) AdminAddress() (common.Address, bool) {
	if m.admin == nil {
		return common.Address{}, false
	}
	return m.admin.address, true
}

// RegisterKey hands the manager a known private key for address, the way
// FreshSigner registers a key it derived itself. Used for transparent
// signing keys the caller already custodies outside the HD wallet (spec
// §4.7: withdraw signs with "the same ethAddr used inside the proof").
// Fails if privateKeyHex does not actually derive address, so a caller
// can't accidentally sign under the wrong identity.
func (m *Manager) RegisterKey(address, privateKeyHex string) error {
	priv, err := crypto.HexToECDSA(trim0x(privateKeyHex))
	if err != nil {
		return apperrors.InvalidInput("invalid-private-key", err.Error())
	}
	derived := crypto.PubkeyToAddress(priv.PublicKey)
	if derived != common.HexToAddress(address) {
		return apperrors.InvalidInput("private-key-address-mismatch", fmt.Sprintf("key derives %s, expected %s", derived.Hex(), address))
	}

	m.mu.Lock()
	m.keys[normalizeAddress(address)] = hex.EncodeToString(crypto.FromECDSA(priv))
	m.mu.Unlock()
	return nil
}

func payloadAddress(payload map[string]interface{}, key string) (common.Address, error) {
	raw, ok := payload[key]
	if !ok {
		return common.Address{}, apperrors.InvalidInput("missing-parameter", key)
	}
	s, ok := raw.(string)
	if !ok {
		return common.Address{}, apperrors.InvalidInput("not-an-object", key)
	}
	return common.HexToAddress(s), nil
}

func payloadBigInt(payload map[string]interface{}, key string) (*big.Int, error) {
	raw, ok := payload[key]
	if !ok {
		return big.NewInt(0), nil
	}
	switch v := raw.(type) {
	case *big.Int:
		return v, nil
	case string:
		n, ok := new(big.Int).SetString(trim0x(v), 16)
		if !ok {
			return nil, apperrors.InvalidInput("invalid-nonce-hex", key)
		}
		return n, nil
	default:
		return nil, apperrors.InvalidInput("not-an-object", key)
	}
}

func payloadUint64Hex(payload map[string]interface{}, key string) (uint64, error) {
	raw, ok := payload[key]
	if !ok {
		return 0, apperrors.InvalidInput("missing-parameter", key)
	}
	switch v := raw.(type) {
	case uint64:
		return v, nil
	case string:
		if !nonceHexRe.MatchString(v) {
			return 0, apperrors.InvalidInput("invalid-nonce-hex", v)
		}
		n, err := strconv.ParseUint(trim0x(v), 16, 64)
		if err != nil {
			return 0, apperrors.InvalidInput("invalid-nonce-hex", v)
		}
		return n, nil
	default:
		return 0, apperrors.InvalidInput("not-an-object", key)
	}
}
