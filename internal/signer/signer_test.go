package signer

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	testAdminKeyHex     = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testAuthorityKeyHex = "2a871d0798f97d79848a013d4936a73bf4cc922c825d33c1cf7073dff6d409c6"
)

type fakeNamedSigner struct {
	addresses []string
	keys      []string
	calls     int
}

func (f *fakeNamedSigner) NextAccount() (string, string, error) {
	i := f.calls
	f.calls++
	return f.addresses[i], f.keys[i], nil
}

func TestFreshSignerRegistersKeyForLaterLookup(t *testing.T) {
	m, err := New(big.NewInt(1337), "", "")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	w := &fakeNamedSigner{
		addresses: []string{"0x00000000000000000000000000000000001234"},
		keys:      []string{testAdminKeyHex},
	}
	m.AddWallet("onetime", w)

	addr, err := m.FreshSigner("onetime")
	if err != nil {
		t.Fatalf("fresh signer: %v", err)
	}
	if addr != w.addresses[0] {
		t.Fatalf("want %s got %s", w.addresses[0], addr)
	}

	payload := map[string]interface{}{
		"to":       "0x0000000000000000000000000000000000abcd",
		"data":     []byte{},
		"value":    big.NewInt(0),
		"gasPrice": big.NewInt(0),
		"gas":      uint64(21000),
		"nonce":    uint64(0),
	}
	tx, err := m.Sign(addr, payload, false)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if tx == nil {
		t.Fatalf("expected a signed transaction")
	}
}

func TestFreshSignerRejectsUnknownWallet(t *testing.T) {
	m, err := New(big.NewInt(1337), "", "")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.FreshSigner("does-not-exist"); err == nil {
		t.Fatalf("expected error for an unregistered wallet name")
	}
}

func TestSignWithAdminSignerIgnoresAddressLookup(t *testing.T) {
	m, err := New(big.NewInt(1337), testAdminKeyHex, "")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	payload := map[string]interface{}{
		"to":       "0x0000000000000000000000000000000000abcd",
		"data":     []byte{},
		"value":    big.NewInt(0),
		"gasPrice": big.NewInt(0),
		"gas":      uint64(21000),
		"nonce":    uint64(5),
	}
	// "address" here is a throwaway value never registered in m.keys; the
	// admin path must resolve via m.admin instead of the per-wallet map.
	if _, err := m.Sign("0x0000000000000000000000000000000000dead", payload, true); err != nil {
		t.Fatalf("sign with admin signer: %v", err)
	}
}

func TestSignWithoutAdminSignerConfiguredFails(t *testing.T) {
	m, err := New(big.NewInt(1337), "", "")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	payload := map[string]interface{}{
		"to": "0x0000000000000000000000000000000000abcd", "data": []byte{},
		"value": big.NewInt(0), "gasPrice": big.NewInt(0),
		"gas": uint64(21000), "nonce": uint64(0),
	}
	if _, err := m.Sign("0x0000000000000000000000000000000000dead", payload, true); err == nil {
		t.Fatalf("expected error when no admin signer is configured")
	}
}

func TestSignRejectsMissingPayload(t *testing.T) {
	m, err := New(big.NewInt(1337), testAdminKeyHex, "")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.Sign("0x0", nil, true); err == nil {
		t.Fatalf("expected error for nil payload")
	}
}

func TestAuthorityAddress(t *testing.T) {
	m, err := New(big.NewInt(1337), "", testAuthorityKeyHex)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	addr, ok := m.AuthorityAddress()
	if !ok {
		t.Fatalf("expected an authority signer to be configured")
	}
	if addr == (common.Address{}) {
		t.Fatalf("expected a non-zero authority address")
	}

	empty, err := New(big.NewInt(1337), "", "")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, ok := empty.AuthorityAddress(); ok {
		t.Fatalf("expected no authority signer when AUTHORITY_SIGNER is unset")
	}
}

func TestPayloadUint64HexAcceptsHexString(t *testing.T) {
	m, err := New(big.NewInt(1337), testAdminKeyHex, "")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	payload := map[string]interface{}{
		"to": "0x0000000000000000000000000000000000abcd", "data": []byte{},
		"value": big.NewInt(0), "gasPrice": big.NewInt(0),
		"gas": "0x5208", "nonce": "0x1",
	}
	if _, err := m.Sign("0x0", payload, true); err != nil {
		t.Fatalf("sign with hex-string gas/nonce: %v", err)
	}
}

func TestAdminAddress(t *testing.T) {
	m, err := New(big.NewInt(1337), testAdminKeyHex, "")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	addr, ok := m.AdminAddress()
	if !ok {
		t.Fatalf("expected an admin signer to be configured")
	}
	if addr == (common.Address{}) {
		t.Fatalf("expected a non-zero admin address")
	}

	authOnly, err := New(big.NewInt(1337), "", testAuthorityKeyHex)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	adminAddr, adminOK := authOnly.AdminAddress()
	authAddr, _ := authOnly.AuthorityAddress()
	if adminOK {
		t.Fatalf("expected no admin signer when ADMIN_SIGNER is unset")
	}
	if adminAddr == authAddr {
		t.Fatalf("admin and authority addresses must never be conflated")
	}
}

func TestRegisterKeyAllowsSubsequentNonAdminSign(t *testing.T) {
	m, err := New(big.NewInt(1337), "", "")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	priv, err := crypto.HexToECDSA(testAdminKeyHex)
	if err != nil {
		t.Fatalf("parse test key: %v", err)
	}
	addr := crypto.PubkeyToAddress(priv.PublicKey)

	if err := m.RegisterKey(addr.Hex(), testAdminKeyHex); err != nil {
		t.Fatalf("register key: %v", err)
	}

	payload := map[string]interface{}{
		"to": "0x0000000000000000000000000000000000abcd", "data": []byte{},
		"value": big.NewInt(0), "gasPrice": big.NewInt(0),
		"gas": uint64(21000), "nonce": uint64(0),
	}
	if _, err := m.Sign(addr.Hex(), payload, false); err != nil {
		t.Fatalf("sign with registered key: %v", err)
	}
}

func TestRegisterKeyRejectsMismatchedAddress(t *testing.T) {
	m, err := New(big.NewInt(1337), "", "")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if err := m.RegisterKey("0x0000000000000000000000000000000000dead", testAdminKeyHex); err == nil {
		t.Fatalf("expected error when the key does not derive the given address")
	}
}

func TestPayloadUint64HexRejectsMalformedHex(t *testing.T) {
	m, err := New(big.NewInt(1337), testAdminKeyHex, "")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	payload := map[string]interface{}{
		"to": "0x0000000000000000000000000000000000abcd", "data": []byte{},
		"value": big.NewInt(0), "gasPrice": big.NewInt(0),
		"gas": "not-hex", "nonce": "0x1",
	}
	if _, err := m.Sign("0x0", payload, true); err == nil {
		t.Fatalf("expected invalid-nonce-hex error")
	}
}
