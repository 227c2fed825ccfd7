package hdwallet

import (
	"sync"
	"testing"
)

func TestInitPersistsMnemonicAcrossLoads(t *testing.T) {
	dir := t.TempDir()

	w1, err := Init(dir, OneTimeSignersWallet)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	w2, err := Init(dir, OneTimeSignersWallet)
	if err != nil {
		t.Fatalf("init (reload): %v", err)
	}

	if w1.Mnemonic() != w2.Mnemonic() {
		t.Fatalf("mnemonic not persisted across Init calls")
	}
}

func TestGetAccountDeterministic(t *testing.T) {
	dir := t.TempDir()
	w, err := Init(dir, OneTimeSignersWallet)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	a1, err := w.GetAccount(0)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	a2, err := w.GetAccount(0)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a1.Address != a2.Address || a1.PrivateKey != a2.PrivateKey {
		t.Fatalf("derivation at the same index is not deterministic")
	}

	a3, err := w.GetAccount(1)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a3.Address == a1.Address {
		t.Fatalf("different indices derived the same address")
	}
}

func TestGetAccountRejectsHardenedIndex(t *testing.T) {
	dir := t.TempDir()
	w, _ := Init(dir, OneTimeSignersWallet)
	if _, err := w.GetAccount(1 << 31); err == nil {
		t.Fatalf("expected invalid-input error for hardened index")
	}
}

func TestKeysDBNewAccountMonotonic(t *testing.T) {
	dir := t.TempDir()
	w, err := Init(dir, OneTimeSignersWallet)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	db, err := OpenKeysDB(dir)
	if err != nil {
		t.Fatalf("open keysdb: %v", err)
	}
	defer db.Close()

	a0, err := db.NewAccount(w)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}
	if a0.Index != 0 {
		t.Fatalf("want index 0 got %d", a0.Index)
	}

	a1, err := db.NewAccount(w)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}
	if a1.Index != 1 {
		t.Fatalf("want index 1 got %d", a1.Index)
	}

	key, ok, err := db.PrivateKeyFor(a0.Address)
	if err != nil || !ok {
		t.Fatalf("expected stored key for %s: ok=%v err=%v", a0.Address, ok, err)
	}
	if key != a0.PrivateKey {
		t.Fatalf("stored key mismatch")
	}
}

func TestKeysDBConcurrentNewAccountIsMonotonic(t *testing.T) {
	dir := t.TempDir()
	w, err := Init(dir, OneTimeSignersWallet)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	db, err := OpenKeysDB(dir)
	if err != nil {
		t.Fatalf("open keysdb: %v", err)
	}
	defer db.Close()

	const k = 6
	var wg sync.WaitGroup
	indices := make([]uint32, k)
	errs := make([]error, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			acc, err := db.NewAccount(w)
			indices[i], errs[i] = acc.Index, err
		}(i)
	}
	wg.Wait()

	seen := make(map[uint32]bool, k)
	for i, err := range errs {
		if err != nil {
			t.Fatalf("new account: %v", err)
		}
		seen[indices[i]] = true
	}
	for i := uint32(0); i < k; i++ {
		if !seen[i] {
			t.Fatalf("expected index %d among concurrent results, got %v", i, indices)
		}
	}
}
