package hdwallet

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/shieldedcash/zsc-client/internal/apperrors"
)

const keysDBDirName = "keysdb"

// KeysDB is the embedded key-value store of spec §3: address→privateKey for
// every derived signer, and a per-wallet monotonic derivation counter,
// updated together in one transaction (spec §4.2 newAccount).
//
// Grounded on the pack's modernc.org/sqlite dependency (DanDo385-solidity-edu)
// used here as a small embedded KV store rather than a relational database:
// two tables, both addressed by a single key.
type KeysDB struct {
	db *sql.DB
}

// OpenKeysDB opens (creating if absent) the KeysDB under
// <dataDir>/keysdb/keys.db.
func OpenKeysDB(dataDir string) (*KeysDB, error) {
	dir := filepath.Join(dataDir, keysDBDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, apperrors.StorageFailure("keysdb-init-failed", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "keys.db"))
	if err != nil {
		return nil, apperrors.StorageFailure("keysdb-init-failed", "open sqlite", err)
	}
	// sqlite serialises writers at the file level; pin the pool to a single
	// connection so KeysDB's own transaction boundary is the only one that
	// matters, matching the "one transaction" invariant of spec §3/§4.2.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE IF NOT EXISTS signer_keys (
			address TEXT PRIMARY KEY,
			private_key TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS wallet_counters (
			wallet_name TEXT PRIMARY KEY,
			counter INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.StorageFailure("keysdb-init-failed", "create schema", err)
	}

	return &KeysDB{db: db}, nil
}

// Close releases the underlying database handle.
func (k *KeysDB) Close() error { return k.db.Close() }

// NewAccount derives the next account for walletName inside a single
// transaction covering: read counter (default 0), derive at that index,
// write address→privateKey, write counter+1 (spec §3/§4.2 invariant).
func (k *KeysDB) NewAccount(wallet *Wallet) (Account, error) {
	tx, err := k.db.Begin()
	if err != nil {
		return Account{}, apperrors.StorageFailure("keysdb-tx-failed", "begin transaction", err)
	}
	defer tx.Rollback()

	var counter uint32
	row := tx.QueryRow(`SELECT counter FROM wallet_counters WHERE wallet_name = ?`, wallet.Name())
	switch err := row.Scan(&counter); {
	case err == sql.ErrNoRows:
		counter = 0
	case err != nil:
		return Account{}, apperrors.StorageFailure("keysdb-tx-failed", "read counter", err)
	}

	account, err := wallet.GetAccount(counter)
	if err != nil {
		return Account{}, err
	}

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO signer_keys (address, private_key) VALUES (?, ?)`,
		account.Address, account.PrivateKey,
	); err != nil {
		return Account{}, apperrors.StorageFailure("keysdb-tx-failed", "write signer key", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO wallet_counters (wallet_name, counter) VALUES (?, ?)
		 ON CONFLICT(wallet_name) DO UPDATE SET counter = excluded.counter`,
		wallet.Name(), counter+1,
	); err != nil {
		return Account{}, apperrors.StorageFailure("keysdb-tx-failed", "write counter", err)
	}

	if err := tx.Commit(); err != nil {
		return Account{}, apperrors.StorageFailure("keysdb-tx-failed", "commit", err)
	}

	return account, nil
}

// PrivateKeyFor returns the persisted private key for address, if any.
func (k *KeysDB) PrivateKeyFor(address string) (string, bool, error) {
	var key string
	err := k.db.QueryRow(`SELECT private_key FROM signer_keys WHERE address = ?`, address).Scan(&key)
	switch {
	case err == sql.ErrNoRows:
		return "", false, nil
	case err != nil:
		return "", false, apperrors.StorageFailure("keysdb-read-failed", "query signer key", err)
	}
	return key, true, nil
}

// NamedSigner adapts a (Wallet, KeysDB) pair to internal/signer.NamedSigner,
// so the signing-key manager can mint fresh one-time addresses without
// importing this package's concrete types.
type NamedSigner struct {
	wallet *Wallet
	db     *KeysDB
}

// NewNamedSigner builds the signer.NamedSigner adapter for wallet backed by db.
func NewNamedSigner(wallet *Wallet, db *KeysDB) *NamedSigner {
	return &NamedSigner{wallet: wallet, db: db}
}

// NextAccount derives and persists the next account for the wrapped wallet.
func (n *NamedSigner) NextAccount() (string, string, error) {
	account, err := n.db.NewAccount(n.wallet)
	if err != nil {
		return "", "", err
	}
	return account.Address, account.PrivateKey, nil
}

// Counter returns the current (next-to-use) counter value for walletName.
func (k *KeysDB) Counter(walletName string) (uint32, error) {
	var counter uint32
	err := k.db.QueryRow(`SELECT counter FROM wallet_counters WHERE wallet_name = ?`, walletName).Scan(&counter)
	switch {
	case err == sql.ErrNoRows:
		return 0, nil
	case err != nil:
		return 0, apperrors.StorageFailure("keysdb-read-failed", "query counter", err)
	}
	return counter, nil
}
