package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/crypto/sha3"

	"github.com/shieldedcash/zsc-client/internal/apperrors"
	"github.com/shieldedcash/zsc-client/internal/curve"
)

// Account is a loaded shielded keypair: the scalar x and its public point
// y = g·x (spec §3 ShieldedAccount).
type Account struct {
	X *big.Int
	Y *curve.Point
}

// newPassword draws the 8 random password bytes persisted alongside a
// keystore record (spec §3).
func newPassword() ([]byte, error) {
	b := make([]byte, passwordLen)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	return b, nil
}

func deriveKey(password, salt []byte) ([]byte, error) {
	return scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptDKLen)
}

// encrypt produces an EncryptedKeystoreRecord for acc under password,
// following the scrypt + AES-128-CTR + keccak256-MAC contract of spec §4.1.
func encrypt(acc *Account, password []byte) (*EncryptedKeystoreRecord, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, apperrors.CryptoFailure("keystore-encrypt-failed", "generate salt", err)
	}

	dk, err := deriveKey(password, salt)
	if err != nil {
		return nil, apperrors.CryptoFailure("keystore-encrypt-failed", "scrypt derive", err)
	}

	iv := make([]byte, ivLen)
	if _, err := rand.Read(iv); err != nil {
		return nil, apperrors.CryptoFailure("keystore-encrypt-failed", "generate iv", err)
	}

	block, err := aes.NewCipher(dk[:16])
	if err != nil {
		return nil, apperrors.CryptoFailure("keystore-encrypt-failed", "aes cipher", err)
	}

	xBytes := leftPad32(acc.X.Bytes())
	ciphertext := make([]byte, len(xBytes))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, xBytes)

	mac := keccak256(append(append([]byte{}, dk[16:32]...), ciphertext...))

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, apperrors.CryptoFailure("keystore-encrypt-failed", "generate uuid", err)
	}

	return &EncryptedKeystoreRecord{
		Version: currentVersion,
		ID:      id.String(),
		Address: acc.Y.Serialize(),
		Crypto: CryptoParams{
			Ciphertext:   hexString(ciphertext),
			CipherParams: CipherParams{IV: hexString(iv)},
			Cipher:       cipherAES128CTR,
			KDF:          kdfScrypt,
			KDFParams: KDFParams{
				N: scryptN, R: scryptR, P: scryptP, DKLen: scryptDKLen,
				Salt: hexString(salt),
			},
			MAC: hexString(mac),
		},
	}, nil
}

// decrypt recovers the Account from rec under password. A wrong password, an
// unsupported kdf, or an unsupported version all surface as crypto-failure.
func decrypt(rec *EncryptedKeystoreRecord, password []byte) (*Account, error) {
	if rec.Version != currentVersion {
		return nil, apperrors.CryptoFailure("unsupported-version", fmt.Sprintf("version %d", rec.Version), nil)
	}
	if rec.Crypto.KDF != kdfScrypt {
		return nil, apperrors.CryptoFailure("unsupported-kdf", rec.Crypto.KDF, nil)
	}

	salt, err := hexBytes(rec.Crypto.KDFParams.Salt)
	if err != nil {
		return nil, apperrors.CryptoFailure("keystore-decrypt-failed", "decode salt", err)
	}
	iv, err := hexBytes(rec.Crypto.CipherParams.IV)
	if err != nil {
		return nil, apperrors.CryptoFailure("keystore-decrypt-failed", "decode iv", err)
	}
	ciphertext, err := hexBytes(rec.Crypto.Ciphertext)
	if err != nil {
		return nil, apperrors.CryptoFailure("keystore-decrypt-failed", "decode ciphertext", err)
	}
	wantMAC, err := hexBytes(rec.Crypto.MAC)
	if err != nil {
		return nil, apperrors.CryptoFailure("keystore-decrypt-failed", "decode mac", err)
	}

	dk, err := scrypt.Key(password, salt,
		rec.Crypto.KDFParams.N, rec.Crypto.KDFParams.R, rec.Crypto.KDFParams.P, rec.Crypto.KDFParams.DKLen)
	if err != nil {
		return nil, apperrors.CryptoFailure("keystore-decrypt-failed", "scrypt derive", err)
	}

	gotMAC := keccak256(append(append([]byte{}, dk[16:32]...), ciphertext...))
	if !macEqual(gotMAC, wantMAC) {
		return nil, apperrors.CryptoFailure("mac-mismatch", "wrong password", nil)
	}

	block, err := aes.NewCipher(dk[:16])
	if err != nil {
		return nil, apperrors.CryptoFailure("keystore-decrypt-failed", "aes cipher", err)
	}
	xBytes := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(xBytes, ciphertext)

	x := new(big.Int).SetBytes(xBytes)
	y, err := curve.Deserialize(rec.Address)
	if err != nil {
		return nil, apperrors.CryptoFailure("keystore-decrypt-failed", "deserialize public key", err)
	}

	return &Account{X: x, Y: y}, nil
}

func macEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}

func leftPad32(b []byte) []byte {
	if len(b) >= 32 {
		return b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

func hexString(b []byte) string {
	return hex.EncodeToString(b)
}

func hexBytes(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
