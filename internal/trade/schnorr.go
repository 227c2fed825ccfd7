package trade

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"github.com/shieldedcash/zsc-client/internal/apperrors"
	"github.com/shieldedcash/zsc-client/internal/curve"
)

// schnorrProveKnowledge builds the (c, s) Schnorr-style proof of knowledge
// of x (for y=g·x) that Register submits alongside y, binding the proof to
// the ZSC contract address to prevent replay against a different contract
// (spec §4.7: "build a Schnorr-like proof-of-knowledge of x").
func schnorrProveKnowledge(x *big.Int, y *curve.Point, zsc common.Address) (c, s *big.Int, err error) {
	k, err := curve.RandomScalar()
	if err != nil {
		return nil, nil, apperrors.CryptoFailure("proof-generation-failed", "draw schnorr nonce", err)
	}
	R := curve.MulGenerator(k)

	h := sha3.NewLegacyKeccak256()
	h.Write(R.Marshal())
	h.Write(y.Marshal())
	h.Write(zsc.Bytes())
	c = curve.ReduceScalar(new(big.Int).SetBytes(h.Sum(nil)))

	s = curve.ReduceScalar(new(big.Int).Add(k, new(big.Int).Mul(c, x)))
	return c, s, nil
}
