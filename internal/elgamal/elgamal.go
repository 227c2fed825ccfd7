// Package elgamal implements ElGamal encryption over the prime-order group
// of internal/curve, and the ciphertext homomorphism spec §3 relies on for
// encrypted balances.
package elgamal

import (
	"fmt"
	"math/big"

	"github.com/shieldedcash/zsc-client/internal/curve"
)

// Ciphertext is the ElGamal pair (C_L, C_R) of spec §3:
//
//	C_L = g·b + y·r
//	C_R = g·r
type Ciphertext struct {
	C1 *curve.Point // C_L
	C2 *curve.Point // C_R
}

// Encrypt produces the ciphertext of value under public key pub with
// randomness r.
func Encrypt(pub *curve.Point, value int64, r *big.Int) *Ciphertext {
	return &Ciphertext{
		C1: curve.MulGenerator(curve.ScalarFromInt64(value)).Add(pub.Mul(r)),
		C2: curve.MulGenerator(r),
	}
}

// Decrypt recovers g·b given the holder's private scalar x:
//
//	g·b = C_L + (-x)·C_R
func Decrypt(x *big.Int, ct *Ciphertext) *curve.Point {
	negX := new(big.Int).Neg(x)
	return ct.C1.Add(ct.C2.Mul(negX))
}

// Add returns the elementwise homomorphic sum of two ciphertexts under the
// same public key, encrypting the sum of their plaintexts under the sum of
// their randomness factors.
func (c *Ciphertext) Add(o *Ciphertext) *Ciphertext {
	return &Ciphertext{C1: c.C1.Add(o.C1), C2: c.C2.Add(o.C2)}
}

// SubScalarOnLeft subtracts g·v from the left component only, the
// homomorphic "burn" operation of spec §4.3 BURN (Cn = state ⊕ (−value)).
func (c *Ciphertext) SubScalarOnLeft(v int64) *Ciphertext {
	return &Ciphertext{
		C1: c.C1.Sub(curve.MulGenerator(curve.ScalarFromInt64(v))),
		C2: c.C2,
	}
}

// Serialize renders the ciphertext as its two serialised point coordinate
// pairs, the "serialised (C_L,C_R) pair" form spec §4.3 names.
func (c *Ciphertext) Serialize() [2][2]string {
	return [2][2]string{c.C1.Serialize(), c.C2.Serialize()}
}

// Deserialize parses the wire form produced by Serialize.
func Deserialize(coords [2][2]string) (*Ciphertext, error) {
	c1, err := curve.Deserialize(coords[0])
	if err != nil {
		return nil, fmt.Errorf("deserialize C1: %w", err)
	}
	c2, err := curve.Deserialize(coords[1])
	if err != nil {
		return nil, fmt.Errorf("deserialize C2: %w", err)
	}
	return &Ciphertext{C1: c1, C2: c2}, nil
}
