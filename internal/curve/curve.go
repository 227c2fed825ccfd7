// Package curve wraps the BN-family prime-order group used by the shielded
// layer (spec §3) on top of go-ethereum's crypto/bn256/cloudflare
// implementation: the same dependency the teacher repo already requires for
// Ethereum key handling, reused here for its pairing-friendly G1 group.
package curve

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum/crypto/bn256/cloudflare"
)

// Order is the scalar field modulus q.
var Order = new(big.Int).Set(bn256.Order)

// BMax bounds the maximum decryptable balance (spec §3), same order of
// magnitude as 2^32.
const BMax uint64 = 1 << 32

// Point is an element of G.
type Point struct {
	p *bn256.G1
}

// Generator returns g, the distinguished group generator.
func Generator() *Point {
	return &Point{p: new(bn256.G1).ScalarBaseMult(big.NewInt(1))}
}

// Zero returns the identity point.
func Zero() *Point {
	return &Point{p: new(bn256.G1).ScalarBaseMult(big.NewInt(0))}
}

// RandomScalar draws a uniform scalar in [1, Order).
func RandomScalar() (*big.Int, error) {
	k, err := rand.Int(rand.Reader, new(big.Int).Sub(Order, big.NewInt(1)))
	if err != nil {
		return nil, fmt.Errorf("draw random scalar: %w", err)
	}
	return k.Add(k, big.NewInt(1)), nil
}

// ReduceScalar reduces s modulo the group order.
func ReduceScalar(s *big.Int) *big.Int {
	return new(big.Int).Mod(s, Order)
}

// ScalarFromUint64 lifts a non-negative integer into the scalar field.
func ScalarFromUint64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// ScalarFromInt64 lifts a (possibly negative) integer into the scalar field,
// reducing modulo Order.
func ScalarFromInt64(v int64) *big.Int {
	return ReduceScalar(big.NewInt(v))
}

// Mul returns k·P.
func (P *Point) Mul(k *big.Int) *Point {
	return &Point{p: new(bn256.G1).ScalarMult(P.p, ReduceScalar(k))}
}

// Add returns P+Q.
func (P *Point) Add(Q *Point) *Point {
	return &Point{p: new(bn256.G1).Add(P.p, Q.p)}
}

// Neg returns -P.
func (P *Point) Neg() *Point {
	return &Point{p: new(bn256.G1).Neg(P.p)}
}

// Sub returns P-Q.
func (P *Point) Sub(Q *Point) *Point {
	return P.Add(Q.Neg())
}

// MulGenerator returns k·g.
func MulGenerator(k *big.Int) *Point {
	return &Point{p: new(bn256.G1).ScalarBaseMult(ReduceScalar(k))}
}

// Equal reports whether P and Q represent the same group element.
func (P *Point) Equal(Q *Point) bool {
	if P == nil || Q == nil {
		return P == Q
	}
	return P.p.String() == Q.p.String()
}

// IsZero reports whether P is the identity element.
func (P *Point) IsZero() bool {
	return P.Equal(Zero())
}

// coordinates returns the raw 32-byte big-endian X and Y field coordinates.
func (P *Point) coordinates() (x, y [32]byte) {
	m := P.p.Marshal()
	copy(x[:], m[0:32])
	copy(y[:], m[32:64])
	return
}

// Marshal returns the two 32-byte big-endian field coordinates as a single
// 64-byte buffer (X‖Y), hashed into the challenge of the register
// proof-of-knowledge.
func (P *Point) Marshal() []byte {
	return P.p.Marshal()
}

// Serialize renders P as the two 0x-prefixed 64-hex-digit coordinate strings
// of spec §3's ShieldedAccount serialised form.
func (P *Point) Serialize() [2]string {
	x, y := P.coordinates()
	return [2]string{"0x" + hex.EncodeToString(x[:]), "0x" + hex.EncodeToString(y[:])}
}

var serializedCoordRe = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

// ValidSerializedCoordinate reports whether s matches the wire format of a
// single serialised field coordinate.
func ValidSerializedCoordinate(s string) bool {
	return serializedCoordRe.MatchString(s)
}

// BigInts returns P's two raw field coordinates as big.Int, the uint256[2]
// shape the on-chain contract calls of spec §4.7 expect.
func (P *Point) BigInts() (x, y *big.Int) {
	xb, yb := P.coordinates()
	return new(big.Int).SetBytes(xb[:]), new(big.Int).SetBytes(yb[:])
}

// FromBigInts reconstructs a Point from the two raw field coordinates an
// ABI-decoded uint256[2] yields (the inverse of BigInts).
func FromBigInts(x, y *big.Int) (*Point, error) {
	var xb, yb [32]byte
	x.FillBytes(xb[:])
	y.FillBytes(yb[:])
	buf := make([]byte, 0, 64)
	buf = append(buf, xb[:]...)
	buf = append(buf, yb[:]...)
	g := new(bn256.G1)
	if _, err := g.Unmarshal(buf); err != nil {
		return nil, fmt.Errorf("unmarshal point: %w", err)
	}
	return &Point{p: g}, nil
}

// Deserialize parses the [2]string wire form back into a Point.
func Deserialize(coords [2]string) (*Point, error) {
	if !ValidSerializedCoordinate(coords[0]) || !ValidSerializedCoordinate(coords[1]) {
		return nil, fmt.Errorf("malformed point coordinates")
	}
	xb, err := hex.DecodeString(coords[0][2:])
	if err != nil {
		return nil, fmt.Errorf("decode x: %w", err)
	}
	yb, err := hex.DecodeString(coords[1][2:])
	if err != nil {
		return nil, fmt.Errorf("decode y: %w", err)
	}
	buf := make([]byte, 0, 64)
	buf = append(buf, xb...)
	buf = append(buf, yb...)
	g := new(bn256.G1)
	if _, err := g.Unmarshal(buf); err != nil {
		return nil, fmt.Errorf("unmarshal point: %w", err)
	}
	return &Point{p: g}, nil
}
