package curve

import (
	"math/big"
	"testing"
)

func TestGeneratorRoundTrip(t *testing.T) {
	g := Generator()
	coords := g.Serialize()
	back, err := Deserialize(coords)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if !g.Equal(back) {
		t.Fatalf("round trip mismatch")
	}
}

func TestScalarMultLinearity(t *testing.T) {
	x := big.NewInt(7)
	y := Generator().Mul(x)
	want := Generator().Mul(big.NewInt(3)).Add(Generator().Mul(big.NewInt(4)))
	if !y.Equal(want) {
		t.Fatalf("7g != 3g+4g")
	}
}

func TestAddSubInverse(t *testing.T) {
	a := Generator().Mul(big.NewInt(11))
	b := Generator().Mul(big.NewInt(4))
	sum := a.Add(b)
	back := sum.Sub(b)
	if !back.Equal(a) {
		t.Fatalf("sub did not invert add")
	}
}

func TestZeroIsIdentity(t *testing.T) {
	a := Generator().Mul(big.NewInt(9))
	if !a.Add(Zero()).Equal(a) {
		t.Fatalf("zero is not additive identity")
	}
	if !Zero().IsZero() {
		t.Fatalf("Zero().IsZero() should be true")
	}
}

func TestSerializeFormat(t *testing.T) {
	g := Generator()
	coords := g.Serialize()
	for _, c := range coords {
		if !ValidSerializedCoordinate(c) {
			t.Fatalf("coordinate %q does not match wire format", c)
		}
	}
}

func TestDeserializeRejectsMalformed(t *testing.T) {
	_, err := Deserialize([2]string{"not-hex", "0x00"})
	if err == nil {
		t.Fatalf("expected error for malformed coordinate")
	}
}

func TestBigIntsRoundTrip(t *testing.T) {
	g := Generator().Mul(big.NewInt(5))
	x, y := g.BigInts()
	back, err := FromBigInts(x, y)
	if err != nil {
		t.Fatalf("from big ints: %v", err)
	}
	if !g.Equal(back) {
		t.Fatalf("big int round trip mismatch")
	}
}
