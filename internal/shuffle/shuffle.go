// Package shuffle implements the anonymity-set shuffler of spec §4.4:
// Fisher-Yates over a power-of-two anonymity set with a sender/receiver
// parity fix-up.
package shuffle

import (
	"crypto/rand"
	"math/big"

	"github.com/shieldedcash/zsc-client/internal/apperrors"
	"github.com/shieldedcash/zsc-client/internal/curve"
)

// Result is the shuffled anonymity set plus the final positions of the
// sender and receiver (spec §4.4).
type Result struct {
	Shuffled []*curve.Point
	Index    [2]int // [senderIdx, receiverIdx]
}

// Shuffle permutes y uniformly at random (Fisher-Yates, right-to-left),
// tracking where sender and receiver land, then applies the parity fix-up
// so senderIdx and receiverIdx fall in opposite parity classes.
//
// Preconditions: len(y) is a power of two and at least 2; sender and
// receiver must each appear exactly once in y.
func Shuffle(y []*curve.Point, sender, receiver *curve.Point) (*Result, error) {
	n := len(y)
	if n < 2 || n&(n-1) != 0 {
		return nil, apperrors.InvalidInput("invalid-anonymity-set", "anonymity set size must be a power of two >= 2")
	}

	shuffled := make([]*curve.Point, n)
	copy(shuffled, y)

	senderIdx, receiverIdx := -1, -1
	for i, p := range shuffled {
		if p.Equal(sender) {
			senderIdx = i
		}
		if p.Equal(receiver) {
			receiverIdx = i
		}
	}
	if senderIdx == -1 || receiverIdx == -1 {
		return nil, apperrors.InvalidInput("invalid-anonymity-set", "sender and receiver must both be present in the anonymity set")
	}

	for i := n - 1; i > 0; i-- {
		j, err := randIndex(i + 1)
		if err != nil {
			return nil, err
		}
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		senderIdx = followSwap(senderIdx, i, j)
		receiverIdx = followSwap(receiverIdx, i, j)
	}

	if senderIdx%2 == receiverIdx%2 {
		offset := -1
		if receiverIdx%2 == 0 {
			offset = 1
		}
		neighbor := receiverIdx + offset
		shuffled[receiverIdx], shuffled[neighbor] = shuffled[neighbor], shuffled[receiverIdx]
		if senderIdx == neighbor {
			senderIdx = receiverIdx
		}
		receiverIdx = neighbor
	}

	return &Result{Shuffled: shuffled, Index: [2]int{senderIdx, receiverIdx}}, nil
}

// followSwap updates a tracked index after positions i and j are swapped.
func followSwap(tracked, i, j int) int {
	switch tracked {
	case i:
		return j
	case j:
		return i
	default:
		return tracked
	}
}

// randIndex draws a uniform value in [0, n) via rejection-free modulo
// reduction of a single random byte; tolerated modulo bias per spec §4.4
// since n <= 256 in practice for any anonymity set this system supports.
func randIndex(n int) (int, error) {
	if n <= 256 {
		var b [1]byte
		if _, err := rand.Read(b[:]); err != nil {
			return 0, apperrors.CryptoFailure("shuffle-rng-failed", "read random byte", err)
		}
		return int(b[0]) % n, nil
	}
	k, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, apperrors.CryptoFailure("shuffle-rng-failed", "read random int", err)
	}
	return int(k.Int64()), nil
}
