package utils

import (
	"crypto/rand"
	"encoding/hex"
	mrand "math/rand/v2"
)

// GenerateToken returns n random bytes hex encoded.
func GenerateToken(n int) (string, error) {
	byt := make([]byte, n)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return hex.EncodeToString(byt), nil
}

// IntRange draws an integer from the inclusive range [min, max].
type IntRange interface {
	IntRange(lo, hi int) int
}

type MathRandRange struct{}

func (MathRandRange) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + mrand.IntN(hi-lo+1)
}

// FixedRange always returns Value clamped to the requested range.
type FixedRange struct {
	Value int
}

func (f FixedRange) IntRange(lo, hi int) int {
	return max(lo, min(f.Value, hi))
}
