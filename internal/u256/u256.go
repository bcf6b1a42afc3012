// Package u256 provides the arbitrary-precision unsigned arithmetic the
// design requires throughout value decoding and balance accumulation,
// built on holiman/uint256 (a direct go-ethereum dependency already pulled
// in for RPC/ABI decoding).
package u256

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Zero is the decimal-string representation of the zero value, used as the
// starting value of balance counters that have no row yet.
const Zero = "0"

// FromDecimalString parses a decimal string into a uint256.Int, defaulting
// to zero on empty or malformed input rather than erroring — callers treat
// a malformed numeric RPC field as "0" per the design's normalization
// rules, not as a fatal decode failure.
func FromDecimalString(s string) *uint256.Int {
	if s == "" {
		return uint256.NewInt(0)
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return uint256.NewInt(0)
	}
	return v
}

// FromBigEndianBytes interprets a big-endian byte slice (as found in log
// data payloads) as a U256 value.
func FromBigEndianBytes(b []byte) *uint256.Int {
	v := new(uint256.Int)
	v.SetBytes(b)
	return v
}

// Add returns the decimal-string sum of two decimal-string U256 values.
func Add(a, b string) string {
	av := FromDecimalString(a)
	bv := FromDecimalString(b)
	sum := new(uint256.Int).Add(av, bv)
	return sum.Dec()
}

// String normalizes a decimal string, defaulting empty/malformed input to
// "0" as the design's block/transaction normalization requires.
func String(s string) string {
	return FromDecimalString(s).Dec()
}

// ToBigInt converts a decimal-string U256 value into a *big.Int, used where
// a component (e.g. NFT balance accumulation) needs signed arithmetic.
func ToBigInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

// SignedAdd adds delta to the decimal-string balance using signed
// arithmetic, allowed to go negative. NFT balance accumulation uses this
// instead of the U256 twin-counter model since transient negatives are
// acceptable there.
func SignedAdd(balance string, delta *big.Int) string {
	cur, ok := new(big.Int).SetString(balance, 10)
	if !ok {
		cur = big.NewInt(0)
	}
	return new(big.Int).Add(cur, delta).String()
}
