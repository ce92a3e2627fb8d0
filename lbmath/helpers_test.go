package lbmath_test

import (
	"testing"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

func u128(t testing.TB, s string) uint128.Uint128 {
	t.Helper()
	v, err := uint128.FromString(s)
	if err != nil {
		t.Fatalf("bad uint128 %q: %v", s, err)
	}
	return v
}

func u256(s string) *uint256.Int {
	return uint256.MustFromDecimal(s)
}

func n(v uint64) uint128.Uint128 {
	return uint128.From64(v)
}
