package lbmath_test

import (
	"testing"

	"github.com/Cogwheel-Validator/liquidity-book/lbmath"
	"github.com/zeebo/assert"
)

const maxBinID = 1<<24 - 1

func TestTreeAddRemove(t *testing.T) {
	tree := lbmath.NewTreeUint24()

	assert.False(t, tree.Contains(42))
	assert.True(t, tree.Add(42))
	assert.False(t, tree.Add(42))
	assert.True(t, tree.Contains(42))
	assert.False(t, tree.Contains(43))
	assert.False(t, tree.Contains(42+256))

	assert.False(t, tree.Add(1<<24))
	assert.False(t, tree.Contains(1<<24))

	assert.True(t, tree.Remove(42))
	assert.False(t, tree.Remove(42))
	assert.False(t, tree.Contains(42))

	_, ok := tree.FindFirstLeft(0)
	assert.False(t, ok)
	_, ok = tree.FindFirstRight(maxBinID)
	assert.False(t, ok)
}

func TestTreeFindFirst(t *testing.T) {
	tree := lbmath.NewTreeUint24()
	ids := []uint32{5, 300, 70_000, lbmath.RealIDShift, maxBinID}
	for _, id := range ids {
		assert.True(t, tree.Add(id))
	}

	right := []struct {
		from, want uint32
		ok         bool
	}{
		{maxBinID, lbmath.RealIDShift, true},
		{lbmath.RealIDShift, 70_000, true},
		{lbmath.RealIDShift - 1, 70_000, true},
		{70_000, 300, true},
		{1000, 300, true},
		{300, 5, true},
		{5, 0, false},
		{1 << 24, maxBinID, true},
	}
	for _, tt := range right {
		got, ok := tree.FindFirstRight(tt.from)
		assert.Equal(t, ok, tt.ok)
		assert.Equal(t, got, tt.want)
	}

	left := []struct {
		from, want uint32
		ok         bool
	}{
		{0, 5, true},
		{5, 300, true},
		{300, 70_000, true},
		{70_001, lbmath.RealIDShift, true},
		{lbmath.RealIDShift, maxBinID, true},
		{maxBinID, 0, false},
	}
	for _, tt := range left {
		got, ok := tree.FindFirstLeft(tt.from)
		assert.Equal(t, ok, tt.ok)
		assert.Equal(t, got, tt.want)
	}

	// emptying a leaf clears the upper levels too
	assert.True(t, tree.Remove(300))
	got, ok := tree.FindFirstRight(1000)
	assert.True(t, ok)
	assert.Equal(t, got, uint32(5))
	got, ok = tree.FindFirstLeft(5)
	assert.True(t, ok)
	assert.Equal(t, got, uint32(70_000))
}

func TestTreeSameLeaf(t *testing.T) {
	tree := lbmath.NewTreeUint24()
	for _, id := range []uint32{256, 257, 511} {
		tree.Add(id)
	}

	got, ok := tree.FindFirstRight(511)
	assert.True(t, ok)
	assert.Equal(t, got, uint32(257))

	got, ok = tree.FindFirstLeft(256)
	assert.True(t, ok)
	assert.Equal(t, got, uint32(257))

	got, ok = tree.FindFirstLeft(257)
	assert.True(t, ok)
	assert.Equal(t, got, uint32(511))

	_, ok = tree.FindFirstRight(256)
	assert.False(t, ok)
}
