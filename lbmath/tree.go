package lbmath

import (
	"math/bits"

	"github.com/holiman/uint256"
)

// TreeUint24 is a three level bitmap over 24-bit bin ids. A set bit marks a
// bin holding liquidity. Level 2 leaves cover 256 ids each, level 1 leaves
// cover 256 level 2 leaves and level 0 covers the whole id space.
//
// "Right" means toward lower ids and "left" toward higher ids, the order in
// which a swap for Y and a swap for X walk the bins.
type TreeUint24 struct {
	level0 uint256.Int
	level1 map[uint32]uint256.Int
	level2 map[uint32]uint256.Int
}

func NewTreeUint24() *TreeUint24 {
	return &TreeUint24{
		level1: make(map[uint32]uint256.Int),
		level2: make(map[uint32]uint256.Int),
	}
}

// Contains reports whether id is set
func (t *TreeUint24) Contains(id uint32) bool {
	if id > maxID {
		return false
	}
	leaves := t.level2[id>>8]
	return new(uint256.Int).Rsh(&leaves, uint(id&0xff)).Uint64()&1 == 1
}

// Add sets id and reports whether it was unset before. Ids above 24 bits are
// never added.
func (t *TreeUint24) Add(id uint32) bool {
	if id > maxID || t.Contains(id) {
		return false
	}

	key2 := id >> 8
	leaves := t.level2[key2]
	wasEmpty := leaves.IsZero()
	t.level2[key2] = *setBit(&leaves, id&0xff)

	if wasEmpty {
		key1 := key2 >> 8
		leaves = t.level1[key1]
		wasEmpty = leaves.IsZero()
		t.level1[key1] = *setBit(&leaves, key2&0xff)

		if wasEmpty {
			setBit(&t.level0, key1)
		}
	}
	return true
}

// Remove clears id and reports whether it was set before
func (t *TreeUint24) Remove(id uint32) bool {
	if !t.Contains(id) {
		return false
	}

	key2 := id >> 8
	leaves := t.level2[key2]
	clearBit(&leaves, id&0xff)
	if !leaves.IsZero() {
		t.level2[key2] = leaves
		return true
	}
	delete(t.level2, key2)

	key1 := key2 >> 8
	leaves = t.level1[key1]
	clearBit(&leaves, key2&0xff)
	if !leaves.IsZero() {
		t.level1[key1] = leaves
		return true
	}
	delete(t.level1, key1)
	clearBit(&t.level0, key1)
	return true
}

// FindFirstRight returns the highest set id below id
func (t *TreeUint24) FindFirstRight(id uint32) (uint32, bool) {
	return t.findFirst(id, true)
}

// FindFirstLeft returns the lowest set id above id
func (t *TreeUint24) FindFirstLeft(id uint32) (uint32, bool) {
	return t.findFirst(id, false)
}

// findFirst walks up the levels until a leaf holds a set bit on the wanted
// side, then walks down taking the nearest bit of each leaf.
func (t *TreeUint24) findFirst(id uint32, right bool) (uint32, bool) {
	if id > maxID {
		if !right {
			return 0, false
		}
		if t.Contains(maxID) {
			return maxID, true
		}
		id = maxID
	}

	key2 := id >> 8
	leaves := t.level2[key2]
	if b, ok := closestBit(&leaves, id&0xff, right); ok {
		return key2<<8 | b, true
	}

	key1 := key2 >> 8
	leaves = t.level1[key1]
	if b, ok := closestBit(&leaves, key2&0xff, right); ok {
		key2 = key1<<8 | b
		return key2<<8 | t.edge(t.level2, key2, right), true
	}

	if b, ok := closestBit(&t.level0, key1&0xff, right); ok {
		key2 = b<<8 | t.edge(t.level1, b, right)
		return key2<<8 | t.edge(t.level2, key2, right), true
	}
	return 0, false
}

// edge returns the highest (right) or lowest set bit of a leaf
func (t *TreeUint24) edge(level map[uint32]uint256.Int, key uint32, right bool) uint32 {
	leaves := level[key]
	if right {
		return mostSignificantBit(&leaves)
	}
	return leastSignificantBit(&leaves)
}

// closestBit returns the nearest set bit of x strictly below (right) or
// strictly above bit
func closestBit(x *uint256.Int, bit uint32, right bool) (uint32, bool) {
	if right {
		if bit == 0 {
			return 0, false
		}
		shift := uint(256 - bit)
		masked := new(uint256.Int).Lsh(x, shift)
		if masked.IsZero() {
			return 0, false
		}
		return mostSignificantBit(masked) - uint32(shift), true
	}

	if bit >= 255 {
		return 0, false
	}
	masked := new(uint256.Int).Rsh(x, uint(bit+1))
	if masked.IsZero() {
		return 0, false
	}
	return leastSignificantBit(masked) + bit + 1, true
}

func mostSignificantBit(x *uint256.Int) uint32 {
	if x.IsZero() {
		return 0
	}
	return uint32(x.BitLen() - 1)
}

func leastSignificantBit(x *uint256.Int) uint32 {
	for i, word := range x {
		if word != 0 {
			return uint32(i*64 + bits.TrailingZeros64(word))
		}
	}
	return 255
}

func setBit(x *uint256.Int, bit uint32) *uint256.Int {
	return x.Or(x, new(uint256.Int).Lsh(uint256.NewInt(1), uint(bit)))
}

func clearBit(x *uint256.Int, bit uint32) *uint256.Int {
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bit))
	return x.And(x, mask.Not(mask))
}
