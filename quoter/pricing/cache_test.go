package pricing

import (
	"testing"

	"github.com/Cogwheel-Validator/liquidity-book/lbmath"
	"github.com/zeebo/assert"
)

func TestPriceCache(t *testing.T) {
	q, err := NewQuoter(nil, 2)
	assert.NoError(t, err)

	first, err := q.price(25, lbmath.RealIDShift+100)
	assert.NoError(t, err)
	assert.Equal(t, q.prices.Len(), 1)

	// callers get copies, the cached value stays intact
	first.SetUint64(0)
	again, err := q.price(25, lbmath.RealIDShift+100)
	assert.NoError(t, err)
	assert.Equal(t, again.Dec(), "436794915378552100798054128165989473614")
	assert.Equal(t, q.prices.Len(), 1)

	for id := uint32(0); id < 3; id++ {
		_, err = q.price(1, lbmath.RealIDShift+id)
		assert.NoError(t, err)
	}
	assert.Equal(t, q.prices.Len(), 2)
}
