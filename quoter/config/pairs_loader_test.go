package config_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	. "github.com/Cogwheel-Validator/liquidity-book/quoter/config"
	"github.com/zeebo/assert"
)

type mapFileReader map[string]string

func (m mapFileReader) ReadFile(path string) ([]byte, error) {
	body, ok := m[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(body), nil
}

const goodPairs = `
[[pairs]]
name = "ATOM-USDC"
bin_step = 10
base_factor = 5000
filter_period = 30
decay_period = 600
reduction_factor = 5000
variable_fee_control = 40000
protocol_share = 1000
max_volatility_accumulator = 350000
active_id = 8388608
reserve_x = "1000000"
reserve_y = "1000000"

[[pairs.bins]]
id = 8388607
reserve_y = "500000"

[[pairs.bins]]
id = 8388610
reserve_x = "250000"

[[pairs]]
name = "OSMO-ATOM"
bin_step = 25
base_factor = 8000
active_id = 8388708
`

func TestLoadPairs(t *testing.T) {
	loader := NewPairsLoader(mapFileReader{"pairs.toml": goodPairs})

	pairs, err := loader.LoadPairs("pairs.toml")
	assert.NoError(t, err)
	assert.Equal(t, len(pairs), 2)

	atom := pairs[0]
	assert.Equal(t, atom.Name, "ATOM-USDC")
	assert.Equal(t, atom.BinStep, uint16(10))
	assert.Equal(t, atom.BaseFactor, uint16(5000))
	assert.Equal(t, atom.VariableFeeControl, uint32(40000))
	assert.Equal(t, atom.MaxVolatilityAccumulator, uint32(350000))
	assert.Equal(t, atom.ActiveID, uint32(8388608))
	assert.Equal(t, atom.ReserveX, "1000000")
	assert.Equal(t, len(atom.Bins), 2)
	assert.Equal(t, atom.Bins[0], BinPreset{ID: 8388607, ReserveY: "500000"})
	assert.Equal(t, atom.Bins[1].ReserveX, "250000")

	assert.Equal(t, pairs[1].ReserveX, "")
	assert.Equal(t, pairs[1].ActiveID, uint32(8388708))
	assert.Equal(t, len(pairs[1].Bins), 0)
}

func TestLoadPairs_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "empty", body: "", want: "at least one pair"},
		{name: "no_name", body: "[[pairs]]\nbin_step = 1\n", want: "name is required"},
		{name: "duplicate", body: "[[pairs]]\nname = \"a\"\nbin_step = 1\n[[pairs]]\nname = \"a\"\nbin_step = 1\n", want: "duplicate"},
		{name: "zero_bin_step", body: "[[pairs]]\nname = \"a\"\n", want: "bin_step"},
		{name: "bad_toml", body: "[[pairs]\n", want: "unmarshal"},
		{name: "bin_step_overflow", body: "[[pairs]]\nname = \"a\"\nbin_step = 70000\n", want: "unmarshal"},
		{name: "bin_id_zero", body: "[[pairs]]\nname = \"a\"\nbin_step = 1\n[[pairs.bins]]\nid = 0\n", want: "bin id 0"},
		{name: "bin_id_overflow", body: "[[pairs]]\nname = \"a\"\nbin_step = 1\n[[pairs.bins]]\nid = 16777216\n", want: "bin id"},
		{name: "bin_is_active", body: "[[pairs]]\nname = \"a\"\nbin_step = 1\nactive_id = 5\n[[pairs.bins]]\nid = 5\n", want: "active bin"},
		{name: "duplicate_bin", body: "[[pairs]]\nname = \"a\"\nbin_step = 1\n[[pairs.bins]]\nid = 7\n[[pairs.bins]]\nid = 7\n", want: "duplicate bin"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loader := NewPairsLoader(mapFileReader{"pairs.toml": tc.body})
			_, err := loader.LoadPairs("pairs.toml")
			assert.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tc.want))
		})
	}

	_, err := NewPairsLoader(mapFileReader{}).LoadPairs("pairs.json")
	assert.Error(t, err)

	_, err = NewPairsLoader(mapFileReader{}).LoadPairs("missing.toml")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
