package models

// Amounts and fee rates travel as base 10 strings since they can exceed 64 bits.
// Fee rates are scaled by 1e18 and protocol shares are in basis points.

// FeeRequest is the body of the FeeAmountFrom, FeeAmount and CompositionFee calls
type FeeRequest struct {
	Amount   string `json:"amount"`    // e.g., "1000000"
	TotalFee string `json:"total_fee"` // e.g., "3000000000000000" for 0.3%
}

type FeeResponse struct {
	Fee      string `json:"fee"`
	FeeRate  string `json:"fee_rate"` // total fee as a fraction, e.g., "0.003"
	TotalFee string `json:"total_fee"`
}

type ProtocolFeeRequest struct {
	FeeAmount     string `json:"fee_amount"`
	ProtocolShare string `json:"protocol_share"` // basis points, e.g., "1000" for 10%
}

type ProtocolFeeResponse struct {
	ProtocolFee string `json:"protocol_fee"`
	ShareRate   string `json:"share_rate"` // e.g., "0.1"
}

type PairFeesRequest struct {
	Pair string `json:"pair"`
}

type PairFeesResponse struct {
	Pair          string `json:"pair"`
	BinStep       uint16 `json:"bin_step"`
	BaseFee       string `json:"base_fee"`
	VariableFee   string `json:"variable_fee"`
	TotalFee      string `json:"total_fee"`
	TotalFeeRate  string `json:"total_fee_rate"`
	ProtocolShare uint16 `json:"protocol_share"`
	// FeeTooLarge is set when the total fee is above the max fee; swaps on the
	// pair are then rejected.
	FeeTooLarge bool `json:"fee_too_large,omitempty"`
}

type PriceRequest struct {
	BinStep uint16 `json:"bin_step"`
	ID      uint32 `json:"id"`
}

type PriceResponse struct {
	BinStep      uint16 `json:"bin_step"`
	ID           uint32 `json:"id"`
	Price128x128 string `json:"price_128x128"`
	Price        string `json:"price"` // decimal, 18 digits at most
}

// QuoteSwapRequest quotes a swap starting at the active bin of a pair and
// walking the funded bins until the input is used up.
type QuoteSwapRequest struct {
	Pair     string `json:"pair"`
	SwapForY bool   `json:"swap_for_y"`
	AmountIn string `json:"amount_in"`
	// ActiveID is the bin the swap starts at. Zero means the pair's active
	// bin, so bin 0 cannot be named; its price underflows at any bin step.
	ActiveID uint32 `json:"active_id,omitempty"`
	// ReserveX and ReserveY replace the reserves of the starting bin; when
	// empty the pair's reserves at that bin are used.
	ReserveX string `json:"reserve_x,omitempty"`
	ReserveY string `json:"reserve_y,omitempty"`
}

type QuoteSwapResponse struct {
	Pair        string `json:"pair"`
	ActiveID    uint32 `json:"active_id"`    // last bin the swap touched
	AmountIn    string `json:"amount_in"`    // taken from the swapper, fees included
	AmountOut   string `json:"amount_out"`   // leaving the bins
	AmountLeft  string `json:"amount_left"`  // not consumed once the bins ran out
	Fee         string `json:"fee"`          // total fee, in the input token
	ProtocolFee string `json:"protocol_fee"` // protocol part of the fee
	TotalFee    string `json:"total_fee"`    // fee rate of the last bin
	Price       string `json:"price"`        // price of the last bin

	Bins []BinSwap `json:"bins,omitempty"`
}

// BinSwap is the part of a swap done inside one bin
type BinSwap struct {
	ID        uint32 `json:"id"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
	Fee       string `json:"fee"`
	TotalFee  string `json:"total_fee"`
}

// LiquidityBin spreads a share of the deposit to one bin. Distributions are
// fractions of the deposited X and Y, either scaled by 1e18 or written with
// a dot, e.g. "0.25".
type LiquidityBin struct {
	ID            uint32 `json:"id"`
	DistributionX string `json:"distribution_x,omitempty"`
	DistributionY string `json:"distribution_y,omitempty"`
}

// QuoteAddLiquidityRequest splits a deposit over bins of a pair. Bins below
// the active one may only receive Y and bins above it only X.
type QuoteAddLiquidityRequest struct {
	Pair    string         `json:"pair"`
	AmountX string         `json:"amount_x"`
	AmountY string         `json:"amount_y"`
	Bins    []LiquidityBin `json:"bins"`
}

type QuoteAddLiquidityResponse struct {
	Pair     string `json:"pair"`
	ActiveID uint32 `json:"active_id"`
	// amounts credited to the bins, composition fees removed
	AmountX string `json:"amount_x"`
	AmountY string `json:"amount_y"`
	// composition fees paid to the active bin
	FeeX string `json:"fee_x"`
	FeeY string `json:"fee_y"`
	// amounts the distributions leave out
	AmountXLeft string `json:"amount_x_left"`
	AmountYLeft string `json:"amount_y_left"`

	Bins []BinDeposit `json:"bins"`
}

// BinDeposit is the part of a deposit credited to one bin
type BinDeposit struct {
	ID      uint32 `json:"id"`
	AmountX string `json:"amount_x"`
	AmountY string `json:"amount_y"`
	// FeeX and FeeY are the composition fees of the active bin
	FeeX   string `json:"fee_x,omitempty"`
	FeeY   string `json:"fee_y,omitempty"`
	Shares string `json:"shares"` // liquidity minted, 128.128 scaled
	Price  string `json:"price"`
	// Config is the packed liquidity configuration of the bin, in hex
	Config string `json:"config"`
}

type ListPairsRequest struct{}

type PairSummary struct {
	Name          string `json:"name"`
	BinStep       uint16 `json:"bin_step"`
	ActiveID      uint32 `json:"active_id"`
	BaseFactor    uint16 `json:"base_factor"`
	ProtocolShare uint16 `json:"protocol_share"`
	Bins          int    `json:"bins"` // funded bins
}

type ListPairsResponse struct {
	Pairs []PairSummary `json:"pairs"`
}
