package cli

import (
	"fmt"

	"github.com/Cogwheel-Validator/liquidity-book/lbmath"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/models"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newPriceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "price <bin-step> <id>",
		Short: "Price of a bin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			binStep, err := parseBinStep(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := opts.backend.Price(ctx, models.PriceRequest{BinStep: binStep, ID: id})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newIDCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "id <bin-step> <price>",
		Short: "Bin id holding a decimal price, e.g. 1.25",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			binStep, err := parseBinStep(args[0])
			if err != nil {
				return err
			}
			id, err := idFromDecimalPrice(args[1], binStep)
			if err != nil {
				return err
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := opts.backend.Price(ctx, models.PriceRequest{BinStep: binStep, ID: id})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

// idFromDecimalPrice truncates price to 18 decimals and returns its bin id
func idFromDecimalPrice(s string, binStep uint16) (uint32, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	scaled := d.Shift(18).Truncate(0)
	if !scaled.IsPositive() {
		return 0, fmt.Errorf("price %q must be positive at 18 decimals", s)
	}
	price, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return 0, fmt.Errorf("price %q is too large", s)
	}

	price128, err := lbmath.ConvertDecimalPriceTo128x128(price)
	if err != nil {
		return 0, err
	}
	return lbmath.GetIDFromPrice(price128, binStep)
}
