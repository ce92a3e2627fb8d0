package cli

import (
	"fmt"
	"strings"

	"github.com/Cogwheel-Validator/liquidity-book/quoter/models"
	"github.com/spf13/cobra"
)

func newPairsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pairs",
		Short: "List the loaded pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := opts.backend.ListPairs(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newPairFeesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pair-fees <pair>",
		Short: "Base, variable and total fee of a pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := opts.backend.PairFees(ctx, models.PairFeesRequest{Pair: args[0]})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newSwapCmd(opts *options) *cobra.Command {
	var req models.QuoteSwapRequest

	swapCmd := &cobra.Command{
		Use:   "swap <pair> <amount-in>",
		Short: "Quote a swap starting at the active bin of a pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Pair = args[0]
			req.AmountIn = args[1]

			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := opts.backend.QuoteSwap(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	swapCmd.Flags().BoolVar(&req.SwapForY, "swap-for-y", false, "swap token x for token y")
	swapCmd.Flags().Uint32Var(&req.ActiveID, "active-id", 0, "bin id to start at, the preset active id when zero")
	swapCmd.Flags().StringVar(&req.ReserveX, "reserve-x", "", "starting bin reserve of token x, the preset reserve when empty")
	swapCmd.Flags().StringVar(&req.ReserveY, "reserve-y", "", "starting bin reserve of token y, the preset reserve when empty")

	return swapCmd
}

func newAddLiquidityCmd(opts *options) *cobra.Command {
	var bins []string

	addCmd := &cobra.Command{
		Use:     "add-liquidity <pair> <amount-x> <amount-y>",
		Short:   "Quote how a deposit is split over bins",
		Example: "  lbctl add-liquidity ATOM-USDC 1000 1000 --bin 8388608:0.5:0.5 --bin 8388609:0.5:0",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.QuoteAddLiquidityRequest{Pair: args[0], AmountX: args[1], AmountY: args[2]}
			for _, bin := range bins {
				parsed, err := parseLiquidityBin(bin)
				if err != nil {
					return err
				}
				req.Bins = append(req.Bins, parsed)
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := opts.backend.QuoteAddLiquidity(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	addCmd.Flags().StringArrayVar(&bins, "bin", nil, "bin as id:distribution-x:distribution-y, repeatable")
	_ = addCmd.MarkFlagRequired("bin")

	return addCmd
}

// parseLiquidityBin parses id:distribution-x:distribution-y
func parseLiquidityBin(s string) (models.LiquidityBin, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return models.LiquidityBin{}, fmt.Errorf("invalid bin %q, want id:distribution-x:distribution-y", s)
	}
	id, err := parseID(parts[0])
	if err != nil {
		return models.LiquidityBin{}, err
	}
	return models.LiquidityBin{ID: id, DistributionX: parts[1], DistributionY: parts[2]}, nil
}
