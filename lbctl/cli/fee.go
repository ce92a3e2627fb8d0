package cli

import (
	"context"

	"github.com/Cogwheel-Validator/liquidity-book/quoter/models"
	"github.com/spf13/cobra"
)

func newFeeCmd(opts *options) *cobra.Command {
	feeCmd := &cobra.Command{
		Use:   "fee",
		Short: "Fee calculations",
		Long: `Fee calculations over an amount and a total fee.
The total fee is either scaled by 1e18 ("3000000000000000") or a fraction ("0.003").`,
	}

	feeCmd.AddCommand(
		newFeeOpCmd(opts, "from <amount-with-fees> <total-fee>", "Fee included in an amount that already carries fees",
			func(b backend) func(context.Context, models.FeeRequest) (*models.FeeResponse, error) {
				return b.FeeAmountFrom
			}),
		newFeeOpCmd(opts, "amount <amount> <total-fee>", "Fee to add on top of a net amount",
			func(b backend) func(context.Context, models.FeeRequest) (*models.FeeResponse, error) {
				return b.FeeAmount
			}),
		newFeeOpCmd(opts, "composition <amount-with-fees> <total-fee>", "Fee charged on an unbalanced deposit into the active bin",
			func(b backend) func(context.Context, models.FeeRequest) (*models.FeeResponse, error) {
				return b.CompositionFee
			}),
		&cobra.Command{
			Use:   "protocol <fee-amount> <protocol-share>",
			Short: "Protocol part of a collected fee, share in basis points",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := opts.context(cmd)
				defer cancel()

				res, err := opts.backend.ProtocolFee(ctx, models.ProtocolFeeRequest{
					FeeAmount:     args[0],
					ProtocolShare: args[1],
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			},
		},
	)

	return feeCmd
}

func newFeeOpCmd(
	opts *options,
	use, short string,
	op func(b backend) func(context.Context, models.FeeRequest) (*models.FeeResponse, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := op(opts.backend)(ctx, models.FeeRequest{Amount: args[0], TotalFee: args[1]})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}
