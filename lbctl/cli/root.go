package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/Cogwheel-Validator/liquidity-book/quoter/pricing"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type options struct {
	pairsFile string
	remote    string
	timeout   time.Duration
	verbose   bool

	backend backend
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCmd builds the lbctl command tree
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "lbctl",
		Short: "lbctl - Liquidity Book fee and price calculator",
		Long: `lbctl computes Liquidity Book fees, bin prices and single bin swap quotes.
It runs the quoter in process, or asks a running quoter server when --remote is set.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.pairsFile, "pairs", "", "toml file with pair presets, used without --remote")
	rootCmd.PersistentFlags().StringVar(&opts.remote, "remote", "", "quoter server url, e.g. http://localhost:8080")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout for --remote")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log quoter activity to stderr")

	rootCmd.AddCommand(
		newFeeCmd(opts),
		newPriceCmd(opts),
		newIDCmd(opts),
		newPairsCmd(opts),
		newPairFeesCmd(opts),
		newSwapCmd(opts),
		newAddLiquidityCmd(opts),
	)

	return rootCmd
}

func (o *options) init() error {
	if !o.verbose {
		pricing.SetLogger(zerolog.Nop())
	}

	if o.remote != "" {
		o.backend = newRemoteBackend(o.remote, o.timeout)
		return nil
	}

	local, err := newLocalBackend(o.pairsFile)
	if err != nil {
		return err
	}
	o.backend = local
	return nil
}

func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, o.timeout)
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func parseBinStep(s string) (uint16, error) {
	binStep, err := strconv.ParseUint(s, 10, 16)
	if err != nil || binStep == 0 {
		return 0, fmt.Errorf("invalid bin step %q", s)
	}
	return uint16(binStep), nil
}

func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 24)
	if err != nil {
		return 0, fmt.Errorf("invalid bin id %q", s)
	}
	return uint32(id), nil
}
