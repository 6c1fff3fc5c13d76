// Command pmx is the terminal client for the pattern market API.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/duskvale/patternmarket/internal/client"
	"github.com/duskvale/patternmarket/internal/config"
	"github.com/duskvale/patternmarket/tui"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "pmx",
		Short:        "Pattern market terminal client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")

	root.AddCommand(
		newMarketCmd(&apiBase),
		newInstrumentCmd(&apiBase),
		newJoinCmd(&apiBase),
		newPortfolioCmd(&apiBase),
		newOrderCmd(&apiBase),
		newOrdersCmd(&apiBase),
		newCancelCmd(&apiBase),
		newChallengeCmd(&apiBase),
		newEventsCmd(&apiBase),
		newDashCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *client.Client {
	return client.New(strings.TrimSpace(*apiBase))
}

func cmdContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newMarketCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "market",
		Short: "Show the market state and instrument board",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			snap, err := newClient(apiBase).Market(ctx)
			if err != nil {
				return err
			}
			printState(snap.State)
			printInstruments(snap.Instruments)
			return nil
		},
	}
}

func newInstrumentCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "instrument SYMBOL",
		Short: "Show one instrument with its indicators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			in, err := newClient(apiBase).Instrument(ctx, strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			printInstrumentDetail(in)
			return nil
		},
	}
}

func newJoinCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "join OWNER",
		Short: "Register a portfolio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			pv, err := newClient(apiBase).CreatePortfolio(ctx, args[0])
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("portfolio %s ready with %s cash", pv.ID, pv.Cash))
			return nil
		},
	}
}

func newPortfolioCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio OWNER",
		Short: "Show a portfolio ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			pv, err := newClient(apiBase).Portfolio(ctx, args[0])
			if err != nil {
				return err
			}
			printPortfolio(pv)
			return nil
		},
	}
}

func newOrderCmd(apiBase *string) *cobra.Command {
	var price, leverage, stopLoss, takeProfit float64
	cmd := &cobra.Command{
		Use:   "order SIDE OWNER SYMBOL QUANTITY",
		Short: "Place an order (side: buy, sell, short, cover)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.ParseInt(args[3], 10, 64)
			if err != nil {
				return fmt.Errorf("quantity %q: %w", args[3], err)
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			o, err := newClient(apiBase).PlaceOrder(ctx, args[1], strings.ToUpper(args[2]),
				strings.ToUpper(args[0]), qty, price, leverage, stopLoss, takeProfit)
			if err != nil {
				return err
			}
			printOrder(o)
			return nil
		},
	}
	cmd.Flags().Float64Var(&price, "price", 0, "limit price (0 = at market)")
	cmd.Flags().Float64Var(&leverage, "leverage", 1, "leverage factor")
	cmd.Flags().Float64Var(&stopLoss, "stop", 0, "stop-loss trigger price")
	cmd.Flags().Float64Var(&takeProfit, "take", 0, "take-profit trigger price")
	return cmd
}

func newOrdersCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "orders OWNER",
		Short: "List an owner's orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			orders, err := newClient(apiBase).Orders(ctx, args[0])
			if err != nil {
				return err
			}
			printOrders(orders)
			return nil
		},
	}
}

func newCancelCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ORDER_ID",
		Short: "Withdraw a pending order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			o, err := newClient(apiBase).CancelOrder(ctx, args[0])
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("order %s cancelled", o.ID))
			return nil
		},
	}
}

func newChallengeCmd(apiBase *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Request and solve algorithmic challenges",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "new OWNER TYPE",
			Short: "Request a challenge (SEQUENCE, CIPHER, FRACTAL, ...)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := cmdContext(cmd)
				defer cancel()
				view, err := newClient(apiBase).NewChallenge(ctx, args[0], strings.ToUpper(args[1]))
				if err != nil {
					return err
				}
				printChallenge(view)
				return nil
			},
		},
		&cobra.Command{
			Use:   "solve OWNER TYPE SOLUTION...",
			Short: "Submit a solution",
			Args:  cobra.MinimumNArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := cmdContext(cmd)
				defer cancel()
				bonus, err := newClient(apiBase).SolveChallenge(ctx, args[0],
					strings.ToUpper(args[1]), strings.Join(args[2:], " "))
				if err != nil {
					return err
				}
				printBonus(bonus)
				return nil
			},
		},
	)
	return cmd
}

func newEventsCmd(apiBase *string) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent market events",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			events, err := newClient(apiBase).Events(ctx, n)
			if err != nil {
				return err
			}
			printEvents(events)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 20, "number of events")
	return cmd
}

func newDashCmd(apiBase *string) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open the live terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(newClient(apiBase), owner)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "portfolio to track")
	return cmd
}
