package cmd

import (
	"context"
	"fmt"

	"papertrade/internal/model"
	"papertrade/internal/trading"

	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <symbol>",
	Short: "Look up a stock's current price",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		q, err := a.Engine.Quote(cmd.Context(), args[0])
		if err != nil {
			return report(cmd, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "A share of %s (%s) costs %s.\n", q.Name, q.Symbol, model.USD(q.Price))
		return nil
	},
}

var buyCmd = &cobra.Command{
	Use:   "buy <symbol> <shares>",
	Short: "Buy shares at the current price",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(cmd, args, (*trading.Engine).Buy, "bought")
	},
}

var sellCmd = &cobra.Command{
	Use:   "sell <symbol> <shares>",
	Short: "Sell shares you hold at the current price",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(cmd, args, (*trading.Engine).Sell, "sold")
	},
}

func init() {
	rootCmd.AddCommand(quoteCmd, buyCmd, sellCmd)
}

type tradeFunc = func(e *trading.Engine, ctx context.Context, accountID, symbol string, shares int64) (trading.Result, error)

func runTrade(cmd *cobra.Command, args []string, exec tradeFunc, verb string) error {
	shares, err := trading.ParseShares(args[1])
	if err != nil {
		return report(cmd, err)
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	accountID, err := login(cmd, a)
	if err != nil {
		return err
	}
	res, err := exec(a.Engine, cmd.Context(), accountID, args[0], shares)
	if err != nil {
		return report(cmd, err)
	}
	rec := res.Record
	fmt.Fprintln(cmd.OutOrStdout(), okf("%s %d %s @ %s; cash %s",
		verb, abs(rec.Shares), rec.Symbol, model.USD(rec.Price), model.USD(res.Cash)))
	return nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
