package cmd

import (
	"fmt"
	"strings"

	"papertrade/internal/ledger"
	"papertrade/internal/model"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show current holdings valued at their last traded price",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		accountID, err := login(cmd, a)
		if err != nil {
			return err
		}
		p, err := a.Ledger.Portfolio(cmd.Context(), accountID)
		if err != nil {
			return report(cmd, err)
		}
		return render(cmd, portfolioMarkdown(p))
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show every trade, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		accountID, err := login(cmd, a)
		if err != nil {
			return err
		}
		h, err := a.Ledger.History(cmd.Context(), accountID)
		if err != nil {
			return report(cmd, err)
		}
		return render(cmd, historyMarkdown(h))
	},
}

func init() {
	rootCmd.AddCommand(portfolioCmd, historyCmd)
}

func render(cmd *cobra.Command, md string) error {
	if plain {
		_, err := fmt.Fprint(cmd.OutOrStdout(), md)
		return err
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func portfolioMarkdown(p ledger.Portfolio) string {
	var b strings.Builder
	b.WriteString("# Portfolio\n\n")
	b.WriteString("| Symbol | Name | Shares | Price | Total |\n")
	b.WriteString("|---|---|--:|--:|--:|\n")
	for _, pos := range p.Positions {
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n",
			pos.Symbol, escape(pos.DisplayName), pos.TotalShares, model.USD(pos.LastPrice), model.USD(pos.Value))
	}
	fmt.Fprintf(&b, "| CASH | | | | %s |\n", model.USD(p.Cash))
	fmt.Fprintf(&b, "| | | | | **%s** |\n", model.USD(p.Total))
	return b.String()
}

func historyMarkdown(h ledger.History) string {
	var b strings.Builder
	b.WriteString("# History\n\n")
	if len(h.Trades) == 0 {
		b.WriteString("No trades yet.\n")
		return b.String()
	}
	b.WriteString("| Symbol | Side | Shares | Price | Transacted |\n")
	b.WriteString("|---|---|--:|--:|---|\n")
	for _, t := range h.Trades {
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n",
			t.Symbol, t.Side(), t.Shares, model.USD(t.Price), t.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
