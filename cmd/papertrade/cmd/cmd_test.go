package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"papertrade/internal/config"
	"papertrade/internal/ledger"
	"papertrade/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quotesYAML = `
quotes:
  provider: static
  static:
    NFLX:
      name: Netflix, Inc.
      price: 50
`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "papertrade.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(quotesYAML), 0o600))
	t.Setenv(config.FileEnv, "")
	t.Setenv("DB_DSN", filepath.Join(dir, "cli.db"))
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("QUOTE_PROVIDER", "")
	return cfgPath
}

func run(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	stdin = strings.NewReader(input)
	buffered = nil
	rootCmd.SetArgs(append(args, "--plain"))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCLITradingSession(t *testing.T) {
	cfg := setup(t)

	out, _, err := run(t, "", "migrate", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")

	out, _, err = run(t, "abc123!\nabc123!\n", "register", "-c", cfg, "-u", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "registered alice")

	out, _, err = run(t, "", "quote", "-c", cfg, "nflx")
	require.NoError(t, err)
	assert.Equal(t, "A share of Netflix, Inc. (NFLX) costs $50.00.\n", out)

	out, _, err = run(t, "abc123!\n", "buy", "-c", cfg, "-u", "alice", "NFLX", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "bought 10 NFLX @ $50.00; cash $9,500.00")

	out, _, err = run(t, "abc123!\n", "sell", "-c", cfg, "-u", "alice", "NFLX", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "sold 4 NFLX @ $50.00; cash $9,700.00")

	out, _, err = run(t, "abc123!\n", "portfolio", "-c", cfg, "-u", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "| NFLX | Netflix, Inc. | 6 | $50.00 | $300.00 |")
	assert.Contains(t, out, "**$10,000.00**")

	out, _, err = run(t, "abc123!\n", "history", "-c", cfg, "-u", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "| NFLX | buy | 10 | $50.00 |")
	assert.Contains(t, out, "| NFLX | sell | -4 | $50.00 |")
}

func TestCLIReportsDomainErrors(t *testing.T) {
	cfg := setup(t)

	_, errOut, err := run(t, "abc\nabc\n", "register", "-c", cfg, "-u", "bob")
	require.Error(t, err)
	assert.Contains(t, errOut, "password requires a letter, number, and a symbol")

	_, errOut, err = run(t, "", "buy", "-c", cfg, "-u", "bob", "NFLX", "1.5")
	require.Error(t, err)
	assert.Contains(t, errOut, "shares must be a positive integer")

	_, _, err = run(t, "abc123!\nabc123!\n", "register", "-c", cfg, "-u", "bob")
	require.NoError(t, err)
	_, errOut, err = run(t, "abc123!\n", "sell", "-c", cfg, "-u", "bob", "NFLX", "1")
	require.Error(t, err)
	assert.Contains(t, errOut, "not enough shares")

	_, errOut, err = run(t, "wrong1!\n", "portfolio", "-c", cfg, "-u", "bob")
	require.Error(t, err)
	assert.Contains(t, errOut, "invalid username and/or password")

	_, _, err = run(t, "", "portfolio", "-c", cfg, "-u", "")
	assert.ErrorContains(t, err, "--user is required")
}

func TestPortfolioMarkdown(t *testing.T) {
	p := ledger.Portfolio{
		Cash: decimal.NewFromInt(9000),
		Positions: []ledger.Position{{
			Holding: model.Holding{Symbol: "AB", DisplayName: "A|B Corp", TotalShares: 2, LastPrice: decimal.NewFromInt(500)},
			Value:   decimal.NewFromInt(1000),
		}},
		Total: decimal.NewFromInt(10000),
	}
	md := portfolioMarkdown(p)
	assert.Contains(t, md, `| AB | A\|B Corp | 2 | $500.00 | $1,000.00 |`)
	assert.Contains(t, md, "| CASH | | | | $9,000.00 |")
}

func TestHistoryMarkdownEmpty(t *testing.T) {
	assert.Contains(t, historyMarkdown(ledger.History{}), "No trades yet.")

	md := historyMarkdown(ledger.History{Trades: []model.TradeRecord{{
		Symbol: "X", Shares: -1, Price: decimal.NewFromInt(1), CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}}})
	assert.Contains(t, md, "| X | sell | -1 | $1.00 | 2024-01-02 03:04:05 |")
}
