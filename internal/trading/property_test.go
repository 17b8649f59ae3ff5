package trading

import (
	"context"
	"fmt"
	"testing"

	"papertrade/internal/apperr"
	"papertrade/internal/ledger"
	"papertrade/internal/model"
	"papertrade/internal/quotes"
	"papertrade/internal/store/storetest"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

var boardPrices = map[string]quotes.Quote{
	"AAA": {Price: decimal.RequireFromString("12.34")},
	"BBB": {Price: decimal.RequireFromString("7.5")},
	"CCC": {Price: decimal.RequireFromString("250")},
}

func TestLedgerInvariantsHold(t *testing.T) {
	s := newSQLite(t)
	engine := NewEngine(s, quotes.NewStaticProvider(boardPrices), nil, discard)
	ctx := context.Background()
	n := 0

	rapid.Check(t, func(rt *rapid.T) {
		n++
		start := decimal.NewFromInt(rapid.Int64Range(0, 3000).Draw(rt, "cash"))
		acc := storetest.NewAccount(t, s, fmt.Sprintf("user-%d", n), start)

		steps := rapid.IntRange(1, 25).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			buy := rapid.Bool().Draw(rt, "buy")
			symbol := rapid.SampledFrom([]string{"AAA", "BBB", "CCC"}).Draw(rt, "symbol")
			shares := rapid.Int64Range(-1, 15).Draw(rt, "shares")

			before, err := s.AccountByID(ctx, acc.ID)
			if err != nil {
				rt.Fatal(err)
			}
			recsBefore, err := s.ListRecords(ctx, acc.ID)
			if err != nil {
				rt.Fatal(err)
			}

			if buy {
				_, err = engine.Buy(ctx, acc.ID, symbol, shares)
			} else {
				_, err = engine.Sell(ctx, acc.ID, symbol, shares)
			}
			if apperr.IsFault(err) {
				rt.Fatalf("fault: %v", err)
			}

			after, _ := s.AccountByID(ctx, acc.ID)
			recs, _ := s.ListRecords(ctx, acc.ID)

			if err != nil {
				if !after.Cash.Equal(before.Cash) || len(recs) != len(recsBefore) {
					rt.Fatalf("failed trade mutated state: %v", err)
				}
				continue
			}
			if len(recs) != len(recsBefore)+1 {
				rt.Fatalf("expected one new record, have %d -> %d", len(recsBefore), len(recs))
			}
			last := recs[len(recs)-1]
			if delta := before.Cash.Sub(after.Cash); !delta.Equal(last.Price.Mul(decimal.NewFromInt(last.Shares))) {
				rt.Fatalf("cash moved by %s for %d @ %s", delta, last.Shares, last.Price)
			}
		}

		final, _ := s.AccountByID(ctx, acc.ID)
		if final.Cash.IsNegative() {
			rt.Fatalf("negative cash %s", final.Cash)
		}
		recs, _ := s.ListRecords(ctx, acc.ID)
		history := ledger.Project(recs, ledger.ModeHistory)
		for _, h := range history {
			if h.TotalShares < 0 {
				rt.Fatalf("negative holding %s: %d", h.Symbol, h.TotalShares)
			}
		}
		again := ledger.Project(recs, ledger.ModeHistory)
		if fmt.Sprint(history) != fmt.Sprint(again) {
			rt.Fatalf("projection not idempotent")
		}
		// cash is fully explained by the ledger
		expected := start
		for _, r := range recs {
			expected = expected.Sub(r.Price.Mul(decimal.NewFromInt(r.Shares)))
		}
		if !expected.Equal(final.Cash) {
			rt.Fatalf("cash %s, ledger implies %s", final.Cash, expected)
		}
	})
}

func TestBuyThenSellSameCountRoundTrips(t *testing.T) {
	s := newSQLite(t)
	engine := NewEngine(s, quotes.NewStaticProvider(boardPrices), nil, discard)
	ctx := context.Background()
	n := 0

	rapid.Check(t, func(rt *rapid.T) {
		n++
		acc := storetest.NewAccount(t, s, fmt.Sprintf("rt-%d", n), model.StartingCash)
		symbol := rapid.SampledFrom([]string{"AAA", "BBB", "CCC"}).Draw(rt, "symbol")
		shares := rapid.Int64Range(1, 30).Draw(rt, "shares")

		if _, err := engine.Buy(ctx, acc.ID, symbol, shares); err != nil {
			rt.Fatal(err)
		}
		res, err := engine.Sell(ctx, acc.ID, symbol, shares)
		if err != nil {
			rt.Fatal(err)
		}
		if !res.Cash.Equal(model.StartingCash) {
			rt.Fatalf("cash %s after round trip", res.Cash)
		}
		recs, _ := s.ListRecords(ctx, acc.ID)
		if got := ledger.Project(recs, ledger.ModePortfolio); len(got) != 0 {
			rt.Fatalf("closed position still in portfolio: %v", got)
		}
		if got := ledger.Project(recs, ledger.ModeHistory); len(got) != 1 || got[0].TotalShares != 0 {
			rt.Fatalf("history projection %v", got)
		}
	})
}
