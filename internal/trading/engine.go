// Package trading executes buys and sells against an account's cash and
// ledger.
//
// The quote is fetched once, before the account scope opens; that price is
// the one checked, charged and written to the ledger. Everything after the
// lookup happens inside store.WithAccount, so concurrent trades on the same
// account never observe each other's intermediate state.
package trading

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"papertrade/internal/apperr"
	"papertrade/internal/events"
	"papertrade/internal/ledger"
	"papertrade/internal/model"
	"papertrade/internal/quotes"
	"papertrade/internal/store"
	"papertrade/internal/types"

	"github.com/shopspring/decimal"
)

type Publisher interface {
	Publish(evt events.Event)
}

type Engine struct {
	store  store.Store
	quotes quotes.Provider
	pub    Publisher
	log    *slog.Logger
}

// Result is a committed trade and the account's cash after it.
type Result struct {
	Record model.TradeRecord `json:"trade"`
	Cash   decimal.Decimal   `json:"cash"`
}

// NewEngine wires an engine. pub may be nil.
func NewEngine(s store.Store, q quotes.Provider, pub Publisher, log *slog.Logger) *Engine {
	return &Engine{store: s, quotes: q, pub: pub, log: log}
}

// ParseShares parses a share count typed by a user.
func ParseShares(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrInvalidQuantity, err)
	}
	return n, nil
}

// Quote looks up the current price of symbol.
func (e *Engine) Quote(ctx context.Context, symbol string) (quotes.Quote, error) {
	symbol = quotes.NormalizeSymbol(symbol)
	if symbol == "" {
		return quotes.Quote{}, apperr.ErrMissingSymbol
	}
	return e.lookup(ctx, symbol)
}

func (e *Engine) Buy(ctx context.Context, accountID, symbol string, shares int64) (Result, error) {
	q, err := e.prepare(ctx, symbol, shares)
	if err != nil {
		return Result{}, err
	}
	total := q.Price.Mul(decimal.NewFromInt(shares))

	var res Result
	err = e.store.WithAccount(ctx, accountID, func(tx store.Tx) error {
		cash, err := tx.Cash(ctx)
		if err != nil {
			return err
		}
		remaining := cash.Sub(total)
		if remaining.IsNegative() {
			return apperr.ErrInsufficientFunds
		}
		if err := tx.SetCash(ctx, remaining); err != nil {
			return err
		}
		rec, err := tx.AppendRecord(ctx, newRecord(accountID, q, shares))
		if err != nil {
			return err
		}
		res = Result{Record: rec, Cash: remaining}
		return nil
	})
	if err != nil {
		return Result{}, e.mapStoreErr(ctx, "buy", accountID, err)
	}
	e.publish(res)
	return res, nil
}

func (e *Engine) Sell(ctx context.Context, accountID, symbol string, shares int64) (Result, error) {
	q, err := e.prepare(ctx, symbol, shares)
	if err != nil {
		return Result{}, err
	}
	proceeds := q.Price.Mul(decimal.NewFromInt(shares))

	var res Result
	err = e.store.WithAccount(ctx, accountID, func(tx store.Tx) error {
		cash, err := tx.Cash(ctx)
		if err != nil {
			return err
		}
		held, err := ledger.NewProjector(tx).SharesHeld(ctx, accountID, q.Symbol)
		if err != nil {
			return err
		}
		if held < shares {
			return apperr.ErrInsufficientShares
		}
		cash = cash.Add(proceeds)
		if err := tx.SetCash(ctx, cash); err != nil {
			return err
		}
		rec, err := tx.AppendRecord(ctx, newRecord(accountID, q, -shares))
		if err != nil {
			return err
		}
		res = Result{Record: rec, Cash: cash}
		return nil
	})
	if err != nil {
		return Result{}, e.mapStoreErr(ctx, "sell", accountID, err)
	}
	e.publish(res)
	return res, nil
}

// prepare runs the checks shared by Buy and Sell, in order, and returns the
// quote with a canonical symbol.
func (e *Engine) prepare(ctx context.Context, symbol string, shares int64) (quotes.Quote, error) {
	if shares <= 0 {
		return quotes.Quote{}, apperr.ErrInvalidQuantity
	}
	symbol = quotes.NormalizeSymbol(symbol)
	if symbol == "" {
		return quotes.Quote{}, apperr.ErrMissingSymbol
	}
	return e.lookup(ctx, symbol)
}

func (e *Engine) lookup(ctx context.Context, symbol string) (quotes.Quote, error) {
	q, err := e.quotes.Lookup(ctx, symbol)
	if err == nil {
		err = q.Validate()
	}
	if err != nil {
		if !errors.Is(err, quotes.ErrNotFound) {
			e.log.WarnContext(ctx, "quote lookup failed", "symbol", symbol, "err", err)
		}
		return quotes.Quote{}, apperr.Wrap(apperr.ErrUnknownSymbol, err)
	}
	q.Symbol = quotes.NormalizeSymbol(q.Symbol)
	return q, nil
}

func (e *Engine) mapStoreErr(ctx context.Context, op, accountID string, err error) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ErrUnknownAccount
	}
	e.log.ErrorContext(ctx, "trade failed", "op", op, "account_id", accountID, "err", err)
	return apperr.StoreUnavailable(err)
}

func (e *Engine) publish(res Result) {
	if e.pub == nil {
		return
	}
	e.pub.Publish(events.Event{Type: types.EventTypeTrade, AccountID: res.Record.AccountID, Data: res})
}

func newRecord(accountID string, q quotes.Quote, shares int64) model.TradeRecord {
	return model.TradeRecord{
		AccountID:   accountID,
		Symbol:      q.Symbol,
		DisplayName: q.Name,
		Shares:      shares,
		Price:       q.Price,
	}
}
