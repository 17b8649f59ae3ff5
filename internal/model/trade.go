package model

import (
	"time"

	"papertrade/internal/types"

	"github.com/shopspring/decimal"
)

// TradeRecord is one ledger entry. Shares is positive for a buy and negative
// for a sell; Symbol, DisplayName and Price are snapshots taken at execution.
type TradeRecord struct {
	ID          int64           `json:"id"`
	AccountID   string          `json:"account_id"`
	Symbol      string          `json:"symbol"`
	DisplayName string          `json:"name"`
	Shares      int64           `json:"shares"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (r TradeRecord) Side() types.TradeSide {
	if r.Shares < 0 {
		return types.TradeSideSell
	}
	return types.TradeSideBuy
}

// Total is the absolute cash amount moved by the trade.
func (r TradeRecord) Total() decimal.Decimal {
	shares := r.Shares
	if shares < 0 {
		shares = -shares
	}
	return r.Price.Mul(decimal.NewFromInt(shares))
}

// Holding is derived from the ledger and never stored.
type Holding struct {
	Symbol      string          `json:"symbol"`
	DisplayName string          `json:"name"`
	TotalShares int64           `json:"total_shares"`
	LastPrice   decimal.Decimal `json:"price"`
}

func (h Holding) Value() decimal.Decimal {
	return h.LastPrice.Mul(decimal.NewFromInt(h.TotalShares))
}
