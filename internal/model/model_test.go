package model

import (
	"testing"

	"papertrade/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTradeRecordSideAndTotal(t *testing.T) {
	buy := TradeRecord{Shares: 10, Price: decimal.RequireFromString("50")}
	sell := TradeRecord{Shares: -4, Price: decimal.RequireFromString("60")}

	assert.Equal(t, types.TradeSideBuy, buy.Side())
	assert.Equal(t, types.TradeSideSell, sell.Side())
	assert.True(t, buy.Total().Equal(decimal.RequireFromString("500")))
	assert.True(t, sell.Total().Equal(decimal.RequireFromString("240")))
}

func TestHoldingValue(t *testing.T) {
	h := Holding{TotalShares: 6, LastPrice: decimal.RequireFromString("60.25")}
	assert.True(t, h.Value().Equal(decimal.RequireFromString("361.5")))
}

func TestUSD(t *testing.T) {
	assert.Equal(t, "$10,000.00", USD(StartingCash))
	assert.Equal(t, "$9,740.00", USD(decimal.RequireFromString("9740")))
	assert.Equal(t, "$0.01", USD(decimal.RequireFromString("0.005")))
	assert.Equal(t, "-$12.50", USD(decimal.RequireFromString("-12.5")))
}
