package ledger

import (
	"context"
	"errors"
	"testing"

	"papertrade/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id int64, symbol string, shares int64, price string) model.TradeRecord {
	return model.TradeRecord{
		ID:          id,
		AccountID:   "acc",
		Symbol:      symbol,
		DisplayName: symbol + " Inc.",
		Shares:      shares,
		Price:       decimal.RequireFromString(price),
	}
}

func TestProjectSumsPerSymbol(t *testing.T) {
	records := []model.TradeRecord{
		rec(1, "NFLX", 10, "50"),
		rec(2, "AAPL", 3, "190"),
		rec(3, "NFLX", -4, "60"),
	}

	got := Project(records, ModePortfolio)
	require.Len(t, got, 2)
	assert.Equal(t, "AAPL", got[0].Symbol)
	assert.Equal(t, int64(3), got[0].TotalShares)
	assert.Equal(t, "NFLX", got[1].Symbol)
	assert.Equal(t, int64(6), got[1].TotalShares)
	assert.True(t, got[1].LastPrice.Equal(decimal.NewFromInt(60)))
}

func TestProjectModes(t *testing.T) {
	records := []model.TradeRecord{
		rec(1, "NFLX", 10, "50"),
		rec(2, "NFLX", -10, "55"),
		rec(3, "AAPL", 1, "190"),
	}

	portfolio := Project(records, ModePortfolio)
	require.Len(t, portfolio, 1)
	assert.Equal(t, "AAPL", portfolio[0].Symbol)

	history := Project(records, ModeHistory)
	require.Len(t, history, 2)
	assert.Equal(t, "NFLX", history[1].Symbol)
	assert.Equal(t, int64(0), history[1].TotalShares)
}

func TestProjectUsesNewestRecordForSnapshotFields(t *testing.T) {
	records := []model.TradeRecord{
		rec(7, "NFLX", 1, "70"),
		rec(2, "NFLX", 1, "20"),
	}
	records[0].DisplayName = "Netflix (renamed)"

	got := Project(records, ModePortfolio)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].TotalShares)
	assert.Equal(t, "Netflix (renamed)", got[0].DisplayName)
	assert.True(t, got[0].LastPrice.Equal(decimal.NewFromInt(70)))
	// input untouched
	assert.Equal(t, int64(7), records[0].ID)
}

func TestProjectEmpty(t *testing.T) {
	assert.Empty(t, Project(nil, ModePortfolio))
	assert.Empty(t, Project(nil, ModeHistory))
}

func TestSharesHeld(t *testing.T) {
	records := []model.TradeRecord{
		rec(1, "NFLX", 10, "50"),
		rec(2, "AAPL", 3, "190"),
		rec(3, "NFLX", -4, "60"),
	}
	assert.Equal(t, int64(6), SharesHeld(records, "NFLX"))
	assert.Equal(t, int64(0), SharesHeld(records, "XYZ"))
}

type sliceSource struct {
	records []model.TradeRecord
	err     error
}

func (s sliceSource) ListRecords(ctx context.Context, accountID string) ([]model.TradeRecord, error) {
	return s.records, s.err
}

func TestProjectorIsIdempotent(t *testing.T) {
	p := NewProjector(sliceSource{records: []model.TradeRecord{
		rec(1, "B", 1, "1"), rec(2, "A", 2, "2"), rec(3, "C", 3, "3"),
	}})
	ctx := context.Background()

	first, err := p.Project(ctx, "acc", ModePortfolio)
	require.NoError(t, err)
	second, err := p.Project(ctx, "acc", ModePortfolio)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	held, err := p.SharesHeld(ctx, "acc", "C")
	require.NoError(t, err)
	assert.Equal(t, int64(3), held)
}

func TestProjectorPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	p := NewProjector(sliceSource{err: boom})
	_, err := p.Project(context.Background(), "acc", ModeHistory)
	assert.ErrorIs(t, err, boom)
	_, err = p.SharesHeld(context.Background(), "acc", "A")
	assert.ErrorIs(t, err, boom)
}
