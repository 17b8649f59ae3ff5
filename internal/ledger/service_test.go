package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"papertrade/internal/apperr"
	"papertrade/internal/model"
	"papertrade/internal/store"
	"papertrade/internal/store/sqlite"
	"papertrade/internal/store/storetest"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func appendTrades(t *testing.T, s store.Store, accountID string, cash decimal.Decimal, records ...model.TradeRecord) {
	t.Helper()
	ctx := context.Background()
	err := s.WithAccount(ctx, accountID, func(tx store.Tx) error {
		if err := tx.SetCash(ctx, cash); err != nil {
			return err
		}
		for _, r := range records {
			if _, err := tx.AppendRecord(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestPortfolio(t *testing.T) {
	s := newStore(t)
	acc := storetest.NewAccount(t, s, "alice", model.StartingCash)
	appendTrades(t, s, acc.ID, decimal.RequireFromString("9740"),
		rec(0, "NFLX", 10, "50"),
		rec(0, "NFLX", -4, "60"),
		rec(0, "AAPL", 2, "100"),
		rec(0, "AAPL", -2, "110"),
	)

	p, err := NewService(s).Portfolio(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.True(t, p.Cash.Equal(decimal.NewFromInt(9740)))
	require.Len(t, p.Positions, 1)
	assert.Equal(t, "NFLX", p.Positions[0].Symbol)
	assert.Equal(t, int64(6), p.Positions[0].TotalShares)
	assert.True(t, p.Positions[0].Value.Equal(decimal.NewFromInt(360)))
	assert.True(t, p.HoldingsValue.Equal(decimal.NewFromInt(360)))
	assert.True(t, p.Total.Equal(decimal.NewFromInt(10100)))
}

func TestHistory(t *testing.T) {
	s := newStore(t)
	acc := storetest.NewAccount(t, s, "bob", model.StartingCash)
	svc := NewService(s)

	empty, err := svc.History(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty.Trades)
	assert.Empty(t, empty.Trades)

	appendTrades(t, s, acc.ID, model.StartingCash,
		rec(0, "NFLX", 10, "50"),
		rec(0, "NFLX", -10, "60"),
	)
	h, err := svc.History(context.Background(), acc.ID)
	require.NoError(t, err)
	require.Len(t, h.Trades, 2)
	assert.Less(t, h.Trades[0].ID, h.Trades[1].ID)
	require.Len(t, h.Positions, 1)
	assert.Equal(t, int64(0), h.Positions[0].TotalShares)
}

func TestViewsUnknownAccount(t *testing.T) {
	svc := NewService(newStore(t))
	_, err := svc.Portfolio(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrUnknownAccount)
	_, err = svc.History(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrUnknownAccount)
}

type brokenReader struct{}

func (brokenReader) ReadAccount(ctx context.Context, accountID string, fn func(store.ReadTx) error) error {
	return errors.New("connection reset")
}

func TestViewsStoreUnavailable(t *testing.T) {
	svc := NewService(brokenReader{})
	_, err := svc.Portfolio(context.Background(), "acc")
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	_, err = svc.History(context.Background(), "acc")
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
}

// interleavingReader starts a trade right after the view has read cash and
// gives it a chance to commit before the trades are read.
type interleavingReader struct {
	*sqlite.Store
	trade func()
}

func (r interleavingReader) ReadAccount(ctx context.Context, accountID string, fn func(store.ReadTx) error) error {
	return r.Store.ReadAccount(ctx, accountID, func(tx store.ReadTx) error {
		return fn(interleavingTx{ReadTx: tx, trade: r.trade})
	})
}

type interleavingTx struct {
	store.ReadTx
	trade func()
}

func (t interleavingTx) Cash(ctx context.Context) (decimal.Decimal, error) {
	cash, err := t.ReadTx.Cash(ctx)
	t.trade()
	return cash, err
}

func TestPortfolioNeverSplitsATrade(t *testing.T) {
	s := newStore(t)
	acc := storetest.NewAccount(t, s, "ivy", model.StartingCash)

	done := make(chan error, 1)
	var once sync.Once
	trade := func() {
		once.Do(func() {
			go func() {
				done <- s.WithAccount(context.Background(), acc.ID, func(tx store.Tx) error {
					if err := tx.SetCash(context.Background(), decimal.NewFromInt(9000)); err != nil {
						return err
					}
					_, err := tx.AppendRecord(context.Background(), rec(0, "AAA", 10, "100"))
					return err
				})
			}()
			select {
			case err := <-done:
				done <- err
			case <-time.After(200 * time.Millisecond):
			}
		})
	}

	p, err := NewService(interleavingReader{Store: s, trade: trade}).Portfolio(context.Background(), acc.ID)
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.True(t, p.Total.Equal(model.StartingCash), "cash %s holdings %s total %s", p.Cash, p.HoldingsValue, p.Total)
	if len(p.Positions) == 0 {
		assert.True(t, p.Cash.Equal(model.StartingCash))
	} else {
		assert.True(t, p.Cash.Equal(decimal.NewFromInt(9000)))
	}

	after, err := NewService(s).Portfolio(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.True(t, after.Cash.Equal(decimal.NewFromInt(9000)))
	require.Len(t, after.Positions, 1)
	assert.True(t, after.Total.Equal(model.StartingCash))
}
