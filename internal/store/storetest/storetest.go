// Package storetest is a conformance suite run against every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"papertrade/internal/model"
	"papertrade/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run executes the suite. newStore must return a migrated, empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("CreateAndLookup", func(t *testing.T) { testCreateAndLookup(t, newStore(t)) })
	t.Run("DuplicateUsername", func(t *testing.T) { testDuplicateUsername(t, newStore(t)) })
	t.Run("CommitScope", func(t *testing.T) { testCommitScope(t, newStore(t)) })
	t.Run("RollbackScope", func(t *testing.T) { testRollbackScope(t, newStore(t)) })
	t.Run("UnknownAccountScope", func(t *testing.T) { testUnknownAccountScope(t, newStore(t)) })
	t.Run("RecordsPerAccount", func(t *testing.T) { testRecordsPerAccount(t, newStore(t)) })
	t.Run("SerializedScopes", func(t *testing.T) { testSerializedScopes(t, newStore(t)) })
	t.Run("ReadScope", func(t *testing.T) { testReadScope(t, newStore(t)) })
	t.Run("ReadScopeDuringWrites", func(t *testing.T) { testReadScopeDuringWrites(t, newStore(t)) })
}

// NewAccount creates an account holding cash.
func NewAccount(t *testing.T, s store.Store, username string, cash decimal.Decimal) model.Account {
	t.Helper()
	acc, err := s.CreateAccount(context.Background(), model.Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "x",
		Cash:         cash,
	})
	require.NoError(t, err)
	return acc
}

func testCreateAndLookup(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := NewAccount(t, s, "alice", model.StartingCash)

	byID, err := s.AccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.True(t, byID.Cash.Equal(model.StartingCash), "cash %s", byID.Cash)

	byName, err := s.AccountByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, byName.ID)

	_, err = s.AccountByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.AccountByUsername(ctx, "Alice")
	assert.ErrorIs(t, err, store.ErrNotFound)

	taken, err := s.UsernameTaken(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = s.UsernameTaken(ctx, "ALICE")
	require.NoError(t, err)
	assert.False(t, taken)
}

func testDuplicateUsername(t *testing.T, s store.Store) {
	ctx := context.Background()
	NewAccount(t, s, "bob", model.StartingCash)

	_, err := s.CreateAccount(ctx, model.Account{ID: uuid.NewString(), Username: "bob", PasswordHash: "y", Cash: model.StartingCash})
	assert.ErrorIs(t, err, store.ErrDuplicateUsername)

	_, err = s.CreateAccount(ctx, model.Account{ID: uuid.NewString(), Username: "Bob", PasswordHash: "y", Cash: model.StartingCash})
	assert.NoError(t, err)
}

func testCommitScope(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := NewAccount(t, s, "carol", model.StartingCash)

	var first, second model.TradeRecord
	err := s.WithAccount(ctx, acc.ID, func(tx store.Tx) error {
		cash, err := tx.Cash(ctx)
		if err != nil {
			return err
		}
		if err := tx.SetCash(ctx, cash.Sub(decimal.NewFromInt(500))); err != nil {
			return err
		}
		first, err = tx.AppendRecord(ctx, model.TradeRecord{Symbol: "NFLX", DisplayName: "Netflix", Shares: 10, Price: decimal.NewFromInt(50)})
		if err != nil {
			return err
		}
		second, err = tx.AppendRecord(ctx, model.TradeRecord{Symbol: "NFLX", DisplayName: "Netflix", Shares: -1, Price: decimal.NewFromInt(51)})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, acc.ID, first.AccountID)
	assert.Greater(t, second.ID, first.ID)

	got, err := s.AccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, got.Cash.Equal(decimal.NewFromInt(9500)), "cash %s", got.Cash)

	records, err := s.ListRecords(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, int64(10), records[0].Shares)
	assert.Equal(t, int64(-1), records[1].Shares)
	assert.Equal(t, "Netflix", records[1].DisplayName)
	assert.True(t, records[1].Price.Equal(decimal.NewFromInt(51)))
	assert.WithinDuration(t, time.Now(), records[0].CreatedAt, time.Minute)
}

func testRollbackScope(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := NewAccount(t, s, "dave", model.StartingCash)
	boom := errors.New("boom")

	err := s.WithAccount(ctx, acc.ID, func(tx store.Tx) error {
		if err := tx.SetCash(ctx, decimal.NewFromInt(1)); err != nil {
			return err
		}
		if _, err := tx.AppendRecord(ctx, model.TradeRecord{Symbol: "X", DisplayName: "X", Shares: 1, Price: decimal.NewFromInt(1)}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.AccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, got.Cash.Equal(model.StartingCash))
	records, err := s.ListRecords(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func testUnknownAccountScope(t *testing.T, s store.Store) {
	called := false
	err := s.WithAccount(context.Background(), uuid.NewString(), func(store.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, called)
}

func testReadScope(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := NewAccount(t, s, "gina", model.StartingCash)
	err := s.WithAccount(ctx, acc.ID, func(tx store.Tx) error {
		if err := tx.SetCash(ctx, decimal.NewFromInt(9900)); err != nil {
			return err
		}
		_, err := tx.AppendRecord(ctx, model.TradeRecord{Symbol: "AAA", DisplayName: "AAA", Shares: 1, Price: decimal.NewFromInt(100)})
		return err
	})
	require.NoError(t, err)

	var cash decimal.Decimal
	var records []model.TradeRecord
	err = s.ReadAccount(ctx, acc.ID, func(tx store.ReadTx) error {
		var err error
		if cash, err = tx.Cash(ctx); err != nil {
			return err
		}
		records, err = tx.ListRecords(ctx, acc.ID)
		return err
	})
	require.NoError(t, err)
	assert.True(t, cash.Equal(decimal.NewFromInt(9900)), "cash %s", cash)
	require.Len(t, records, 1)
	assert.Equal(t, "AAA", records[0].Symbol)

	boom := errors.New("boom")
	err = s.ReadAccount(ctx, acc.ID, func(store.ReadTx) error { return boom })
	assert.ErrorIs(t, err, boom)

	called := false
	err = s.ReadAccount(ctx, uuid.NewString(), func(store.ReadTx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, called)
}

// Every write moves 100 from cash into one share priced at 100, so any
// consistent snapshot sums to the starting cash.
func testReadScopeDuringWrites(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := NewAccount(t, s, "hank", model.StartingCash)
	price := decimal.NewFromInt(100)

	const writes = 20
	var wg sync.WaitGroup
	for i := 0; i < writes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithAccount(ctx, acc.ID, func(tx store.Tx) error {
				cash, err := tx.Cash(ctx)
				if err != nil {
					return err
				}
				if err := tx.SetCash(ctx, cash.Sub(price)); err != nil {
					return err
				}
				_, err = tx.AppendRecord(ctx, model.TradeRecord{Symbol: "AAA", DisplayName: "AAA", Shares: 1, Price: price})
				return err
			})
			assert.NoError(t, err)
		}()
	}

	for i := 0; i < writes; i++ {
		err := s.ReadAccount(ctx, acc.ID, func(tx store.ReadTx) error {
			cash, err := tx.Cash(ctx)
			if err != nil {
				return err
			}
			records, err := tx.ListRecords(ctx, acc.ID)
			if err != nil {
				return err
			}
			total := cash
			for _, r := range records {
				total = total.Add(r.Price.Mul(decimal.NewFromInt(r.Shares)))
			}
			if !total.Equal(model.StartingCash) {
				return fmt.Errorf("snapshot total %s with %d trades", total, len(records))
			}
			return nil
		})
		require.NoError(t, err)
	}
	wg.Wait()

	got, err := s.AccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, got.Cash.Equal(decimal.NewFromInt(8000)), "cash %s", got.Cash)
}

func testRecordsPerAccount(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := NewAccount(t, s, "erin", model.StartingCash)
	b := NewAccount(t, s, "frank", model.StartingCash)

	for i, acc := range []model.Account{a, b, a} {
		err := s.WithAccount(ctx, acc.ID, func(tx store.Tx) error {
			_, err := tx.AppendRecord(ctx, model.TradeRecord{Symbol: fmt.Sprintf("S%d", i), DisplayName: "S", Shares: int64(i + 1), Price: decimal.NewFromInt(1)})
			return err
		})
		require.NoError(t, err)
	}

	ra, err := s.ListRecords(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, ra, 2)
	assert.Equal(t, "S0", ra[0].Symbol)
	assert.Equal(t, "S2", ra[1].Symbol)

	rb, err := s.ListRecords(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, rb, 1)
}

func testSerializedScopes(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := NewAccount(t, s, "grace", decimal.Zero)
	const workers = 8

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.WithAccount(ctx, acc.ID, func(tx store.Tx) error {
				cash, err := tx.Cash(ctx)
				if err != nil {
					return err
				}
				time.Sleep(5 * time.Millisecond)
				return tx.SetCash(ctx, cash.Add(decimal.NewFromInt(1)))
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.AccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, got.Cash.Equal(decimal.NewFromInt(workers)), "lost update: cash %s", got.Cash)
}
