package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"papertrade/internal/model"
	"papertrade/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// Store locks the account row with SELECT ... FOR UPDATE for the length of a
// WithAccount scope; trades on different accounts do not contend.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

func (s *Store) CreateAccount(ctx context.Context, acc model.Account) (model.Account, error) {
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, "insert into accounts (id, username, password_hash, cash, created_at) values ($1, $2, $3, $4, $5)",
		acc.ID, acc.Username, acc.PasswordHash, acc.Cash, acc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.Account{}, store.ErrDuplicateUsername
		}
		return model.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return acc, nil
}

func (s *Store) AccountByID(ctx context.Context, id string) (model.Account, error) {
	return scanAccount(s.pool.QueryRow(ctx, "select id, username, password_hash, cash, created_at from accounts where id = $1", id))
}

func (s *Store) AccountByUsername(ctx context.Context, username string) (model.Account, error) {
	return scanAccount(s.pool.QueryRow(ctx, "select id, username, password_hash, cash, created_at from accounts where username = $1", username))
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Cash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return a, store.ErrNotFound
	}
	return a, err
}

func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "select exists(select 1 from accounts where username = $1)", username).Scan(&exists)
	return exists, err
}

func (s *Store) ListRecords(ctx context.Context, accountID string) ([]model.TradeRecord, error) {
	return listRecords(ctx, s.pool, accountID)
}

func (s *Store) WithAccount(ctx context.Context, accountID string, fn func(store.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	var cash decimal.Decimal
	err = tx.QueryRow(ctx, "select cash from accounts where id = $1 for update", accountID).Scan(&cash)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	if err := fn(&accountTx{tx: tx, accountID: accountID}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ReadAccount runs fn in a read-only REPEATABLE READ transaction. It takes
// no row lock; the snapshot alone keeps cash and trades in step.
func (s *Store) ReadAccount(ctx context.Context, accountID string, fn func(store.ReadTx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	var one int
	err = tx.QueryRow(ctx, "select 1 from accounts where id = $1", accountID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read account: %w", err)
	}
	if err := fn(&accountTx{tx: tx, accountID: accountID}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

type accountTx struct {
	tx        pgx.Tx
	accountID string
}

func (t *accountTx) Cash(ctx context.Context) (decimal.Decimal, error) {
	var cash decimal.Decimal
	err := t.tx.QueryRow(ctx, "select cash from accounts where id = $1", t.accountID).Scan(&cash)
	if errors.Is(err, pgx.ErrNoRows) {
		return cash, store.ErrNotFound
	}
	return cash, err
}

func (t *accountTx) SetCash(ctx context.Context, cash decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, "update accounts set cash = $1 where id = $2", cash, t.accountID)
	if err != nil {
		return fmt.Errorf("update cash: %w", err)
	}
	return nil
}

func (t *accountTx) AppendRecord(ctx context.Context, rec model.TradeRecord) (model.TradeRecord, error) {
	rec.AccountID = t.accountID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	err := t.tx.QueryRow(ctx, "insert into trades (account_id, symbol, name, shares, price, created_at) values ($1, $2, $3, $4, $5, $6) returning id",
		rec.AccountID, rec.Symbol, rec.DisplayName, rec.Shares, rec.Price, rec.CreatedAt).Scan(&rec.ID)
	if err != nil {
		return rec, fmt.Errorf("insert trade: %w", err)
	}
	return rec, nil
}

func (t *accountTx) ListRecords(ctx context.Context, accountID string) ([]model.TradeRecord, error) {
	return listRecords(ctx, t.tx, accountID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listRecords(ctx context.Context, q querier, accountID string) ([]model.TradeRecord, error) {
	rows, err := q.Query(ctx, "select id, account_id, symbol, name, shares, price, created_at from trades where account_id = $1 order by id", accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TradeRecord
	for rows.Next() {
		var r model.TradeRecord
		if err := rows.Scan(&r.ID, &r.AccountID, &r.Symbol, &r.DisplayName, &r.Shares, &r.Price, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
