package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"papertrade/internal/model"
	"papertrade/internal/store"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// Store keeps accounts and trades in one SQLite file. Transactions start
// with BEGIN IMMEDIATE, so writers are serialized database-wide.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", DSN(path))
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DSN appends the connection options the store relies on.
func DSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_txlock=immediate&_busy_timeout=10000&_foreign_keys=on"
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}

func (s *Store) CreateAccount(ctx context.Context, acc model.Account) (model.Account, error) {
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO accounts (id, username, password_hash, cash, created_at) VALUES (?, ?, ?, ?, ?)",
		acc.ID, acc.Username, acc.PasswordHash, acc.Cash, acc.CreatedAt)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return model.Account{}, store.ErrDuplicateUsername
		}
		return model.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return acc, nil
}

func (s *Store) AccountByID(ctx context.Context, id string) (model.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx, "SELECT id, username, password_hash, cash, created_at FROM accounts WHERE id = ?", id))
}

func (s *Store) AccountByUsername(ctx context.Context, username string) (model.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx, "SELECT id, username, password_hash, cash, created_at FROM accounts WHERE username = ?", username))
}

func (s *Store) scanAccount(row *sql.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Cash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, store.ErrNotFound
	}
	return a, err
}

func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM accounts WHERE username = ?)", username).Scan(&exists)
	return exists, err
}

func (s *Store) ListRecords(ctx context.Context, accountID string) ([]model.TradeRecord, error) {
	return listRecords(ctx, s.db, accountID)
}

func (s *Store) WithAccount(ctx context.Context, accountID string, fn func(store.Tx) error) error {
	return s.scope(ctx, accountID, true, func(tx *accountTx) error { return fn(tx) })
}

// ReadAccount shares the writer lock, so a read never lands between the cash
// update and the trade insert of another scope.
func (s *Store) ReadAccount(ctx context.Context, accountID string, fn func(store.ReadTx) error) error {
	return s.scope(ctx, accountID, false, func(tx *accountTx) error { return fn(tx) })
}

func (s *Store) scope(ctx context.Context, accountID string, commit bool, fn func(*accountTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	var one int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM accounts WHERE id = ?", accountID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	if err := fn(&accountTx{tx: tx, accountID: accountID}); err != nil {
		return err
	}
	if !commit {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

type accountTx struct {
	tx        *sql.Tx
	accountID string
}

func (t *accountTx) Cash(ctx context.Context) (decimal.Decimal, error) {
	var cash decimal.Decimal
	err := t.tx.QueryRowContext(ctx, "SELECT cash FROM accounts WHERE id = ?", t.accountID).Scan(&cash)
	if errors.Is(err, sql.ErrNoRows) {
		return cash, store.ErrNotFound
	}
	return cash, err
}

func (t *accountTx) SetCash(ctx context.Context, cash decimal.Decimal) error {
	_, err := t.tx.ExecContext(ctx, "UPDATE accounts SET cash = ? WHERE id = ?", cash, t.accountID)
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
	res, err := t.tx.ExecContext(ctx, "INSERT INTO trades (account_id, symbol, name, shares, price, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		rec.AccountID, rec.Symbol, rec.DisplayName, rec.Shares, rec.Price, rec.CreatedAt)
	if err != nil {
		return rec, fmt.Errorf("insert trade: %w", err)
	}
	rec.ID, err = res.LastInsertId()
	if err != nil {
		return rec, fmt.Errorf("insert trade: %w", err)
	}
	return rec, nil
}

func (t *accountTx) ListRecords(ctx context.Context, accountID string) ([]model.TradeRecord, error) {
	return listRecords(ctx, t.tx, accountID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listRecords(ctx context.Context, q querier, accountID string) ([]model.TradeRecord, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, account_id, symbol, name, shares, price, created_at FROM trades WHERE account_id = ? ORDER BY id", accountID)
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
