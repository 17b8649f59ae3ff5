// Package store defines the persistence contract shared by the account and
// ledger tables.
//
// Accounts own the authoritative cash balance; trades is append-only and is
// the only source of holdings. WithAccount is the single-writer scope for one
// account: everything done through the Tx it yields commits together or not
// at all.
package store

import (
	"context"
	"errors"

	"papertrade/internal/model"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")
)

// ReadTx reads one account from a single snapshot: cash and trades always
// agree.
type ReadTx interface {
	Cash(ctx context.Context) (decimal.Decimal, error)
	ListRecords(ctx context.Context, accountID string) ([]model.TradeRecord, error)
}

// Tx is the view of one account inside its mutation scope. The account row
// stays locked until the scope ends.
type Tx interface {
	ReadTx
	SetCash(ctx context.Context, cash decimal.Decimal) error
	AppendRecord(ctx context.Context, rec model.TradeRecord) (model.TradeRecord, error)
}

type Store interface {
	Migrate(ctx context.Context) error
	CreateAccount(ctx context.Context, acc model.Account) (model.Account, error)
	AccountByID(ctx context.Context, id string) (model.Account, error)
	AccountByUsername(ctx context.Context, username string) (model.Account, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	// ListRecords returns every trade of the account ordered by ID.
	ListRecords(ctx context.Context, accountID string) ([]model.TradeRecord, error)
	// WithAccount runs fn with the account locked. A nil return commits, an
	// error rolls back and is returned unchanged. ErrNotFound is returned if
	// the account does not exist.
	WithAccount(ctx context.Context, accountID string, fn func(Tx) error) error
	// ReadAccount runs fn against one consistent snapshot of the account.
	// Nothing is written. ErrNotFound is returned if the account does not
	// exist.
	ReadAccount(ctx context.Context, accountID string, fn func(ReadTx) error) error
	Ping(ctx context.Context) error
	Close() error
}
