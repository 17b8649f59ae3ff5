package sqlite

const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	cash TEXT NOT NULL CHECK (CAST(cash AS REAL) >= 0),
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id TEXT NOT NULL REFERENCES accounts(id),
	symbol TEXT NOT NULL,
	name TEXT NOT NULL,
	shares INTEGER NOT NULL CHECK (shares <> 0),
	price TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_account ON trades(account_id, id);
`
