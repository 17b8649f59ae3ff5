package postgres

const Schema = `
create table if not exists accounts (
	id text primary key,
	username text not null,
	password_hash text not null,
	cash numeric not null check (cash >= 0),
	created_at timestamptz not null default now(),
	constraint accounts_username_key unique (username)
);

create table if not exists trades (
	id bigserial primary key,
	account_id text not null references accounts(id),
	symbol text not null,
	name text not null,
	shares bigint not null check (shares <> 0),
	price numeric not null check (price > 0),
	created_at timestamptz not null default now()
);

create index if not exists trades_account_id_idx on trades (account_id, id);
`
