package types

type TradeSide string

type EventType string

type StoreDriver string

type QuoteProviderKind string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

const (
	EventTypeTrade EventType = "trade"
)

const (
	StoreDriverPostgres StoreDriver = "postgres"
	StoreDriverSQLite   StoreDriver = "sqlite"
)

const (
	QuoteProviderHTTP     QuoteProviderKind = "http"
	QuoteProviderStatic   QuoteProviderKind = "static"
	QuoteProviderDisabled QuoteProviderKind = "disabled"
)
