package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned for unknown symbols and for any response that
// cannot be trusted as a quote.
var ErrNotFound = errors.New("quote not found")

type Quote struct {
	Symbol string          `json:"symbol" yaml:"symbol"`
	Name   string          `json:"name" yaml:"name"`
	Price  decimal.Decimal `json:"price" yaml:"price"`
}

type Provider interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Validate rejects quotes that are missing a symbol or carry a non-positive
// price.
func (q Quote) Validate() error {
	if strings.TrimSpace(q.Symbol) == "" {
		return fmt.Errorf("%w: empty symbol", ErrNotFound)
	}
	if !q.Price.IsPositive() {
		return fmt.Errorf("%w: price %s", ErrNotFound, q.Price)
	}
	return nil
}

type DisabledProvider struct{}

func NewDisabledProvider() *DisabledProvider {
	return &DisabledProvider{}
}

func (p *DisabledProvider) Lookup(ctx context.Context, symbol string) (Quote, error) {
	return Quote{}, errors.New("quote provider not configured")
}

// StaticProvider serves a fixed table keyed by normalized symbol.
type StaticProvider struct {
	quotes map[string]Quote
}

func NewStaticProvider(table map[string]Quote) *StaticProvider {
	p := &StaticProvider{quotes: make(map[string]Quote, len(table))}
	for sym, q := range table {
		key := NormalizeSymbol(sym)
		if q.Symbol == "" {
			q.Symbol = key
		}
		if q.Name == "" {
			q.Name = key
		}
		p.quotes[key] = q
	}
	return p
}

func (p *StaticProvider) Lookup(ctx context.Context, symbol string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}
	q, ok := p.quotes[NormalizeSymbol(symbol)]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	if err := q.Validate(); err != nil {
		return Quote{}, err
	}
	return q, nil
}
