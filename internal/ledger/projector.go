package ledger

import (
	"context"
	"slices"
	"strings"

	"papertrade/internal/model"
)

type Mode int

const (
	// ModePortfolio keeps only symbols with a non-zero total.
	ModePortfolio Mode = iota
	// ModeHistory keeps every symbol the account ever traded.
	ModeHistory
)

type RecordSource interface {
	ListRecords(ctx context.Context, accountID string) ([]model.TradeRecord, error)
}

// Project folds trade records into per-symbol holdings. Name and last price
// come from the newest record of each symbol. The result is sorted by symbol.
func Project(records []model.TradeRecord, mode Mode) []model.Holding {
	ordered := slices.Clone(records)
	slices.SortStableFunc(ordered, func(a, b model.TradeRecord) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	bySymbol := make(map[string]*model.Holding)
	for _, r := range ordered {
		h, ok := bySymbol[r.Symbol]
		if !ok {
			h = &model.Holding{Symbol: r.Symbol}
			bySymbol[r.Symbol] = h
		}
		h.TotalShares += r.Shares
		h.DisplayName = r.DisplayName
		h.LastPrice = r.Price
	}
	out := make([]model.Holding, 0, len(bySymbol))
	for _, h := range bySymbol {
		if mode == ModePortfolio && h.TotalShares == 0 {
			continue
		}
		out = append(out, *h)
	}
	slices.SortFunc(out, func(a, b model.Holding) int { return strings.Compare(a.Symbol, b.Symbol) })
	return out
}

// SharesHeld returns the total shares held of symbol.
func SharesHeld(records []model.TradeRecord, symbol string) int64 {
	var total int64
	for _, r := range records {
		if r.Symbol == symbol {
			total += r.Shares
		}
	}
	return total
}

// Projector binds the fold to a record source: a read snapshot for views, or
// an open account scope when validating a sell.
type Projector struct {
	src RecordSource
}

func NewProjector(src RecordSource) *Projector {
	return &Projector{src: src}
}

func (p *Projector) Project(ctx context.Context, accountID string, mode Mode) ([]model.Holding, error) {
	records, err := p.src.ListRecords(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return Project(records, mode), nil
}

func (p *Projector) SharesHeld(ctx context.Context, accountID, symbol string) (int64, error) {
	records, err := p.src.ListRecords(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return SharesHeld(records, symbol), nil
}
