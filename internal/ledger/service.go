package ledger

import (
	"context"
	"errors"

	"papertrade/internal/apperr"
	"papertrade/internal/model"
	"papertrade/internal/store"

	"github.com/shopspring/decimal"
)

type Reader interface {
	ReadAccount(ctx context.Context, accountID string, fn func(store.ReadTx) error) error
}

// Service serves the read-only portfolio and history views. Cash and trades
// of one view always come from the same snapshot.
type Service struct {
	store Reader
}

func NewService(r Reader) *Service {
	return &Service{store: r}
}

type Position struct {
	model.Holding
	Value decimal.Decimal `json:"value"`
}

type Portfolio struct {
	AccountID     string          `json:"account_id"`
	Cash          decimal.Decimal `json:"cash"`
	Positions     []Position      `json:"positions"`
	HoldingsValue decimal.Decimal `json:"holdings_value"`
	Total         decimal.Decimal `json:"total"`
}

type History struct {
	Trades    []model.TradeRecord `json:"trades"`
	Positions []model.Holding     `json:"positions"`
}

// Portfolio values non-zero holdings at their last traded price.
func (s *Service) Portfolio(ctx context.Context, accountID string) (Portfolio, error) {
	var (
		cash     decimal.Decimal
		holdings []model.Holding
	)
	err := s.read(ctx, accountID, func(tx store.ReadTx) error {
		var err error
		if cash, err = tx.Cash(ctx); err != nil {
			return err
		}
		holdings, err = NewProjector(tx).Project(ctx, accountID, ModePortfolio)
		return err
	})
	if err != nil {
		return Portfolio{}, err
	}
	out := Portfolio{
		AccountID:     accountID,
		Cash:          cash,
		Positions:     make([]Position, 0, len(holdings)),
		HoldingsValue: decimal.Zero,
	}
	for _, h := range holdings {
		v := h.Value()
		out.Positions = append(out.Positions, Position{Holding: h, Value: v})
		out.HoldingsValue = out.HoldingsValue.Add(v)
	}
	out.Total = out.Cash.Add(out.HoldingsValue)
	return out, nil
}

// History returns every trade in ledger order along with the history-mode
// projection, which keeps closed positions.
func (s *Service) History(ctx context.Context, accountID string) (History, error) {
	var records []model.TradeRecord
	err := s.read(ctx, accountID, func(tx store.ReadTx) error {
		var err error
		records, err = tx.ListRecords(ctx, accountID)
		return err
	})
	if err != nil {
		return History{}, err
	}
	if records == nil {
		records = []model.TradeRecord{}
	}
	return History{Trades: records, Positions: Project(records, ModeHistory)}, nil
}

func (s *Service) read(ctx context.Context, accountID string, fn func(store.ReadTx) error) error {
	err := s.store.ReadAccount(ctx, accountID, fn)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ErrUnknownAccount
	}
	if err != nil {
		return apperr.StoreUnavailable(err)
	}
	return nil
}
