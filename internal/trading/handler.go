package trading

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"papertrade/internal/apperr"
	"papertrade/internal/httputil"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// quantity accepts a share count sent either as a JSON number or a string.
type quantity int64

func (q *quantity) UnmarshalJSON(b []byte) error {
	n, err := ParseShares(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*q = quantity(n)
	return nil
}

type tradeRequest struct {
	Symbol string   `json:"symbol" validate:"max=16"`
	Shares quantity `json:"shares"`
}

func (h *Handler) Buy(w http.ResponseWriter, r *http.Request, accountID string) {
	h.trade(w, r, accountID, h.engine.Buy)
}

func (h *Handler) Sell(w http.ResponseWriter, r *http.Request, accountID string) {
	h.trade(w, r, accountID, h.engine.Sell)
}

func (h *Handler) trade(w http.ResponseWriter, r *http.Request, accountID string, exec func(ctx context.Context, accountID, symbol string, shares int64) (Result, error)) {
	var req tradeRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		if errors.Is(err, apperr.ErrInvalidQuantity) {
			httputil.WriteError(w, apperr.ErrInvalidQuantity)
			return
		}
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	res, err := exec(r.Context(), accountID, req.Symbol, int64(req.Shares))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request, accountID string) {
	q, err := h.engine.Quote(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, q)
}
