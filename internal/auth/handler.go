package auth

import (
	"net/http"
	"time"

	"papertrade/internal/httputil"
	"papertrade/internal/model"

	"github.com/shopspring/decimal"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type registerRequest struct {
	Username     string `json:"username" validate:"max=64"`
	Password     string `json:"password" validate:"max=128"`
	Confirmation string `json:"confirmation" validate:"max=128"`
}

type loginRequest struct {
	Username string `json:"username" validate:"max=64"`
	Password string `json:"password" validate:"max=128"`
}

type meResponse struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Cash      decimal.Decimal `json:"cash"`
	CashUSD   string          `json:"cash_usd"`
	CreatedAt string          `json:"created_at"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	acc, err := h.svc.Register(r.Context(), req.Username, req.Password, req.Confirmation)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	token, err := h.svc.IssueToken(acc.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"account_id": acc.ID, "access_token": token})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	token, _, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request, accountID string) {
	acc, err := h.svc.Account(r.Context(), accountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, meResponse{
		ID:        acc.ID,
		Username:  acc.Username,
		Cash:      acc.Cash,
		CashUSD:   model.USD(acc.Cash),
		CreatedAt: acc.CreatedAt.UTC().Format(time.RFC3339),
	})
}
