package ledger

import (
	"log/slog"
	"net/http"

	"papertrade/internal/apperr"
	"papertrade/internal/httputil"
)

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Portfolio(w http.ResponseWriter, r *http.Request, accountID string) {
	p, err := h.svc.Portfolio(r.Context(), accountID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request, accountID string) {
	hist, err := h.svc.History(r.Context(), accountID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hist)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.IsFault(err) {
		h.log.ErrorContext(r.Context(), "ledger view failed", "path", r.URL.Path, "err", err)
	}
	httputil.WriteError(w, err)
}
