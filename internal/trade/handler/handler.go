package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"fxhub/internal/domain"
	"fxhub/internal/trade"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	service trade.Service
	logger  logrus.FieldLogger
}

func NewTradeHandler(service trade.Service, logger logrus.FieldLogger) *Handler {
	return &Handler{service: service, logger: logger}
}

type TradeRequest struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

type TradeResponse struct {
	Action         string   `json:"action"`
	Currency       string   `json:"currency"`
	Amount         float64  `json:"amount"`
	BalanceBefore  float64  `json:"balance_before"`
	Balance        float64  `json:"balance"`
	Base           string   `json:"base"`
	Rate           *float64 `json:"rate"`
	EstimatedValue *float64 `json:"estimated_value"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, trade.ActionBuy)
}

func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, trade.ActionSell)
}

func (h *Handler) trade(w http.ResponseWriter, r *http.Request, action string) {
	user := strings.TrimSpace(chi.URLParam(r, "user"))
	if user == "" {
		writeError(w, http.StatusBadRequest, "user is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 256)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req TradeRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		res trade.Result
		err error
	)
	if action == trade.ActionBuy {
		res, err = h.service.Buy(r.Context(), user, req.Currency, req.Amount)
	} else {
		res, err = h.service.Sell(r.Context(), user, req.Currency, req.Amount)
	}
	if err != nil {
		status, msg := mapError(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).WithFields(logrus.Fields{"handler": "Trade", "action": action, "user": user}).Error(msg)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, TradeResponse{
		Action:         res.Action,
		Currency:       res.Currency,
		Amount:         res.Amount,
		BalanceBefore:  res.BalanceBefore,
		Balance:        res.BalanceAfter,
		Base:           res.Base,
		Rate:           res.Rate,
		EstimatedValue: res.EstimatedValue,
	})
}

// Portfolio values the user's wallets in the requested base currency.
func (h *Handler) Portfolio(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(chi.URLParam(r, "user"))
	base := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("base")))

	valuation, err := h.service.Portfolio(r.Context(), user, base)
	if err != nil {
		status, msg := mapError(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).WithFields(logrus.Fields{"handler": "Portfolio", "user": user}).Error(msg)
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, valuation)
}

func mapError(err error) (int, string) {
	var notFound *domain.CurrencyNotFoundError
	var insufficient *domain.InsufficientFundsError
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Error()
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity, insufficient.Error()
	case errors.Is(err, trade.ErrWalletNotFound):
		return http.StatusNotFound, trade.ErrWalletNotFound.Error()
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, domain.ErrInvalidAmount.Error()
	}
	return http.StatusInternalServerError, "ups, couldn't complete the operation this time"
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	writeJSON(w, statusCode, errorResponse{Error: errorMsg})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		statusCode = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(append(body, '\n'))
}
