package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fxhub/internal/domain"

	"github.com/sirupsen/logrus"
)

type currencyRegistry interface {
	Get(code string) (domain.Currency, error)
	SupportedCodes() []string
}

type rateResolver interface {
	Resolve(ctx context.Context, from, to string, ttl time.Duration) (domain.RateQuote, error)
}

type cycleRunner interface {
	RunUpdateCycle(ctx context.Context) (domain.UpdateOutcome, error)
}

type historyReader interface {
	LoadHistory(ctx context.Context) ([]domain.HistoryRecord, error)
}

type Handler struct {
	registry currencyRegistry
	resolver rateResolver
	updater  cycleRunner
	history  historyReader
	ttl      time.Duration
	logger   logrus.FieldLogger
}

func NewRateHandler(registry currencyRegistry, resolver rateResolver, updater cycleRunner, history historyReader, ttl time.Duration, logger logrus.FieldLogger) *Handler {
	return &Handler{registry: registry, resolver: resolver, updater: updater, history: history, ttl: ttl, logger: logger}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	writeJSON(w, statusCode, errorResponse{
		Error: errorMsg,
	})
}

// writeJSON encodes before writing the header so an unencodable value
// turns into a 500 instead of a 200 with an empty body.
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
