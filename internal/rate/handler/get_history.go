package handler

import (
	"net/http"
	"strconv"
	"strings"

	"fxhub/internal/domain"

	"github.com/sirupsen/logrus"
)

const defaultHistoryLimit = 100

type GetHistoryResponse struct {
	Records []domain.HistoryRecord `json:"records"`
}

// GetHistory returns the newest matching history records, oldest first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := strings.ToUpper(strings.TrimSpace(q.Get("from")))
	to := strings.ToUpper(strings.TrimSpace(q.Get("to")))

	limit := defaultHistoryLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	history, err := h.history.LoadHistory(r.Context())
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{"handler": "GetHistory"}).Error("failed to load history")
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	matched := make([]domain.HistoryRecord, 0, min(limit, len(history)))
	for _, rec := range history {
		if from != "" && rec.FromCurrency != from {
			continue
		}
		if to != "" && rec.ToCurrency != to {
			continue
		}
		matched = append(matched, rec)
	}
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}

	writeJSON(w, http.StatusOK, GetHistoryResponse{Records: matched})
}
