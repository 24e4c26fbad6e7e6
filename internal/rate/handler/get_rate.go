package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"fxhub/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type GetRateResponse struct {
	From        string    `json:"from"`
	To          string    `json:"to"`
	Rate        float64   `json:"rate"`
	UpdatedAt   time.Time `json:"updated_at"`
	ReverseRate *float64  `json:"reverse_rate"`
}

func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	from := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "from")))
	to := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "to")))

	q, err := h.resolver.Resolve(r.Context(), from, to, h.ttl)
	if err != nil {
		var notFound *domain.CurrencyNotFoundError
		switch {
		case errors.As(err, &notFound):
			writeError(w, http.StatusNotFound, notFound.Error())
		case errors.Is(err, domain.ErrStaleOrMissingRate):
			writeError(w, http.StatusNotFound, domain.ErrStaleOrMissingRate.Error())
		default:
			msg := "ups, couldn't get rate this time"
			h.logger.WithError(err).WithFields(logrus.Fields{"handler": "GetRate", "from": from, "to": to}).Error(msg)
			writeError(w, http.StatusInternalServerError, msg)
		}
		return
	}

	writeJSON(w, http.StatusOK, GetRateResponse{
		From:        from,
		To:          to,
		Rate:        q.Rate,
		UpdatedAt:   q.UpdatedAt,
		ReverseRate: q.ReverseRate,
	})
}
