package handler

import (
	"errors"
	"net/http"
	"strings"

	"fxhub/internal/domain"

	"github.com/go-chi/chi/v5"
)

type GetSupportedCodesResponse struct {
	Codes []string `json:"codes"`
}

// GetSupportedCodes lists every currency code known to the registry.
func (h *Handler) GetSupportedCodes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, GetSupportedCodesResponse{
		Codes: h.registry.SupportedCodes(),
	})
}

type GetCurrencyResponse struct {
	domain.Currency
	Display string `json:"display"`
}

func (h *Handler) GetCurrency(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))

	c, err := h.registry.Get(code)
	if err != nil {
		var notFound *domain.CurrencyNotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get currency")
		return
	}

	writeJSON(w, http.StatusOK, GetCurrencyResponse{Currency: c, Display: c.DisplayInfo()})
}
