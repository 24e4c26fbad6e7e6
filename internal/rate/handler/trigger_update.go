package handler

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type SourceErrorView struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

type TriggerUpdateResponse struct {
	ExecID      string            `json:"exec_id"`
	TotalRates  int               `json:"total_rates"`
	LastRefresh *time.Time        `json:"last_refresh"`
	Errors      []SourceErrorView `json:"errors"`
	Skipped     bool              `json:"skipped"`
}

// TriggerUpdate runs one update cycle synchronously.
func (h *Handler) TriggerUpdate(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.updater.RunUpdateCycle(r.Context())
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{"handler": "TriggerUpdate", "exec_id": outcome.ExecID}).Error("update cycle failed")
		writeError(w, http.StatusInternalServerError, "failed to update rates")
		return
	}

	res := TriggerUpdateResponse{
		ExecID:      outcome.ExecID,
		TotalRates:  outcome.TotalRates,
		LastRefresh: outcome.LastRefresh,
		Errors:      make([]SourceErrorView, 0, len(outcome.Errors)),
		Skipped:     outcome.Skipped,
	}
	for _, f := range outcome.Errors {
		res.Errors = append(res.Errors, SourceErrorView{Source: f.Source, Error: f.Err.Error()})
	}

	status := http.StatusOK
	if outcome.Skipped {
		status = http.StatusConflict
	}
	writeJSON(w, status, res)
}
