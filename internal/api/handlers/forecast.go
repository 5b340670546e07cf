package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jmoretti/sibyl/internal/brain"
	"github.com/jmoretti/sibyl/pkg/logger"
)

// ForecastHandler serves prediction endpoints.
type ForecastHandler struct {
	orchestrator *brain.Orchestrator
	logger       *logger.Logger
}

// NewForecastHandler creates a forecast handler.
func NewForecastHandler(orchestrator *brain.Orchestrator, log *logger.Logger) *ForecastHandler {
	return &ForecastHandler{orchestrator: orchestrator, logger: log}
}

// GetForecast handles GET /api/forecast/{symbol}?horizon=5.
// Training runs synchronously; the baseline models train in
// milliseconds so there is no job queue in front of this.
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	horizon := 0
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 30 {
			respondError(w, http.StatusBadRequest, "horizon must be an integer between 1 and 30")
			return
		}
		horizon = parsed
	}

	prediction, signal, err := h.orchestrator.Forecast(r.Context(), symbol, horizon)
	if err != nil {
		h.logger.WithField("symbol", symbol).WithError(err).Error("forecast failed")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"prediction": prediction,
		"signal":     signal,
	})
}
