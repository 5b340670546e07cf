package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jmoretti/sibyl/internal/brain"
	"github.com/jmoretti/sibyl/pkg/logger"
)

// QualityHandler serves sync and data quality endpoints.
type QualityHandler struct {
	orchestrator *brain.Orchestrator
	logger       *logger.Logger
}

// NewQualityHandler creates a quality handler.
func NewQualityHandler(orchestrator *brain.Orchestrator, log *logger.Logger) *QualityHandler {
	return &QualityHandler{orchestrator: orchestrator, logger: log}
}

// ListSymbols handles GET /api/symbols.
func (h *QualityHandler) ListSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.orchestrator.Prices().ListSymbols(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("failed to list symbols")
		respondError(w, http.StatusInternalServerError, "failed to list symbols")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

// Sync handles POST /api/sync/{symbol}.
func (h *QualityHandler) Sync(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	result, err := h.orchestrator.SyncSymbol(r.Context(), symbol)
	if err != nil {
		h.logger.WithField("symbol", symbol).WithError(err).Error("sync failed")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetQuality handles GET /api/quality/{symbol}.
func (h *QualityHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	record, err := h.orchestrator.AssessQuality(r.Context(), symbol)
	if err != nil {
		h.logger.WithField("symbol", symbol).WithError(err).Error("quality lookup failed")
		respondDomainError(w, err)
		return
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "no assessment for symbol")
		return
	}

	respondJSON(w, http.StatusOK, record)
}
