package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/jmoretti/sibyl/internal/backtest"
	"github.com/jmoretti/sibyl/internal/brain"
	"github.com/jmoretti/sibyl/pkg/logger"
)

const defaultBacktestDays = 60

// BacktestHandler serves backtest endpoints, including a websocket
// variant that streams per-day progress while the simulation runs.
type BacktestHandler struct {
	orchestrator *brain.Orchestrator
	upgrader     websocket.Upgrader
	logger       *logger.Logger
}

// NewBacktestHandler creates a backtest handler.
func NewBacktestHandler(orchestrator *brain.Orchestrator, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		orchestrator: orchestrator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

func backtestDays(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return defaultBacktestDays, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > 2000 {
		return 0, false
	}
	return days, true
}

// Run handles POST /api/backtest/{symbol}?days=60.
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	days, ok := backtestDays(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "days must be an integer between 1 and 2000")
		return
	}

	result, err := h.orchestrator.Backtest(r.Context(), symbol, days, nil)
	if err != nil {
		h.logger.WithField("symbol", symbol).WithError(err).Error("backtest failed")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// streamMessage is one websocket frame sent during a streamed backtest.
type streamMessage struct {
	Type    string      `json:"type"` // progress, result, error
	Current int         `json:"current,omitempty"`
	Total   int         `json:"total,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Message string      `json:"message,omitempty"`
}

// RunStream handles GET /api/backtest/{symbol}/ws?days=60. The
// connection receives progress frames while the run executes and a
// final result or error frame before close.
func (h *BacktestHandler) RunStream(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	days, ok := backtestDays(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "days must be an integer between 1 and 2000")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var progress backtest.ProgressFunc = func(current, total int) {
		// Write failures mean the client is gone; the run itself is
		// cancelled through the request context, not from here.
		_ = conn.WriteJSON(streamMessage{Type: "progress", Current: current, Total: total})
	}

	result, err := h.orchestrator.Backtest(r.Context(), symbol, days, progress)
	if err != nil {
		h.logger.WithField("symbol", symbol).WithError(err).Error("streamed backtest failed")
		_ = conn.WriteJSON(streamMessage{Type: "error", Message: err.Error()})
		return
	}

	_ = conn.WriteJSON(streamMessage{Type: "result", Result: result})
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
}

// List handles GET /api/backtests/{symbol}?limit=20.
func (h *BacktestHandler) List(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			respondError(w, http.StatusBadRequest, "limit must be an integer between 1 and 200")
			return
		}
		limit = parsed
	}

	summaries, err := h.orchestrator.Results().ListBacktests(r.Context(), symbol, limit)
	if err != nil {
		h.logger.WithField("symbol", symbol).WithError(err).Error("failed to list backtests")
		respondError(w, http.StatusInternalServerError, "failed to list backtests")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":    symbol,
		"backtests": summaries,
	})
}

// Get handles GET /api/backtests/run/{run_id}.
func (h *BacktestHandler) Get(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["run_id"]

	result, err := h.orchestrator.Results().GetBacktest(r.Context(), runID)
	if err != nil {
		h.logger.WithField("run_id", runID).WithError(err).Error("failed to load backtest")
		respondError(w, http.StatusInternalServerError, "failed to load backtest")
		return
	}
	if result == nil {
		respondError(w, http.StatusNotFound, "no such run")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
