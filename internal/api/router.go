package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jmoretti/sibyl/internal/api/handlers"
	"github.com/jmoretti/sibyl/pkg/logger"
)

// NewRouter configures all HTTP routes. Routing setup lives here only.
func NewRouter(
	health *handlers.HealthHandler,
	qualityH *handlers.QualityHandler,
	forecastH *handlers.ForecastHandler,
	backtestH *handlers.BacktestHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", health.Check).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/symbols", qualityH.ListSymbols).Methods("GET")
	api.HandleFunc("/sync/{symbol}", qualityH.Sync).Methods("POST")
	api.HandleFunc("/quality/{symbol}", qualityH.GetQuality).Methods("GET")

	api.HandleFunc("/forecast/{symbol}", forecastH.GetForecast).Methods("GET")

	api.HandleFunc("/backtest/{symbol}", backtestH.Run).Methods("POST")
	api.HandleFunc("/backtest/{symbol}/ws", backtestH.RunStream).Methods("GET")
	api.HandleFunc("/backtests/{symbol}", backtestH.List).Methods("GET")
	api.HandleFunc("/backtests/run/{run_id}", backtestH.Get).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// loggingMiddleware logs each request with its duration.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware converts panics into 500 responses.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
