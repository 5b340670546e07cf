// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmoretti/sibyl/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondDomainError maps the error taxonomy onto HTTP statuses:
// data problems are the client's symbol choice (422), model and
// prediction failures are ours (500).
func respondDomainError(w http.ResponseWriter, err error) {
	var dataErr *contracts.DataError
	if errors.As(err, &dataErr) {
		respondError(w, http.StatusUnprocessableEntity, dataErr.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}
