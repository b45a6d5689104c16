package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MikeSquared-Agency/Versus/internal/comparison"
	"github.com/MikeSquared-Agency/Versus/internal/resolver"
	"github.com/MikeSquared-Agency/Versus/internal/scoring"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, resolver.ErrConfigNotFound),
		errors.Is(err, resolver.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, scoring.ErrZeroWeightSum):
		return http.StatusUnprocessableEntity
	case errors.Is(err, comparison.ErrCategoryMismatch),
		errors.Is(err, comparison.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, comparison.ErrNotEnoughProducts):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}
