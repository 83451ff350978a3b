package httpserver

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	domain "github.com/bryanwahyu/aura-impact/internal/domain/analysis"
)

// errBadRequest marks malformed input detected by the router itself.
var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// writeErr maps pipeline errors to HTTP statuses. Messages of retryable
// failures are safe to show to end users.
func writeErr(w http.ResponseWriter, log zerolog.Logger, err error) {
	var (
		vErr *domain.ValidationError
		oErr *domain.OCRError
		pErr *domain.PersistenceError
	)
	status := http.StatusInternalServerError
	detail := errorDetail{Code: "internal", Message: "internal server error"}

	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
		detail = errorDetail{Code: "validation_error", Message: vErr.Message, Field: vErr.Field}
	case errors.As(err, &oErr):
		status = http.StatusUnprocessableEntity
		detail = errorDetail{Code: "ocr_failed", Message: oErr.Reason}
	case errors.As(err, &pErr):
		status = http.StatusServiceUnavailable
		detail = errorDetail{Code: "storage_unavailable", Message: "The analysis could not be saved. Please try again."}
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		detail = errorDetail{Code: "not_found", Message: "not found"}
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
		detail = errorDetail{Code: "bad_request", Message: err.Error()}
	}
	if status >= 500 {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	}
	_ = writeJSON(w, status, errorBody{Error: detail})
}
