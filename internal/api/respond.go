package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/local/stopoverdispatch/internal/appconfig"
	"github.com/local/stopoverdispatch/internal/dispatch"
	"github.com/local/stopoverdispatch/internal/filetype"
	"github.com/local/stopoverdispatch/internal/mapping"
	"github.com/local/stopoverdispatch/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// writeErr maps domain errors to status codes.
func writeErr(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeError(w, code, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrJobNotFound), errors.Is(err, appconfig.ErrNotFound):
		return http.StatusNotFound
	case dispatch.IsUnmapped(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dispatch.ErrSendInProgress):
		return http.StatusConflict
	case errors.Is(err, mapping.ErrInvalidCode),
		errors.Is(err, filetype.ErrNotPDF),
		errors.Is(err, dispatch.ErrNoStopover),
		errors.Is(err, dispatch.ErrPageOutOfRange),
		errors.Is(err, os.ErrNotExist):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
