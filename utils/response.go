package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"krishilink/apperr"
	"krishilink/logger"
)

type M map[string]interface{}

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// RespondWithAppError maps err to its HTTP status. Internal errors are logged
// and replaced with a generic message.
func RespondWithAppError(w http.ResponseWriter, log *logger.Logger, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", "error", err)
	}
	RespondWithError(w, status, apperr.PublicMessage(err))
}

// MaxJSONBody caps request bodies read by DecodeJSON.
const MaxJSONBody = 1 << 20

// DecodeJSON reads a JSON body of at most MaxJSONBody bytes into dst,
// rejecting empty, oversized or malformed input.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return apperr.BadRequest("request body is required")
	}
	body := http.MaxBytesReader(w, r.Body, MaxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.BadRequest("request body too large")
		}
		return apperr.BadRequest("invalid request body")
	}
	return nil
}
