// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package api

import (
	"encoding/json"
	"net/http"

	"grimm.is/firewatch/internal/errors"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":  message,
		"status": status,
	})
}

// writeKindError maps a kinded error onto its HTTP status.
func writeKindError(w http.ResponseWriter, err error) {
	writeError(w, statusForKind(errors.GetKind(err)), err.Error())
}

// writeLegacyError renders the single-element array shape the log tables
// consume: HTTP 200 with [{"error": message}]. Both the no-data case and
// an unreadable log take this path; they stay distinct kinds internally.
func writeLegacyError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusOK, []map[string]string{{"error": err.Error()}})
}

func statusForKind(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindNotFound, errors.KindNoData:
		return http.StatusNotFound
	case errors.KindUnavailable:
		return http.StatusServiceUnavailable
	case errors.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
