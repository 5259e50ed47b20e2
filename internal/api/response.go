package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/opspilot/opspilot/internal/log"
)

// errorBody is the uniform error response shape. Details is populated for
// server-side failures so callers can correlate with logs; client errors get
// only the message.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeJSON writes a JSON response with the given status code. Encoding into
// a buffer first means headers are only sent after successful encoding, so an
// encode failure can still return a proper 500.
func writeJSON(w http.ResponseWriter, status int, data any, logger log.Logger) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are common and expected.
		logger.Debug("failed to write response body", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message, details string, logger log.Logger) {
	writeJSON(w, status, errorBody{Error: message, Details: details}, logger)
}
