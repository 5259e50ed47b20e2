package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/opspilot/opspilot/internal/log"
)

type classifyRequest struct {
	Message string `json:"message"`
}

type classifyHandler struct {
	classifier Classifier
	logger     log.Logger
}

// classify exposes raw classification for debugging and UI prefetch. Unlike
// chat, a provider failure here is a real 500: there is no answer to degrade
// into.
func (h *classifyHandler) classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "", h.logger)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required", "", h.logger)
		return
	}

	result, err := h.classifier.Classify(r.Context(), req.Message)
	if err != nil {
		h.logger.Error("classification failed",
			"error", err,
			"request_id", requestIDFromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, "classification failed", err.Error(), h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result, h.logger)
}
