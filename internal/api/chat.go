package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/opspilot/opspilot/internal/intent"
	"github.com/opspilot/opspilot/internal/log"
	"github.com/opspilot/opspilot/internal/respond"
	"github.com/opspilot/opspilot/internal/router"
)

// Classifier is the classification capability the API consumes.
type Classifier interface {
	// Classify returns the raw result or an error.
	Classify(ctx context.Context, message string) (intent.Result, error)
	// Outcome never fails; classification errors degrade to the fallback
	// intent.
	Outcome(ctx context.Context, message string) intent.Outcome
}

// Router dispatches a classified request. A nil Envelope means the reply was
// streamed through emit.
type Router interface {
	Route(ctx context.Context, req router.Request, emit respond.EmitFunc) (*router.Envelope, error)
}

type chatRequest struct {
	Message  string            `json:"message"`
	TenantID string            `json:"tenantId"`
	History  []respond.Message `json:"history,omitempty"`
}

type chatHandler struct {
	classifier Classifier
	router     Router
	logger     log.Logger
}

// chat is the conversational entry point. The reply is either a single JSON
// envelope or an SSE stream; the router decides per request, so headers are
// committed only when the first stream event arrives.
func (h *chatHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "", h.logger)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required", "", h.logger)
		return
	}
	if strings.TrimSpace(req.TenantID) == "" {
		writeError(w, http.StatusBadRequest, "tenantId is required", "", h.logger)
		return
	}

	ctx := r.Context()
	requestID := requestIDFromContext(ctx)

	outcome := h.classifier.Outcome(ctx, req.Message)
	if outcome.Degraded {
		h.logger.Warn("classification degraded to fallback",
			"reason", outcome.Reason,
			"request_id", requestID)
	}

	var emit respond.EmitFunc
	emitter, err := newSSEEmitter(w)
	if err == nil {
		emit = emitter.Emit
	} else {
		// No flusher available; the router falls back to a single envelope.
		h.logger.Warn("streaming unavailable for request", "error", err, "request_id", requestID)
	}

	env, err := h.router.Route(ctx, router.Request{
		Result:   outcome.Result,
		TenantID: req.TenantID,
		Message:  req.Message,
		History:  respond.TruncateHistory(req.History),
	}, emit)
	if err != nil {
		h.logger.Error("routing failed", "error", err, "request_id", requestID)
		if emitter != nil && emitter.Started() {
			// Headers are gone; the best we can do is a terminal error event.
			_ = emitter.Emit(ctx, errorBody{Error: "answer generation failed"})
			return
		}
		writeError(w, http.StatusInternalServerError, "answer generation failed", err.Error(), h.logger)
		return
	}

	if env != nil {
		writeJSON(w, http.StatusOK, env, h.logger)
	}
	// env == nil: the reply streamed through emit and the stream is complete.
}
