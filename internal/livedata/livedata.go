// Package livedata defines the boundary to the operational-data query
// handlers. The handlers themselves are plain capabilities supplied by the
// host application; this package specifies their contract and provides a
// registry keyed by intent.
package livedata

import (
	"context"
	"fmt"

	"github.com/opspilot/opspilot/internal/intent"
	"github.com/opspilot/opspilot/internal/log"
)

// Result is the structured outcome of one live-data query. It is ephemeral:
// one per request, never persisted.
type Result struct {
	Success   bool
	Data      any
	Formatted string
	Err       string
}

// Handler resolves a classified intent to operational data for one tenant.
// The tenant ID is a mandatory parameter, never inferred.
type Handler interface {
	Handle(ctx context.Context, in intent.Intent, params map[string]any, tenantID string) Result
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, in intent.Intent, params map[string]any, tenantID string) Result

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, in intent.Intent, params map[string]any, tenantID string) Result {
	return f(ctx, in, params, tenantID)
}

// Registry dispatches live-data intents to registered handler functions.
// Registration happens at wiring time; Handle is safe for concurrent use
// afterwards.
type Registry struct {
	handlers map[intent.Intent]HandlerFunc
	logger   log.Logger
}

// NewRegistry creates an empty registry. logger may be nil.
func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Registry{
		handlers: make(map[intent.Intent]HandlerFunc),
		logger:   logger,
	}
}

// Register binds a handler to an intent, replacing any previous binding.
func (r *Registry) Register(in intent.Intent, fn HandlerFunc) {
	r.handlers[in] = fn
}

// Handle invokes the handler registered for the intent. A missing handler is
// an error result, not a panic: the router surfaces it as answer content.
func (r *Registry) Handle(ctx context.Context, in intent.Intent, params map[string]any, tenantID string) Result {
	fn, ok := r.handlers[in]
	if !ok {
		r.logger.Warn("no live-data handler registered", "intent", in)
		return Result{
			Success: false,
			Err:     fmt.Sprintf("no handler configured for %s", in),
		}
	}

	result := fn(ctx, in, params, tenantID)
	r.logger.Debug("live-data query handled",
		"intent", in,
		"tenant_id", tenantID,
		"success", result.Success)
	return result
}
