// Package app wires the application together: configuration, logging,
// database, the Genkit providers and the router. Setup builds the whole
// graph; Close releases it in reverse order.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opspilot/opspilot/internal/config"
	"github.com/opspilot/opspilot/internal/intent"
	"github.com/opspilot/opspilot/internal/knowledge"
	"github.com/opspilot/opspilot/internal/livedata"
	"github.com/opspilot/opspilot/internal/log"
	"github.com/opspilot/opspilot/internal/router"
	"github.com/opspilot/opspilot/internal/tenant"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	// Core services
	Genkit     *genkit.Genkit
	Embedder   ai.Embedder
	DBPool     *pgxpool.Pool
	Knowledge  *knowledge.Store
	Companies  *tenant.Store
	Classifier *intent.Classifier
	LiveData   *livedata.Registry
	Router     *router.Router

	otelCleanup func()
	dbCleanup   func()
}

// Option customizes Setup.
type Option func(*options)

type options struct {
	handlers map[intent.Intent]livedata.HandlerFunc
}

// WithLiveDataHandler registers a live-data handler for an intent. The host
// application supplies one per live-data intent it supports; unhandled
// intents answer with an error message rather than failing the request.
func WithLiveDataHandler(in intent.Intent, fn livedata.HandlerFunc) Option {
	return func(o *options) {
		if o.handlers == nil {
			o.handlers = make(map[intent.Intent]livedata.HandlerFunc)
		}
		o.handlers[in] = fn
	}
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.dbCleanup != nil {
		a.dbCleanup()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return nil
}
