package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/core/tracing"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/opspilot/opspilot/db"
	"github.com/opspilot/opspilot/internal/config"
	"github.com/opspilot/opspilot/internal/intent"
	"github.com/opspilot/opspilot/internal/knowledge"
	"github.com/opspilot/opspilot/internal/livedata"
	"github.com/opspilot/opspilot/internal/log"
	"github.com/opspilot/opspilot/internal/model"
	"github.com/opspilot/opspilot/internal/respond"
	"github.com/opspilot/opspilot/internal/router"
	"github.com/opspilot/opspilot/internal/tenant"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, opts ...Option) (_ *App, retErr error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := log.New(log.Config{Level: level, JSON: cfg.LogJSON})
	a := &App{Config: cfg, Logger: logger}

	// On error, release everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	pool, dbCleanup, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	g, err := provideGenkit(ctx, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	a.Embedder = googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if a.Embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	embedder, err := model.NewEmbedder(a.Embedder)
	if err != nil {
		return nil, err
	}
	a.Knowledge = knowledge.New(knowledge.NewPostgresQuerier(pool), embedder, logger)

	client, err := model.NewClient(g, model.Config{
		ModelName:   cfg.ModelName,
		Temperature: cfg.RespondTemperature,
	})
	if err != nil {
		return nil, err
	}

	a.Classifier = intent.NewClassifier(client, logger)
	a.Companies = tenant.NewStore(pool, logger)

	a.LiveData = livedata.NewRegistry(logger)
	for in, fn := range o.handlers {
		a.LiveData.Register(in, fn)
	}

	streamer := respond.NewStreamer(client, cfg.SystemPrompt, cfg.RespondTemperature, logger)
	a.Router = router.New(a.Knowledge, streamer, a.LiveData, a.Companies, router.Config{
		TopK:      cfg.TopK,
		Streaming: cfg.Streaming,
	}, logger)

	return a, nil
}

// provideOtelShutdown exports traces over OTLP HTTP when an endpoint is
// configured. Must run before provideGenkit so the span processor is
// registered on the TracerProvider Genkit uses.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	if cfg.OTLPEndpoint == "" {
		return func() {}
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("creating OTLP exporter, tracing disabled", "error", err)
		return func() {}
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)
	logger.Debug("OTLP tracing enabled", "endpoint", cfg.OTLPEndpoint)

	shutdown := tracing.TracerProvider().Shutdown
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideGenkit initializes Genkit with the Google AI plugin. GEMINI_API_KEY
// is read by the plugin directly; config validation already checked it.
func provideGenkit(ctx context.Context, logger log.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit")
	}
	logger.Info("initialized Genkit with googleai provider")
	return g, nil
}

// provideDBPool runs migrations and creates the PostgreSQL connection pool.
// The startup ping is fail-fast: a broken database is a configuration error,
// not something to limp along without.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}
