// Package app wires configuration, clients, and services into one
// application instance.
package app

import (
	"context"
	"fmt"

	"github.com/cmorling/stockpilot/internal/clients/gemini"
	"github.com/cmorling/stockpilot/internal/clients/ollama"
	"github.com/cmorling/stockpilot/internal/clients/stooq"
	"github.com/cmorling/stockpilot/internal/clients/yahoo"
	"github.com/cmorling/stockpilot/internal/common"
	"github.com/cmorling/stockpilot/internal/interfaces"
	"github.com/cmorling/stockpilot/internal/services/analysis"
	"github.com/cmorling/stockpilot/internal/services/collector"
	"github.com/cmorling/stockpilot/internal/services/pipeline"
	"github.com/cmorling/stockpilot/internal/services/visualization"
	"github.com/cmorling/stockpilot/internal/storage/cachefs"
)

// App holds all application state and services.
type App struct {
	Config *common.Config
	Logger *common.Logger

	Cache         interfaces.ResponseCache
	Collector     interfaces.CollectorService
	Analysis      interfaces.AnalysisEngine
	Visualization interfaces.VisualizationService
	Pipeline      interfaces.PipelineService
}

// NewApp creates the application from a config file path. An empty path
// falls back to defaults plus environment overrides.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	cache, err := cachefs.NewStore(logger, config.Cache.Path, config.Cache.GetTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize response cache: %w", err)
	}

	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
		yahoo.WithLogger(logger),
	)
	stooqClient := stooq.NewClient(
		stooq.WithBaseURL(config.Clients.Stooq.BaseURL),
		stooq.WithRateLimit(config.Clients.Stooq.RateLimit),
		stooq.WithTimeout(config.Clients.Stooq.GetTimeout()),
		stooq.WithLogger(logger),
	)

	collectorService := collector.NewService(cache,
		[]interfaces.MarketProvider{yahooClient, stooqClient}, logger)

	narrator, err := newNarrativeClient(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	engineOpts := []analysis.Option{
		analysis.WithNarrativeTimeout(config.Narrative.GetTimeout()),
	}
	if narrator != nil {
		engineOpts = append(engineOpts, analysis.WithNarrativeClient(narrator))
	}
	analysisEngine := analysis.NewEngine(config.Analysis, logger, engineOpts...)

	visualizationService := visualization.NewService(logger)

	app := &App{
		Config:        config,
		Logger:        logger,
		Cache:         cache,
		Collector:     collectorService,
		Analysis:      analysisEngine,
		Visualization: visualizationService,
		Pipeline:      pipeline.NewService(collectorService, analysisEngine, visualizationService, logger),
	}

	logger.Info().
		Str("environment", config.Environment).
		Str("narrative_backend", config.Narrative.Backend).
		Str("cache_path", config.Cache.Path).
		Msg("Application initialized")

	return app, nil
}

// newNarrativeClient builds the configured LLM backend, or nil when the
// backend is "none". A missing Gemini key degrades to no backend rather
// than failing startup, since the narrative is best-effort.
func newNarrativeClient(ctx context.Context, config *common.Config, logger *common.Logger) (interfaces.NarrativeClient, error) {
	switch config.Narrative.Backend {
	case "", "none":
		return nil, nil
	case "ollama":
		return ollama.NewClient(
			ollama.WithHost(config.Narrative.Ollama.Host),
			ollama.WithModel(config.Narrative.Ollama.Model),
			ollama.WithTimeout(config.Narrative.GetTimeout()),
			ollama.WithLogger(logger),
		), nil
	case "gemini":
		apiKey, err := common.ResolveAPIKey("gemini_api_key", config.Narrative.Gemini.APIKey)
		if err != nil {
			logger.Warn().Err(err).Msg("Gemini backend configured without API key, narrative disabled")
			return nil, nil
		}
		client, err := gemini.NewClient(ctx, apiKey,
			gemini.WithModel(config.Narrative.Gemini.Model),
			gemini.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown narrative backend %q", config.Narrative.Backend)
	}
}
