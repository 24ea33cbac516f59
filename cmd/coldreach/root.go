package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/amishk599/coldreach/internal/ai"
	"github.com/amishk599/coldreach/internal/config"
	"github.com/amishk599/coldreach/internal/embed"
	"github.com/amishk599/coldreach/internal/matcher"
	"github.com/amishk599/coldreach/internal/model"
	"github.com/amishk599/coldreach/internal/notifier"
	"github.com/amishk599/coldreach/internal/pipeline"
	"github.com/amishk599/coldreach/internal/portfolio"
	"github.com/amishk599/coldreach/internal/ratelimit"
	"github.com/amishk599/coldreach/internal/retry"
	"github.com/amishk599/coldreach/internal/scrape"
	"github.com/amishk599/coldreach/internal/store"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "coldreach",
	Short: "Turn a job posting into a cold outreach email",
	Long: "coldreach scrapes a job posting, extracts the role and skills with an LLM, " +
		"matches them against your portfolio and drafts a cold email.",
	// Default to `serve` so that `coldreach` with no args runs the HTTP service.
	RunE:         runServe,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: COLDREACH_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > COLDREACH_CONFIG env var > "./config.yaml".
// A .env file in the working directory is loaded first so ${VAR} references
// and key fallbacks can see it. A missing ./config.yaml means defaults.
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	explicit := true
	if path == "" {
		if env := os.Getenv("COLDREACH_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
			explicit = false
		}
	}

	cfg, err := config.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return config.Default()
	}
	return cfg, err
}

// setupLogger writes to stderr so `generate` can print the draft on stdout.
func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// mustLoad loads config and exits on failure, like every other startup error.
func mustLoad(logger *slog.Logger) *config.Config {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Debug("config loaded",
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"embedding_provider", cfg.Embedding.Provider,
		"store", cfg.Store.Path,
		"collection", cfg.Store.Collection,
	)
	return cfg
}

// setupProvider returns the configured LLM provider. Without a usable key it
// returns a provider that fails every run at the config stage, so the
// service still starts and reports the problem per request.
func setupProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) ai.Provider {
	if cfg.LLM.APIKey == "" {
		logger.Warn("llm api key is not set, every generation will fail at the config stage",
			"provider", cfg.LLM.Provider)
		return ai.NewUnconfiguredProvider()
	}

	switch cfg.LLM.Provider {
	case "gemini":
		p, err := ai.NewGeminiProvider(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			logger.Warn("gemini provider unavailable", "error", err)
			return ai.NewUnconfiguredProvider()
		}
		logger.Info("llm provider configured", "provider", "gemini", "model", cfg.LLM.Model)
		return p
	default:
		logger.Info("llm provider configured", "provider", "openai", "base_url", cfg.LLM.BaseURL, "model", cfg.LLM.Model)
		return ai.NewOpenAIProvider(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, &http.Client{Timeout: cfg.LLM.Timeout})
	}
}

// setupEmbedders returns the query-time embedder and the ingest embedder.
// Only the ingest path is retried and rate limited.
func setupEmbedders(ctx context.Context, cfg *config.Config, logger *slog.Logger) (embed.Embedder, embed.Embedder, error) {
	ec := cfg.Embedding
	httpClient := &http.Client{Timeout: ec.Timeout}

	var base embed.Embedder
	switch ec.Provider {
	case "ollama":
		base = embed.NewOllamaEmbedder(ec.BaseURL, ec.Model, httpClient)
	case "openai":
		base = embed.NewOpenAIEmbedder(ec.BaseURL, ec.APIKey, ec.Model, httpClient)
	case "gemini":
		g, err := embed.NewGeminiEmbedder(ctx, ec.APIKey, ec.Model)
		if err != nil {
			return nil, nil, err
		}
		base = g
	default:
		base = embed.NewHashEmbedder(0)
	}

	limiter := ratelimit.NewKeyedLimiter(ec.MinDelay)
	ingest := retry.NewEmbedder(
		ratelimit.NewEmbedder(base, limiter, ec.Provider),
		ec.MaxRetries, ec.RetryDelay, logger,
	)
	return base, ingest, nil
}

// openStore opens the portfolio collection and seeds it from the CSV when it
// is empty. Callers must Close the returned store.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.SQLiteStore, error) {
	query, ingest, err := setupEmbedders(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	s, err := store.Open(cfg.Store.Path, cfg.Store.Collection, query,
		store.WithIngestEmbedder(ingest),
		store.WithBatchSize(cfg.Embedding.BatchSize),
	)
	if err != nil {
		return nil, err
	}

	if _, err := portfolio.Bootstrap(ctx, s, portfolio.CSVSource(cfg.Portfolio.CSV), logger); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// setupNotifier returns where composed drafts are delivered, or nil for "none".
func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	case "none":
		return nil
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func buildOrchestrator(ctx context.Context, cfg *config.Config, s *store.SQLiteStore, logger *slog.Logger) *pipeline.Orchestrator {
	provider := setupProvider(ctx, cfg, logger)
	fetcher := scrape.NewFetcher(&http.Client{Timeout: cfg.Scrape.Timeout}, scrape.Options{
		UserAgent: cfg.Scrape.UserAgent,
		MaxBytes:  cfg.Scrape.MaxBytes,
	})
	persona := ai.Persona{
		Name:    cfg.Sender.Name,
		Role:    cfg.Sender.Role,
		Company: cfg.Sender.Company,
	}

	var opts []pipeline.Option
	if n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger); n != nil {
		opts = append(opts, pipeline.WithNotifier(n))
	}

	return pipeline.NewOrchestrator(
		provider,
		fetcher,
		ai.NewJobExtractor(provider, ai.ExtractJobTemplate, logger),
		matcher.NewLinkMatcher(s),
		ai.NewEmailComposer(provider, ai.ColdEmailTemplate, persona, logger),
		logger,
		opts...,
	)
}
