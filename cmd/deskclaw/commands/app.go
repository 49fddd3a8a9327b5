// Package commands – app.go boots the application graph shared by the
// subcommands: config, logger, stores, model client, feature clients and
// the assistant itself.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/assistant"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/assistant/memory"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/assistant/safety"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/auth"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/config"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/features"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/llm"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/store"
)

// App holds the wired application graph for one CLI invocation.
type App struct {
	Cfg       *config.Config
	Logger    *slog.Logger
	Store     *store.Store
	Memory    *memory.SQLiteStore
	LLM       *llm.Client
	Assistant *assistant.Assistant
	Auth      *auth.Manager
}

// openApp loads config and wires every component. Feature clients with no
// API key still get constructed; they answer with a "not configured"
// message when used.
func openApp(cmd *cobra.Command) (*App, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	st, err := store.Open(cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	embedder := memory.NewEmbeddingProvider(cfg.Memory.Embeddings)
	mem, err := memory.NewSQLiteStore(cfg.Memory.Path, embedder, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("opening memory store: %w", err)
	}

	llmClient := llm.NewClient(cfg.LLM, logger)
	weather := features.NewWeatherClient(cfg.Weather, logger)
	search := features.NewSearchClient(cfg.Search.BaseURL)
	research := features.NewWebResearcher(mem, logger)

	caps := &assistant.Capabilities{
		Store:        st,
		LLM:          llmClient,
		Memory:       mem,
		Weather:      weather,
		News:         features.NewNewsClient(cfg.News.APIKey, cfg.News.BaseURL),
		Stock:        features.NewStockClient(cfg.Stocks.APIKey, cfg.Stocks.BaseURL),
		Search:       search,
		Research:     research,
		Images:       features.NewImageGenerator(cfg.Images),
		Trips:        features.NewTripPlanner(llmClient, weather, search, logger),
		Mailer:       features.NewMailer(cfg.Email),
		SystemPrompt: cfg.SystemPrompt,
	}

	asst := assistant.New(caps, assistant.Options{
		Logger:  logger,
		Filter:  safety.NewFilter(safety.NewLLMClassifier(llmClient), cfg.Safety.UnsafeThreshold, logger),
		Limiter: safety.NewRateLimiter(cfg.Safety.MaxRequests, cfg.Safety.Window()),
		Now:     time.Now,
	})

	return &App{
		Cfg:       cfg,
		Logger:    logger,
		Store:     st,
		Memory:    mem,
		LLM:       llmClient,
		Assistant: asst,
		Auth:      auth.NewManager(st, config.SessionPath(), logger),
	}, nil
}

// Close releases the databases.
func (a *App) Close() {
	if a.Memory != nil {
		a.Memory.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
}
