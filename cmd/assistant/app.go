package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/view-avocats/assistant/internal/config"
	"github.com/view-avocats/assistant/internal/db"
	"github.com/view-avocats/assistant/internal/db/memory"
	dbRedis "github.com/view-avocats/assistant/internal/db/redis"
	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/domain/chunk"
	logpkg "github.com/view-avocats/assistant/internal/logger"
	"github.com/view-avocats/assistant/internal/metrics"
	budgetrepo "github.com/view-avocats/assistant/internal/repository/budget"
	"github.com/view-avocats/assistant/internal/repository/embcache"
	"github.com/view-avocats/assistant/internal/repository/knowledge"
	anthropicChat "github.com/view-avocats/assistant/internal/transport/anthropic"
	openaiTransport "github.com/view-avocats/assistant/internal/transport/openai"
	embeddinguc "github.com/view-avocats/assistant/internal/usecase/embedding"
	"github.com/view-avocats/assistant/internal/usecase/responder"
	"github.com/view-avocats/assistant/internal/usecase/retrieval"
)

// app is the composition root shared by all commands.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
	store  db.Store

	budget      *embeddinguc.BudgetTracker
	embedder    domain.Embedder
	docEmbedder domain.Embedder
	embedHealth domain.HealthChecker
	chat        domain.ChatCompleter
	chatHealth  domain.HealthChecker
	retriever   *retrieval.Retriever
	responder   *responder.Service
}

func loadConfig(path string) (config.Config, string, error) {
	env := config.GetEnv()
	if path != "" {
		cfg, err := config.LoadFile(path)
		return cfg, env, err
	}
	cfg, err := config.Load(env)
	return cfg, env, err
}

// newApp loads configuration and wires every component except the HTTP layer.
func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, env, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	// Register metrics explicitly (no init())
	metrics.Register()

	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	a := &app{env: env, cfg: cfg, logger: logger, store: store}
	a.wireEmbedders(ctx)
	if err := a.wireChat(); err != nil {
		store.Close()
		return nil, err
	}

	// Pass nil interface (not typed nil pointer) when the knowledge base is disabled.
	var r responder.Retriever
	if cfg.Knowledge.Enabled {
		a.retriever = retrieval.NewRetriever(a.queryEmbedder(), logger)
		r = a.retriever
	}
	a.responder = responder.New(a.chat, r, responder.Config{
		SystemPrompt:       cfg.Chat.SystemPrompt,
		ContextInstruction: cfg.Chat.ContextInstruction,
		ErrorMessage:       cfg.Chat.FallbackMessage,
		TopK:               cfg.Knowledge.TopK,
	}, logger)

	return a, nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Addrs, Password: cfg.Password})
	case "memory":
		store = memory.NewStore()
	default:
		return nil, domain.NewConfigError("database.driver", "unknown driver "+cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.String("driver", cfg.Driver), zap.Strings("addrs", cfg.Addrs))
	return store, nil
}

// wireEmbedders assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
func (a *app) wireEmbedders(ctx context.Context) {
	ec := a.cfg.Embedding

	if ec.Budget.DailyTokenLimit > 0 || ec.Budget.MonthlyTokenLimit > 0 {
		a.budget = embeddinguc.NewBudgetTracker(embeddinguc.BudgetConfig{
			Provider:     ec.Provider,
			DailyLimit:   ec.Budget.DailyTokenLimit,
			MonthlyLimit: ec.Budget.MonthlyTokenLimit,
			Action:       embeddinguc.BudgetAction(ec.Budget.Action),
		}, a.logger).WithStore(ctx, budgetrepo.New(a.store))
	}

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Timeout:    time.Duration(ec.TimeoutSec) * time.Second,
		Logger:     a.logger,
	})
	a.embedHealth = base

	cached := embcache.New(base, a.store, embcache.Options{
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Endpoint:   cacheEndpoint(ec.Provider, ec.BaseURL),
		TTL:        time.Duration(ec.CacheTTLSec) * time.Second,
	}, metrics.EmbeddingCacheLookups, a.logger)

	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var budget embeddinguc.BudgetChecker
	if a.budget != nil {
		budget = a.budget
	}
	instrumented := embeddinguc.NewInstrumentedEmbedder(cached, ec.Provider, ec.Model, budget, a.logger).
		WithMaxBatch(ec.MaxBatch)

	a.embedder = instrumented
	a.docEmbedder = withInstruction(instrumented, ec.DocumentInstruction)
	a.logger.Info("Embedders created",
		zap.String("provider", ec.Provider),
		zap.String("model", ec.Model),
		zap.Int("dimensions", ec.Dimensions),
	)
}

// cacheEndpoint names the embedding backend for cache scoping.
func cacheEndpoint(provider, baseURL string) string {
	if baseURL == "" {
		return provider
	}
	return provider + "@" + baseURL
}

func (a *app) queryEmbedder() domain.Embedder {
	return withInstruction(a.embedder, a.cfg.Embedding.QueryInstruction)
}

func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}

func (a *app) wireChat() error {
	cc := a.cfg.Chat
	timeout := time.Duration(cc.TimeoutSec) * time.Second

	switch cc.Provider {
	case "anthropic":
		c, err := anthropicChat.NewChatCompleter(anthropicChat.Config{
			APIKey:      cc.APIKey,
			BaseURL:     cc.BaseURL,
			Model:       cc.Model,
			Temperature: *cc.Temperature,
			MaxTokens:   cc.MaxTokens,
			Timeout:     timeout,
			Logger:      a.logger,
		})
		if err != nil {
			return err
		}
		a.chat, a.chatHealth = c, c
	default:
		c := openaiTransport.NewChatCompleter(&openaiTransport.ChatConfig{
			Config: openaiTransport.Config{
				APIKey:   cc.APIKey,
				BaseURL:  cc.BaseURL,
				Model:    cc.Model,
				Provider: cc.Provider,
				Timeout:  timeout,
				Logger:   a.logger,
			},
			Temperature: float32(*cc.Temperature),
			MaxTokens:   cc.MaxTokens,
		})
		a.chat, a.chatHealth = c, c
	}
	a.logger.Info("Chat completer created", zap.String("provider", cc.Provider), zap.String("model", cc.Model))
	return nil
}

// loadKnowledgeIfEnabled returns nil chunks when the knowledge base is off.
func (a *app) loadKnowledgeIfEnabled() ([]chunk.Chunk, error) {
	if !a.cfg.Knowledge.Enabled {
		return nil, nil
	}
	return a.loadKnowledge()
}

// loadKnowledge reads and chunks the knowledge file. A missing file is a ConfigError.
func (a *app) loadKnowledge() ([]chunk.Chunk, error) {
	kc := a.cfg.Knowledge
	src, err := knowledge.Load(kc.Path)
	if err != nil {
		return nil, fmt.Errorf("load knowledge: %w", err)
	}
	chunks, err := chunk.Split(src.Text, kc.ChunkSize, kc.Overlap())
	if err != nil {
		return nil, fmt.Errorf("chunk knowledge: %w", err)
	}
	a.logger.Info("Knowledge loaded",
		zap.String("path", src.Path),
		zap.String("format", string(src.Format)),
		zap.Int("chunks", len(chunks)),
	)
	return chunks, nil
}

// buildIndex embeds chunks and publishes the index.
func (a *app) buildIndex(ctx context.Context, chunks []chunk.Chunk) error {
	start := time.Now()
	idx, err := retrieval.Build(ctx, a.docEmbedder, chunks, retrieval.BuildOptions{
		BatchSize:   a.cfg.Knowledge.BatchSize,
		Concurrency: a.cfg.Knowledge.BuildConcurrency,
	})
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	metrics.IndexBuildDuration.Set(time.Since(start).Seconds())
	a.retriever.Publish(idx)
	return nil
}

func (a *app) close() {
	a.store.Close()
	_ = a.logger.Sync()
}
